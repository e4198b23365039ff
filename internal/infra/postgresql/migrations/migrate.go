package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/freight-etl/internal/metrics"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_pipeline_runs",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&metrics.PipelineRunModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_destination_created ON pipeline_runs (destination, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_success ON pipeline_runs (success, created_at)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&metrics.PipelineRunModel{})
			},
		},
		{
			ID: "000002_create_business_metrics",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&metrics.BusinessMetricsModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&metrics.BusinessMetricsModel{})
			},
		},
	})

	return m.Migrate()
}
