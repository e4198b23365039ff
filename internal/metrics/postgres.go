package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"gorm.io/gorm"
)

// PipelineRunModel is the persistence shape of a run summary.
type PipelineRunModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Source      string `gorm:"type:text;not null"`
	Destination string `gorm:"type:text;not null"`
	TotalRows   int    `gorm:"not null"`
	ValidCount  int    `gorm:"not null"`
	ErrorCount  int    `gorm:"not null"`
	Success     bool   `gorm:"not null"`
	DurationMS  int64  `gorm:"not null"`
	StartedAt   time.Time
	CreatedAt   time.Time
}

func (PipelineRunModel) TableName() string { return "pipeline_runs" }

// BusinessMetricsModel persists the batch aggregates of one run.
type BusinessMetricsModel struct {
	RunID               string `gorm:"type:uuid;primaryKey"`
	TotalShipments      int    `gorm:"not null"`
	ProfitableShipments int    `gorm:"not null"`
	HighMarginShipments int    `gorm:"not null"`
	DelayedShipments    int    `gorm:"not null"`
	TotalRevenue        float64
	TotalCost           float64
	TotalProfit         float64
	AvgProfitMargin     float64
	AvgDurationDays     float64
	CreatedAt           time.Time
}

func (BusinessMetricsModel) TableName() string { return "business_metrics" }

// PostgresRecorder keeps run history in Postgres so operators can
// query past runs; the core never reads it back.
type PostgresRecorder struct {
	db *gorm.DB
}

func NewPostgresRecorder(db *gorm.DB) (*PostgresRecorder, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &PostgresRecorder{db: db}, nil
}

func (r *PostgresRecorder) RecordRun(ctx context.Context, run *domain.PipelineRun) error {
	if run == nil {
		return nil
	}

	model := PipelineRunModel{
		ID:          run.ID,
		Source:      run.Source,
		Destination: run.Destination,
		TotalRows:   run.TotalRows,
		ValidCount:  run.ValidCount,
		ErrorCount:  run.ErrorCount,
		Success:     run.Success,
		DurationMS:  run.Duration.Milliseconds(),
		StartedAt:   run.StartedAt,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to persist pipeline run: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) RecordBusinessMetrics(ctx context.Context, runID string, bm domain.BusinessMetrics) error {
	model := BusinessMetricsModel{
		RunID:               runID,
		TotalShipments:      bm.TotalShipments,
		ProfitableShipments: bm.ProfitableShipments,
		HighMarginShipments: bm.HighMarginShipments,
		DelayedShipments:    bm.DelayedShipments,
		TotalRevenue:        bm.TotalRevenue,
		TotalCost:           bm.TotalCost,
		TotalProfit:         bm.TotalProfit,
		AvgProfitMargin:     bm.AvgProfitMargin,
		AvgDurationDays:     bm.AvgDurationDays,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to persist business metrics: %w", err)
	}
	return nil
}
