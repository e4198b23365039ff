package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/kursadbilgin/freight-etl/internal/config"
	"github.com/kursadbilgin/freight-etl/internal/domain"
	"github.com/kursadbilgin/freight-etl/internal/infra/postgresql"
	"github.com/kursadbilgin/freight-etl/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/freight-etl/internal/infra/redis"
	"github.com/kursadbilgin/freight-etl/internal/metrics"
	"github.com/kursadbilgin/freight-etl/internal/notifier"
	"github.com/kursadbilgin/freight-etl/internal/observability"
	"github.com/kursadbilgin/freight-etl/internal/reader"
	"github.com/kursadbilgin/freight-etl/internal/service"
	"github.com/kursadbilgin/freight-etl/internal/storage"
	"github.com/kursadbilgin/freight-etl/internal/validation"
	"go.uber.org/zap"
)

func main() {
	sourceFlag := flag.String("source", "", "path to the source file (csv or xlsx); overrides SOURCE_PATH")
	destFlag := flag.String("dest", "", "destination container; overrides DESTINATION_CONTAINER")
	flag.Parse()

	// run owns every deferred cleanup (lock release, connection close,
	// log flush); the exit code is chosen only after they complete.
	if err := run(*sourceFlag, *destFlag); err != nil {
		os.Exit(1)
	}
}

func run(sourceFlag, destFlag string) error {
	cfg, err := config.Load()
	if err != nil {
		log.Print("failed to load config: ", err)
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Print("failed to initialize logger: ", err)
		return err
	}
	defer logger.Sync() //nolint:errcheck

	source := cfg.SourcePath
	if sourceFlag != "" {
		source = sourceFlag
	}
	if source == "" {
		logger.Error("no source file given; set SOURCE_PATH or pass -source")
		return fmt.Errorf("no source file given")
	}
	destination := cfg.DestinationContainer
	if destFlag != "" {
		destination = destFlag
	}

	rowSource, err := reader.ForPath(source, logger)
	if err != nil {
		logger.Error("unsupported source", zap.Error(err))
		return err
	}

	schema := validation.DefaultSchema()
	if cfg.SchemaPath != "" {
		schema, err = validation.LoadSchema(cfg.SchemaPath)
		if err != nil {
			logger.Error("failed to load schema", zap.Error(err))
			return err
		}
	}
	engine, err := validation.NewEngine(schema, logger)
	if err != nil {
		logger.Error("failed to build validation engine", zap.Error(err))
		return err
	}

	store, err := storage.NewFilesystemStore(cfg.StorageRoot)
	if err != nil {
		logger.Error("failed to initialize object store", zap.Error(err))
		return err
	}
	encoder, err := storage.NewEncoder(storage.Format(cfg.OutputFormat))
	if err != nil {
		logger.Error("invalid output format", zap.Error(err))
		return err
	}
	sink, err := storage.NewBatchSink(store, encoder, cfg.StoragePrefix, logger)
	if err != nil {
		logger.Error("failed to initialize sink", zap.Error(err))
		return err
	}

	sinks := []notifier.Notifier{notifier.NewConsoleNotifier(logger)}
	if cfg.WebhookURL != "" {
		webhook, err := notifier.NewWebhookNotifier(cfg.WebhookURL)
		if err != nil {
			logger.Error("failed to initialize webhook notifier", zap.Error(err))
			return err
		}
		sinks = append(sinks, webhook)
	}

	prom := metrics.NewPrometheusRecorder()
	recorders := []metrics.Recorder{prom}
	if cfg.DatabaseDSN != "" {
		db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Error("postgres initialization failed", zap.Error(err))
			return err
		}
		if err := migrations.Migrate(db); err != nil {
			logger.Error("database migrations failed", zap.Error(err))
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Error("postgres underlying db init failed", zap.Error(err))
			return err
		}
		defer sqlDB.Close() //nolint:errcheck

		history, err := metrics.NewPostgresRecorder(db)
		if err != nil {
			logger.Error("failed to initialize run history recorder", zap.Error(err))
			return err
		}
		recorders = append(recorders, history)
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	ctx := context.Background()

	if cfg.RedisURL != "" {
		rdb, err := infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Error("redis initialization failed", zap.Error(err))
			return err
		}
		defer rdb.Close() //nolint:errcheck

		lock, err := infraredis.NewRunLock(rdb, 0)
		if err != nil {
			logger.Error("failed to initialize run lock", zap.Error(err))
			return err
		}
		token, acquired, err := lock.Acquire(ctx, destination)
		if err != nil {
			logger.Error("failed to acquire run lock", zap.Error(err))
			return err
		}
		if !acquired {
			logger.Error("another run holds the destination lock", zap.String("destination", destination))
			return fmt.Errorf("destination %s is locked by another run", destination)
		}
		defer func() {
			if err := lock.Release(ctx, destination, token); err != nil {
				logger.Warn("failed to release run lock", zap.Error(err))
			}
		}()
	}

	etl, err := service.NewETLService(rowSource, sink, engine, notifier.Fanout(sinks...), metrics.Multi(recorders...), logger)
	if err != nil {
		logger.Error("failed to build etl service", zap.Error(err))
		return err
	}

	run, err := etl.ProcessShipments(ctx, source, destination)
	if err != nil {
		logger.Error("pipeline run failed",
			zap.Bool("fatal", domain.IsFatal(err)),
			zap.Error(err),
		)
		return err
	}

	logger.Info("done",
		zap.String("runId", run.ID),
		zap.Int("totalRows", run.TotalRows),
		zap.Int("validRows", run.ValidCount),
		zap.Int("rejectedRows", run.ErrorCount),
		zap.Duration("duration", run.Duration),
	)
	return nil
}
