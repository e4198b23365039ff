package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/freight-etl/internal/domain"
	"github.com/kursadbilgin/freight-etl/internal/metrics"
	"github.com/kursadbilgin/freight-etl/internal/notifier"
	"github.com/kursadbilgin/freight-etl/internal/observability"
	"github.com/kursadbilgin/freight-etl/internal/reader"
	"github.com/kursadbilgin/freight-etl/internal/storage"
	"github.com/kursadbilgin/freight-etl/internal/validation"
	"go.uber.org/zap"
)

// ETLService orchestrates one pipeline run: extract, shape-validate,
// derive, business-validate, load, report. Notifier and recorder are
// optional; their absence is not an error and their failures never
// abort a run.
type ETLService struct {
	source   reader.RowSource
	sink     storage.Sink
	engine   *validation.Engine
	notifier notifier.Notifier
	recorder metrics.Recorder
	logger   *zap.Logger
}

func NewETLService(
	source reader.RowSource,
	sink storage.Sink,
	engine *validation.Engine,
	notif notifier.Notifier,
	recorder metrics.Recorder,
	logger *zap.Logger,
) (*ETLService, error) {
	if source == nil {
		return nil, fmt.Errorf("row source is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("storage sink is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("validation engine is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ETLService{
		source:   source,
		sink:     sink,
		engine:   engine,
		notifier: notif,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// ProcessShipments runs the whole pipeline for one bounded batch. The
// run succeeds when extraction and load both complete; rejected rows
// alone never fail it. The returned run always carries final counts
// and the accumulated row errors, even on fatal failure.
func (s *ETLService) ProcessShipments(ctx context.Context, source, destination string) (*domain.PipelineRun, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now().UTC()
	run := &domain.PipelineRun{
		ID:          uuid.NewString(),
		Source:      source,
		Destination: destination,
		StartedAt:   start,
	}
	ctx = observability.WithRunID(ctx, run.ID)
	logger := observability.WithContextLogger(s.logger, ctx)

	logger.Info("pipeline run started",
		zap.String("source", source),
		zap.String("destination", destination),
	)

	rows, err := s.source.Extract(ctx, source)
	if err != nil {
		if !errors.Is(err, domain.ErrExtraction) {
			err = fmt.Errorf("%w: %v", domain.ErrExtraction, err)
		}
		return s.finishFatal(ctx, run, start, err, "extraction failed")
	}
	run.TotalRows = len(rows)

	shape := s.engine.ValidateShape(rows)
	rowErrors := append([]domain.RowError(nil), shape.Errors...)

	derived := make([]validation.IndexedShipment, 0, len(shape.Accepted))
	for _, item := range shape.Accepted {
		shipment, err := domain.NewShipment(item.Row)
		if err != nil {
			rowErrors = append(rowErrors, domain.RowError{
				Row:    item.Index,
				Tier:   domain.TierDerivation,
				Reason: err.Error(),
				Raw:    item.Row.Clone(),
			})
			continue
		}
		derived = append(derived, validation.IndexedShipment{Index: item.Index, Shipment: shipment, Raw: item.Row})
	}

	business := s.engine.ValidateShipments(derived)
	rowErrors = append(rowErrors, business.Errors...)

	// A row fails in at most one stage, so sorting by position alone
	// restores input order across the combined error set.
	sort.SliceStable(rowErrors, func(i, j int) bool { return rowErrors[i].Row < rowErrors[j].Row })

	for _, rowErr := range rowErrors {
		logger.Debug("row rejected", zap.Error(rowErr.Err()))
	}

	valid := business.Valid
	run.ValidCount = len(valid)
	run.ErrorCount = len(rowErrors)
	run.Errors = rowErrors

	logger.Info("batch validated",
		zap.Int("total", run.TotalRows),
		zap.Int("valid", run.ValidCount),
		zap.Int("rejected", run.ErrorCount),
	)

	bm := domain.ComputeBusinessMetrics(valid)

	if err := s.sink.Save(ctx, valid, destination); err != nil {
		if !errors.Is(err, domain.ErrLoad) {
			err = fmt.Errorf("%w: %v", domain.ErrLoad, err)
		}
		return s.finishFatal(ctx, run, start, err, "load failed")
	}

	run.Success = true
	run.Duration = time.Since(start)

	s.report(ctx, logger, run, bm)

	logger.Info("pipeline run finished",
		zap.Bool("success", run.Success),
		zap.Duration("duration", run.Duration),
	)

	return run, nil
}

// finishFatal closes out a run that died in extract or load: final
// duration, best-effort metrics and a single error notification, then
// the error back to the caller.
func (s *ETLService) finishFatal(ctx context.Context, run *domain.PipelineRun, start time.Time, err error, message string) (*domain.PipelineRun, error) {
	run.Success = false
	run.Duration = time.Since(start)

	logger := s.logger.With(zap.String("runId", run.ID))
	logger.Error(message, zap.Error(err))

	s.recordRun(ctx, logger, run)
	s.notify(ctx, logger, notifier.LevelError, message, map[string]any{
		"run_id":      run.ID,
		"source":      run.Source,
		"destination": run.Destination,
		"error":       err.Error(),
	})

	return run, err
}

func (s *ETLService) report(ctx context.Context, logger *zap.Logger, run *domain.PipelineRun, bm domain.BusinessMetrics) {
	s.recordRun(ctx, logger, run)
	if s.recorder != nil {
		if err := s.recorder.RecordBusinessMetrics(ctx, run.ID, bm); err != nil {
			logger.Warn("failed to record business metrics", zap.Error(err))
		}
	}

	details := map[string]any{
		"run_id":      run.ID,
		"source":      run.Source,
		"destination": run.Destination,
		"total_rows":  run.TotalRows,
		"valid_rows":  run.ValidCount,
		"error_rows":  run.ErrorCount,
		"duration":    run.Duration.String(),
	}

	if run.PartialSuccess() {
		s.notify(ctx, logger, notifier.LevelWarning,
			fmt.Sprintf("pipeline run completed with %d rejected rows", run.ErrorCount), details)
		return
	}
	s.notify(ctx, logger, notifier.LevelSuccess, "pipeline run completed", details)
}

func (s *ETLService) recordRun(ctx context.Context, logger *zap.Logger, run *domain.PipelineRun) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordRun(ctx, run); err != nil {
		logger.Warn("failed to record run metrics", zap.Error(err))
	}
}

func (s *ETLService) notify(ctx context.Context, logger *zap.Logger, level notifier.Level, message string, details map[string]any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, level, message, details); err != nil {
		logger.Warn("failed to deliver notification",
			zap.String("level", level.String()),
			zap.Error(err),
		)
	}
}
