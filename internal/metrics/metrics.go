// Package metrics provides best-effort run metric sinks. Recording
// failures never abort a pipeline run.
package metrics

import (
	"context"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"go.uber.org/multierr"
)

// Recorder receives the summary of one pipeline run and the business
// aggregates of its valid batch.
type Recorder interface {
	RecordRun(ctx context.Context, run *domain.PipelineRun) error
	RecordBusinessMetrics(ctx context.Context, runID string, bm domain.BusinessMetrics) error
}

type multi struct {
	recorders []Recorder
}

// Multi fans a recording out to every sink, collecting errors instead
// of stopping at the first failure. Nil recorders are skipped.
func Multi(recorders ...Recorder) Recorder {
	filtered := make([]Recorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			filtered = append(filtered, r)
		}
	}
	return &multi{recorders: filtered}
}

func (m *multi) RecordRun(ctx context.Context, run *domain.PipelineRun) error {
	var err error
	for _, r := range m.recorders {
		err = multierr.Append(err, r.RecordRun(ctx, run))
	}
	return err
}

func (m *multi) RecordBusinessMetrics(ctx context.Context, runID string, bm domain.BusinessMetrics) error {
	var err error
	for _, r := range m.recorders {
		err = multierr.Append(err, r.RecordBusinessMetrics(ctx, runID, bm))
	}
	return err
}
