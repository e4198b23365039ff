package metrics

import (
	"context"
	"net/http"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports pipeline counters on a private registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	rowsProcessedTotal prometheus.Counter
	rowsValidTotal     prometheus.Counter
	rowsRejectedTotal  prometheus.Counter
	runDuration        prometheus.Histogram

	profitabilityRate prometheus.Gauge
	delayedRate       prometheus.Gauge
	totalProfit       prometheus.Gauge
}

func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	r := &PrometheusRecorder{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "freight_etl",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by result.",
			},
			[]string{"result"},
		),
		rowsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freight_etl",
			Name:      "rows_processed_total",
			Help:      "Total number of raw rows extracted across runs.",
		}),
		rowsValidTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freight_etl",
			Name:      "rows_valid_total",
			Help:      "Total number of rows that passed both validation tiers.",
		}),
		rowsRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freight_etl",
			Name:      "rows_rejected_total",
			Help:      "Total number of rows rejected by shape, derivation, or business checks.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "freight_etl",
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline run duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		profitabilityRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "freight_etl",
			Name:      "batch_profitability_rate",
			Help:      "Share of profitable shipments in the last validated batch (percent).",
		}),
		delayedRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "freight_etl",
			Name:      "batch_delayed_rate",
			Help:      "Share of delayed shipments in the last validated batch (percent).",
		}),
		totalProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "freight_etl",
			Name:      "batch_total_profit",
			Help:      "Total profit of the last validated batch in currency units.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.runsTotal,
		r.rowsProcessedTotal,
		r.rowsValidTotal,
		r.rowsRejectedTotal,
		r.runDuration,
		r.profitabilityRate,
		r.delayedRate,
		r.totalProfit,
	)

	return r
}

func (r *PrometheusRecorder) Handler() http.Handler {
	if r == nil || r.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *PrometheusRecorder) RecordRun(_ context.Context, run *domain.PipelineRun) error {
	if r == nil || run == nil {
		return nil
	}

	result := "failure"
	if run.Success {
		result = "success"
		if run.ErrorCount > 0 {
			result = "partial"
		}
	}

	r.runsTotal.WithLabelValues(result).Inc()
	r.rowsProcessedTotal.Add(float64(run.TotalRows))
	r.rowsValidTotal.Add(float64(run.ValidCount))
	r.rowsRejectedTotal.Add(float64(run.ErrorCount))
	r.runDuration.Observe(run.Duration.Seconds())

	return nil
}

func (r *PrometheusRecorder) RecordBusinessMetrics(_ context.Context, _ string, bm domain.BusinessMetrics) error {
	if r == nil {
		return nil
	}

	r.profitabilityRate.Set(bm.ProfitabilityRate)
	r.delayedRate.Set(bm.DelayedRate)
	r.totalProfit.Set(bm.TotalProfit)

	return nil
}
