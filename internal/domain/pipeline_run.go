package domain

import "time"

// PipelineRun summarizes one orchestrator invocation. Transient: it
// lives for the duration of the run and is handed to metrics sinks,
// never persisted by the core itself.
type PipelineRun struct {
	ID          string
	Source      string
	Destination string
	TotalRows   int
	ValidCount  int
	ErrorCount  int
	Success     bool
	StartedAt   time.Time
	Duration    time.Duration
	Errors      []RowError
}

// PartialSuccess reports whether the run completed but rejected some
// rows. A partial success is a valid terminal state, not a failure.
func (r *PipelineRun) PartialSuccess() bool {
	return r.Success && r.ErrorCount > 0
}

// BusinessMetrics aggregates a validated batch for reporting.
type BusinessMetrics struct {
	TotalShipments      int
	ProfitableShipments int
	HighMarginShipments int
	DelayedShipments    int
	TotalRevenue        float64
	TotalCost           float64
	TotalProfit         float64
	ProfitabilityRate   float64
	HighMarginRate      float64
	DelayedRate         float64
	AvgProfitMargin     float64
	AvgDurationDays     float64
}

// ComputeBusinessMetrics reduces a valid batch to its aggregate
// metrics. Pure and deterministic; an empty batch yields zero values.
func ComputeBusinessMetrics(shipments []*Shipment) BusinessMetrics {
	var bm BusinessMetrics
	bm.TotalShipments = len(shipments)
	if bm.TotalShipments == 0 {
		return bm
	}

	var marginSum, durationSum float64
	for _, s := range shipments {
		if s.IsProfitable {
			bm.ProfitableShipments++
		}
		if s.IsHighMargin {
			bm.HighMarginShipments++
		}
		if s.IsDelayed {
			bm.DelayedShipments++
		}
		bm.TotalRevenue += s.Revenue
		bm.TotalCost += s.Cost
		marginSum += s.ProfitMargin
		durationSum += float64(s.ShippingDurationDays)
	}
	bm.TotalProfit = bm.TotalRevenue - bm.TotalCost

	total := float64(bm.TotalShipments)
	bm.ProfitabilityRate = float64(bm.ProfitableShipments) / total * 100
	bm.HighMarginRate = float64(bm.HighMarginShipments) / total * 100
	bm.DelayedRate = float64(bm.DelayedShipments) / total * 100
	bm.AvgProfitMargin = marginSum / total
	bm.AvgDurationDays = durationSum / total

	return bm
}
