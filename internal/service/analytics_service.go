package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"go.uber.org/zap"
)

// Route performance thresholds used by opportunity detection.
const (
	lowMarginThreshold     = 10.0
	priceIncreaseMargin    = 30.0
	priceIncreaseMaxDays   = 20.0
	slowRouteThresholdDays = 45.0
	highPerformerMargin    = 25.0
	highPerformerMaxDays   = 30.0
	highPerformerMinVolume = 3

	// cost-reduction recommendations only pay off on routes with volume
	highVolumeShipments = 5
)

// RouteMetrics aggregates the shipments of one origin-destination
// pair.
type RouteMetrics struct {
	Route            string
	TotalShipments   int
	TotalRevenue     float64
	TotalCost        float64
	TotalProfit      float64
	AvgProfitMargin  float64
	AvgDurationDays  float64
	DelayedShipments int
}

// PeriodMetrics aggregates the shipments of one calendar bucket.
type PeriodMetrics struct {
	Shipments           int
	TotalRevenue        float64
	TotalCost           float64
	TotalProfit         float64
	AvgProfitMargin     float64
	ProfitableShipments int
	ProfitabilityRate   float64
}

// Trends groups temporal aggregates by month and by quarter.
type Trends struct {
	Monthly   map[string]*PeriodMetrics
	Quarterly map[string]*PeriodMetrics
}

// BusinessHealth scores a batch on a 0 to 100 scale.
type BusinessHealth struct {
	ProfitabilityScore float64
	EfficiencyScore    float64
	MarginQualityScore float64
	OverallScore       float64
}

// Recommendation is one prioritized optimization action.
type Recommendation struct {
	Priority    string
	Action      string
	Description string
	Impact      string
}

// BusinessInsights combines every analytics view of one batch into a
// single report.
type BusinessInsights struct {
	Health          BusinessHealth
	Routes          map[string]*RouteMetrics
	Trends          Trends
	Opportunities   Opportunities
	Recommendations []Recommendation
	KeyInsights     []string
}

// Opportunities lists routes worth operator attention.
type Opportunities struct {
	CostReductionRoutes     []RouteMetrics
	PriceIncreaseCandidates []RouteMetrics
	SlowRoutes              []RouteMetrics
	HighPerformers          []RouteMetrics
}

// AnalyticsService provides read-only aggregation over an
// already-validated batch. Pure grouping and reduction; inputs are
// never mutated.
type AnalyticsService struct {
	logger *zap.Logger
}

func NewAnalyticsService(logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{logger: logger}
}

// AnalyzeRoutes groups shipments by route and reduces each group to
// its totals and averages.
func (a *AnalyticsService) AnalyzeRoutes(shipments []*domain.Shipment) map[string]*RouteMetrics {
	routes := make(map[string]*RouteMetrics)
	durations := make(map[string]float64)
	margins := make(map[string]float64)

	for _, s := range shipments {
		route := s.Route()
		m, ok := routes[route]
		if !ok {
			m = &RouteMetrics{Route: route}
			routes[route] = m
		}
		m.TotalShipments++
		m.TotalRevenue += s.Revenue
		m.TotalCost += s.Cost
		m.TotalProfit += s.Profit
		if s.IsDelayed {
			m.DelayedShipments++
		}
		durations[route] += float64(s.ShippingDurationDays)
		margins[route] += s.ProfitMargin
	}

	for route, m := range routes {
		count := float64(m.TotalShipments)
		m.AvgProfitMargin = margins[route] / count
		m.AvgDurationDays = durations[route] / count
	}

	a.logger.Debug("routes analyzed",
		zap.Int("shipments", len(shipments)),
		zap.Int("routes", len(routes)),
	)

	return routes
}

// MostProfitableRoutes ranks routes by total profit. Ties break by
// shipment volume, then route name ascending, so the ranking is
// deterministic.
func (a *AnalyticsService) MostProfitableRoutes(shipments []*domain.Shipment, limit int) []RouteMetrics {
	routes := a.AnalyzeRoutes(shipments)

	ranked := make([]RouteMetrics, 0, len(routes))
	for _, m := range routes {
		ranked = append(ranked, *m)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalProfit != ranked[j].TotalProfit {
			return ranked[i].TotalProfit > ranked[j].TotalProfit
		}
		if ranked[i].TotalShipments != ranked[j].TotalShipments {
			return ranked[i].TotalShipments > ranked[j].TotalShipments
		}
		return ranked[i].Route < ranked[j].Route
	})

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

// AverageDurationByRoute returns the mean shipping duration per route
// in days.
func (a *AnalyticsService) AverageDurationByRoute(shipments []*domain.Shipment) map[string]float64 {
	out := make(map[string]float64)
	for route, m := range a.AnalyzeRoutes(shipments) {
		out[route] = m.AvgDurationDays
	}
	return out
}

// DelayRateByRoute returns the share of delayed shipments per route
// in percent.
func (a *AnalyticsService) DelayRateByRoute(shipments []*domain.Shipment) map[string]float64 {
	out := make(map[string]float64)
	for route, m := range a.AnalyzeRoutes(shipments) {
		out[route] = float64(m.DelayedShipments) / float64(m.TotalShipments) * 100
	}
	return out
}

// TemporalTrends buckets shipments by month ("2024-01") and quarter
// ("2024-Q1") of the shipping date.
func (a *AnalyticsService) TemporalTrends(shipments []*domain.Shipment) Trends {
	trends := Trends{
		Monthly:   make(map[string]*PeriodMetrics),
		Quarterly: make(map[string]*PeriodMetrics),
	}

	for _, s := range shipments {
		monthKey := fmt.Sprintf("%d-%02d", s.Year, s.Month)
		quarterKey := fmt.Sprintf("%d-Q%d", s.Year, s.Quarter)
		addToPeriod(trends.Monthly, monthKey, s)
		addToPeriod(trends.Quarterly, quarterKey, s)
	}

	finalizePeriods(trends.Monthly)
	finalizePeriods(trends.Quarterly)

	return trends
}

func addToPeriod(periods map[string]*PeriodMetrics, key string, s *domain.Shipment) {
	m, ok := periods[key]
	if !ok {
		m = &PeriodMetrics{}
		periods[key] = m
	}
	m.Shipments++
	m.TotalRevenue += s.Revenue
	m.TotalCost += s.Cost
	m.TotalProfit += s.Profit
	if s.IsProfitable {
		m.ProfitableShipments++
	}
}

func finalizePeriods(periods map[string]*PeriodMetrics) {
	for _, m := range periods {
		if m.TotalRevenue > 0 {
			m.AvgProfitMargin = m.TotalProfit / m.TotalRevenue * 100
		}
		m.ProfitabilityRate = float64(m.ProfitableShipments) / float64(m.Shipments) * 100
	}
}

// GenerateBusinessInsights reduces a batch to the full analytics
// report: health scores, per-route and temporal aggregates, flagged
// opportunities with prioritized recommendations, and a plain-text
// summary.
func (a *AnalyticsService) GenerateBusinessInsights(shipments []*domain.Shipment) BusinessInsights {
	routes := a.AnalyzeRoutes(shipments)

	insights := BusinessInsights{
		Health:        batchHealth(shipments),
		Routes:        routes,
		Trends:        a.TemporalTrends(shipments),
		Opportunities: a.OptimizationOpportunities(shipments),
	}
	insights.Recommendations = prioritizeRecommendations(insights.Opportunities)
	insights.KeyInsights = keyInsights(routes, insights.Health)

	a.logger.Info("business insights generated",
		zap.Int("shipments", len(shipments)),
		zap.Int("recommendations", len(insights.Recommendations)),
	)

	return insights
}

func batchHealth(shipments []*domain.Shipment) BusinessHealth {
	var health BusinessHealth
	total := float64(len(shipments))
	if total == 0 {
		return health
	}

	var profitable, highMargin, delayed float64
	for _, s := range shipments {
		if s.IsProfitable {
			profitable++
		}
		if s.IsHighMargin {
			highMargin++
		}
		if s.IsDelayed {
			delayed++
		}
	}

	health.ProfitabilityScore = round2(profitable / total * 100)
	health.EfficiencyScore = round2((total - delayed) / total * 100)
	health.MarginQualityScore = round2(highMargin / total * 100)
	health.OverallScore = round2(
		health.ProfitabilityScore*0.4 +
			health.EfficiencyScore*0.3 +
			health.MarginQualityScore*0.3)

	return health
}

func prioritizeRecommendations(opps Opportunities) []Recommendation {
	var recs []Recommendation

	highVolume := 0
	for _, r := range opps.CostReductionRoutes {
		if r.TotalShipments >= highVolumeShipments {
			highVolume++
		}
	}
	if highVolume > 0 {
		recs = append(recs, Recommendation{
			Priority:    "HIGH",
			Action:      "cost reduction",
			Description: fmt.Sprintf("focus on %d high-volume, low-margin routes", highVolume),
			Impact:      "high revenue impact potential",
		})
	}
	if len(opps.SlowRoutes) > 0 {
		recs = append(recs, Recommendation{
			Priority:    "MEDIUM",
			Action:      "process improvement",
			Description: fmt.Sprintf("improve %d slow routes", len(opps.SlowRoutes)),
			Impact:      "customer satisfaction and efficiency gains",
		})
	}
	if len(opps.PriceIncreaseCandidates) > 0 {
		recs = append(recs, Recommendation{
			Priority:    "LOW",
			Action:      "price optimization",
			Description: fmt.Sprintf("consider price increases on %d high-performing routes", len(opps.PriceIncreaseCandidates)),
			Impact:      "margin improvement with low risk",
		})
	}

	return recs
}

func keyInsights(routes map[string]*RouteMetrics, health BusinessHealth) []string {
	var out []string

	switch {
	case health.ProfitabilityScore > 80:
		out = append(out, "strong profitability across shipments")
	case health.ProfitabilityScore > 60:
		out = append(out, "moderate profitability with room for improvement")
	default:
		out = append(out, "low profitability; cost structure needs attention")
	}

	if len(routes) > 0 {
		best, worst := extremeRoutesByMargin(routes)
		out = append(out, fmt.Sprintf("best performing route: %s (%.1f%% margin)", best.Route, best.AvgProfitMargin))
		out = append(out, fmt.Sprintf("worst performing route: %s (%.1f%% margin)", worst.Route, worst.AvgProfitMargin))
	}

	switch {
	case health.EfficiencyScore > 85:
		out = append(out, "most deliveries arrive on time")
	case health.EfficiencyScore > 70:
		out = append(out, "good shipping efficiency with room for improvement")
	default:
		out = append(out, "shipping delays are impacting the business")
	}

	return out
}

// extremeRoutesByMargin walks routes in name order so margin ties
// resolve deterministically.
func extremeRoutesByMargin(routes map[string]*RouteMetrics) (best, worst RouteMetrics) {
	names := make([]string, 0, len(routes))
	for route := range routes {
		names = append(names, route)
	}
	sort.Strings(names)

	best, worst = *routes[names[0]], *routes[names[0]]
	for _, route := range names[1:] {
		m := *routes[route]
		if m.AvgProfitMargin > best.AvgProfitMargin {
			best = m
		}
		if m.AvgProfitMargin < worst.AvgProfitMargin {
			worst = m
		}
	}
	return best, worst
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// OptimizationOpportunities flags routes whose margin or duration
// profile warrants action. Output slices are sorted by route name.
func (a *AnalyticsService) OptimizationOpportunities(shipments []*domain.Shipment) Opportunities {
	routes := a.AnalyzeRoutes(shipments)

	names := make([]string, 0, len(routes))
	for route := range routes {
		names = append(names, route)
	}
	sort.Strings(names)

	var opps Opportunities
	for _, route := range names {
		m := *routes[route]

		if m.AvgProfitMargin < lowMarginThreshold {
			opps.CostReductionRoutes = append(opps.CostReductionRoutes, m)
		}
		if m.AvgProfitMargin > priceIncreaseMargin && m.AvgDurationDays < priceIncreaseMaxDays {
			opps.PriceIncreaseCandidates = append(opps.PriceIncreaseCandidates, m)
		}
		if m.AvgDurationDays > slowRouteThresholdDays {
			opps.SlowRoutes = append(opps.SlowRoutes, m)
		}
		if m.AvgProfitMargin > highPerformerMargin &&
			m.AvgDurationDays < highPerformerMaxDays &&
			m.TotalShipments >= highPerformerMinVolume {
			opps.HighPerformers = append(opps.HighPerformers, m)
		}
	}

	return opps
}
