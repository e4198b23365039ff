package service

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/kursadbilgin/freight-etl/internal/domain"
)

func analyticsShipment(t *testing.T, guid, origin, destination string, cost, revenue float64, shippingDate, deliveryDate string) *domain.Shipment {
	t.Helper()

	s, err := domain.NewShipment(domain.RawRow{
		domain.FieldGUID:         guid,
		domain.FieldOrigin:       origin,
		domain.FieldDestination:  destination,
		domain.FieldCost:         fmt.Sprintf("%v", cost),
		domain.FieldRevenue:      fmt.Sprintf("%v", revenue),
		domain.FieldShippingDate: shippingDate,
		domain.FieldDeliveryDate: deliveryDate,
	})
	if err != nil {
		t.Fatalf("NewShipment() error = %v", err)
	}
	return s
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyzeRoutes(t *testing.T) {
	t.Parallel()

	svc := NewAnalyticsService(nil)

	shipments := []*domain.Shipment{
		analyticsShipment(t, "A1", "NY", "LA", 100, 200, "2024-01-01", "2024-01-04"),
		analyticsShipment(t, "A2", "NY", "LA", 300, 400, "2024-01-05", "2024-01-15"),
		analyticsShipment(t, "A3", "SF", "CHI", 50, 60, "2024-02-01", "2024-02-03"),
	}

	routes := svc.AnalyzeRoutes(shipments)
	if len(routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(routes))
	}

	nyla := routes["NY -> LA"]
	if nyla == nil {
		t.Fatal("missing NY -> LA route")
	}
	if nyla.TotalShipments != 2 {
		t.Fatalf("TotalShipments = %d, want 2", nyla.TotalShipments)
	}
	if !almostEqual(nyla.TotalProfit, 200) {
		t.Fatalf("TotalProfit = %v, want 200", nyla.TotalProfit)
	}
	// margins 50% and 25%, durations 3 and 10 days
	if !almostEqual(nyla.AvgProfitMargin, 37.5) {
		t.Fatalf("AvgProfitMargin = %v, want 37.5", nyla.AvgProfitMargin)
	}
	if !almostEqual(nyla.AvgDurationDays, 6.5) {
		t.Fatalf("AvgDurationDays = %v, want 6.5", nyla.AvgDurationDays)
	}
	if nyla.DelayedShipments != 1 {
		t.Fatalf("DelayedShipments = %d, want 1", nyla.DelayedShipments)
	}
}

func TestMostProfitableRoutesTieBreaks(t *testing.T) {
	t.Parallel()

	svc := NewAnalyticsService(nil)

	// three routes: equal profit on the first two, broken by volume,
	// then by name
	shipments := []*domain.Shipment{
		analyticsShipment(t, "B1", "NY", "LA", 100, 200, "2024-01-01", "2024-01-02"),
		analyticsShipment(t, "B2", "SF", "CHI", 100, 150, "2024-01-01", "2024-01-02"),
		analyticsShipment(t, "B3", "SF", "CHI", 100, 150, "2024-01-01", "2024-01-02"),
		analyticsShipment(t, "B4", "AA", "BB", 100, 200, "2024-01-01", "2024-01-02"),
	}

	ranked := svc.MostProfitableRoutes(shipments, 0)
	if len(ranked) != 3 {
		t.Fatalf("ranked = %d routes, want 3", len(ranked))
	}

	want := []string{"SF -> CHI", "AA -> BB", "NY -> LA"}
	for i, route := range want {
		if ranked[i].Route != route {
			t.Fatalf("ranked[%d] = %q, want %q", i, ranked[i].Route, route)
		}
	}

	limited := svc.MostProfitableRoutes(shipments, 2)
	if len(limited) != 2 {
		t.Fatalf("limited = %d routes, want 2", len(limited))
	}
}

func TestDelayRateByRoute(t *testing.T) {
	t.Parallel()

	svc := NewAnalyticsService(nil)

	shipments := []*domain.Shipment{
		analyticsShipment(t, "C1", "NY", "LA", 100, 200, "2024-01-01", "2024-01-12"),
		analyticsShipment(t, "C2", "NY", "LA", 100, 200, "2024-01-01", "2024-01-03"),
		analyticsShipment(t, "C3", "NY", "LA", 100, 200, "2024-01-01", "2024-01-05"),
		analyticsShipment(t, "C4", "NY", "LA", 100, 200, "2024-01-01", "2024-01-13"),
	}

	rates := svc.DelayRateByRoute(shipments)
	if !almostEqual(rates["NY -> LA"], 50) {
		t.Fatalf("delay rate = %v, want 50", rates["NY -> LA"])
	}
}

func TestTemporalTrends(t *testing.T) {
	t.Parallel()

	svc := NewAnalyticsService(nil)

	shipments := []*domain.Shipment{
		analyticsShipment(t, "D1", "NY", "LA", 100, 200, "2024-01-10", "2024-01-12"),
		analyticsShipment(t, "D2", "NY", "LA", 150, 100, "2024-02-10", "2024-02-12"),
		analyticsShipment(t, "D3", "NY", "LA", 100, 300, "2024-05-10", "2024-05-12"),
	}

	trends := svc.TemporalTrends(shipments)

	if len(trends.Monthly) != 3 {
		t.Fatalf("monthly buckets = %d, want 3", len(trends.Monthly))
	}
	if len(trends.Quarterly) != 2 {
		t.Fatalf("quarterly buckets = %d, want 2", len(trends.Quarterly))
	}

	jan := trends.Monthly["2024-01"]
	if jan == nil || jan.Shipments != 1 {
		t.Fatalf("monthly 2024-01 = %+v, want one shipment", jan)
	}

	q1 := trends.Quarterly["2024-Q1"]
	if q1 == nil {
		t.Fatal("missing 2024-Q1 bucket")
	}
	if q1.Shipments != 2 || q1.ProfitableShipments != 1 {
		t.Fatalf("Q1 = %+v, want 2 shipments, 1 profitable", q1)
	}
	if !almostEqual(q1.ProfitabilityRate, 50) {
		t.Fatalf("Q1 profitability = %v, want 50", q1.ProfitabilityRate)
	}
	// Q1 profit 100-50=50 over revenue 300
	if !almostEqual(q1.AvgProfitMargin, 50.0/300.0*100) {
		t.Fatalf("Q1 margin = %v", q1.AvgProfitMargin)
	}
}

func TestOptimizationOpportunities(t *testing.T) {
	t.Parallel()

	svc := NewAnalyticsService(nil)

	shipments := []*domain.Shipment{
		// low margin route: 5% margin
		analyticsShipment(t, "E1", "NY", "LA", 95, 100, "2024-01-01", "2024-01-03"),
		// price increase candidate: 50% margin, fast
		analyticsShipment(t, "E2", "SF", "CHI", 100, 200, "2024-01-01", "2024-01-03"),
		// slow route: 50 day duration, mid margin
		analyticsShipment(t, "E3", "TX", "WA", 80, 100, "2024-01-01", "2024-02-20"),
		// high performer: 40% margin, fast, volume 3
		analyticsShipment(t, "E4", "MIA", "ATL", 60, 100, "2024-01-01", "2024-01-03"),
		analyticsShipment(t, "E5", "MIA", "ATL", 60, 100, "2024-01-05", "2024-01-07"),
		analyticsShipment(t, "E6", "MIA", "ATL", 60, 100, "2024-01-09", "2024-01-11"),
	}

	opps := svc.OptimizationOpportunities(shipments)

	if len(opps.CostReductionRoutes) != 1 || opps.CostReductionRoutes[0].Route != "NY -> LA" {
		t.Fatalf("cost reduction = %+v, want NY -> LA", opps.CostReductionRoutes)
	}
	if len(opps.SlowRoutes) != 1 || opps.SlowRoutes[0].Route != "TX -> WA" {
		t.Fatalf("slow routes = %+v, want TX -> WA", opps.SlowRoutes)
	}

	// both the 50% and 40% routes qualify for a price increase;
	// output is sorted by route name
	if len(opps.PriceIncreaseCandidates) != 2 {
		t.Fatalf("price increase = %+v, want 2 routes", opps.PriceIncreaseCandidates)
	}
	if opps.PriceIncreaseCandidates[0].Route != "MIA -> ATL" || opps.PriceIncreaseCandidates[1].Route != "SF -> CHI" {
		t.Fatalf("price increase order = %+v", opps.PriceIncreaseCandidates)
	}

	if len(opps.HighPerformers) != 1 || opps.HighPerformers[0].Route != "MIA -> ATL" {
		t.Fatalf("high performers = %+v, want MIA -> ATL", opps.HighPerformers)
	}
}

func TestGenerateBusinessInsights(t *testing.T) {
	t.Parallel()

	svc := NewAnalyticsService(nil)

	// 4 shipments: 3 profitable, 1 high margin, 1 delayed
	shipments := []*domain.Shipment{
		analyticsShipment(t, "F1", "NY", "LA", 60, 100, "2024-01-01", "2024-01-03"),
		analyticsShipment(t, "F2", "NY", "LA", 90, 100, "2024-01-01", "2024-01-12"),
		analyticsShipment(t, "F3", "SF", "CHI", 95, 100, "2024-01-01", "2024-01-03"),
		analyticsShipment(t, "F4", "SF", "CHI", 100, 90, "2024-01-01", "2024-01-03"),
	}

	insights := svc.GenerateBusinessInsights(shipments)

	if !almostEqual(insights.Health.ProfitabilityScore, 75) {
		t.Fatalf("ProfitabilityScore = %v, want 75", insights.Health.ProfitabilityScore)
	}
	if !almostEqual(insights.Health.EfficiencyScore, 75) {
		t.Fatalf("EfficiencyScore = %v, want 75", insights.Health.EfficiencyScore)
	}
	if !almostEqual(insights.Health.MarginQualityScore, 25) {
		t.Fatalf("MarginQualityScore = %v, want 25", insights.Health.MarginQualityScore)
	}
	// 75*0.4 + 75*0.3 + 25*0.3
	if !almostEqual(insights.Health.OverallScore, 60) {
		t.Fatalf("OverallScore = %v, want 60", insights.Health.OverallScore)
	}

	if len(insights.Routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(insights.Routes))
	}
	if len(insights.Trends.Monthly) != 1 {
		t.Fatalf("monthly buckets = %d, want 1", len(insights.Trends.Monthly))
	}

	var sawBest, sawWorst bool
	for _, line := range insights.KeyInsights {
		if strings.Contains(line, "best performing route: NY -> LA") {
			sawBest = true
		}
		if strings.Contains(line, "worst performing route: SF -> CHI") {
			sawWorst = true
		}
	}
	if !sawBest || !sawWorst {
		t.Fatalf("key insights missing route extremes: %v", insights.KeyInsights)
	}
}

func TestPrioritizedRecommendations(t *testing.T) {
	t.Parallel()

	svc := NewAnalyticsService(nil)

	shipments := make([]*domain.Shipment, 0, 8)
	// low-margin route at recommendation volume
	for i := 0; i < highVolumeShipments; i++ {
		shipments = append(shipments,
			analyticsShipment(t, fmt.Sprintf("G%d", i), "NY", "LA", 95, 100, "2024-01-01", "2024-01-03"))
	}
	// slow route
	shipments = append(shipments,
		analyticsShipment(t, "G10", "TX", "WA", 80, 100, "2024-01-01", "2024-02-20"))
	// price increase candidate
	shipments = append(shipments,
		analyticsShipment(t, "G11", "SF", "CHI", 100, 200, "2024-01-01", "2024-01-03"))

	insights := svc.GenerateBusinessInsights(shipments)

	if len(insights.Recommendations) != 3 {
		t.Fatalf("recommendations = %+v, want 3", insights.Recommendations)
	}
	wantPriorities := []string{"HIGH", "MEDIUM", "LOW"}
	for i, want := range wantPriorities {
		if insights.Recommendations[i].Priority != want {
			t.Fatalf("recommendation %d priority = %q, want %q", i, insights.Recommendations[i].Priority, want)
		}
	}
}

func TestGenerateBusinessInsightsEmptyBatch(t *testing.T) {
	t.Parallel()

	svc := NewAnalyticsService(nil)

	insights := svc.GenerateBusinessInsights(nil)

	if insights.Health != (BusinessHealth{}) {
		t.Fatalf("health = %+v, want zero scores", insights.Health)
	}
	if len(insights.Recommendations) != 0 {
		t.Fatalf("recommendations = %+v, want none", insights.Recommendations)
	}
	// no route extremes to report; only the two health summary lines
	if len(insights.KeyInsights) != 2 {
		t.Fatalf("key insights = %v, want 2 summary lines", insights.KeyInsights)
	}
}

func TestAnalyticsEmptyBatch(t *testing.T) {
	t.Parallel()

	svc := NewAnalyticsService(nil)

	if routes := svc.AnalyzeRoutes(nil); len(routes) != 0 {
		t.Fatalf("routes = %v, want empty", routes)
	}
	if ranked := svc.MostProfitableRoutes(nil, 5); len(ranked) != 0 {
		t.Fatalf("ranked = %v, want empty", ranked)
	}
	trends := svc.TemporalTrends(nil)
	if len(trends.Monthly) != 0 || len(trends.Quarterly) != 0 {
		t.Fatal("trends should be empty")
	}
}
