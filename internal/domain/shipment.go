package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Business rule thresholds for derived flags.
const (
	HighMarginThreshold  = 20.0
	DelayedThresholdDays = 7
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// Shipment is the core domain entity: one shipment record with its
// derived business metrics. Immutable once constructed; a failed
// validation produces a RowError, never a mutated Shipment.
type Shipment struct {
	GUID         string    `json:"guid" msgpack:"guid"`
	Origin       string    `json:"origin" msgpack:"origin"`
	Destination  string    `json:"destination" msgpack:"destination"`
	Cost         float64   `json:"cost" msgpack:"cost"`
	Revenue      float64   `json:"revenue" msgpack:"revenue"`
	ShippingDate time.Time `json:"shipping_date" msgpack:"shipping_date"`
	DeliveryDate time.Time `json:"delivery_date" msgpack:"delivery_date"`

	// Derived at construction, never supplied by the source.
	Profit               float64   `json:"profit" msgpack:"profit"`
	ProfitMargin         float64   `json:"profit_margin" msgpack:"profit_margin"`
	ShippingDurationDays int       `json:"shipping_duration_days" msgpack:"shipping_duration_days"`
	IsProfitable         bool      `json:"is_profitable" msgpack:"is_profitable"`
	IsHighMargin         bool      `json:"is_high_margin" msgpack:"is_high_margin"`
	IsDelayed            bool      `json:"is_delayed" msgpack:"is_delayed"`
	ProcessedAt          time.Time `json:"processed_at" msgpack:"processed_at"`
	Year                 int       `json:"year" msgpack:"year"`
	Month                int       `json:"month" msgpack:"month"`
	Quarter              int       `json:"quarter" msgpack:"quarter"`
}

// NewShipment builds a Shipment from one raw row and computes every
// derived field. Pure apart from the ProcessedAt timestamp; no I/O.
func NewShipment(row RawRow) (*Shipment, error) {
	guid := strings.ToUpper(row.Get(FieldGUID))
	if guid == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrMalformedRow, FieldGUID)
	}

	origin := row.Get(FieldOrigin)
	if origin == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrMalformedRow, FieldOrigin)
	}
	destination := row.Get(FieldDestination)
	if destination == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrMalformedRow, FieldDestination)
	}

	cost, err := parseAmount(row.Get(FieldCost), FieldCost)
	if err != nil {
		return nil, err
	}
	revenue, err := parseAmount(row.Get(FieldRevenue), FieldRevenue)
	if err != nil {
		return nil, err
	}

	shippingDate, err := ParseDate(row.Get(FieldShippingDate))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", ErrMalformedRow, FieldShippingDate, row.Get(FieldShippingDate))
	}
	deliveryDate, err := ParseDate(row.Get(FieldDeliveryDate))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", ErrMalformedRow, FieldDeliveryDate, row.Get(FieldDeliveryDate))
	}
	if deliveryDate.Before(shippingDate) {
		return nil, fmt.Errorf("%w: %s precedes %s", ErrMalformedRow, FieldDeliveryDate, FieldShippingDate)
	}

	s := &Shipment{
		GUID:         guid,
		Origin:       origin,
		Destination:  destination,
		Cost:         cost,
		Revenue:      revenue,
		ShippingDate: shippingDate,
		DeliveryDate: deliveryDate,
		ProcessedAt:  time.Now().UTC(),
	}
	s.derive()

	return s, nil
}

// derive computes every dependent field from the source fields. All
// derived fields change together so the entity is never partially
// derived.
func (s *Shipment) derive() {
	s.Profit = s.Revenue - s.Cost
	if s.Revenue > 0 {
		s.ProfitMargin = s.Profit / s.Revenue * 100
	} else {
		s.ProfitMargin = 0
	}
	s.ShippingDurationDays = wholeDaysBetween(s.ShippingDate, s.DeliveryDate)
	s.IsProfitable = s.Profit > 0
	s.IsHighMargin = s.ProfitMargin > HighMarginThreshold
	s.IsDelayed = s.ShippingDurationDays > DelayedThresholdDays

	s.Year = s.ShippingDate.Year()
	s.Month = int(s.ShippingDate.Month())
	s.Quarter = (s.Month-1)/3 + 1
}

// Route returns the grouping key used by analytics, e.g. "NY -> LA".
func (s *Shipment) Route() string {
	return s.Origin + " -> " + s.Destination
}

// ParseDate accepts the layouts seen across upstream exports. The
// result keeps only the date part; durations are calendar-day based.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", trimmed)
}

func parseAmount(value, field string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrMalformedRow, field)
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not numeric: %q", ErrMalformedRow, field, value)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: %s must be non-negative, got %v", ErrMalformedRow, field, amount)
	}
	return amount, nil
}

func wholeDaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
