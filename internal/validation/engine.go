package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"go.uber.org/zap"
)

// IndexedRow is a raw row paired with its original batch position so
// rejects from every tier stay keyed to the same input line.
type IndexedRow struct {
	Index int
	Row   domain.RawRow
}

// IndexedShipment pairs a derived entity with its source row position
// and the raw row it was derived from, so business-tier rejects report
// the values the source actually delivered.
type IndexedShipment struct {
	Index    int
	Shipment *domain.Shipment
	Raw      domain.RawRow
}

// ShapeResult partitions raw rows into structurally accepted rows and
// rejects. len(Accepted) + len(Errors) == number of input rows.
type ShapeResult struct {
	Accepted []IndexedRow
	Errors   []domain.RowError
}

// Result partitions derived shipments into valid entities and rejects.
type Result struct {
	Valid  []*domain.Shipment
	Errors []domain.RowError
}

type compiledRule struct {
	rule    ColumnRule
	pattern *regexp.Regexp
	minDate time.Time
	hasMin  bool
	maxDate time.Time
	hasMax  bool
}

// Engine applies the two validation tiers: structural shape checks
// over raw rows and business rules over derived shipments. In-memory,
// synchronous, and deterministic for identical input batches.
type Engine struct {
	rules  []compiledRule
	logger *zap.Logger
}

func NewEngine(schema Schema, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(schema.Columns) == 0 {
		schema = DefaultSchema()
	}

	rules := make([]compiledRule, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		compiled := compiledRule{rule: col}

		if col.Pattern != "" {
			pattern, err := regexp.Compile(col.Pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern for column %q: %w", col.Name, err)
			}
			compiled.pattern = pattern
		}

		minDate, hasMin, err := parseDateBound(col.MinDate)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		compiled.minDate, compiled.hasMin = minDate, hasMin

		maxDate, hasMax, err := parseDateBound(col.MaxDate)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		compiled.maxDate, compiled.hasMax = maxDate, hasMax

		rules = append(rules, compiled)
	}

	return &Engine{rules: rules, logger: logger}, nil
}

// ValidateShape runs the structural tier over a raw batch. A row
// failing any shape check never reaches entity construction. Error
// order follows input row order.
func (e *Engine) ValidateShape(rows []domain.RawRow) ShapeResult {
	result := ShapeResult{
		Accepted: make([]IndexedRow, 0, len(rows)),
	}

	for i, row := range rows {
		reasons := e.checkShape(row)
		if len(reasons) > 0 {
			result.Errors = append(result.Errors, domain.RowError{
				Row:    i,
				Tier:   domain.TierShape,
				Reason: strings.Join(reasons, "; "),
				Raw:    row.Clone(),
			})
			continue
		}
		result.Accepted = append(result.Accepted, IndexedRow{Index: i, Row: row})
	}

	e.logger.Debug("shape validation finished",
		zap.Int("total", len(rows)),
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("rejected", len(result.Errors)),
	)

	return result
}

func (e *Engine) checkShape(row domain.RawRow) []string {
	var reasons []string
	for _, compiled := range e.rules {
		rule := compiled.rule
		value := row.Get(rule.Name)
		if value == "" {
			reasons = append(reasons, fmt.Sprintf("column %s is missing or empty", rule.Name))
			continue
		}

		switch rule.Type {
		case TypeNumber:
			amount, err := strconv.ParseFloat(value, 64)
			if err != nil {
				reasons = append(reasons, fmt.Sprintf("column %s is not numeric: %q", rule.Name, value))
				continue
			}
			if rule.Min != nil && amount < *rule.Min {
				reasons = append(reasons, fmt.Sprintf("column %s below minimum %v: %v", rule.Name, *rule.Min, amount))
			}
			if rule.Max != nil && amount > *rule.Max {
				reasons = append(reasons, fmt.Sprintf("column %s above maximum %v: %v", rule.Name, *rule.Max, amount))
			}
		case TypeDate:
			parsed, err := domain.ParseDate(value)
			if err != nil {
				reasons = append(reasons, fmt.Sprintf("column %s is not a date: %q", rule.Name, value))
				continue
			}
			if compiled.hasMin && parsed.Before(compiled.minDate) {
				reasons = append(reasons, fmt.Sprintf("column %s before %s", rule.Name, compiled.minDate.Format("2006-01-02")))
			}
			if compiled.hasMax && parsed.After(compiled.maxDate) {
				reasons = append(reasons, fmt.Sprintf("column %s after %s", rule.Name, compiled.maxDate.Format("2006-01-02")))
			}
		}

		if compiled.pattern != nil && !compiled.pattern.MatchString(value) {
			reasons = append(reasons, fmt.Sprintf("column %s does not match pattern %s", rule.Name, rule.Pattern))
		}
	}
	return reasons
}

// ValidateShipments runs the business tier. A shipment failing any
// rule is excluded from the valid set entirely; there are no partial
// records. The first occurrence of a duplicated guid is kept, later
// occurrences are rejected.
func (e *Engine) ValidateShipments(items []IndexedShipment) Result {
	result := Result{
		Valid: make([]*domain.Shipment, 0, len(items)),
	}

	seenGUIDs := make(map[string]int, len(items))
	for _, item := range items {
		reasons := businessRuleReasons(item.Shipment, seenGUIDs)
		if len(reasons) > 0 {
			raw := item.Raw.Clone()
			if raw == nil {
				raw = shipmentRaw(item.Shipment)
			}
			result.Errors = append(result.Errors, domain.RowError{
				Row:    item.Index,
				Tier:   domain.TierBusiness,
				Reason: strings.Join(reasons, "; "),
				Raw:    raw,
			})
			continue
		}
		seenGUIDs[item.Shipment.GUID] = item.Index
		result.Valid = append(result.Valid, item.Shipment)
	}

	e.logger.Debug("business validation finished",
		zap.Int("total", len(items)),
		zap.Int("valid", len(result.Valid)),
		zap.Int("rejected", len(result.Errors)),
	)

	return result
}

// IndexShipments wraps an already-derived batch for direct business
// validation, preserving slice order as the row reference. No source
// rows exist on this path, so rejects fall back to a reconstruction of
// the raw values from the entity.
func IndexShipments(shipments []*domain.Shipment) []IndexedShipment {
	items := make([]IndexedShipment, len(shipments))
	for i, s := range shipments {
		items[i] = IndexedShipment{Index: i, Shipment: s}
	}
	return items
}

func businessRuleReasons(s *domain.Shipment, seenGUIDs map[string]int) []string {
	var reasons []string

	if firstRow, dup := seenGUIDs[s.GUID]; dup {
		reasons = append(reasons, fmt.Sprintf("duplicate guid %s (first seen at row %d)", s.GUID, firstRow))
	}
	if strings.EqualFold(s.Origin, s.Destination) {
		reasons = append(reasons, fmt.Sprintf("degenerate route: origin equals destination %q", s.Origin))
	}
	if s.Cost > MaxAmount {
		reasons = append(reasons, fmt.Sprintf("cost %v exceeds plausible maximum %v", s.Cost, MaxAmount))
	}
	if s.Revenue > MaxAmount {
		reasons = append(reasons, fmt.Sprintf("revenue %v exceeds plausible maximum %v", s.Revenue, MaxAmount))
	}

	return reasons
}

func shipmentRaw(s *domain.Shipment) domain.RawRow {
	return domain.RawRow{
		domain.FieldGUID:         s.GUID,
		domain.FieldOrigin:       s.Origin,
		domain.FieldDestination:  s.Destination,
		domain.FieldCost:         strconv.FormatFloat(s.Cost, 'f', -1, 64),
		domain.FieldRevenue:      strconv.FormatFloat(s.Revenue, 'f', -1, 64),
		domain.FieldShippingDate: s.ShippingDate.Format("2006-01-02"),
		domain.FieldDeliveryDate: s.DeliveryDate.Format("2006-01-02"),
	}
}
