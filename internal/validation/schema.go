package validation

import (
	"fmt"
	"os"
	"time"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

// Column data types understood by the shape tier.
const (
	TypeString = "string"
	TypeNumber = "number"
	TypeDate   = "date"
)

// Plausibility bounds applied to monetary columns and, again, to the
// typed entity in the business tier.
const MaxAmount = 10_000_000.0

// ColumnRule declares the structural constraints for one column.
type ColumnRule struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Pattern string   `yaml:"pattern,omitempty"`
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	MinDate string   `yaml:"min_date,omitempty"`
	MaxDate string   `yaml:"max_date,omitempty"`
}

// Schema is the declarative column contract the shape tier enforces
// before any entity construction runs.
type Schema struct {
	Columns []ColumnRule `yaml:"columns"`
}

// DefaultSchema returns the built-in shipment schema: the required
// column set with non-null, type, magnitude, and date-window checks.
func DefaultSchema() Schema {
	zero := 0.0
	maxAmount := MaxAmount
	return Schema{
		Columns: []ColumnRule{
			{Name: domain.FieldGUID, Type: TypeString},
			{Name: domain.FieldOrigin, Type: TypeString},
			{Name: domain.FieldDestination, Type: TypeString},
			{Name: domain.FieldCost, Type: TypeNumber, Min: &zero, Max: &maxAmount},
			{Name: domain.FieldRevenue, Type: TypeNumber, Min: &zero, Max: &maxAmount},
			{Name: domain.FieldShippingDate, Type: TypeDate, MinDate: "2020-01-01", MaxDate: "2030-12-31"},
			{Name: domain.FieldDeliveryDate, Type: TypeDate, MinDate: "2020-01-01", MaxDate: "2030-12-31"},
		},
	}
}

// LoadSchema reads a YAML schema document, allowing deployments to
// swap the structural rules without touching the business tier.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return Schema{}, fmt.Errorf("failed to parse schema file: %w", err)
	}
	if len(schema.Columns) == 0 {
		return Schema{}, fmt.Errorf("schema file %s declares no columns", path)
	}

	for _, col := range schema.Columns {
		if col.Name == "" {
			return Schema{}, fmt.Errorf("schema column without a name")
		}
		switch col.Type {
		case TypeString, TypeNumber, TypeDate:
		default:
			return Schema{}, fmt.Errorf("schema column %q has unknown type %q", col.Name, col.Type)
		}
	}

	return schema, nil
}

func parseDateBound(value string) (time.Time, bool, error) {
	if value == "" {
		return time.Time{}, false, nil
	}
	parsed, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid schema date bound %q: %w", value, err)
	}
	return parsed, true, nil
}
