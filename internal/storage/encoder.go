package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// Format identifies a record serialization format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// Ext returns the file extension used in object keys.
func (f Format) Ext() string { return string(f) }

// Encoder serializes a batch of shipments into one object body.
type Encoder interface {
	Encode(shipments []*domain.Shipment) ([]byte, error)
	Format() Format
}

// NewEncoder returns the encoder for a format.
func NewEncoder(format Format) (Encoder, error) {
	switch format {
	case FormatCSV:
		return csvEncoder{}, nil
	case FormatJSON:
		return jsonEncoder{}, nil
	case FormatMsgpack:
		return msgpackEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// recordColumns is the canonical output column order: the input fields
// followed by every derived field.
var recordColumns = append(domain.RequiredColumns(),
	"profit",
	"profit_margin",
	"shipping_duration_days",
	"is_profitable",
	"is_high_margin",
	"is_delayed",
	"processed_at",
	"year",
	"month",
	"quarter",
)

func recordValues(s *domain.Shipment) []string {
	return []string{
		s.GUID,
		s.Origin,
		s.Destination,
		strconv.FormatFloat(s.Cost, 'f', -1, 64),
		strconv.FormatFloat(s.Revenue, 'f', -1, 64),
		s.ShippingDate.Format("2006-01-02"),
		s.DeliveryDate.Format("2006-01-02"),
		strconv.FormatFloat(s.Profit, 'f', -1, 64),
		strconv.FormatFloat(s.ProfitMargin, 'f', -1, 64),
		strconv.Itoa(s.ShippingDurationDays),
		strconv.FormatBool(s.IsProfitable),
		strconv.FormatBool(s.IsHighMargin),
		strconv.FormatBool(s.IsDelayed),
		s.ProcessedAt.Format(time.RFC3339),
		strconv.Itoa(s.Year),
		strconv.Itoa(s.Month),
		strconv.Itoa(s.Quarter),
	}
}

type csvEncoder struct{}

func (csvEncoder) Format() Format { return FormatCSV }

func (csvEncoder) Encode(shipments []*domain.Shipment) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(recordColumns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, s := range shipments {
		if err := writer.Write(recordValues(s)); err != nil {
			return nil, fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

type jsonEncoder struct{}

func (jsonEncoder) Format() Format { return FormatJSON }

func (jsonEncoder) Encode(shipments []*domain.Shipment) ([]byte, error) {
	data, err := json.Marshal(shipments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json records: %w", err)
	}
	return data, nil
}

type msgpackEncoder struct{}

func (msgpackEncoder) Format() Format { return FormatMsgpack }

func (msgpackEncoder) Encode(shipments []*domain.Shipment) ([]byte, error) {
	data, err := msgpack.Marshal(shipments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal msgpack records: %w", err)
	}
	return data, nil
}
