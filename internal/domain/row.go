package domain

import (
	"fmt"
	"strings"
)

// Canonical column names expected from every row source.
const (
	FieldGUID         = "guid"
	FieldOrigin       = "origin"
	FieldDestination  = "destination"
	FieldCost         = "cost"
	FieldRevenue      = "revenue"
	FieldShippingDate = "shipping_date"
	FieldDeliveryDate = "delivery_date"
)

// RawRow is one extracted record before derivation, keyed by
// normalized column name. Columns beyond the required set are carried
// through untouched and ignored by derivation.
type RawRow map[string]string

// RequiredColumns returns the columns every source must provide, in
// canonical output order.
func RequiredColumns() []string {
	return []string{
		FieldGUID,
		FieldOrigin,
		FieldDestination,
		FieldCost,
		FieldRevenue,
		FieldShippingDate,
		FieldDeliveryDate,
	}
}

// Get returns the trimmed value of a column.
func (r RawRow) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Clone returns a copy so accumulated error records stay immutable
// even if the caller reuses the original map.
func (r RawRow) Clone() RawRow {
	if r == nil {
		return nil
	}
	out := make(RawRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Tier tags which pipeline stage rejected a row.
type Tier string

const (
	TierShape      Tier = "shape"
	TierDerivation Tier = "derivation"
	TierBusiness   Tier = "business"
)

// RowError records one rejected row with its original batch position.
type RowError struct {
	Row    int    `json:"row"`
	Tier   Tier   `json:"tier"`
	Reason string `json:"reason"`
	Raw    RawRow `json:"raw"`
}

// Err returns the reject as a single error value wrapping
// ErrValidation, for callers that log or match rejects as errors.
func (e RowError) Err() error {
	return fmt.Errorf("%w: row %d, %s tier: %s", ErrValidation, e.Row, e.Tier, e.Reason)
}
