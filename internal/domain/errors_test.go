package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsFatal(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "extraction is fatal", err: fmt.Errorf("%w: connection refused", ErrExtraction), want: true},
		{name: "load is fatal", err: fmt.Errorf("%w: sink rejected write", ErrLoad), want: true},
		{name: "malformed row is not fatal", err: fmt.Errorf("%w: cost is required", ErrMalformedRow), want: false},
		{name: "validation is not fatal", err: fmt.Errorf("%w: duplicate guid", ErrValidation), want: false},
		{name: "plain error is not fatal", err: errors.New("boom"), want: false},
		{name: "nil is not fatal", err: nil, want: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := IsFatal(tc.err); got != tc.want {
				t.Fatalf("IsFatal() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRowErrorErr(t *testing.T) {
	t.Parallel()

	rowErr := RowError{Row: 3, Tier: TierBusiness, Reason: "duplicate guid ABC123"}

	err := rowErr.Err()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Err() = %v, want wrapped ErrValidation", err)
	}
	if IsFatal(err) {
		t.Fatal("row-level reject must not be fatal")
	}
}
