package domain

import "errors"

// Sentinel errors for the pipeline error taxonomy. Row-local failures
// (malformed rows, validation rejects) accumulate in the run result;
// extraction and load failures abort the run.
var (
	ErrExtraction   = errors.New("extraction failed")
	ErrMalformedRow = errors.New("malformed row")
	ErrValidation   = errors.New("validation failed")
	ErrLoad         = errors.New("load failed")
	ErrNotFound     = errors.New("not found")
)

// IsFatal reports whether an error aborts the whole run instead of
// being accumulated as a row-level reject.
func IsFatal(err error) bool {
	return errors.Is(err, ErrExtraction) || errors.Is(err, ErrLoad)
}
