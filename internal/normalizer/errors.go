package normalizer

import (
	"errors"
	"fmt"
)

// SkipReason explains why a raw record produced no product.
type SkipReason string

// MissingName is reported when the record's name is empty after trimming.
const MissingName SkipReason = "missing_name"

// ErrMissingName is matched by errors.Is for MissingName skips.
var ErrMissingName = errors.New("record has no usable name")

// SkipError is returned by Normalize when a record is dropped. It never
// accompanies a partially-populated product.
type SkipError struct {
	URL    string
	Reason SkipReason
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipped record %q: %s", e.URL, e.Reason)
}

func (e *SkipError) Unwrap() error {
	switch e.Reason {
	case MissingName:
		return ErrMissingName
	default:
		return nil
	}
}

// Report counts the non-fatal issues found while normalizing one record.
type Report struct {
	MalformedOptions int // size/price pairs dropped for a missing field
	EmptyIngredients int // blank ingredient entries discarded
}
