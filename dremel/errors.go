package dremel

import (
	"errors"
	"fmt"
)

var ErrTimestampRange = errors.New("timestamp outside the representable range of int64 nanoseconds")

// ColumnStripeError reports a failure to shred the values of one column.
type ColumnStripeError struct {
	Path string
	Err  error
}

func (e *ColumnStripeError) Error() string {
	return fmt.Sprintf("stripe column %q: %s", e.Path, e.Err)
}

func (e *ColumnStripeError) Unwrap() error {
	return e.Err
}

// ColumnAssembleError reports a failure to assemble one column into a row
// group. Slot is the index of the offending level entry and Row the record
// it belongs to, or -1 if the failure is not tied to a slot. Plan describes
// the level decoding of the column.
type ColumnAssembleError struct {
	Path string
	Plan string
	Slot int
	Row  int
	Err  error
}

func (e *ColumnAssembleError) Error() string {
	if e.Slot < 0 {
		return fmt.Sprintf("assemble column %q: %s (plan: %s)", e.Path, e.Err, e.Plan)
	}
	return fmt.Sprintf("assemble column %q: slot %d (row %d): %s (plan: %s)", e.Path, e.Slot, e.Row, e.Err, e.Plan)
}

func (e *ColumnAssembleError) Unwrap() error {
	return e.Err
}
