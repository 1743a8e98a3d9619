package parq

import (
	"fmt"

	"github.com/brimdata/parq/schema"
)

// ErrSchemaMismatch is wrapped by errors from appending to or reading a
// file whose columns differ from those of the record type.
var ErrSchemaMismatch = schema.ErrMismatch

type InvalidOptionError struct {
	Name   string
	Value  interface{}
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %s=%v: %s", e.Name, e.Value, e.Reason)
}

// AppendTargetError is returned when the destination of an append does not
// hold a readable Parquet file or cannot be rewritten.
type AppendTargetError struct {
	Err error
}

func (e *AppendTargetError) Error() string {
	return "cannot append: " + e.Err.Error()
}

func (e *AppendTargetError) Unwrap() error {
	return e.Err
}
