package schema

import (
	"errors"
	"fmt"
)

var ErrMismatch = errors.New("schema mismatch")

// Compatible returns an error wrapping ErrMismatch if the columns of s and
// other differ in order, path, physical type or levels.
func (s *Schema) Compatible(other *Schema) error {
	a, b := s.Leaves(), other.Leaves()
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d columns vs %d columns", ErrMismatch, len(a), len(b))
	}
	for i := range a {
		if err := a[i].compatible(b[i]); err != nil {
			return err
		}
	}
	return nil
}

func (l *Leaf) compatible(other *Leaf) error {
	switch {
	case l.Path != other.Path:
		return fmt.Errorf("%w: column %d is %q vs %q", ErrMismatch, l.Index, l.Path, other.Path)
	case !l.Field.Type.compatible(other.Field.Type):
		return fmt.Errorf("%w: column %q has type %s vs %s", ErrMismatch, l.Path, l.Field.Type, other.Field.Type)
	case l.MaxDef != other.MaxDef || l.MaxRep != other.MaxRep:
		return fmt.Errorf("%w: column %q has levels (def %d, rep %d) vs (def %d, rep %d)",
			ErrMismatch, l.Path, l.MaxDef, l.MaxRep, other.MaxDef, other.MaxRep)
	}
	return nil
}

func (t *Type) compatible(other *Type) bool {
	if t.Physical != other.Physical {
		return false
	}
	if t.Physical == FixedLenByteArray && t.Length != other.Length {
		return false
	}
	if t.Logical == Timestamp && other.Logical == Timestamp {
		return t.Unit == other.Unit
	}
	return true
}
