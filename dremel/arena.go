package dremel

import "errors"

type state uint8

const (
	unset state = iota
	absent
	present
)

var (
	errAbsentPresent = errors.New("field is null in this column but present in an earlier column")
	errPresentAbsent = errors.New("field is present in this column but null in an earlier column")
	errEmptyElems    = errors.New("collection is empty in this column but has elements in an earlier column")
	errElemsEmpty    = errors.New("collection has elements in this column but is empty in an earlier column")
	errMoreElems     = errors.New("collection has more entries in this column than in an earlier column")
)

// slot is the assembly state of one node of one record. Slots are shared by
// all the columns beneath a node so that each column fills in its part of
// the same record.
type slot struct {
	state state
	// children holds the slots of a struct's fields in schema order or the
	// slots of a list or map entry.
	children []*slot
	// elems holds the entries of a list or map.
	elems []*slot
	// empty marks a collection that a column found to have no entries.
	empty bool
	// sealed marks a collection whose entries were all placed by an
	// earlier column. pass is the column that last visited the entries and
	// visited the number of entries it reached.
	sealed  bool
	pass    int
	visited int
	// pos is the value index of a present leaf.
	pos int
}

// arena allocates slots for a row group in blocks.
type arena struct {
	block []slot
}

func (a *arena) alloc() *slot {
	if len(a.block) == 0 {
		a.block = make([]slot, 1024)
	}
	s := &a.block[0]
	a.block = a.block[1:]
	return s
}

func (a *arena) child(parent *slot, k, n int) *slot {
	if parent.children == nil {
		parent.children = make([]*slot, n)
	}
	s := parent.children[k]
	if s == nil {
		s = a.alloc()
		parent.children[k] = s
	}
	return s
}

// elem returns entry k of collection c, appending a new entry when k is one
// past the end.
func (a *arena) elem(c *slot, k int) (*slot, error) {
	switch {
	case k < len(c.elems):
		return c.elems[k], nil
	case k == len(c.elems):
		if c.empty {
			return nil, errElemsEmpty
		}
		if c.sealed {
			return nil, errMoreElems
		}
		s := a.alloc()
		s.state = present
		c.elems = append(c.elems, s)
		return s, nil
	}
	return nil, errors.New("repetition skips a collection entry")
}

func (s *slot) markPresent() error {
	if s.state == absent {
		return errPresentAbsent
	}
	s.state = present
	return nil
}

func (s *slot) markAbsent() error {
	if s.state == present {
		return errAbsentPresent
	}
	s.state = absent
	return nil
}

func (s *slot) markEmpty() error {
	if len(s.elems) > 0 {
		return errEmptyElems
	}
	s.empty = true
	return nil
}
