// Package schema describes the logical shape of a record type as a tree of
// field nodes and resolves the tree into the ordered set of leaf columns,
// each annotated with its maximum definition and repetition levels.
package schema

import (
	"fmt"
	"reflect"
	"strings"
)

type Kind int

const (
	Primitive Kind = iota
	Struct
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Primitive:
		return "primitive"
	case Struct:
		return "struct"
	case List:
		return "list"
	case Map:
		return "map"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Names of the synthetic nodes of the three-level list and map layouts.
const (
	ListName     = "list"
	ElementName  = "element"
	KeyValueName = "key_value"
	KeyName      = "key"
	ValueName    = "value"
)

// Field is a node of the schema tree.
type Field struct {
	Name     string
	Kind     Kind
	Nullable bool
	Repeated bool
	Children []*Field
	// Type is set for Primitive fields only.
	Type *Type

	// Index is the position of this field in its parent: the Go struct
	// field index for children of a struct that came from a Go type, 0 or 1
	// for the key and value of a map entry, 0 for a list element.
	Index int
	// GoType is the Go type of the values held by this node, with any
	// pointer indirection for nullable nodes included. It is nil for
	// synthetic nodes and for schemas read from a file.
	GoType reflect.Type
}

func (f *Field) IsLeaf() bool {
	return f.Kind == Primitive
}

func (f *Field) Child(name string) *Field {
	for _, c := range f.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Elem returns the Go type with pointer indirection removed.
func (f *Field) Elem() reflect.Type {
	if f.GoType == nil {
		return nil
	}
	if f.GoType.Kind() == reflect.Ptr {
		return f.GoType.Elem()
	}
	return f.GoType
}

func (f *Field) repetition() string {
	switch {
	case f.Repeated:
		return "repeated"
	case f.Nullable:
		return "optional"
	}
	return "required"
}

func (f *Field) format(b *strings.Builder, indent int) {
	b.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(b, "%s %s", f.repetition(), f.Name)
	switch f.Kind {
	case Primitive:
		fmt.Fprintf(b, " %s\n", f.Type)
		return
	case List, Map:
		fmt.Fprintf(b, " (%s)", f.Kind)
	}
	b.WriteString(" {\n")
	for _, c := range f.Children {
		c.format(b, indent+1)
	}
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString("}\n")
}

// Schema is the root of a schema tree together with its resolved leaves.
type Schema struct {
	Root   *Field
	leaves []*Leaf
	// ForReading is true when the Go type was checked to be constructible
	// and settable.
	ForReading bool
}

// New resolves the leaves of the tree rooted at root.
func New(root *Field) *Schema {
	return &Schema{Root: root, leaves: resolve(root)}
}

func (s *Schema) Leaves() []*Leaf {
	return s.leaves
}

func (s *Schema) NumColumns() int {
	return len(s.leaves)
}

// Leaf returns the leaf with the given dotted path or nil.
func (s *Schema) Leaf(path string) *Leaf {
	for _, l := range s.leaves {
		if l.Path == path {
			return l
		}
	}
	return nil
}

// GoType returns the record type this schema was derived from or nil.
func (s *Schema) GoType() reflect.Type {
	return s.Root.GoType
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString("message ")
	b.WriteString(s.Root.Name)
	b.WriteString(" {\n")
	for _, c := range s.Root.Children {
		c.format(&b, 1)
	}
	b.WriteString("}\n")
	return b.String()
}
