package schema

import (
	"fmt"
	"strings"
)

// Leaf is a physical column: a primitive field together with the chain of
// fields leading to it from the root.
type Leaf struct {
	// Index is the position of the column in depth-first order.
	Index int
	// Path is the dotted path of field names from the root.
	Path  string
	Field *Field
	// Nodes holds the fields from the root's child down to the leaf,
	// inclusive.
	Nodes  []*Field
	MaxDef int
	MaxRep int
	// Def[i] is the definition level reached when Nodes[i] is present and
	// Rep[i] is the number of repeated fields in Nodes[:i+1].
	Def []int
	Rep []int
}

func resolve(root *Field) []*Leaf {
	var leaves []*Leaf
	var walk func(f *Field, nodes []*Field)
	walk = func(f *Field, nodes []*Field) {
		nodes = append(nodes[:len(nodes):len(nodes)], f)
		if f.IsLeaf() {
			leaves = append(leaves, newLeaf(len(leaves), nodes))
			return
		}
		for _, c := range f.Children {
			walk(c, nodes)
		}
	}
	for _, c := range root.Children {
		walk(c, nil)
	}
	return leaves
}

func newLeaf(index int, nodes []*Field) *Leaf {
	l := &Leaf{
		Index: index,
		Field: nodes[len(nodes)-1],
		Nodes: nodes,
		Def:   make([]int, len(nodes)),
		Rep:   make([]int, len(nodes)),
	}
	names := make([]string, len(nodes))
	var def, rep int
	for i, n := range nodes {
		if n.Nullable || n.Repeated {
			def++
		}
		if n.Repeated {
			rep++
		}
		l.Def[i] = def
		l.Rep[i] = rep
		names[i] = n.Name
	}
	l.Path = strings.Join(names, ".")
	l.MaxDef = def
	l.MaxRep = rep
	return l
}

func (l *Leaf) Type() *Type {
	return l.Field.Type
}

// Names returns the path as a slice of field names.
func (l *Leaf) Names() []string {
	names := make([]string, len(l.Nodes))
	for i, n := range l.Nodes {
		names[i] = n.Name
	}
	return names
}

// RepeatedDepth returns the index in Nodes of the repeated field with
// repetition level rep, or -1.
func (l *Leaf) RepeatedDepth(rep int) int {
	for i, n := range l.Nodes {
		if n.Repeated && l.Rep[i] == rep {
			return i
		}
	}
	return -1
}

// Plan describes how the levels of this column are decoded, one step per
// field on the path. It is meant for error messages.
func (l *Leaf) Plan() string {
	steps := make([]string, len(l.Nodes))
	for i, n := range l.Nodes {
		kind := n.Kind.String()
		if n.Kind == Primitive {
			kind = n.Type.Physical.String()
		}
		s := fmt.Sprintf("%s: %s %s def=%d", n.Name, n.repetition(), kind, l.Def[i])
		if n.Repeated {
			s += fmt.Sprintf(" rep=%d", l.Rep[i])
		}
		steps[i] = s
	}
	return strings.Join(steps, "; ")
}

func (l *Leaf) String() string {
	return fmt.Sprintf("%s %s (max def %d, max rep %d)", l.Path, l.Field.Type, l.MaxDef, l.MaxRep)
}
