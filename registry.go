package parq

import (
	"reflect"
	"sync"

	"github.com/brimdata/parq/dremel"
	"github.com/brimdata/parq/schema"
)

// Registry caches a Striper and an Assembler per record type. Entries are
// never evicted. A Registry is safe for concurrent use.
type Registry struct {
	stripers   sync.Map // reflect.Type -> *dremel.Striper
	assemblers sync.Map // reflect.Type -> *dremel.Assembler
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Striper(typ reflect.Type) (*dremel.Striper, error) {
	if v, ok := r.stripers.Load(typ); ok {
		return v.(*dremel.Striper), nil
	}
	s, err := schema.Derive(typ, false)
	if err != nil {
		return nil, err
	}
	st, err := dremel.NewStriper(s)
	if err != nil {
		return nil, err
	}
	v, _ := r.stripers.LoadOrStore(typ, st)
	return v.(*dremel.Striper), nil
}

func (r *Registry) Assembler(typ reflect.Type) (*dremel.Assembler, error) {
	if v, ok := r.assemblers.Load(typ); ok {
		return v.(*dremel.Assembler), nil
	}
	s, err := schema.Derive(typ, true)
	if err != nil {
		return nil, err
	}
	asm, err := dremel.NewAssembler(s)
	if err != nil {
		return nil, err
	}
	v, _ := r.assemblers.LoadOrStore(typ, asm)
	return v.(*dremel.Assembler), nil
}
