// Package parq writes slices of Go structs to Parquet files and reads them
// back. Records are shredded into columns of repetition and definition
// levels by package dremel and stored with package parquetio.
package parq

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

type Serializer struct {
	registry *Registry
	logger   *zap.Logger
}

type SerializerOption func(*Serializer)

func WithLogger(logger *zap.Logger) SerializerOption {
	return func(s *Serializer) {
		s.logger = logger
	}
}

// WithRegistry shares a type cache between serializers.
func WithRegistry(r *Registry) SerializerOption {
	return func(s *Serializer) {
		s.registry = r
	}
}

func NewSerializer(opts ...SerializerOption) *Serializer {
	s := &Serializer{
		registry: NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Serializer) Registry() *Registry {
	return s.registry
}

// recordType returns the struct type of a slice of structs or of pointers
// to structs.
func recordType(typ reflect.Type) (reflect.Type, error) {
	if typ.Kind() != reflect.Slice {
		return nil, fmt.Errorf("records must be a slice of structs, not %s", typ)
	}
	elem := typ.Elem()
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("records must be a slice of structs, not %s", typ)
	}
	return elem, nil
}
