package schema

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	tagName = "parquet"
	tagSep  = ","
	// RootName is the name of the root group of every schema.
	RootName = "schema"
)

// UnsupportedTypeError is returned when a Go type cannot be mapped onto
// the schema model.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Path   string
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema: unsupported type %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("schema: unsupported type %s at %q: %s", e.Type, e.Path, e.Reason)
}

// Derive builds the schema of the record type typ, which must be a struct
// or a pointer to a struct. When forReading is true, the type is also
// checked to be one that records can be decoded into.
func Derive(typ reflect.Type, forReading bool) (*Schema, error) {
	if typ == nil {
		return nil, &UnsupportedTypeError{Reason: "nil type"}
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct || typ == timeType {
		return nil, &UnsupportedTypeError{Type: typ, Reason: "record type must be a struct"}
	}
	d := &deriver{
		forReading: forReading,
		visiting:   make(map[reflect.Type]bool),
	}
	root, err := d.record(RootName, "", typ, typ, false)
	if err != nil {
		return nil, err
	}
	s := New(root)
	s.ForReading = forReading
	return s, nil
}

type deriver struct {
	forReading bool
	visiting   map[reflect.Type]bool
}

func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get(tagName)
	if tag == "" {
		tag = f.Tag.Get("json")
	}
	if tag != "" {
		s := strings.SplitN(tag, tagSep, 2)
		if len(s) > 0 && s[0] != "" {
			return s[0]
		}
	}
	return f.Name
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func (d *deriver) field(name, path string, typ reflect.Type) (*Field, error) {
	base := typ
	var nullable bool
	if typ.Kind() == reflect.Ptr {
		base = typ.Elem()
		switch base.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			return nil, &UnsupportedTypeError{Type: typ, Path: path, Reason: "pointer to " + base.Kind().String()}
		case reflect.Array:
			if base.Elem().Kind() != reflect.Uint8 {
				return nil, &UnsupportedTypeError{Type: typ, Path: path, Reason: "pointer to array"}
			}
		}
		nullable = true
	}
	if p := primitiveType(base); p != nil {
		if p.Physical == FixedLenByteArray && p.Length == 0 {
			return nil, &UnsupportedTypeError{Type: typ, Path: path, Reason: "zero-length byte array"}
		}
		if base.Kind() == reflect.Slice {
			// A nil []byte is a null.
			nullable = true
		}
		return &Field{
			Name:     name,
			Kind:     Primitive,
			Nullable: nullable,
			Type:     p,
			GoType:   typ,
		}, nil
	}
	switch base.Kind() {
	case reflect.Struct:
		return d.record(name, path, typ, base, nullable)
	case reflect.Slice, reflect.Array:
		return d.list(name, path, typ, base)
	case reflect.Map:
		return d.dict(name, path, typ, base)
	}
	return nil, &UnsupportedTypeError{Type: typ, Path: path, Reason: base.Kind().String() + " has no column representation"}
}

func (d *deriver) record(name, path string, typ, base reflect.Type, nullable bool) (*Field, error) {
	if d.visiting[base] {
		return nil, &UnsupportedTypeError{Type: typ, Path: path, Reason: "recursive type"}
	}
	d.visiting[base] = true
	defer delete(d.visiting, base)
	f := &Field{
		Name:     name,
		Kind:     Struct,
		Nullable: nullable,
		GoType:   typ,
	}
	names := make(map[string]bool)
	for i := 0; i < base.NumField(); i++ {
		sf := base.Field(i)
		isUnexported := sf.PkgPath != ""
		if sf.Anonymous {
			t := sf.Type
			if t.Kind() == reflect.Ptr {
				t = t.Elem()
			}
			if isUnexported && t.Kind() != reflect.Struct {
				// Ignore embedded fields of unexported non-struct types.
				continue
			}
			if isUnexported && sf.Type.Kind() == reflect.Ptr && d.forReading {
				return nil, &UnsupportedTypeError{
					Type:   sf.Type,
					Path:   join(path, sf.Name),
					Reason: "cannot set embedded pointer to unexported struct",
				}
			}
		} else if isUnexported {
			continue
		}
		if sf.Tag.Get(tagName) == "-" {
			continue
		}
		childName := fieldName(sf)
		childPath := join(path, childName)
		if names[childName] {
			return nil, &UnsupportedTypeError{Type: typ, Path: childPath, Reason: "duplicate field name"}
		}
		names[childName] = true
		child, err := d.field(childName, childPath, sf.Type)
		if err != nil {
			return nil, err
		}
		child.Index = i
		f.Children = append(f.Children, child)
	}
	if len(f.Children) == 0 {
		return nil, &UnsupportedTypeError{Type: typ, Path: path, Reason: "struct has no columns"}
	}
	return f, nil
}

func (d *deriver) list(name, path string, typ, base reflect.Type) (*Field, error) {
	elem, err := d.field(ElementName, join(path, ListName+"."+ElementName), base.Elem())
	if err != nil {
		return nil, err
	}
	return &Field{
		Name: name,
		Kind: List,
		// Arrays always have their elements.
		Nullable: base.Kind() == reflect.Slice,
		GoType:   typ,
		Children: []*Field{{
			Name:     ListName,
			Kind:     Struct,
			Repeated: true,
			Children: []*Field{elem},
		}},
	}, nil
}

func (d *deriver) dict(name, path string, typ, base reflect.Type) (*Field, error) {
	kvPath := join(path, KeyValueName)
	key, err := d.field(KeyName, join(kvPath, KeyName), base.Key())
	if err != nil {
		return nil, err
	}
	if key.Nullable {
		return nil, &UnsupportedTypeError{Type: base.Key(), Path: join(kvPath, KeyName), Reason: "map keys cannot be null"}
	}
	value, err := d.field(ValueName, join(kvPath, ValueName), base.Elem())
	if err != nil {
		return nil, err
	}
	value.Index = 1
	return &Field{
		Name:     name,
		Kind:     Map,
		Nullable: true,
		GoType:   typ,
		Children: []*Field{{
			Name:     KeyValueName,
			Kind:     Struct,
			Repeated: true,
			Children: []*Field{key, value},
		}},
	}, nil
}
