package tree

import (
	"reflect"

	apperrors "github.com/tree-builder/pkg/errors"
)

// Accessor reads and writes the three semantic fields of one record shape.
//
// ID and ParentID return nil when the record has no value for the field.
// Children returns the current children container (nil when unset) and fails
// when the stored value cannot hold children. AppendChild creates the
// container on first use.
type Accessor interface {
	ID(record any) (any, error)
	ParentID(record any) (any, error)
	Children(record any) (any, error)
	AppendChild(parent, child any) error
}

var mapType = reflect.TypeOf(map[string]any(nil))

// ResolveAccessor returns the accessor for records shaped like sample.
//
// Maps with string keys and interface values use key lookup. Pointers to
// structs use field resolution as described in the package documentation.
// Anything else is a type mismatch.
func ResolveAccessor(sample any, names FieldNames) (Accessor, error) {
	names = names.WithDefaults()
	if err := names.Validate(); err != nil {
		return nil, err
	}

	t := reflect.TypeOf(sample)
	if t == nil {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "cannot resolve fields on a nil record")
	}

	switch {
	case isOpenRecordType(t):
		return &mapAccessor{names: names, typ: t}, nil
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		a, err := resolveStructAccessor(t, names)
		if err != nil {
			return nil, err
		}
		return a, nil
	case t.Kind() == reflect.Struct:
		return nil, apperrors.Newf(apperrors.CodeTypeMismatch,
			"records of type %s must be passed as pointers so children can be attached", t)
	default:
		return nil, apperrors.Newf(apperrors.CodeTypeMismatch,
			"unsupported record type %s: expected a map[string]any or a pointer to a struct", t)
	}
}

func isOpenRecordType(t reflect.Type) bool {
	return t.Kind() == reflect.Map &&
		t.Key().Kind() == reflect.String &&
		t.Elem().Kind() == reflect.Interface &&
		t.Elem().NumMethod() == 0
}

// identifierValue unwraps pointers and interfaces so that identifiers compare
// by value. Nil pointers and nil interfaces are absent.
func identifierValue(v reflect.Value) any {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

// checkComparable fails when id cannot be used as a map key.
func checkComparable(id any, field string) error {
	if id == nil {
		return nil
	}
	if !reflect.ValueOf(id).Comparable() {
		return apperrors.Newf(apperrors.CodeTypeMismatch,
			"%s value of type %T is not comparable", field, id)
	}
	return nil
}

func isNilRecord(record any) bool {
	if record == nil {
		return true
	}
	v := reflect.ValueOf(record)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}
