package tree

import (
	"reflect"
	"strings"
	"sync"

	apperrors "github.com/tree-builder/pkg/errors"
)

// fieldRef locates a struct field. index has one element for fields declared
// on the record's struct and two for fields of a directly embedded struct.
type fieldRef struct {
	name  string
	index []int
	typ   reflect.Type
}

// structAccessor resolves fields on pointer-to-struct records.
type structAccessor struct {
	typ      reflect.Type
	id       fieldRef
	parent   fieldRef
	children fieldRef
}

type accessorKey struct {
	typ   reflect.Type
	names FieldNames
}

// accessorCache maps accessorKey to *structAccessor.
var accessorCache sync.Map

func resolveStructAccessor(t reflect.Type, names FieldNames) (*structAccessor, error) {
	key := accessorKey{typ: t, names: names}
	if cached, ok := accessorCache.Load(key); ok {
		return cached.(*structAccessor), nil
	}

	st := t.Elem()
	id, err := lookupField(st, names.ID)
	if err != nil {
		return nil, err
	}
	parent, err := lookupField(st, names.Parent)
	if err != nil {
		return nil, err
	}
	children, err := lookupField(st, names.Children)
	if err != nil {
		return nil, err
	}
	if children.typ.Kind() != reflect.Slice || !t.AssignableTo(children.typ.Elem()) {
		return nil, apperrors.Newf(apperrors.CodeTypeMismatch,
			"children field %s.%s has type %s, expected a slice accepting %s",
			st.Name(), children.name, children.typ, t)
	}
	// A nil unexported embedded pointer cannot be allocated when the first
	// child arrives, so the build would fail halfway through.
	if len(children.index) > 1 {
		outer := st.Field(children.index[0])
		if outer.Type.Kind() == reflect.Pointer && !outer.IsExported() {
			return nil, apperrors.Newf(apperrors.CodeTypeMismatch,
				"children field %s.%s is reached through unexported embedded pointer %s",
				st.Name(), children.name, outer.Name)
		}
	}

	a := &structAccessor{typ: t, id: id, parent: parent, children: children}
	actual, _ := accessorCache.LoadOrStore(key, a)
	return actual.(*structAccessor), nil
}

// lookupField finds name on st, then on structs embedded in st. Deeper
// embedding levels are not searched.
func lookupField(st reflect.Type, name string) (fieldRef, error) {
	if f, ok := directField(st, name); ok {
		return fieldRef{name: f.Name, index: f.Index, typ: f.Type}, nil
	}

	for i := 0; i < st.NumField(); i++ {
		outer := st.Field(i)
		if !outer.Anonymous {
			continue
		}
		et := outer.Type
		if et.Kind() == reflect.Pointer {
			et = et.Elem()
		}
		if et.Kind() != reflect.Struct {
			continue
		}
		if f, ok := directField(et, name); ok {
			return fieldRef{
				name:  outer.Name + "." + f.Name,
				index: []int{i, f.Index[0]},
				typ:   f.Type,
			}, nil
		}
	}

	return fieldRef{}, apperrors.Newf(apperrors.CodeFieldNotFound,
		"field %q not found on %s or its embedded structs", name, st)
}

// directField matches exported fields declared on st by Go name, tree tag,
// json tag and finally case-insensitive Go name.
func directField(st reflect.Type, name string) (reflect.StructField, bool) {
	matchers := []func(reflect.StructField) bool{
		func(f reflect.StructField) bool { return f.Name == name },
		func(f reflect.StructField) bool { return tagName(f, "tree") == name },
		func(f reflect.StructField) bool { return tagName(f, "json") == name },
		func(f reflect.StructField) bool { return strings.EqualFold(f.Name, name) },
	}

	for _, match := range matchers {
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			if !f.IsExported() {
				continue
			}
			if match(f) {
				return f, true
			}
		}
	}
	return reflect.StructField{}, false
}

func tagName(f reflect.StructField, key string) string {
	tag, ok := f.Tag.Lookup(key)
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

func (a *structAccessor) record(record any) (reflect.Value, error) {
	v := reflect.ValueOf(record)
	if !v.IsValid() || v.Type() != a.typ {
		return reflect.Value{}, apperrors.Newf(apperrors.CodeTypeMismatch,
			"record of type %T does not match the collection's record type %s", record, a.typ)
	}
	if v.IsNil() {
		return reflect.Value{}, apperrors.New(apperrors.CodeInvalidInput, "record is a nil pointer")
	}
	return v.Elem(), nil
}

// field walks ref on record. With alloc set, nil embedded pointers on the way
// are allocated; otherwise ok is false when one is met.
func (a *structAccessor) field(record any, ref fieldRef, alloc bool) (v reflect.Value, ok bool, err error) {
	v, err = a.record(record)
	if err != nil {
		return reflect.Value{}, false, err
	}

	for i, idx := range ref.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc {
					return reflect.Value{}, false, nil
				}
				if !v.CanSet() {
					return reflect.Value{}, false, apperrors.Newf(apperrors.CodeTypeMismatch,
						"cannot allocate unexported embedded struct for field %s", ref.name)
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(idx)
	}
	return v, true, nil
}

func (a *structAccessor) ID(record any) (any, error) {
	v, ok, err := a.field(record, a.id, false)
	if err != nil || !ok {
		return nil, err
	}
	return identifierValue(v), nil
}

func (a *structAccessor) ParentID(record any) (any, error) {
	v, ok, err := a.field(record, a.parent, false)
	if err != nil || !ok {
		return nil, err
	}
	return identifierValue(v), nil
}

func (a *structAccessor) Children(record any) (any, error) {
	v, ok, err := a.field(record, a.children, false)
	if err != nil || !ok || v.IsNil() {
		return nil, err
	}
	return v.Interface(), nil
}

func (a *structAccessor) AppendChild(parent, child any) error {
	if _, err := a.record(child); err != nil {
		return err
	}
	v, _, err := a.field(parent, a.children, true)
	if err != nil {
		return err
	}
	v.Set(reflect.Append(v, reflect.ValueOf(child)))
	return nil
}
