package tree

import (
	"reflect"

	apperrors "github.com/tree-builder/pkg/errors"
)

// mapAccessor resolves fields on open records by key. Missing keys read as nil.
type mapAccessor struct {
	names FieldNames
	typ   reflect.Type
}

func (a *mapAccessor) record(record any) (map[string]any, error) {
	if m, ok := record.(map[string]any); ok {
		return m, nil
	}
	v := reflect.ValueOf(record)
	if !v.IsValid() || v.Type() != a.typ {
		return nil, apperrors.Newf(apperrors.CodeTypeMismatch,
			"record of type %T does not match the collection's record type %s", record, a.typ)
	}
	// Conversion keeps the same underlying map, so writes stay visible.
	return v.Convert(mapType).Interface().(map[string]any), nil
}

func (a *mapAccessor) ID(record any) (any, error) {
	m, err := a.record(record)
	if err != nil {
		return nil, err
	}
	return identifierValue(reflect.ValueOf(m[a.names.ID])), nil
}

func (a *mapAccessor) ParentID(record any) (any, error) {
	m, err := a.record(record)
	if err != nil {
		return nil, err
	}
	return identifierValue(reflect.ValueOf(m[a.names.Parent])), nil
}

func (a *mapAccessor) Children(record any) (any, error) {
	m, err := a.record(record)
	if err != nil {
		return nil, err
	}
	switch children := m[a.names.Children].(type) {
	case nil:
		return nil, nil
	case []map[string]any, []any:
		return children, nil
	default:
		return nil, apperrors.Newf(apperrors.CodeTypeMismatch,
			"children key %q holds %T, expected a list of records", a.names.Children, children)
	}
}

func (a *mapAccessor) AppendChild(parent, child any) error {
	p, err := a.record(parent)
	if err != nil {
		return err
	}
	c, err := a.record(child)
	if err != nil {
		return err
	}

	switch children := p[a.names.Children].(type) {
	case nil:
		p[a.names.Children] = []map[string]any{c}
	case []map[string]any:
		p[a.names.Children] = append(children, c)
	case []any:
		p[a.names.Children] = append(children, c)
	default:
		return apperrors.Newf(apperrors.CodeTypeMismatch,
			"children key %q holds %T, expected a list of records", a.names.Children, children)
	}
	return nil
}
