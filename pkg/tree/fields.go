package tree

import (
	"strings"

	apperrors "github.com/tree-builder/pkg/errors"
)

// Default field names used when a name is left blank.
const (
	DefaultIDField       = "id"
	DefaultParentField   = "parent"
	DefaultChildrenField = "children"

	// ChildrenKey is the reserved key BuildMaps stores children under.
	ChildrenKey = DefaultChildrenField
)

// FieldNames binds the three semantic fields of a record to concrete names.
type FieldNames struct {
	ID       string `mapstructure:"id_field"`
	Parent   string `mapstructure:"parent_field"`
	Children string `mapstructure:"children_field"`
}

// DefaultFieldNames returns id/parent/children.
func DefaultFieldNames() FieldNames {
	return FieldNames{
		ID:       DefaultIDField,
		Parent:   DefaultParentField,
		Children: DefaultChildrenField,
	}
}

// WithDefaults returns a copy with blank names replaced by the defaults.
func (f FieldNames) WithDefaults() FieldNames {
	if strings.TrimSpace(f.ID) == "" {
		f.ID = DefaultIDField
	}
	if strings.TrimSpace(f.Parent) == "" {
		f.Parent = DefaultParentField
	}
	if strings.TrimSpace(f.Children) == "" {
		f.Children = DefaultChildrenField
	}
	return f
}

// Validate rejects bindings where two semantic fields share a name.
func (f FieldNames) Validate() error {
	switch {
	case f.ID == f.Parent:
		return apperrors.Newf(apperrors.CodeInvalidConfig,
			"id and parent fields must differ, both are %q", f.ID)
	case f.Children == f.ID:
		return apperrors.Newf(apperrors.CodeInvalidConfig,
			"children field %q collides with the id field", f.Children)
	case f.Children == f.Parent:
		return apperrors.Newf(apperrors.CodeInvalidConfig,
			"children field %q collides with the parent field", f.Children)
	}
	return nil
}
