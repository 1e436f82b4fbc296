// Package model defines the typed records and build results shared by the
// service, the sources and the writers.
package model

import "fmt"

// Record is a generic typed node. It is what open records decode into when a
// build runs in node or fields mode.
type Record struct {
	Key    any            `json:"id" mapstructure:"id"`
	Parent any            `json:"parent,omitempty" mapstructure:"parent"`
	Name   string         `json:"name,omitempty" mapstructure:"name"`
	Attrs  map[string]any `json:"attrs,omitempty" mapstructure:"attrs"`
	Nested []*Record      `json:"children,omitempty" mapstructure:"-"`
}

// ID returns the record identifier.
func (r *Record) ID() any {
	return r.Key
}

// ParentID returns the parent identifier. A nil parent marks a root.
func (r *Record) ParentID() (any, bool) {
	return r.Parent, r.Parent != nil
}

// Children returns the attached children.
func (r *Record) Children() []*Record {
	return r.Nested
}

// SetChildren replaces the attached children.
func (r *Record) SetChildren(children []*Record) {
	r.Nested = children
}

// String renders the record without its children.
func (r *Record) String() string {
	if r.Name == "" {
		return fmt.Sprintf("Record{id=%v parent=%v}", r.Key, r.Parent)
	}
	return fmt.Sprintf("Record{id=%v parent=%v name=%s}", r.Key, r.Parent, r.Name)
}
