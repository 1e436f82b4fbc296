package tree

// Node is the contract for strongly typed records.
//
// T is normally the implementing pointer type itself, for example
//
//	type Menu struct { ... Child []*Menu }
//	func (m *Menu) Children() []*Menu { return m.Child }
type Node[K comparable, T any] interface {
	// ID returns the record's own identifier. It must not change during a build.
	ID() K

	// ParentID returns the identifier to attach under. ok is false for
	// intentional roots.
	ParentID() (id K, ok bool)

	// Children returns the attached children, nil when none were attached yet.
	Children() []T

	// SetChildren replaces the children slice. Only the builder calls it.
	SetChildren(children []T)
}
