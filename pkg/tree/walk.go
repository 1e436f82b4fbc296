package tree

import (
	"reflect"

	"github.com/tree-builder/pkg/collections"
)

// ChildrenFunc returns the children of a record in order.
type ChildrenFunc[T any] func(record T) []T

// NodeChildren returns the ChildrenFunc of a typed node forest.
func NodeChildren[K comparable, T Node[K, T]]() ChildrenFunc[T] {
	return func(n T) []T {
		return n.Children()
	}
}

// AccessorChildren returns a ChildrenFunc reading the children slot through
// acc. Entries that are not of type T are skipped.
func AccessorChildren[T any](acc Accessor) ChildrenFunc[T] {
	return func(record T) []T {
		raw, err := acc.Children(record)
		if err != nil || raw == nil {
			return nil
		}
		if typed, ok := raw.([]T); ok {
			return typed
		}

		v := reflect.ValueOf(raw)
		if v.Kind() != reflect.Slice {
			return nil
		}
		out := make([]T, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			if c, ok := v.Index(i).Interface().(T); ok {
				out = append(out, c)
			}
		}
		return out
	}
}

type visit[T any] struct {
	record T
	depth  int
}

// Walk visits every record of the forest depth first, parents before
// children, siblings in order. Roots have depth 0. When fn returns false the
// record's subtree is skipped.
//
// Walk follows children links only, so records left inside a kept cycle are
// never reached from the roots.
func Walk[T any](forest []T, children ChildrenFunc[T], fn func(record T, depth int) bool) {
	stack := collections.NewStack[visit[T]](len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack.Push(visit[T]{record: forest[i]})
	}

	for !stack.IsEmpty() {
		cur, _ := stack.Pop()
		if !fn(cur.record, cur.depth) {
			continue
		}
		kids := children(cur.record)
		for i := len(kids) - 1; i >= 0; i-- {
			stack.Push(visit[T]{record: kids[i], depth: cur.depth + 1})
		}
	}
}

// Count returns the number of records reachable from the roots.
func Count[T any](forest []T, children ChildrenFunc[T]) int {
	n := 0
	Walk(forest, children, func(T, int) bool {
		n++
		return true
	})
	return n
}

// Depth returns the number of levels in the forest. An empty forest has
// depth 0 and a forest of lone roots depth 1.
func Depth[T any](forest []T, children ChildrenFunc[T]) int {
	deepest := 0
	Walk(forest, children, func(_ T, depth int) bool {
		if depth+1 > deepest {
			deepest = depth + 1
		}
		return true
	})
	return deepest
}
