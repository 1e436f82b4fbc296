package tree

import (
	"fmt"
	"strings"

	"github.com/tree-builder/pkg/collections"
	apperrors "github.com/tree-builder/pkg/errors"
)

// root marks a record without an indexed parent.
const root = -1

var (
	idPool     = collections.NewSlicePool[any](256)
	parentPool = collections.NewSlicePool[int](256)
)

// linker adapts one record shape to the shared build algorithm.
type linker[T any] struct {
	id          func(T) (any, error)
	parentID    func(T) (any, error)
	checkParent func(T) error
	appendChild func(parent, child T) error
}

// Build links typed nodes into a forest and returns the roots in input order.
//
// K is usually given explicitly and T inferred:
//
//	roots, err := tree.Build[int](menus)
func Build[K comparable, T Node[K, T]](nodes []T, opts ...Option) ([]T, error) {
	l := linker[T]{
		id: func(n T) (any, error) {
			return n.ID(), nil
		},
		parentID: func(n T) (any, error) {
			pid, ok := n.ParentID()
			if !ok {
				return nil, nil
			}
			return pid, nil
		},
		checkParent: func(T) error { return nil },
		appendChild: func(parent, child T) error {
			parent.SetChildren(append(parent.Children(), child))
			return nil
		},
	}
	return link(nodes, l, newOptions(opts))
}

// BuildFields links records whose semantic fields are named at call time.
// Records are pointers to structs or map[string]any values. Blank names fall
// back to id, parent and children.
func BuildFields[T any](records []T, idField, parentField, childrenField string, opts ...Option) ([]T, error) {
	names := FieldNames{ID: idField, Parent: parentField, Children: childrenField}.WithDefaults()
	if err := names.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []T{}, nil
	}

	acc, err := ResolveAccessor(records[0], names)
	if err != nil {
		return nil, err
	}
	return BuildWith(records, acc, opts...)
}

// BuildMaps links open records and stores children under ChildrenKey.
func BuildMaps(records []map[string]any, idField, parentField string, opts ...Option) ([]map[string]any, error) {
	return BuildFields(records, idField, parentField, ChildrenKey, opts...)
}

// BuildWith links records through an already resolved accessor.
func BuildWith[T any](records []T, acc Accessor, opts ...Option) ([]T, error) {
	l := linker[T]{
		id: func(r T) (any, error) {
			return acc.ID(r)
		},
		parentID: func(r T) (any, error) {
			return acc.ParentID(r)
		},
		checkParent: func(r T) error {
			_, err := acc.Children(r)
			return err
		},
		appendChild: func(parent, child T) error {
			return acc.AppendChild(parent, child)
		},
	}
	return link(records, l, newOptions(opts))
}

func link[T any](records []T, l linker[T], o *options) ([]T, error) {
	if len(records) == 0 {
		return []T{}, nil
	}

	n := len(records)
	idBuf := idPool.Get(n)
	defer idPool.Put(idBuf)
	ids := *idBuf
	index := make(map[any]int, n)
	duplicates := 0

	for i, r := range records {
		if isNilRecord(r) {
			return nil, apperrors.Newf(apperrors.CodeInvalidInput, "record at position %d is nil", i)
		}
		id, err := l.id(r)
		if err != nil {
			return nil, err
		}
		if err := checkComparable(id, "id"); err != nil {
			return nil, err
		}
		ids[i] = id
		if id == nil {
			continue
		}
		if _, seen := index[id]; seen {
			duplicates++
			continue
		}
		index[id] = i
	}

	parentBuf := parentPool.Get(n)
	defer parentPool.Put(parentBuf)
	parents := *parentBuf
	receivers := collections.NewBitset(n)
	for i, r := range records {
		parents[i] = root
		pid, err := l.parentID(r)
		if err != nil {
			return nil, err
		}
		if err := checkComparable(pid, "parent"); err != nil {
			return nil, err
		}
		if pid == nil {
			continue
		}
		p, ok := index[pid]
		if !ok {
			continue
		}
		parents[i] = p
		if !receivers.Test(p) {
			receivers.Set(p)
			if err := l.checkParent(records[p]); err != nil {
				return nil, err
			}
		}
	}

	if o.cycles == CycleReject {
		if err := detectCycle(parents, ids); err != nil {
			return nil, err
		}
	}

	roots := make([]T, 0)
	for i, r := range records {
		p := parents[i]
		if p == root {
			roots = append(roots, r)
			continue
		}
		if err := l.appendChild(records[p], r); err != nil {
			return nil, err
		}
	}

	o.logger.Debug("indexed %d records (%d duplicate ids), %d roots", n, duplicates, len(roots))
	return roots, nil
}

// detectCycle follows every parent chain once. A chain that returns to a
// record already on the current path is a cycle.
func detectCycle(parents []int, ids []any) error {
	n := len(parents)
	done := collections.NewBitset(n)
	onPath := collections.NewBitset(n)
	path := collections.NewStack[int](16)

	for start := 0; start < n; start++ {
		j := start
		for j != root && !done.Test(j) && !onPath.Test(j) {
			onPath.Set(j)
			path.Push(j)
			j = parents[j]
		}
		if j != root && onPath.Test(j) {
			return cycleError(path, j, ids)
		}
		for !path.IsEmpty() {
			k, _ := path.Pop()
			onPath.Clear(k)
			done.Set(k)
		}
	}
	return nil
}

func cycleError(path *collections.Stack[int], entry int, ids []any) error {
	var members []int
	for !path.IsEmpty() {
		k, _ := path.Pop()
		members = append(members, k)
		if k == entry {
			break
		}
	}

	parts := make([]string, 0, len(members)+1)
	for i := len(members) - 1; i >= 0; i-- {
		parts = append(parts, fmt.Sprint(ids[members[i]]))
	}
	parts = append(parts, fmt.Sprint(ids[entry]))

	return apperrors.Newf(apperrors.CodeCircularReference,
		"parent cycle detected: %s", strings.Join(parts, " -> "))
}
