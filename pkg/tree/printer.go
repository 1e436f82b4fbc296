package tree

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/tree-builder/pkg/utils"
)

const indentUnit = "    "

// Printer renders a forest as indented lines, one record per line, parents
// before children.
type Printer struct {
	emit func(line string)
}

// NewPrinter creates a printer writing lines to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		emit: func(line string) {
			_, _ = fmt.Fprintln(w, line)
		},
	}
}

// NewLogPrinter creates a printer sending each line to logger at info level.
func NewLogPrinter(logger utils.Logger) *Printer {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Printer{
		emit: func(line string) {
			logger.Info("%s", line)
		},
	}
}

func printForest[T any](p *Printer, forest []T, children ChildrenFunc[T], repr func(T) string) {
	Walk(forest, children, func(record T, depth int) bool {
		p.emit(strings.Repeat(indentUnit, depth) + repr(record))
		return true
	})
}

// PrintNodes prints a typed node forest. Nodes implementing fmt.Stringer are
// printed with String; other struct nodes print their fields without the
// children slice.
func PrintNodes[K comparable, T Node[K, T]](p *Printer, forest []T) {
	printForest(p, forest, NodeChildren[K, T](), nodeRepr[T])
}

// PrintFields prints a forest built with BuildFields using the same names.
func PrintFields[T any](p *Printer, forest []T, names FieldNames) error {
	if len(forest) == 0 {
		return nil
	}
	acc, err := ResolveAccessor(forest[0], names)
	if err != nil {
		return err
	}

	var repr func(T) string
	switch a := acc.(type) {
	case *structAccessor:
		repr = func(record T) string {
			return structRepr(reflect.ValueOf(record), a.children.index)
		}
	case *mapAccessor:
		repr = func(record T) string {
			m, err := a.record(record)
			if err != nil {
				return fmt.Sprint(record)
			}
			return mapRepr(m, a.names.Children)
		}
	default:
		repr = func(record T) string { return fmt.Sprint(record) }
	}

	printForest(p, forest, AccessorChildren[T](acc), repr)
	return nil
}

// PrintMaps prints a forest built with BuildMaps.
func PrintMaps(p *Printer, forest []map[string]any) {
	printForest(p, forest, mapChildren, func(m map[string]any) string {
		return mapRepr(m, ChildrenKey)
	})
}

func mapChildren(m map[string]any) []map[string]any {
	switch children := m[ChildrenKey].(type) {
	case []map[string]any:
		return children
	case []any:
		out := make([]map[string]any, 0, len(children))
		for _, c := range children {
			if cm, ok := c.(map[string]any); ok {
				out = append(out, cm)
			}
		}
		return out
	}
	return nil
}

// mapRepr formats m without its children entry. fmt sorts map keys.
func mapRepr(m map[string]any, childrenKey string) string {
	shallow := make(map[string]any, len(m))
	for k, v := range m {
		if k == childrenKey {
			continue
		}
		shallow[k] = v
	}
	return fmt.Sprint(shallow)
}

func nodeRepr[T any](node T) string {
	if s, ok := any(node).(fmt.Stringer); ok {
		return s.String()
	}
	v := reflect.ValueOf(node)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Sprint(node)
	}
	return structRepr(v, childrenIndex(v.Type()))
}

// childrenIndex finds the field of the struct behind t holding a slice of t,
// looking one embedding level deep like field resolution does.
func childrenIndex(t reflect.Type) []int {
	want := reflect.SliceOf(t)
	st := t.Elem()
	for i := 0; i < st.NumField(); i++ {
		if st.Field(i).Type == want {
			return []int{i}
		}
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
		for j := 0; j < et.NumField(); j++ {
			if et.Field(j).Type == want {
				return []int{i, j}
			}
		}
	}
	return nil
}

// structRepr formats a pointer to struct as {Name:value ...}, leaving out the
// field at index skip.
func structRepr(v reflect.Value, skip []int) string {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "<nil>"
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Sprint(v)
	}

	t := v.Type()
	parts := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		switch {
		case len(skip) == 1 && skip[0] == i:
			continue
		case len(skip) > 1 && skip[0] == i:
			parts = append(parts, f.Name+":"+structRepr(v.Field(i), skip[1:]))
		default:
			parts = append(parts, fmt.Sprintf("%s:%+v", f.Name, v.Field(i)))
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}
