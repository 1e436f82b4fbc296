package testutil

import (
	"fmt"
	"strings"
	"testing"
)

// ForestString renders a map forest compactly: each node is its id,
// followed by its children in parentheses, siblings separated by spaces.
// "1(2(5) 3) 4" is two roots where 1 has children 2 and 3.
func ForestString(forest []map[string]any, idKey, childrenKey string) string {
	var b strings.Builder
	writeForest(&b, forest, idKey, childrenKey)
	return b.String()
}

func writeForest(b *strings.Builder, nodes []map[string]any, idKey, childrenKey string) {
	for i, node := range nodes {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprint(b, node[idKey])

		children := childMaps(node[childrenKey])
		if len(children) > 0 {
			b.WriteByte('(')
			writeForest(b, children, idKey, childrenKey)
			b.WriteByte(')')
		}
	}
}

func childMaps(v any) []map[string]any {
	switch c := v.(type) {
	case []map[string]any:
		return c
	case []any:
		out := make([]map[string]any, 0, len(c))
		for _, item := range c {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// AssertForest asserts that forest renders to expected under ForestString.
func AssertForest(t *testing.T, expected string, forest []map[string]any, idKey, childrenKey string) {
	t.Helper()
	if actual := ForestString(forest, idKey, childrenKey); actual != expected {
		t.Errorf("forest mismatch:\nExpected: %s\nActual:   %s", expected, actual)
	}
}
