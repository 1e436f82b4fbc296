package tree

// category is a typed node used across the package tests.
type category struct {
	Key       int
	Parent    int
	HasParent bool
	Kids      []*category
}

func (c *category) ID() int { return c.Key }

func (c *category) ParentID() (int, bool) { return c.Parent, c.HasParent }

func (c *category) Children() []*category { return c.Kids }

func (c *category) SetChildren(children []*category) { c.Kids = children }

func rootCategory(id int) *category {
	return &category{Key: id}
}

func childCategory(id, parent int) *category {
	return &category{Key: id, Parent: parent, HasParent: true}
}

func categoryKeys(nodes []*category) []int {
	keys := make([]int, 0, len(nodes))
	for _, n := range nodes {
		keys = append(keys, n.Key)
	}
	return keys
}

// menu is resolved by field names.
type menu struct {
	ID    int     `json:"id"`
	Pid   *int    `json:"pid"`
	Name  string  `json:"name"`
	Child []*menu `json:"child"`
}

func intPtr(v int) *int { return &v }

func menuIDs(menus []*menu) []int {
	ids := make([]int, 0, len(menus))
	for _, m := range menus {
		ids = append(ids, m.ID)
	}
	return ids
}

func mapIDs(rows []map[string]any) []any {
	ids := make([]any, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r["id"])
	}
	return ids
}

func childMaps(row map[string]any, key string) []map[string]any {
	children, _ := row[key].([]map[string]any)
	return children
}
