package mindmap

import "sort"

// Index is a per-project view over a flat node snapshot: id lookup plus
// ordered child lists derived from parent references. Build it once per
// request instead of rescanning the slice for every child lookup.
type Index struct {
	byID     map[string]*Node
	children map[string][]*Node // parent id → children, order_index ascending
	root     *Node
}

// NewIndex builds an Index from a flat node list. Child lists are sorted
// by order_index ascending; the incoming slice order (insertion order)
// breaks ties. The slice is not retained; nodes are.
func NewIndex(nodes []*Node) *Index {
	idx := &Index{
		byID:     make(map[string]*Node, len(nodes)),
		children: make(map[string][]*Node),
	}
	for _, n := range nodes {
		idx.byID[n.ID] = n
		if n.IsRoot() && n.Level == 0 {
			idx.root = n
		}
	}
	for _, n := range nodes {
		if !n.IsRoot() {
			idx.children[n.ParentID] = append(idx.children[n.ParentID], n)
		}
	}
	for _, kids := range idx.children {
		sort.SliceStable(kids, func(i, j int) bool {
			return kids[i].OrderIndex < kids[j].OrderIndex
		})
	}
	return idx
}

// Get returns the node with the given id, or nil.
func (idx *Index) Get(id string) *Node { return idx.byID[id] }

// Root returns the level-0 root node, or nil if the snapshot has none.
func (idx *Index) Root() *Node { return idx.root }

// Children returns the ordered child list of a node. The returned slice
// is owned by the index; callers must not mutate it.
func (idx *Index) Children(id string) []*Node { return idx.children[id] }

// MaxChildOrder returns the highest order_index among a node's children,
// or 0 when it has none. New children are appended at MaxChildOrder+1.
func (idx *Index) MaxChildOrder(id string) int {
	max := 0
	for _, c := range idx.children[id] {
		if c.OrderIndex > max {
			max = c.OrderIndex
		}
	}
	return max
}

// Flatten returns the nodes reachable from the root in pre-order,
// children visited in sibling order. Nodes detached from the root
// (orphans) are omitted, matching the tree the caller would render.
func (idx *Index) Flatten() []*Node {
	if idx.root == nil {
		return nil
	}
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range idx.children[n.ID] {
			walk(c)
		}
	}
	walk(idx.root)
	return out
}
