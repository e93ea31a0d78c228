package mindmap

// Trace walks upward from a just-answered node, closing ancestors whose
// subtrees are fully answered and locating the next red node the user
// should work on.
//
// At each ancestor it inspects the ordered sibling list:
//   - a red sibling stops the climb; descent into the first red subtree
//     yields the next node (see nextRedIn);
//   - if every question child is answered (tip children never block),
//     the ancestor itself is marked green — unless it is the root, whose
//     closure is derived from the whole tree by the caller — and the
//     climb continues;
//   - anything else stops the climb with no next node.
//
// Trace mutates only the Status of closed ancestors (always red→green;
// a node is never reverted) and returns them so the caller can persist
// the change. It always terminates: each step moves strictly toward the
// root. An empty next id means no red node remains reachable this way;
// the caller recomputes whole-project closure separately.
func Trace(idx *Index, leaf *Node) (nextID string, closed []*Node) {
	cur := leaf
	for cur != nil && !cur.IsRoot() {
		parent := idx.Get(cur.ParentID)
		if parent == nil {
			break
		}

		kids := idx.Children(parent.ID)
		if red := firstRed(kids); red != nil {
			if id := nextRedIn(idx, red); id != "" {
				return id, closed
			}
			return red.ID, closed
		}

		if !allClosed(kids) {
			break
		}
		if !parent.IsRoot() && parent.Status == StatusRed {
			parent.Status = StatusGreen
			closed = append(closed, parent)
		}
		cur = parent
	}
	return "", closed
}

// firstRed returns the first red node in an ordered sibling list.
func firstRed(kids []*Node) *Node {
	for _, k := range kids {
		if k.Status == StatusRed {
			return k
		}
	}
	return nil
}

// allClosed reports whether every question child is answered. Tip
// children are informational and never hold a subtree open.
func allClosed(kids []*Node) bool {
	for _, k := range kids {
		if k.NodeType == TypeTip {
			continue
		}
		if !k.Status.Answered() {
			return false
		}
	}
	return true
}

// nextRedIn finds the first actionable node in a red subtree: the first
// red node in pre-order that has no red child of its own. Starting from
// a red root the search always lands somewhere, but an empty result is
// possible on malformed snapshots; callers fall back to the subtree
// root's id.
func nextRedIn(idx *Index, start *Node) string {
	var walk func(n *Node) string
	walk = func(n *Node) string {
		kids := idx.Children(n.ID)
		if n.Status == StatusRed && firstRed(kids) == nil {
			return n.ID
		}
		for _, c := range kids {
			if id := walk(c); id != "" {
				return id
			}
		}
		return ""
	}
	return walk(start)
}
