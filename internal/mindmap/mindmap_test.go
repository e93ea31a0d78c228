package mindmap_test

import (
	"testing"

	"github.com/mindweave/mindweave/internal/mindmap"
)

// q builds a question node for tree fixtures.
func q(id, parent string, level, order int, status mindmap.NodeStatus) *mindmap.Node {
	return &mindmap.Node{
		ID:         id,
		ProjectID:  "proj",
		ParentID:   parent,
		Level:      level,
		Title:      id,
		Question:   id + "?",
		Status:     status,
		NodeType:   mindmap.TypeQuestion,
		OrderIndex: order,
	}
}

// tip builds a tip node for tree fixtures.
func tip(id, parent string, level, order int) *mindmap.Node {
	n := q(id, parent, level, order, mindmap.StatusTip)
	n.NodeType = mindmap.TypeTip
	return n
}

// ─── Statuses / Types ───────────────────────────────────────────────────────

func TestAnswered(t *testing.T) {
	cases := []struct {
		status mindmap.NodeStatus
		want   bool
	}{
		{mindmap.StatusRed, false},
		{mindmap.StatusGreen, true},
		{mindmap.StatusAI, true},
		{mindmap.StatusTip, false},
	}
	for _, c := range cases {
		if got := c.status.Answered(); got != c.want {
			t.Errorf("%s.Answered() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestCanTransition_OnlyRedCloses(t *testing.T) {
	if !mindmap.StatusRed.CanTransition(mindmap.StatusGreen) {
		t.Error("red → green should be allowed")
	}
	if !mindmap.StatusRed.CanTransition(mindmap.StatusAI) {
		t.Error("red → ai should be allowed")
	}
	if mindmap.StatusGreen.CanTransition(mindmap.StatusAI) {
		t.Error("green → ai must not be allowed")
	}
	if mindmap.StatusAI.CanTransition(mindmap.StatusGreen) {
		t.Error("ai → green must not be allowed")
	}
	if mindmap.StatusGreen.CanTransition(mindmap.StatusRed) {
		t.Error("answered nodes must never reopen")
	}
}

func TestCountable(t *testing.T) {
	root := q("root", "", 0, 0, mindmap.StatusRed)
	if root.Countable() {
		t.Error("root must not count toward progress")
	}
	if !q("a", "root", 1, 1, mindmap.StatusRed).Countable() {
		t.Error("level-1 question must count")
	}
	if tip("t", "root", 1, 2).Countable() {
		t.Error("tip must not count")
	}
}

func TestModeLimits(t *testing.T) {
	cases := []struct {
		mode      mindmap.Mode
		questions int
		depth     int
	}{
		{mindmap.ModeBrief, 10, 2},
		{mindmap.ModeDetail, 20, 3},
		{mindmap.ModeDeep, 40, 4},
	}
	for _, c := range cases {
		gotQ, gotD := c.mode.Limits()
		if gotQ != c.questions || gotD != c.depth {
			t.Errorf("%s.Limits() = (%d, %d), want (%d, %d)", c.mode, gotQ, gotD, c.questions, c.depth)
		}
	}
	if got := mindmap.ParseMode("verbose"); got != mindmap.ModeDetail {
		t.Errorf("unknown mode should default to detail, got %s", got)
	}
	if got := mindmap.ParseMode(" BRIEF "); got != mindmap.ModeBrief {
		t.Errorf("mode parsing should normalize case and spacing, got %s", got)
	}
}

func TestShortTitle(t *testing.T) {
	if got := mindmap.ShortTitle("Ship it", "Node"); got != "Ship it" {
		t.Errorf("short text should pass through, got %q", got)
	}
	if got := mindmap.ShortTitle("A considerably longer answer", "Node"); got != "A consi" {
		t.Errorf("long text should truncate to 7 runes, got %q", got)
	}
	if got := mindmap.ShortTitle("   ", "Node"); got != "Node" {
		t.Errorf("blank text should fall back, got %q", got)
	}
}

// ─── Progress ───────────────────────────────────────────────────────────────

func TestCalcProgress_Empty(t *testing.T) {
	p := mindmap.CalcProgress(nil)
	if p.Total != 0 || p.Answered != 0 || p.Percent != 0 {
		t.Errorf("empty snapshot: got %+v, want zeros", p)
	}
}

func TestCalcProgress_ExcludesRootAndTips(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusGreen),
		q("a", "root", 1, 1, mindmap.StatusGreen),
		q("b", "root", 1, 2, mindmap.StatusAI),
		q("c", "root", 1, 3, mindmap.StatusRed),
		tip("t1", "a", 2, 1),
	}
	p := mindmap.CalcProgress(nodes)
	if p.Total != 3 {
		t.Errorf("Total = %d, want 3 (root and tip excluded)", p.Total)
	}
	if p.Answered != 2 {
		t.Errorf("Answered = %d, want 2 (green and ai both count)", p.Answered)
	}
	if p.Percent != 67 {
		t.Errorf("Percent = %d, want 67 (2/3 rounded)", p.Percent)
	}
}

func TestCalcProgress_Rounding(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusGreen),
		q("b", "root", 1, 2, mindmap.StatusRed),
		q("c", "root", 1, 3, mindmap.StatusRed),
	}
	if p := mindmap.CalcProgress(nodes); p.Percent != 33 {
		t.Errorf("1/3 → %d, want 33", p.Percent)
	}
}

func TestCalcProgress_Idempotent(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusGreen),
	}
	first := mindmap.CalcProgress(nodes)
	second := mindmap.CalcProgress(nodes)
	if first != second {
		t.Errorf("recompute changed result: %+v vs %+v", first, second)
	}
}

// ─── Index ──────────────────────────────────────────────────────────────────

func TestIndex_ChildOrder(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("b", "root", 1, 2, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusRed),
	}
	idx := mindmap.NewIndex(nodes)
	kids := idx.Children("root")
	if len(kids) != 2 || kids[0].ID != "a" || kids[1].ID != "b" {
		t.Fatalf("children not ordered by order_index: %v", ids(kids))
	}
}

func TestIndex_ChildOrderTieIsInsertionOrder(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("first", "root", 1, 1, mindmap.StatusRed),
		q("second", "root", 1, 1, mindmap.StatusRed),
	}
	kids := mindmap.NewIndex(nodes).Children("root")
	if kids[0].ID != "first" || kids[1].ID != "second" {
		t.Fatalf("equal order_index should keep insertion order: %v", ids(kids))
	}
}

func TestIndex_MaxChildOrder(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 3, mindmap.StatusRed),
		q("b", "root", 1, 7, mindmap.StatusRed),
	}
	idx := mindmap.NewIndex(nodes)
	if got := idx.MaxChildOrder("root"); got != 7 {
		t.Errorf("MaxChildOrder = %d, want 7", got)
	}
	if got := idx.MaxChildOrder("a"); got != 0 {
		t.Errorf("MaxChildOrder of leaf = %d, want 0", got)
	}
}

func TestIndex_Flatten_PreOrder(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("b", "root", 1, 2, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusRed),
		q("a1", "a", 2, 1, mindmap.StatusRed),
	}
	flat := mindmap.NewIndex(nodes).Flatten()
	want := []string{"root", "a", "a1", "b"}
	got := ids(flat)
	if len(got) != len(want) {
		t.Fatalf("Flatten = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Flatten = %v, want %v", got, want)
		}
	}
}

func ids(nodes []*mindmap.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

// ─── Trace ──────────────────────────────────────────────────────────────────

func TestTrace_RedSiblingIsNext(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusGreen),
		q("b", "root", 1, 2, mindmap.StatusRed),
	}
	idx := mindmap.NewIndex(nodes)
	next, closed := mindmap.Trace(idx, idx.Get("a"))
	if next != "b" {
		t.Errorf("next = %q, want b", next)
	}
	if len(closed) != 0 {
		t.Errorf("nothing should close, got %v", ids(closed))
	}
}

func TestTrace_DescendsIntoRedSubtree(t *testing.T) {
	// b is red with red children; the next node is the deepest-first
	// red node that has no red child of its own.
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusGreen),
		q("b", "root", 1, 2, mindmap.StatusRed),
		q("b1", "b", 2, 1, mindmap.StatusRed),
		q("b2", "b", 2, 2, mindmap.StatusRed),
	}
	idx := mindmap.NewIndex(nodes)
	next, _ := mindmap.Trace(idx, idx.Get("a"))
	if next != "b1" {
		t.Errorf("next = %q, want b1", next)
	}
}

func TestTrace_SiblingOrderDecides(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusRed),
		q("b", "root", 1, 2, mindmap.StatusGreen),
		q("c", "root", 1, 3, mindmap.StatusRed),
	}
	idx := mindmap.NewIndex(nodes)
	next, _ := mindmap.Trace(idx, idx.Get("b"))
	if next != "a" {
		t.Errorf("next = %q, want the first red sibling by order, a", next)
	}
}

func TestTrace_ClosesParentAndClimbs(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusRed),
		q("a1", "a", 2, 1, mindmap.StatusGreen),
		q("a2", "a", 2, 2, mindmap.StatusGreen),
		q("b", "root", 1, 2, mindmap.StatusRed),
	}
	idx := mindmap.NewIndex(nodes)
	next, closed := mindmap.Trace(idx, idx.Get("a2"))
	if len(closed) != 1 || closed[0].ID != "a" {
		t.Fatalf("closed = %v, want [a]", ids(closed))
	}
	if closed[0].Status != mindmap.StatusGreen {
		t.Errorf("closed parent status = %s, want green", closed[0].Status)
	}
	if next != "b" {
		t.Errorf("next = %q, want b (the climb continues after closing)", next)
	}
}

func TestTrace_TipsNeverBlockClosure(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusRed),
		q("a1", "a", 2, 1, mindmap.StatusGreen),
		tip("t", "a", 2, 2),
	}
	idx := mindmap.NewIndex(nodes)
	_, closed := mindmap.Trace(idx, idx.Get("a1"))
	if len(closed) != 1 || closed[0].ID != "a" {
		t.Fatalf("tip should not hold the branch open, closed = %v", ids(closed))
	}
}

func TestTrace_AIAnswersCloseBranches(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusRed),
		q("a1", "a", 2, 1, mindmap.StatusAI),
		q("a2", "a", 2, 2, mindmap.StatusGreen),
	}
	idx := mindmap.NewIndex(nodes)
	_, closed := mindmap.Trace(idx, idx.Get("a2"))
	if len(closed) != 1 || closed[0].ID != "a" {
		t.Fatalf("ai status should count as answered, closed = %v", ids(closed))
	}
}

func TestTrace_RootNeverClosed(t *testing.T) {
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusGreen),
	}
	idx := mindmap.NewIndex(nodes)
	next, closed := mindmap.Trace(idx, idx.Get("a"))
	if next != "" {
		t.Errorf("next = %q, want empty on a finished tree", next)
	}
	if len(closed) != 0 {
		t.Errorf("root closure belongs to the caller, closed = %v", ids(closed))
	}
	if idx.Root().Status != mindmap.StatusRed {
		t.Error("Trace must not touch the root")
	}
}

func TestTrace_PartialBranchStopsClimb(t *testing.T) {
	// a2 is still red with its own open child, so a does not close and
	// the trace descends into a2's subtree instead.
	nodes := []*mindmap.Node{
		q("root", "", 0, 0, mindmap.StatusRed),
		q("a", "root", 1, 1, mindmap.StatusRed),
		q("a1", "a", 2, 1, mindmap.StatusGreen),
		q("a2", "a", 2, 2, mindmap.StatusRed),
		q("a2x", "a2", 3, 1, mindmap.StatusRed),
	}
	idx := mindmap.NewIndex(nodes)
	next, closed := mindmap.Trace(idx, idx.Get("a1"))
	if next != "a2x" {
		t.Errorf("next = %q, want a2x (descend into the red sibling)", next)
	}
	if len(closed) != 0 {
		t.Errorf("closed = %v, want none", ids(closed))
	}
}
