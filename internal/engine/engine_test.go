package engine_test

import (
	"context"
	"strings"
	"testing"

	"github.com/mindweave/mindweave/internal/ai"
	"github.com/mindweave/mindweave/internal/engine"
	"github.com/mindweave/mindweave/internal/mindmap"
	"github.com/mindweave/mindweave/internal/store"
)

// fakeAI is a scripted collaborator. Zero values give usable defaults
// so most tests only set the fields they care about.
type fakeAI struct {
	entries   []ai.TreeEntry
	judgment  ai.Judgment
	analyses  []ai.DraftAnalysis
	questions []string
	tips      []string
}

func (f *fakeAI) GenerateTree(ctx context.Context, ideaText string) []ai.TreeEntry {
	if f.entries != nil {
		return f.entries
	}
	return ai.Stub{}.GenerateTree(ctx, ideaText)
}

func (f *fakeAI) AnalyzeDraft(ctx context.Context, messages []ai.Message) ai.DraftAnalysis {
	if len(f.analyses) == 0 {
		return ai.DraftAnalysis{NeedMore: true, Reply: "tell me more"}
	}
	a := f.analyses[0]
	f.analyses = f.analyses[1:]
	return a
}

func (f *fakeAI) InitialQuestions(ctx context.Context, ideaText, title string) []string {
	return f.questions
}

func (f *fakeAI) JudgeAnswer(ctx context.Context, projectIdea, question, answer string, level int) ai.Judgment {
	return f.judgment
}

func (f *fakeAI) TipCandidates(ctx context.Context, projectIdea, question, latestAnswer string) []string {
	if f.tips != nil {
		return f.tips
	}
	return []string{"tip about " + question}
}

func (f *fakeAI) ShortTitle(ctx context.Context, text string) string {
	return mindmap.ShortTitle(text, "Node")
}

func (f *fakeAI) MergeDocument(ctx context.Context, title, ideaText string, sections []string) string {
	return "# " + title + "\n\n" + strings.Join(sections, "\n\n")
}

func newTestEngine(t *testing.T, collab ai.Collaborator) *engine.Engine {
	t.Helper()
	st, err := store.New(store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return engine.New(st, collab)
}

// ip returns a parent index pointer for tree entry fixtures.
func ip(i int) *int { return &i }

// smallTree is a root with two level-1 questions.
func smallTree() []ai.TreeEntry {
	return []ai.TreeEntry{
		{Level: 0, Title: "Root", Question: "The idea"},
		{Level: 1, Title: "Why", Question: "Why build this?", ParentIndex: ip(0)},
		{Level: 1, Title: "Who", Question: "Who is it for?", ParentIndex: ip(0)},
	}
}

func createProject(t *testing.T, e *engine.Engine) *engine.ProjectView {
	t.Helper()
	view, err := e.CreateProjectFromIdea(context.Background(), "a note-taking tool")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return view
}

// nodeByTitle finds a node in a view by its title.
func nodeByTitle(t *testing.T, view *engine.ProjectView, title string) *mindmap.Node {
	t.Helper()
	for _, n := range view.Nodes {
		if n.Title == title {
			return n
		}
	}
	t.Fatalf("no node titled %q in %d nodes", title, len(view.Nodes))
	return nil
}

// ─── Project creation ───────────────────────────────────────────────────────

func TestCreateProjectFromIdea_BuildsRedTree(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)

	if len(view.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(view.Nodes))
	}
	root := view.Nodes[0]
	if !root.IsRoot() || root.Level != 0 {
		t.Errorf("first node should be the root: %+v", root)
	}
	for _, n := range view.Nodes {
		if n.Status != mindmap.StatusRed {
			t.Errorf("node %s status = %s, want red", n.Title, n.Status)
		}
	}
	if view.Progress.Total != 2 || view.Progress.Answered != 0 {
		t.Errorf("progress = %+v, want 0/2", view.Progress)
	}
	if view.Project.Status != mindmap.ProjectInProgress {
		t.Errorf("project status = %s, want in_progress", view.Project.Status)
	}
}

func TestCreateProjectFromIdea_EmptyIdea(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	_, err := e.CreateProjectFromIdea(context.Background(), "   ")
	if !engine.IsValidation(err) || engine.CodeOf(err) != "empty_content" {
		t.Errorf("err = %v, want validation empty_content", err)
	}
}

func TestCreateProjectFromIdea_StubFallbackTree(t *testing.T) {
	// A zero fake delegates tree generation to the stub, which must
	// always produce a structurally valid tree.
	e := newTestEngine(t, &fakeAI{})
	view := createProject(t, e)
	if len(view.Nodes) < 8 {
		t.Errorf("stub tree too small: %d nodes", len(view.Nodes))
	}
	if !view.Nodes[0].IsRoot() {
		t.Error("stub tree must start at a root")
	}
}

func TestListProjects_IncludesPercent(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	createProject(t, e)

	summaries, err := e.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if summaries[0].Percent != 0 {
		t.Errorf("fresh project percent = %d, want 0", summaries[0].Percent)
	}
}

// ─── Answer submission ──────────────────────────────────────────────────────

func TestSubmitAnswer_ClosesNodeAndTraces(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")
	who := nodeByTitle(t, view, "Who")

	res, err := e.SubmitAnswer(context.Background(), view.Project.ID, why.ID, "Because planning by hand is slow", engine.ActorHuman)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if res.Node.Status != mindmap.StatusGreen {
		t.Errorf("node status = %s, want green", res.Node.Status)
	}
	if res.NextNodeID != who.ID {
		t.Errorf("next = %q, want the red sibling %q", res.NextNodeID, who.ID)
	}
	if len(res.Answers) != 1 || res.Answers[0] != "Because planning by hand is slow" {
		t.Errorf("answers = %v", res.Answers)
	}

	if len(res.Added) != 1 {
		t.Fatalf("added = %d, want the answer anchor", len(res.Added))
	}
	anchor := res.Added[0]
	if anchor.ParentID != why.ID || anchor.Level != why.Level+1 {
		t.Errorf("anchor placement wrong: %+v", anchor)
	}
	if anchor.NodeType != mindmap.TypeQuestion || anchor.Status != mindmap.StatusGreen {
		t.Errorf("human anchor should be a green question node: %+v", anchor)
	}

	// The green anchor joins the countable set already answered.
	if res.Progress.Total != 3 || res.Progress.Answered != 2 {
		t.Errorf("progress = %+v, want 2/3", res.Progress)
	}
}

func TestSubmitAnswer_ByAI(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")

	res, err := e.SubmitAnswer(context.Background(), view.Project.ID, why.ID, "An AI-written answer", engine.ActorAI)
	if err != nil {
		t.Fatal(err)
	}
	if res.Node.Status != mindmap.StatusAI {
		t.Errorf("node status = %s, want ai", res.Node.Status)
	}
	anchor := res.Added[0]
	if anchor.NodeType != mindmap.TypeTip || anchor.Status != mindmap.StatusAI {
		t.Errorf("ai anchor should be an ai tip node: %+v", anchor)
	}
	// Tip anchors never join the countable set.
	if res.Progress.Total != 2 || res.Progress.Answered != 1 {
		t.Errorf("progress = %+v, want 1/2", res.Progress)
	}
}

func TestSubmitAnswer_EmptyContent(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")

	_, err := e.SubmitAnswer(context.Background(), view.Project.ID, why.ID, "  \n ", engine.ActorHuman)
	if !engine.IsValidation(err) || engine.CodeOf(err) != "empty_content" {
		t.Errorf("err = %v, want validation empty_content", err)
	}
}

func TestSubmitAnswer_UnknownNode(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)

	_, err := e.SubmitAnswer(context.Background(), view.Project.ID, "ghost", "text", engine.ActorHuman)
	if !engine.IsNotFound(err) || engine.CodeOf(err) != "node_not_found" {
		t.Errorf("err = %v, want not found node_not_found", err)
	}
}

func TestSubmitAnswer_UnknownProject(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	_, err := e.SubmitAnswer(context.Background(), "ghost", "n", "text", engine.ActorHuman)
	if !engine.IsNotFound(err) || engine.CodeOf(err) != "project_not_found" {
		t.Errorf("err = %v, want not found project_not_found", err)
	}
}

func TestSubmitAnswer_RepeatKeepsStatus(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")

	ctx := context.Background()
	if _, err := e.SubmitAnswer(ctx, view.Project.ID, why.ID, "first answer", engine.ActorHuman); err != nil {
		t.Fatal(err)
	}
	res, err := e.SubmitAnswer(ctx, view.Project.ID, why.ID, "second answer", engine.ActorAI)
	if err != nil {
		t.Fatal(err)
	}
	if res.Node.Status != mindmap.StatusGreen {
		t.Errorf("repeat answer must not change status, got %s", res.Node.Status)
	}
	if len(res.Answers) != 2 {
		t.Errorf("answers = %d, want both recorded", len(res.Answers))
	}
}

func TestSubmitAnswer_CompletesProject(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	ctx := context.Background()

	for _, title := range []string{"Why", "Who"} {
		n := nodeByTitle(t, view, title)
		if _, err := e.SubmitAnswer(ctx, view.Project.ID, n.ID, "a sufficient answer", engine.ActorHuman); err != nil {
			t.Fatalf("answer %s: %v", title, err)
		}
	}

	final, err := e.ProjectTree(view.Project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Project.Status != mindmap.ProjectCompleted {
		t.Errorf("project status = %s, want completed", final.Project.Status)
	}
	if final.Progress.Percent != 100 {
		t.Errorf("percent = %d, want 100", final.Progress.Percent)
	}
	if final.Nodes[0].Status != mindmap.StatusGreen {
		t.Errorf("root status = %s, want green on completion", final.Nodes[0].Status)
	}
}

func TestSubmitAnswer_RecordsDialog(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")

	if _, err := e.SubmitAnswer(context.Background(), view.Project.ID, why.ID, "logged answer", engine.ActorHuman); err != nil {
		t.Fatal(err)
	}
	after, err := e.ProjectTree(view.Project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Dialog) != 1 || after.Dialog[0].Content != "logged answer" || after.Dialog[0].Role != "user" {
		t.Errorf("dialog = %v, want the logged answer", after.Dialog)
	}
}

// ─── Follow-ups and tips ────────────────────────────────────────────────────

func TestSpawnFollowup_RequiresAnswer(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")

	_, err := e.SpawnFollowup(context.Background(), view.Project.ID, why.ID)
	if !engine.IsInvalidState(err) || engine.CodeOf(err) != "no_answer" {
		t.Errorf("err = %v, want invalid state no_answer", err)
	}
}

func TestSpawnFollowup_UsesJudgment(t *testing.T) {
	fake := &fakeAI{
		entries:  smallTree(),
		judgment: ai.Judgment{Followups: []string{"What about offline use?"}},
	}
	e := newTestEngine(t, fake)
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")
	ctx := context.Background()

	if _, err := e.SubmitAnswer(ctx, view.Project.ID, why.ID, "a long enough answer", engine.ActorHuman); err != nil {
		t.Fatal(err)
	}
	node, err := e.SpawnFollowup(ctx, view.Project.ID, why.ID)
	if err != nil {
		t.Fatal(err)
	}
	if node.Question != "What about offline use?" {
		t.Errorf("question = %q", node.Question)
	}
	if node.Status != mindmap.StatusRed || node.NodeType != mindmap.TypeQuestion {
		t.Errorf("follow-up should be a red question: %+v", node)
	}
	if node.ParentID != why.ID || node.Level != why.Level+1 {
		t.Errorf("follow-up placement wrong: %+v", node)
	}

	// The parent stays answered; only overall progress dips.
	parent, err := e.ProjectTree(view.Project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if nodeByTitle(t, parent, "Why").Status != mindmap.StatusGreen {
		t.Error("spawning a follow-up must not reopen the parent")
	}
}

func TestSpawnFollowup_GenericWhenAIOffersNothing(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")
	ctx := context.Background()

	if _, err := e.SubmitAnswer(ctx, view.Project.ID, why.ID, "answer", engine.ActorHuman); err != nil {
		t.Fatal(err)
	}
	node, err := e.SpawnFollowup(ctx, view.Project.ID, why.ID)
	if err != nil {
		t.Fatal(err)
	}
	if node.Question == "" {
		t.Error("an empty judgment must still yield a question")
	}
}

func TestTipLifecycle(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree(), tips: []string{"Keep scope small", "Ship weekly"}})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")
	ctx := context.Background()

	tipNode, err := e.SpawnTip(ctx, view.Project.ID, why.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tipNode.NodeType != mindmap.TypeTip || tipNode.Status != mindmap.StatusTip {
		t.Fatalf("spawned tip wrong: %+v", tipNode)
	}

	candidates, err := e.TipCandidates(ctx, view.Project.ID, tipNode.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %v", candidates)
	}

	chosen, err := e.ChooseTip(ctx, view.Project.ID, tipNode.ID, candidates[0])
	if err != nil {
		t.Fatal(err)
	}
	if chosen.Question != "Keep scope small" {
		t.Errorf("tip content = %q", chosen.Question)
	}
	if chosen.Title == "" {
		t.Error("chosen tip should be retitled")
	}

	// Tips never move progress.
	after, err := e.ProjectTree(view.Project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Progress.Total != 2 {
		t.Errorf("progress total = %d, want 2", after.Progress.Total)
	}
}

func TestChooseTip_Guards(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")
	ctx := context.Background()

	_, err := e.ChooseTip(ctx, view.Project.ID, why.ID, "text")
	if !engine.IsInvalidState(err) || engine.CodeOf(err) != "not_tip_node" {
		t.Errorf("err = %v, want invalid state not_tip_node", err)
	}

	tipNode, err := e.SpawnTip(ctx, view.Project.ID, why.ID)
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.ChooseTip(ctx, view.Project.ID, tipNode.ID, "   ")
	if !engine.IsValidation(err) || engine.CodeOf(err) != "empty_content" {
		t.Errorf("err = %v, want validation empty_content", err)
	}
}

func TestRetitle(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	why := nodeByTitle(t, view, "Why")

	title, err := e.Retitle(context.Background(), view.Project.ID, why.ID)
	if err != nil {
		t.Fatal(err)
	}
	if title == "" {
		t.Error("retitle returned empty title")
	}
	after, err := e.ProjectTree(view.Project.ID)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range after.Nodes {
		if n.ID == why.ID && n.Title == title {
			found = true
		}
	}
	if !found {
		t.Error("new title not persisted")
	}
}

// ─── Merge ──────────────────────────────────────────────────────────────────

func TestMergeDocument_RequiresCompletion(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)

	_, err := e.MergeDocument(context.Background(), view.Project.ID)
	if !engine.IsInvalidState(err) || engine.CodeOf(err) != "project_not_completed" {
		t.Errorf("err = %v, want invalid state project_not_completed", err)
	}
}

func TestMergeDocument_CollectsAnsweredSections(t *testing.T) {
	e := newTestEngine(t, &fakeAI{entries: smallTree()})
	view := createProject(t, e)
	ctx := context.Background()

	for _, title := range []string{"Why", "Who"} {
		n := nodeByTitle(t, view, title)
		if _, err := e.SubmitAnswer(ctx, view.Project.ID, n.ID, "answer for "+title, engine.ActorHuman); err != nil {
			t.Fatal(err)
		}
	}

	doc, err := e.MergeDocument(ctx, view.Project.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"answer for Why", "answer for Who"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
	if !strings.Contains(doc, "Root > Why") {
		t.Errorf("document should label sections with tree paths:\n%s", doc)
	}
}

// ─── Drafts ─────────────────────────────────────────────────────────────────

func TestDraftFlow(t *testing.T) {
	fake := &fakeAI{
		analyses: []ai.DraftAnalysis{
			{NeedMore: true, Reply: "what platforms?"},
			{NeedMore: false, Title: "Notes app", InitialQuestions: []string{"Who pays?", "What is v1?"}},
		},
	}
	e := newTestEngine(t, fake)
	ctx := context.Background()

	draft, err := e.CreateDraft("brief")
	if err != nil {
		t.Fatal(err)
	}
	if draft.Status != mindmap.DraftChatting || draft.Mode != mindmap.ModeBrief {
		t.Fatalf("fresh draft wrong: %+v", draft)
	}
	if draft.MaxQuestions != 10 {
		t.Errorf("brief MaxQuestions = %d, want 10", draft.MaxQuestions)
	}

	first, err := e.DraftMessage(ctx, draft.ID, "I want a notes app")
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != mindmap.DraftChatting || first.Reply != "what platforms?" {
		t.Errorf("first turn = %+v", first)
	}

	second, err := e.DraftMessage(ctx, draft.ID, "mobile first, sync later")
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != mindmap.DraftReady || second.Title != "Notes app" {
		t.Errorf("second turn = %+v", second)
	}

	_, err = e.DraftMessage(ctx, draft.ID, "one more thing")
	if !engine.IsInvalidState(err) || engine.CodeOf(err) != "draft_already_ready" {
		t.Errorf("err = %v, want invalid state draft_already_ready", err)
	}

	view, err := e.CreateProjectFromDraft(ctx, draft.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Project.Name != "Notes app" {
		t.Errorf("project name = %q", view.Project.Name)
	}
	if len(view.Nodes) != 3 {
		t.Fatalf("nodes = %d, want root + 2 questions", len(view.Nodes))
	}
	if view.Nodes[1].Question != "Who pays?" {
		t.Errorf("first question = %q", view.Nodes[1].Question)
	}
	if view.Project.Mode != mindmap.ModeBrief {
		t.Errorf("mode should carry over, got %s", view.Project.Mode)
	}
	if len(view.Dialog) == 0 {
		t.Error("draft conversation should become the project dialog")
	}
}

func TestCreateProjectFromDraft_NotReady(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	draft, err := e.CreateDraft("detail")
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.CreateProjectFromDraft(context.Background(), draft.ID)
	if !engine.IsInvalidState(err) || engine.CodeOf(err) != "draft_not_ready" {
		t.Errorf("err = %v, want invalid state draft_not_ready", err)
	}
}

func TestDraftMessage_UnknownDraft(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	_, err := e.DraftMessage(context.Background(), "ghost", "hello")
	if !engine.IsNotFound(err) || engine.CodeOf(err) != "draft_not_found" {
		t.Errorf("err = %v, want not found draft_not_found", err)
	}
}
