package engine

import (
	"context"
	"strings"

	"github.com/mindweave/mindweave/internal/ai"
	"github.com/mindweave/mindweave/internal/mindmap"
)

// ProjectView is a full project snapshot: the project record, every
// node in stable child order, and the computed progress.
type ProjectView struct {
	Project  *mindmap.Project        `json:"project"`
	Nodes    []*mindmap.Node         `json:"nodes"`
	Progress mindmap.Progress        `json:"progress"`
	Dialog   []mindmap.DialogMessage `json:"dialog,omitempty"`
}

// ProjectSummary is the listing shape: one line per project.
type ProjectSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Percent int    `json:"percent"`
}

// CreateProjectFromIdea builds a whole project from one free-text idea.
// The collaborator generates the tree; the stub fallback inside it
// guarantees a usable tree even with no AI endpoint configured.
func (e *Engine) CreateProjectFromIdea(ctx context.Context, ideaText string) (*ProjectView, error) {
	ideaText = strings.TrimSpace(ideaText)
	if ideaText == "" {
		return nil, validation("empty_content")
	}

	entries := e.ai.GenerateTree(ctx, ideaText)

	project := &mindmap.Project{
		ID:       newID(),
		Name:     projectName(ideaText),
		IdeaText: ideaText,
		Status:   mindmap.ProjectInProgress,
		Mode:     mindmap.ModeDetail,
	}
	project.MaxQuestions, _ = project.Mode.Limits()

	nodes := entriesToNodes(project.ID, entries)
	project.CurrentQuestions = len(nodes) - 1

	if err := e.store.CreateProjectTree(project, nodes, nil); err != nil {
		return nil, err
	}
	return e.view(project)
}

// entriesToNodes translates a generated tree into persisted node rows.
// Entry order is creation order; order_index is the entry's position so
// sibling ordering mirrors how the tree was generated.
func entriesToNodes(projectID string, entries []ai.TreeEntry) []*mindmap.Node {
	nodes := make([]*mindmap.Node, len(entries))
	for i, entry := range entries {
		n := &mindmap.Node{
			ID:         newID(),
			ProjectID:  projectID,
			Level:      entry.Level,
			Title:      entry.Title,
			Question:   entry.Question,
			Status:     mindmap.StatusRed,
			NodeType:   mindmap.TypeQuestion,
			OrderIndex: i,
		}
		if entry.ParentIndex != nil {
			n.ParentID = nodes[*entry.ParentIndex].ID
		}
		nodes[i] = n
	}
	return nodes
}

// projectName derives a display name from the idea text.
func projectName(ideaText string) string {
	runes := []rune(strings.TrimSpace(ideaText))
	if len(runes) <= 24 {
		return string(runes)
	}
	return string(runes[:24]) + "..."
}

// ProjectTree returns the current snapshot of one project.
func (e *Engine) ProjectTree(projectID string) (*ProjectView, error) {
	project, err := e.loadProject(projectID)
	if err != nil {
		return nil, err
	}
	return e.view(project)
}

func (e *Engine) view(project *mindmap.Project) (*ProjectView, error) {
	nodes, err := e.store.NodesByProject(project.ID)
	if err != nil {
		return nil, err
	}
	idx := mindmap.NewIndex(nodes)
	ordered := idx.Flatten()
	if len(ordered) == 0 {
		ordered = nodes
	}
	dialog, err := e.store.DialogsByProject(project.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectView{
		Project:  project,
		Nodes:    ordered,
		Progress: mindmap.CalcProgress(nodes),
		Dialog:   dialog,
	}, nil
}

// ListProjects returns all projects, newest first, each with its
// current completion percent.
func (e *Engine) ListProjects() ([]ProjectSummary, error) {
	projects, err := e.store.ListProjects()
	if err != nil {
		return nil, err
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		nodes, err := e.store.NodesByProject(p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ProjectSummary{
			ID:      p.ID,
			Name:    p.Name,
			Status:  string(p.Status),
			Percent: mindmap.CalcProgress(nodes).Percent,
		})
	}
	return out, nil
}

// MergeDocument assembles the final document of a completed project.
// Section texts pair each answered question's path title with its
// recorded answers.
func (e *Engine) MergeDocument(ctx context.Context, projectID string) (string, error) {
	project, err := e.loadProject(projectID)
	if err != nil {
		return "", err
	}
	if project.Status != mindmap.ProjectCompleted {
		return "", invalidState("project_not_completed")
	}

	nodes, err := e.store.NodesByProject(projectID)
	if err != nil {
		return "", err
	}
	idx := mindmap.NewIndex(nodes)

	var sections []string
	for _, n := range idx.Flatten() {
		if !n.Countable() || !n.Status.Answered() {
			continue
		}
		answers, err := e.store.AnswersByNode(n.ID)
		if err != nil {
			return "", err
		}
		if len(answers) == 0 {
			continue
		}
		var b strings.Builder
		b.WriteString(pathTitle(idx, n))
		for _, a := range answers {
			b.WriteString("\n")
			b.WriteString(a.Content)
		}
		sections = append(sections, b.String())
	}

	return e.ai.MergeDocument(ctx, project.Name, project.IdeaText, sections), nil
}

// pathTitle renders "Root > Branch > Node" for a node.
func pathTitle(idx *mindmap.Index, node *mindmap.Node) string {
	var parts []string
	for cur := node; cur != nil; cur = idx.Get(cur.ParentID) {
		parts = append(parts, cur.Title)
		if cur.IsRoot() {
			break
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
