package engine

import (
	"context"
	"strings"

	"github.com/mindweave/mindweave/internal/mindmap"
)

// Actor identifies who produced an answer.
type Actor string

const (
	ActorHuman Actor = "human"
	ActorAI    Actor = "ai"
)

// genericFollowup is spawned when the collaborator proposes nothing —
// a follow-up spawn never fails just because the AI came back empty.
const genericFollowup = "Could you elaborate or add more detail?"

// tipPlaceholder fills a fresh tip node until a candidate is chosen.
const tipPlaceholder = "Pending tip"

// AnswerResult is the outcome of one answer submission.
type AnswerResult struct {
	Node       *mindmap.Node    `json:"node"`
	Answers    []string         `json:"answers"`
	NextNodeID string           `json:"next_node_id,omitempty"`
	Added      []*mindmap.Node  `json:"added_nodes,omitempty"`
	Progress   mindmap.Progress `json:"progress"`
}

// SubmitAnswer records an answer on a question node, marks the node
// answered, grows an answer-anchor child under it, traces the next red
// node, and refreshes progress plus root/project closure.
func (e *Engine) SubmitAnswer(ctx context.Context, projectID, nodeID, content string, actor Actor) (*AnswerResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validation("empty_content")
	}

	unlock := e.lockProject(projectID)
	defer unlock()

	project, err := e.loadProject(projectID)
	if err != nil {
		return nil, err
	}
	node, err := e.loadNode(project, nodeID)
	if err != nil {
		return nil, err
	}
	if node.NodeType != mindmap.TypeQuestion {
		return nil, invalidState("not_question_node")
	}

	if _, err := e.store.AddAnswer(node.ID, content); err != nil {
		return nil, err
	}
	role := "user"
	if actor == ActorAI {
		role = "assistant"
	}
	if err := e.store.AddDialog(projectID, role, content); err != nil {
		return nil, err
	}

	// Answering is terminal for the node itself. Repeat answers on an
	// already-answered node are recorded but never change its status.
	answered := mindmap.StatusGreen
	if actor == ActorAI {
		answered = mindmap.StatusAI
	}
	if node.Status.CanTransition(answered) {
		node.Status = answered
		if err := e.store.SaveNode(node); err != nil {
			return nil, err
		}
	}

	anchor, err := e.growAnchor(node, content, actor)
	if err != nil {
		return nil, err
	}

	_, idx, err := e.snapshot(projectID)
	if err != nil {
		return nil, err
	}
	nextID, closed := mindmap.Trace(idx, idx.Get(node.ID))
	for _, c := range closed {
		if err := e.store.SaveNode(c); err != nil {
			return nil, err
		}
	}

	progress, err := e.settleClosure(project, idx)
	if err != nil {
		return nil, err
	}

	answers, err := e.store.AnswersByNode(node.ID)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(answers))
	for i, a := range answers {
		texts[i] = a.Content
	}

	return &AnswerResult{
		Node:       node,
		Answers:    texts,
		NextNodeID: nextID,
		Added:      []*mindmap.Node{anchor},
		Progress:   progress,
	}, nil
}

// growAnchor creates the answer-anchor child under a just-answered
// node: a branchable green question node for a human answer, an ai tip
// node for an AI answer.
func (e *Engine) growAnchor(node *mindmap.Node, content string, actor Actor) (*mindmap.Node, error) {
	siblings, err := e.store.NodesByParent(node.ID)
	if err != nil {
		return nil, err
	}
	baseOrder := 0
	for _, s := range siblings {
		if s.OrderIndex > baseOrder {
			baseOrder = s.OrderIndex
		}
	}

	anchor := &mindmap.Node{
		ID:         newID(),
		ProjectID:  node.ProjectID,
		ParentID:   node.ID,
		Level:      node.Level + 1,
		Question:   content,
		OrderIndex: baseOrder + 1,
	}
	if actor == ActorAI {
		anchor.Title = mindmap.ShortTitle(content, "AI note")
		anchor.Status = mindmap.StatusAI
		anchor.NodeType = mindmap.TypeTip
	} else {
		anchor.Title = mindmap.ShortTitle(content, "Answer")
		anchor.Status = mindmap.StatusGreen
		anchor.NodeType = mindmap.TypeQuestion
	}
	if err := e.store.InsertNode(anchor); err != nil {
		return nil, err
	}
	return anchor, nil
}

// settleClosure recomputes progress on the current snapshot and applies
// whole-tree closure: the root goes green and the project completes
// when every countable node is answered.
func (e *Engine) settleClosure(project *mindmap.Project, idx *mindmap.Index) (mindmap.Progress, error) {
	flat := idx.Flatten()
	progress := mindmap.CalcProgress(flat)

	done := progress.Total > 0 && progress.Answered == progress.Total

	if root := idx.Root(); root != nil && done && root.Status == mindmap.StatusRed {
		root.Status = mindmap.StatusGreen
		if err := e.store.SaveNode(root); err != nil {
			return progress, err
		}
	}
	if done && project.Status != mindmap.ProjectCompleted {
		project.Status = mindmap.ProjectCompleted
		if err := e.store.SaveProject(project); err != nil {
			return progress, err
		}
	}
	return progress, nil
}

// SpawnFollowup grows one new red follow-up question under an answered
// node. The collaborator proposes candidates from the latest answer;
// only the first is used, and a fixed generic question covers an empty
// proposal. The parent's own status is deliberately left untouched —
// answering is terminal, later sub-questions never reopen it.
func (e *Engine) SpawnFollowup(ctx context.Context, projectID, nodeID string) (*mindmap.Node, error) {
	project, err := e.loadProject(projectID)
	if err != nil {
		return nil, err
	}
	node, err := e.loadNode(project, nodeID)
	if err != nil {
		return nil, err
	}

	latest, err := e.store.LatestAnswer(node.ID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, invalidState("no_answer")
	}

	// AI call outside the project lock.
	judgment := e.ai.JudgeAnswer(ctx, project.IdeaText, node.Question, latest.Content, node.Level)
	question := genericFollowup
	for _, q := range judgment.Followups {
		if q = strings.TrimSpace(q); q != "" {
			question = mindmap.TruncateRunes(q, 200)
			break
		}
	}

	unlock := e.lockProject(projectID)
	defer unlock()

	return e.growChild(node, &mindmap.Node{
		Title:    mindmap.ShortTitle(question, "Follow-up"),
		Question: question,
		Status:   mindmap.StatusRed,
		NodeType: mindmap.TypeQuestion,
	})
}

// SpawnTip grows a placeholder tip child under a node. Content arrives
// later through TipCandidates + ChooseTip; until then the node carries
// fixed placeholder text. Tips never enter progress counting.
func (e *Engine) SpawnTip(ctx context.Context, projectID, nodeID string) (*mindmap.Node, error) {
	project, err := e.loadProject(projectID)
	if err != nil {
		return nil, err
	}
	node, err := e.loadNode(project, nodeID)
	if err != nil {
		return nil, err
	}

	unlock := e.lockProject(projectID)
	defer unlock()

	return e.growChild(node, &mindmap.Node{
		Title:    tipPlaceholder,
		Question: tipPlaceholder,
		Status:   mindmap.StatusTip,
		NodeType: mindmap.TypeTip,
	})
}

// growChild appends a child node under parent at the next sibling
// order. The child's identity and placement fields are filled here.
func (e *Engine) growChild(parent *mindmap.Node, child *mindmap.Node) (*mindmap.Node, error) {
	siblings, err := e.store.NodesByParent(parent.ID)
	if err != nil {
		return nil, err
	}
	baseOrder := 0
	for _, s := range siblings {
		if s.OrderIndex > baseOrder {
			baseOrder = s.OrderIndex
		}
	}

	child.ID = newID()
	child.ProjectID = parent.ProjectID
	child.ParentID = parent.ID
	child.Level = parent.Level + 1
	child.OrderIndex = baseOrder + 1
	if err := e.store.InsertNode(child); err != nil {
		return nil, err
	}
	return child, nil
}

// TipCandidates proposes 2–3 texts for a node. For a tip node the
// candidates are grounded in its parent question and the parent's
// latest answer; for a question node, in the node's own question and
// latest answer.
func (e *Engine) TipCandidates(ctx context.Context, projectID, nodeID string) ([]string, error) {
	project, err := e.loadProject(projectID)
	if err != nil {
		return nil, err
	}
	node, err := e.loadNode(project, nodeID)
	if err != nil {
		return nil, err
	}

	subject := node
	if node.NodeType == mindmap.TypeTip {
		if node.ParentID == "" {
			return nil, invalidState("no_parent")
		}
		parent, err := e.loadNode(project, node.ParentID)
		if err != nil {
			return nil, err
		}
		subject = parent
	}

	latestText := ""
	if latest, err := e.store.LatestAnswer(subject.ID); err != nil {
		return nil, err
	} else if latest != nil {
		latestText = latest.Content
	}

	return e.ai.TipCandidates(ctx, project.IdeaText, subject.Question, latestText), nil
}

// ChooseTip commits one candidate text into a tip node and re-titles
// it via the collaborator's short-title operation.
func (e *Engine) ChooseTip(ctx context.Context, projectID, nodeID, content string) (*mindmap.Node, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validation("empty_content")
	}

	project, err := e.loadProject(projectID)
	if err != nil {
		return nil, err
	}
	node, err := e.loadNode(project, nodeID)
	if err != nil {
		return nil, err
	}
	if node.NodeType != mindmap.TypeTip {
		return nil, invalidState("not_tip_node")
	}

	// AI call outside the project lock.
	title := e.ai.ShortTitle(ctx, content)

	unlock := e.lockProject(projectID)
	defer unlock()

	node.Question = content
	node.Title = title
	node.Status = mindmap.StatusTip
	if err := e.store.SaveNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

// Retitle regenerates a node's short label from its question text.
func (e *Engine) Retitle(ctx context.Context, projectID, nodeID string) (string, error) {
	project, err := e.loadProject(projectID)
	if err != nil {
		return "", err
	}
	node, err := e.loadNode(project, nodeID)
	if err != nil {
		return "", err
	}

	title := e.ai.ShortTitle(ctx, node.Question)

	unlock := e.lockProject(projectID)
	defer unlock()

	node.Title = title
	if err := e.store.SaveNode(node); err != nil {
		return "", err
	}
	return title, nil
}
