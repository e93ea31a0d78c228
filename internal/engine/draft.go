package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mindweave/mindweave/internal/ai"
	"github.com/mindweave/mindweave/internal/mindmap"
	"github.com/mindweave/mindweave/internal/store"
)

// DraftReply is one turn of the pre-project conversation.
type DraftReply struct {
	DraftID string              `json:"draft_id"`
	Status  mindmap.DraftStatus `json:"status"`
	Reply   string              `json:"reply,omitempty"`
	Title   string              `json:"title,omitempty"`
}

// CreateDraft opens a fresh chatting draft in the given mode.
func (e *Engine) CreateDraft(mode string) (*mindmap.Draft, error) {
	m := mindmap.ParseMode(mode)
	d := &mindmap.Draft{
		ID:       newID(),
		Messages: "[]",
		Status:   mindmap.DraftChatting,
		Mode:     m,
	}
	d.MaxQuestions, _ = m.Limits()
	if err := e.store.CreateDraft(d); err != nil {
		return nil, err
	}
	return d, nil
}

// DraftMessage appends one user message to a chatting draft and lets
// the collaborator decide whether the idea is ready to become a
// project. A ready draft refuses further messages.
func (e *Engine) DraftMessage(ctx context.Context, draftID, content string) (*DraftReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validation("empty_content")
	}

	draft, err := e.loadDraft(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status == mindmap.DraftReady {
		return nil, invalidState("draft_already_ready")
	}

	messages := decodeMessages(draft.Messages)
	messages = append(messages, ai.Message{Role: "user", Content: content})

	analysis := e.ai.AnalyzeDraft(ctx, messages)

	reply := analysis.Reply
	if analysis.NeedMore {
		messages = append(messages, ai.Message{Role: "assistant", Content: reply})
	} else {
		draft.Status = mindmap.DraftReady
		draft.ProjectTitle = analysis.Title
		draft.InitialQuestions = encodeStrings(analysis.InitialQuestions)
	}
	draft.Messages = encodeMessages(messages)

	if err := e.store.SaveDraft(draft); err != nil {
		return nil, err
	}
	return &DraftReply{
		DraftID: draft.ID,
		Status:  draft.Status,
		Reply:   reply,
		Title:   draft.ProjectTitle,
	}, nil
}

// CreateProjectFromDraft promotes a ready draft into a project whose
// first level is the draft's initial questions. The draft conversation
// is preserved as the project's dialog log.
func (e *Engine) CreateProjectFromDraft(ctx context.Context, draftID string) (*ProjectView, error) {
	draft, err := e.loadDraft(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != mindmap.DraftReady {
		return nil, invalidState("draft_not_ready")
	}

	messages := decodeMessages(draft.Messages)
	ideaText := joinUserMessages(messages)
	if ideaText == "" {
		return nil, invalidState("draft_not_ready")
	}

	title := draft.ProjectTitle
	if title == "" {
		title = projectName(ideaText)
	}

	questions := decodeStrings(draft.InitialQuestions)
	if len(questions) == 0 {
		// AI call outside any lock, stub fallback inside.
		questions = e.ai.InitialQuestions(ctx, ideaText, title)
	}
	if len(questions) == 0 {
		questions = []string{
			"What problem does this solve, and for whom?",
			"What does a successful first version look like?",
		}
	}
	if len(questions) > 3 {
		questions = questions[:3]
	}
	for i, q := range questions {
		questions[i] = mindmap.TruncateRunes(strings.TrimSpace(q), 200)
	}

	project := &mindmap.Project{
		ID:       newID(),
		Name:     title,
		IdeaText: ideaText,
		Status:   mindmap.ProjectInProgress,
		Mode:     draft.Mode,
	}
	project.MaxQuestions = draft.MaxQuestions
	project.CurrentQuestions = len(questions)

	root := &mindmap.Node{
		ID:        newID(),
		ProjectID: project.ID,
		Level:     0,
		Title:     mindmap.ShortTitle(title, "Project root"),
		Question:  ideaText,
		Status:    mindmap.StatusRed,
		NodeType:  mindmap.TypeQuestion,
	}
	nodes := []*mindmap.Node{root}
	for i, q := range questions {
		nodes = append(nodes, &mindmap.Node{
			ID:         newID(),
			ProjectID:  project.ID,
			ParentID:   root.ID,
			Level:      1,
			Title:      mindmap.ShortTitle(q, "Question"),
			Question:   q,
			Status:     mindmap.StatusRed,
			NodeType:   mindmap.TypeQuestion,
			OrderIndex: i + 1,
		})
	}

	dialog := make([]mindmap.DialogMessage, 0, len(messages))
	for _, m := range messages {
		dialog = append(dialog, mindmap.DialogMessage{
			ProjectID: project.ID,
			Role:      m.Role,
			Content:   m.Content,
		})
	}

	if err := e.store.CreateProjectTree(project, nodes, dialog); err != nil {
		return nil, err
	}
	return e.view(project)
}

func (e *Engine) loadDraft(draftID string) (*mindmap.Draft, error) {
	draft, err := e.store.GetDraft(draftID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("draft_not_found")
	}
	return draft, err
}

func joinUserMessages(messages []ai.Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == "user" && strings.TrimSpace(m.Content) != "" {
			parts = append(parts, strings.TrimSpace(m.Content))
		}
	}
	return strings.Join(parts, "\n")
}

func decodeMessages(raw string) []ai.Message {
	var out []ai.Message
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &out)
	}
	return out
}

func encodeMessages(messages []ai.Message) string {
	b, err := json.Marshal(messages)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeStrings(raw string) []string {
	var out []string
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &out)
	}
	return out
}

func encodeStrings(items []string) string {
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
