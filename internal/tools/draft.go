package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mindweave/mindweave/internal/engine"
)

// DraftCreateTool handles draft_create: open a guided pre-project chat.
type DraftCreateTool struct {
	engine *engine.Engine
}

func NewDraftCreateTool(e *engine.Engine) *DraftCreateTool {
	return &DraftCreateTool{engine: e}
}

func (t *DraftCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("draft_create",
		mcp.WithDescription(
			"Start a draft conversation that refines a vague idea before a "+
				"project is created. Modes: brief (10 questions, depth 2), "+
				"detail (20, 3), deep (40, 4). Send messages with "+
				"draft_message; promote with project_from_draft once ready.",
		),
		mcp.WithString("mode",
			mcp.Description("brief, detail, or deep (default detail)"),
		),
	)
}

func (t *DraftCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := req.GetString("mode", "detail")

	draft, err := t.engine.CreateDraft(mode)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(draft), nil
}

// DraftMessageTool handles draft_message: one chat turn of a draft.
type DraftMessageTool struct {
	engine *engine.Engine
}

func NewDraftMessageTool(e *engine.Engine) *DraftMessageTool {
	return &DraftMessageTool{engine: e}
}

func (t *DraftMessageTool) Definition() mcp.Tool {
	return mcp.NewTool("draft_message",
		mcp.WithDescription(
			"Send one user message into a draft conversation. While the "+
				"idea needs more detail the reply asks for it; once the idea "+
				"is sufficient the draft flips to ready and carries a "+
				"proposed project title. Ready drafts reject further messages.",
		),
		mcp.WithString("draft_id",
			mcp.Required(),
			mcp.Description("Draft identifier from draft_create"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The user's message (must be non-empty)"),
		),
	)
}

func (t *DraftMessageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draftID, errRes := requireString(req, "draft_id")
	if errRes != nil {
		return errRes, nil
	}
	content := req.GetString("content", "")

	reply, err := t.engine.DraftMessage(ctx, draftID, content)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(reply), nil
}

// ProjectFromDraftTool handles project_from_draft: promote a ready
// draft into a project seeded with its initial questions.
type ProjectFromDraftTool struct {
	engine *engine.Engine
}

func NewProjectFromDraftTool(e *engine.Engine) *ProjectFromDraftTool {
	return &ProjectFromDraftTool{engine: e}
}

func (t *ProjectFromDraftTool) Definition() mcp.Tool {
	return mcp.NewTool("project_from_draft",
		mcp.WithDescription(
			"Create a project from a ready draft. The draft's conversation "+
				"becomes the project's dialog log and its initial questions "+
				"become the first level of the tree, all unanswered.",
		),
		mcp.WithString("draft_id",
			mcp.Required(),
			mcp.Description("Ready draft to promote"),
		),
	)
}

func (t *ProjectFromDraftTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draftID, errRes := requireString(req, "draft_id")
	if errRes != nil {
		return errRes, nil
	}

	view, err := t.engine.CreateProjectFromDraft(ctx, draftID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(view), nil
}
