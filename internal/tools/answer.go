package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mindweave/mindweave/internal/engine"
)

// AnswerTool handles node_answer: record an answer on a question node,
// close it, grow the answer anchor, and trace the next open node.
type AnswerTool struct {
	engine *engine.Engine
}

func NewAnswerTool(e *engine.Engine) *AnswerTool {
	return &AnswerTool{engine: e}
}

func (t *AnswerTool) Definition() mcp.Tool {
	return mcp.NewTool("node_answer",
		mcp.WithDescription(
			"Submit an answer to a question node. Marks the node answered, "+
				"adds an answer child under it, auto-closes fully answered "+
				"branches, and returns the next unanswered node to visit "+
				"plus refreshed progress. A second answer on the same node "+
				"is recorded without changing its status.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_id",
			mcp.Required(),
			mcp.Description("The question node being answered"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Answer text (must be non-empty)"),
		),
		mcp.WithBoolean("by_ai",
			mcp.Description("True when the answer was written by an AI, not the user"),
		),
	)
}

func (t *AnswerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	nodeID, errRes := requireString(req, "node_id")
	if errRes != nil {
		return errRes, nil
	}
	content := req.GetString("content", "")

	actor := engine.ActorHuman
	if req.GetBool("by_ai", false) {
		actor = engine.ActorAI
	}

	result, err := t.engine.SubmitAnswer(ctx, projectID, nodeID, content, actor)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(result), nil
}

// RetitleTool handles node_title: regenerate a node's short label.
type RetitleTool struct {
	engine *engine.Engine
}

func NewRetitleTool(e *engine.Engine) *RetitleTool {
	return &RetitleTool{engine: e}
}

func (t *RetitleTool) Definition() mcp.Tool {
	return mcp.NewTool("node_title",
		mcp.WithDescription(
			"Regenerate a node's short display title from its question text.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_id",
			mcp.Required(),
			mcp.Description("Node to retitle"),
		),
	)
}

func (t *RetitleTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	nodeID, errRes := requireString(req, "node_id")
	if errRes != nil {
		return errRes, nil
	}

	title, err := t.engine.Retitle(ctx, projectID, nodeID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(map[string]string{"node_id": nodeID, "title": title}), nil
}
