package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mindweave/mindweave/internal/engine"
)

// TipCandidatesTool handles tip_candidates: propose texts for a node.
type TipCandidatesTool struct {
	engine *engine.Engine
}

func NewTipCandidatesTool(e *engine.Engine) *TipCandidatesTool {
	return &TipCandidatesTool{engine: e}
}

func (t *TipCandidatesTool) Definition() mcp.Tool {
	return mcp.NewTool("tip_candidates",
		mcp.WithDescription(
			"Propose short candidate texts for a node. For a tip node the "+
				"candidates come from its parent question and the parent's "+
				"latest answer; for a question node, from the node itself. "+
				"Commit one with tip_choose.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_id",
			mcp.Required(),
			mcp.Description("Node to propose texts for"),
		),
	)
}

func (t *TipCandidatesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	nodeID, errRes := requireString(req, "node_id")
	if errRes != nil {
		return errRes, nil
	}

	candidates, err := t.engine.TipCandidates(ctx, projectID, nodeID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(map[string]any{"node_id": nodeID, "candidates": candidates}), nil
}

// TipChooseTool handles tip_choose: commit one candidate into a tip.
type TipChooseTool struct {
	engine *engine.Engine
}

func NewTipChooseTool(e *engine.Engine) *TipChooseTool {
	return &TipChooseTool{engine: e}
}

func (t *TipChooseTool) Definition() mcp.Tool {
	return mcp.NewTool("tip_choose",
		mcp.WithDescription(
			"Set a tip node's text to one chosen candidate and retitle it. "+
				"Only works on tip nodes; content must be non-empty.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_id",
			mcp.Required(),
			mcp.Description("Tip node to fill"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The chosen tip text"),
		),
	)
}

func (t *TipChooseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	nodeID, errRes := requireString(req, "node_id")
	if errRes != nil {
		return errRes, nil
	}
	content := req.GetString("content", "")

	node, err := t.engine.ChooseTip(ctx, projectID, nodeID, content)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(node), nil
}
