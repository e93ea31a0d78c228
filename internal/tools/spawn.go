package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mindweave/mindweave/internal/engine"
)

// FollowupTool handles node_spawn_followup: grow one new unanswered
// question under an answered node.
type FollowupTool struct {
	engine *engine.Engine
}

func NewFollowupTool(e *engine.Engine) *FollowupTool {
	return &FollowupTool{engine: e}
}

func (t *FollowupTool) Definition() mcp.Tool {
	return mcp.NewTool("node_spawn_followup",
		mcp.WithDescription(
			"Spawn a follow-up question under an already answered node. "+
				"The question is derived from the node's latest answer; the "+
				"node must have at least one answer. The parent keeps its "+
				"answered status.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_id",
			mcp.Required(),
			mcp.Description("Answered node to deepen"),
		),
	)
}

func (t *FollowupTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	nodeID, errRes := requireString(req, "node_id")
	if errRes != nil {
		return errRes, nil
	}

	node, err := t.engine.SpawnFollowup(ctx, projectID, nodeID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(node), nil
}

// TipSpawnTool handles node_spawn_tip: attach an empty tip node whose
// content is chosen later via tip_candidates + tip_choose.
type TipSpawnTool struct {
	engine *engine.Engine
}

func NewTipSpawnTool(e *engine.Engine) *TipSpawnTool {
	return &TipSpawnTool{engine: e}
}

func (t *TipSpawnTool) Definition() mcp.Tool {
	return mcp.NewTool("node_spawn_tip",
		mcp.WithDescription(
			"Attach a placeholder tip node under any node. Tips carry "+
				"advice rather than questions and never count toward "+
				"progress. Fill the tip via tip_candidates and tip_choose.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_id",
			mcp.Required(),
			mcp.Description("Node to attach the tip under"),
		),
	)
}

func (t *TipSpawnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	nodeID, errRes := requireString(req, "node_id")
	if errRes != nil {
		return errRes, nil
	}

	node, err := t.engine.SpawnTip(ctx, projectID, nodeID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(node), nil
}
