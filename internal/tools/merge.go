package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mindweave/mindweave/internal/engine"
)

// MergeTool handles project_merge: assemble a completed project's
// answers into one final document.
type MergeTool struct {
	engine *engine.Engine
}

func NewMergeTool(e *engine.Engine) *MergeTool {
	return &MergeTool{engine: e}
}

func (t *MergeTool) Definition() mcp.Tool {
	return mcp.NewTool("project_merge",
		mcp.WithDescription(
			"Merge a completed project's answers into a single structured "+
				"document. Sections follow the tree order and label each "+
				"answer with its path through the map. Fails while the "+
				"project still has unanswered questions.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Completed project to merge"),
		),
	)
}

func (t *MergeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}

	doc, err := t.engine.MergeDocument(ctx, projectID)
	if err != nil {
		return errResult(err), nil
	}
	return mcp.NewToolResultText(doc), nil
}
