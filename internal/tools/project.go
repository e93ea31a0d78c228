package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mindweave/mindweave/internal/engine"
)

// ProjectCreateTool handles the project_create MCP tool: one idea in,
// a full red mindmap out.
type ProjectCreateTool struct {
	engine *engine.Engine
}

func NewProjectCreateTool(e *engine.Engine) *ProjectCreateTool {
	return &ProjectCreateTool{engine: e}
}

func (t *ProjectCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("project_create",
		mcp.WithDescription(
			"Create a mindmap project directly from a free-text idea. "+
				"Generates a complete question tree (root plus branches, all unanswered) "+
				"and returns the project with its nodes and progress. "+
				"For a guided conversation before creation use draft_create instead.",
		),
		mcp.WithString("idea_text",
			mcp.Required(),
			mcp.Description("The idea to decompose into a question tree"),
		),
	)
}

func (t *ProjectCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idea, errRes := requireString(req, "idea_text")
	if errRes != nil {
		return errRes, nil
	}

	view, err := t.engine.CreateProjectFromIdea(ctx, idea)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(view), nil
}

// ProjectGetTool handles project_get: the current tree snapshot.
type ProjectGetTool struct {
	engine *engine.Engine
}

func NewProjectGetTool(e *engine.Engine) *ProjectGetTool {
	return &ProjectGetTool{engine: e}
}

func (t *ProjectGetTool) Definition() mcp.Tool {
	return mcp.NewTool("project_get",
		mcp.WithDescription(
			"Get a project's full state: the project record, every node "+
				"in tree order, and progress (answered/total/percent).",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
	)
}

func (t *ProjectGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}

	view, err := t.engine.ProjectTree(projectID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(view), nil
}

// ProjectListTool handles project_list: all projects, newest first.
type ProjectListTool struct {
	engine *engine.Engine
}

func NewProjectListTool(e *engine.Engine) *ProjectListTool {
	return &ProjectListTool{engine: e}
}

func (t *ProjectListTool) Definition() mcp.Tool {
	return mcp.NewTool("project_list",
		mcp.WithDescription(
			"List all mindmap projects with their completion percent, newest first.",
		),
	)
}

func (t *ProjectListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := t.engine.ListProjects()
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(summaries), nil
}
