// Package tools implements the MCP tool surface of mindweave.
//
// Each tool is a small struct holding its dependencies (the engine)
// and exposing a Definition plus a Handle compatible with mcp-go's
// CallToolRequest signature. One file groups one tool area.
//
// Engine errors are mapped to tool errors by their stable code; the
// kind decides the prefix so a caller can distinguish absent entities
// from state conflicts and bad input.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mindweave/mindweave/internal/engine"
)

// errResult turns an engine error into an MCP tool error result. The
// returned go error is always nil — tool failures travel in-band.
func errResult(err error) *mcp.CallToolResult {
	code := engine.CodeOf(err)
	if code == "" {
		return mcp.NewToolResultError(fmt.Sprintf("internal error: %v", err))
	}
	switch engine.KindOf(err) {
	case engine.KindNotFound:
		return mcp.NewToolResultError("not found: " + code)
	case engine.KindInvalidState:
		return mcp.NewToolResultError("invalid state: " + code)
	default:
		return mcp.NewToolResultError("invalid input: " + code)
	}
}

// jsonResult marshals v into a text result. Marshal failures surface
// as tool errors rather than panics.
func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err))
	}
	return mcp.NewToolResultText(string(b))
}

// requireString fetches a required string argument, reporting a tool
// error when it is missing or empty.
func requireString(req mcp.CallToolRequest, name string) (string, *mcp.CallToolResult) {
	v := req.GetString(name, "")
	if v == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("'%s' is required", name))
	}
	return v, nil
}
