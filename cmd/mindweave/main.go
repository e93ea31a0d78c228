// mindweave: AI mindmap MCP server.
//
// Turns free-text ideas into interactive question trees: the AI
// decomposes the idea, the user (or the AI) answers node by node, and
// completed projects merge into a single planning document.
//
// Usage:
//
//	mindweave serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mwserver "github.com/mindweave/mindweave/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("mindweave v%s\n", mwserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := mwserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// ServeStdio handles SIGINT/SIGTERM itself and returns when the
	// client disconnects.
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`mindweave - AI mindmap MCP server

Usage:
  mindweave serve      Start the MCP server (stdio transport)
  mindweave version    Print version
  mindweave help       Show this help

Environment:
  AI_API_BASE    OpenAI-compatible endpoint base URL
  AI_API_KEY     API key for the endpoint
  AI_MODEL       Model name (default gpt-4o-mini)

Without AI_API_BASE/AI_API_KEY the server runs with a deterministic
built-in collaborator, so every tool still works offline.`)
}
