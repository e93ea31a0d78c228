// Package server wires all mindweave components and creates the MCP
// server instance.
//
// This is the composition root: it opens the store, builds the AI
// collaborator from the environment, constructs the engine, and
// registers every tool. No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mindweave/mindweave/internal/ai"
	"github.com/mindweave/mindweave/internal/engine"
	"github.com/mindweave/mindweave/internal/store"
	"github.com/mindweave/mindweave/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with the full mindweave tool surface
// registered. The returned cleanup closes the store's database and
// must be called on shutdown; it is always non-nil.
func New() (*server.MCPServer, func(), error) {
	st, err := store.New(store.DefaultConfig())
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Printf("WARNING: store close: %v", err)
		}
	}

	// The collaborator degrades to the built-in stub when no AI
	// endpoint is configured, so the server always starts.
	cfg := ai.ConfigFromEnv()
	collab := ai.NewClient(cfg)
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		log.Printf("WARNING: AI endpoint not configured, using stub collaborator")
	}

	eng := engine.New(st, collab)

	s := server.NewMCPServer(
		"mindweave",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	register(s, eng)
	return s, cleanup, nil
}

func register(s *server.MCPServer, eng *engine.Engine) {
	projectCreate := tools.NewProjectCreateTool(eng)
	s.AddTool(projectCreate.Definition(), projectCreate.Handle)

	projectGet := tools.NewProjectGetTool(eng)
	s.AddTool(projectGet.Definition(), projectGet.Handle)

	projectList := tools.NewProjectListTool(eng)
	s.AddTool(projectList.Definition(), projectList.Handle)

	answer := tools.NewAnswerTool(eng)
	s.AddTool(answer.Definition(), answer.Handle)

	retitle := tools.NewRetitleTool(eng)
	s.AddTool(retitle.Definition(), retitle.Handle)

	followup := tools.NewFollowupTool(eng)
	s.AddTool(followup.Definition(), followup.Handle)

	tipSpawn := tools.NewTipSpawnTool(eng)
	s.AddTool(tipSpawn.Definition(), tipSpawn.Handle)

	tipCandidates := tools.NewTipCandidatesTool(eng)
	s.AddTool(tipCandidates.Definition(), tipCandidates.Handle)

	tipChoose := tools.NewTipChooseTool(eng)
	s.AddTool(tipChoose.Definition(), tipChoose.Handle)

	merge := tools.NewMergeTool(eng)
	s.AddTool(merge.Definition(), merge.Handle)

	draftCreate := tools.NewDraftCreateTool(eng)
	s.AddTool(draftCreate.Definition(), draftCreate.Handle)

	draftMessage := tools.NewDraftMessageTool(eng)
	s.AddTool(draftMessage.Definition(), draftMessage.Handle)

	fromDraft := tools.NewProjectFromDraftTool(eng)
	s.AddTool(fromDraft.Definition(), fromDraft.Handle)
}

func serverInstructions() string {
	return `mindweave turns a vague idea into a structured plan through an
interactive question mindmap.

Typical flow:
1. draft_create + draft_message to refine the idea, or project_create
   to decompose it in one shot.
2. project_from_draft to build the tree from a ready draft.
3. node_answer on unanswered (red) questions. Each answer closes the
   node, adds an answer child, and the response points at the next
   open question so the whole map can be walked without searching.
4. node_spawn_followup to dig deeper under an answered node;
   node_spawn_tip + tip_candidates + tip_choose to attach advice.
5. project_merge once progress hits 100% to get the final document.

Statuses: red = unanswered, green = answered by the user, ai = answered
by the AI, tip = advice node. Tips never count toward progress.`
}
