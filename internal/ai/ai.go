// Package ai implements the AI collaborator for mindweave: tree
// generation, answer judgment, follow-up and tip proposals, short
// titles, and document merging.
//
// Every operation is total. The real client speaks to an
// OpenAI-compatible chat-completions endpoint and falls back to the
// deterministic Stub on any failure (missing config, network error,
// timeout, unparseable output) — callers never see an error from this
// package.
package ai

import (
	"context"
	"os"
	"strings"
	"time"
)

// Collaborator is the capability consumed by the mutation engine and
// project construction. Implementations must be total: each method
// always returns a usable result.
type Collaborator interface {
	// GenerateTree proposes an initial question tree for an idea:
	// 8–28 entries, each ParentIndex referencing an earlier entry
	// (nil for the single level-0 root).
	GenerateTree(ctx context.Context, ideaText string) []TreeEntry

	// AnalyzeDraft reads the clarification chat so far and either asks
	// for more (NeedMore with a Reply) or declares the idea ready with
	// a project Title.
	AnalyzeDraft(ctx context.Context, messages []Message) DraftAnalysis

	// InitialQuestions proposes 2–3 opening questions for a freshly
	// clarified idea.
	InitialQuestions(ctx context.Context, ideaText, title string) []string

	// JudgeAnswer decides whether an answer is sufficient and proposes
	// up to two short follow-up questions when it is not.
	JudgeAnswer(ctx context.Context, projectIdea, question, answer string, level int) Judgment

	// TipCandidates proposes 2–3 short informational texts for a node.
	TipCandidates(ctx context.Context, projectIdea, question, latestAnswer string) []string

	// ShortTitle condenses free text into a label of at most 7 runes.
	ShortTitle(ctx context.Context, text string) string

	// MergeDocument combines the idea and per-node Q&A sections into a
	// full markdown document.
	MergeDocument(ctx context.Context, title, ideaText string, sections []string) string
}

// TreeEntry is one proposed node of an initial tree, in generation
// order. ParentIndex points at an earlier entry; nil marks the root.
type TreeEntry struct {
	Level       int    `json:"level"`
	Title       string `json:"title"`
	Question    string `json:"question"`
	ParentIndex *int   `json:"parent_index"`
}

// Message is one turn of a draft clarification chat.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DraftAnalysis is the outcome of one draft chat turn.
type DraftAnalysis struct {
	NeedMore         bool     `json:"need_more"`
	Reply            string   `json:"reply"`
	Title            string   `json:"title,omitempty"`
	InitialQuestions []string `json:"initial_questions,omitempty"`
}

// Judgment is the verdict on an answer plus optional follow-ups.
type Judgment struct {
	Sufficient bool     `json:"sufficient"`
	Followups  []string `json:"followup_questions"`
}

// Tree size bounds for GenerateTree results.
const (
	minTreeEntries = 8
	maxTreeEntries = 28
)

// maxQuestionLen caps question text taken from model output.
const maxQuestionLen = 200

// Config holds the OpenAI-compatible endpoint settings, read from the
// environment: AI_API_BASE, AI_API_KEY, AI_MODEL.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ConfigFromEnv builds a Config from environment variables. An empty
// base URL or key means no remote endpoint is configured; the client
// then runs entirely on the stub.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("AI_API_BASE")), "/"),
		APIKey:  strings.TrimSpace(os.Getenv("AI_API_KEY")),
		Model:   strings.TrimSpace(os.Getenv("AI_MODEL")),
		Timeout: 60 * time.Second,
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return cfg
}
