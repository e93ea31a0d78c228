// Package mindmap holds the tree domain of mindweave: node and project
// entities, the node status machine, progress calculation, and the
// auto-trace navigator that picks the next open question.
//
// Everything in this package is pure — it operates on in-memory snapshots
// of a project's node set and never touches persistence or the AI client.
package mindmap

import (
	"fmt"
	"strings"
	"time"
)

// --- Node status enum ---

// NodeStatus tracks whether a question node has been answered.
// Question nodes start red and move to green (human answer) or ai
// (AI answer); both are terminal. Tip nodes live on a separate track
// with the fixed status "tip" and never enter the red/green machine.
type NodeStatus string

const (
	StatusRed   NodeStatus = "red"
	StatusGreen NodeStatus = "green"
	StatusAI    NodeStatus = "ai"
	StatusTip   NodeStatus = "tip"
)

// validStatuses is the set of allowed node statuses.
var validStatuses = map[NodeStatus]bool{
	StatusRed:   true,
	StatusGreen: true,
	StatusAI:    true,
	StatusTip:   true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s NodeStatus) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid node status %q: must be one of: red, green, ai, tip", s)
	}
	return nil
}

// Answered reports whether the status counts as answered.
// Both green and ai are terminal answered states.
func (s NodeStatus) Answered() bool {
	return s == StatusGreen || s == StatusAI
}

// CanTransition reports whether a node may move from s to next.
// The only legal moves are red→green and red→ai; nothing ever
// returns to red, and tip is entered only at creation.
func (s NodeStatus) CanTransition(next NodeStatus) bool {
	return s == StatusRed && next.Answered()
}

// --- Node type enum ---

// NodeType distinguishes answerable questions from informational tips.
type NodeType string

const (
	TypeQuestion NodeType = "question"
	TypeTip      NodeType = "tip"
)

// ValidateType returns an error if the node type is not recognized.
func ValidateType(t NodeType) error {
	if t != TypeQuestion && t != TypeTip {
		return fmt.Errorf("invalid node type %q: must be one of: question, tip", t)
	}
	return nil
}

// --- Project status enum ---

// ProjectStatus tracks the overall project lifecycle.
type ProjectStatus string

const (
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
)

// --- Draft status enum ---

// DraftStatus tracks the pre-project clarification chat.
type DraftStatus string

const (
	DraftChatting DraftStatus = "chatting"
	DraftReady    DraftStatus = "ready"
)

// --- Mode enum ---

// Mode controls how many questions a project collects and how deep the
// tree may grow before the AI considers answers sufficient by default.
type Mode string

const (
	ModeBrief  Mode = "brief"
	ModeDetail Mode = "detail"
	ModeDeep   Mode = "deep"
)

// ParseMode normalizes a mode string, defaulting to detail for empty or
// unrecognized values.
func ParseMode(s string) Mode {
	switch Mode(strings.TrimSpace(strings.ToLower(s))) {
	case ModeBrief:
		return ModeBrief
	case ModeDeep:
		return ModeDeep
	default:
		return ModeDetail
	}
}

// Limits returns the question quota and depth limit for a mode.
func (m Mode) Limits() (maxQuestions, maxDepth int) {
	switch m {
	case ModeBrief:
		return 10, 2
	case ModeDeep:
		return 40, 4
	default:
		return 20, 3
	}
}

// --- Entities ---

// Project owns one tree of nodes rooted at a single level-0 node.
type Project struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	IdeaText         string        `json:"idea_text"`
	Status           ProjectStatus `json:"status"`
	Mode             Mode          `json:"mode"`
	MaxQuestions     int           `json:"max_questions"`
	CurrentQuestions int           `json:"current_questions"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Node is one entry in a project's tree, stored flat with a parent
// reference. ParentID is empty only for the level-0 root. Siblings are
// ordered by OrderIndex ascending, ties broken by insertion order.
type Node struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	ParentID   string     `json:"parent_id,omitempty"`
	Level      int        `json:"level"`
	Title      string     `json:"title"`
	Question   string     `json:"question"`
	Status     NodeStatus `json:"status"`
	NodeType   NodeType   `json:"node_type"`
	OrderIndex int        `json:"order_index"`
}

// IsRoot reports whether the node is the project's level-0 root.
func (n *Node) IsRoot() bool { return n.ParentID == "" }

// Countable reports whether the node participates in progress counting:
// question-type nodes below the root only.
func (n *Node) Countable() bool {
	return n.NodeType == TypeQuestion && n.Level > 0
}

// NodeAnswer is one recorded answer for a node. A node may accumulate
// several answers; the most recent is authoritative for AI judgments.
type NodeAnswer struct {
	ID        int64     `json:"id"`
	NodeID    string    `json:"node_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Draft is the pre-project scratch entity: a growing message log plus a
// readiness flag. Once ready it carries the title (and optionally seed
// questions) used to create the project.
type Draft struct {
	ID               string      `json:"id"`
	Messages         string      `json:"messages"` // JSON: [{"role":"...","content":"..."}]
	Status           DraftStatus `json:"status"`
	Mode             Mode        `json:"mode"`
	MaxQuestions     int         `json:"max_questions"`
	CurrentQuestions int         `json:"current_questions"`
	ProjectTitle     string      `json:"project_title,omitempty"`
	InitialQuestions string      `json:"initial_questions"` // JSON: ["q1","q2",...]
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// DialogMessage is one entry of a project's creation dialog log.
type DialogMessage struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	Role      string    `json:"role"` // user | assistant | system
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ShortTitle derives a compact node label from free text: the first few
// runes of the trimmed text, or the fallback when the text is empty.
func ShortTitle(text, fallback string) string {
	t := strings.TrimSpace(TruncateRunes(strings.TrimSpace(text), 7))
	if t == "" {
		return fallback
	}
	return t
}

// TruncateRunes shortens a string to at most max runes. Unlike a byte
// slice this never splits a multi-byte character.
func TruncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
