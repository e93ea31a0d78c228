// Package engine is the single writer path for mindweave trees: answer
// submission, follow-up and tip spawning, tip selection, and the
// project/draft lifecycle around them.
//
// Every mutation runs under a per-project lock for its read/compute/
// write step, so the tree algorithms in internal/mindmap always see a
// consistent snapshot. AI collaborator calls happen outside the lock —
// they are slow and total, never a reason to hold the tree.
package engine

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mindweave/mindweave/internal/ai"
	"github.com/mindweave/mindweave/internal/mindmap"
	"github.com/mindweave/mindweave/internal/store"
)

// Engine orchestrates all tree mutations over the store, the pure
// tree core, and the AI collaborator.
type Engine struct {
	store *store.Store
	ai    ai.Collaborator

	locks sync.Map // project id → *sync.Mutex
}

// New creates an Engine. The collaborator is injected once here and
// shared by every operation; tests pass a fake.
func New(st *store.Store, collab ai.Collaborator) *Engine {
	return &Engine{store: st, ai: collab}
}

// lockProject serializes mutations of one project. Returns the unlock
// function.
func (e *Engine) lockProject(projectID string) func() {
	v, _ := e.locks.LoadOrStore(projectID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// newID returns a fresh opaque identifier.
func newID() string { return uuid.NewString() }

// loadProject fetches a project, mapping absence to the typed error.
func (e *Engine) loadProject(projectID string) (*mindmap.Project, error) {
	p, err := e.store.GetProject(projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("project_not_found")
	}
	return p, err
}

// loadNode fetches a node and verifies project ownership. A node that
// exists under a different project is reported as absent.
func (e *Engine) loadNode(project *mindmap.Project, nodeID string) (*mindmap.Node, error) {
	n, err := e.store.GetNode(nodeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("node_not_found")
	}
	if err != nil {
		return nil, err
	}
	if n.ProjectID != project.ID {
		return nil, notFound("node_not_found")
	}
	return n, nil
}

// snapshot loads a project's full node set and builds the tree index.
func (e *Engine) snapshot(projectID string) ([]*mindmap.Node, *mindmap.Index, error) {
	nodes, err := e.store.NodesByProject(projectID)
	if err != nil {
		return nil, nil, err
	}
	return nodes, mindmap.NewIndex(nodes), nil
}
