// Package store implements SQLite persistence for mindweave projects,
// nodes, answers, and drafts.
//
// It is a thin persistence layer: get/list/save keyed by opaque string
// ids, no business logic. Tree semantics (status propagation, progress)
// live in internal/mindmap and internal/engine.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mindweave/mindweave/internal/mindmap"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is the SQLite text timestamp format used throughout.
const timeLayout = "2006-01-02 15:04:05"

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".mindweave")}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistence engine backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store with the given configuration. It creates the data
// directory if needed, opens SQLite with WAL mode, and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "mindweave.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			idea_text         TEXT NOT NULL DEFAULT '',
			status            TEXT NOT NULL DEFAULT 'in_progress',
			mode              TEXT NOT NULL DEFAULT 'detail',
			max_questions     INTEGER NOT NULL DEFAULT 20,
			current_questions INTEGER NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS nodes (
			id          TEXT PRIMARY KEY,
			project_id  TEXT NOT NULL,
			parent_id   TEXT,
			level       INTEGER NOT NULL,
			title       TEXT NOT NULL,
			question    TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'red',
			node_type   TEXT NOT NULL DEFAULT 'question',
			order_index INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (project_id) REFERENCES projects(id),
			FOREIGN KEY (parent_id)  REFERENCES nodes(id)
		);

		CREATE INDEX IF NOT EXISTS idx_nodes_project ON nodes(project_id);
		CREATE INDEX IF NOT EXISTS idx_nodes_parent  ON nodes(parent_id);

		CREATE TABLE IF NOT EXISTS node_answers (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			node_id    TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (node_id) REFERENCES nodes(id)
		);

		CREATE INDEX IF NOT EXISTS idx_answers_node ON node_answers(node_id, created_at);

		CREATE TABLE IF NOT EXISTS drafts (
			id                TEXT PRIMARY KEY,
			messages          TEXT NOT NULL DEFAULT '[]',
			status            TEXT NOT NULL DEFAULT 'chatting',
			mode              TEXT NOT NULL DEFAULT 'detail',
			max_questions     INTEGER NOT NULL DEFAULT 20,
			current_questions INTEGER NOT NULL DEFAULT 0,
			project_title     TEXT,
			initial_questions TEXT NOT NULL DEFAULT '[]',
			created_at        TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS project_dialogs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (project_id) REFERENCES projects(id)
		);

		CREATE INDEX IF NOT EXISTS idx_dialogs_project ON project_dialogs(project_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// ─── Projects ────────────────────────────────────────────────────────────────

// CreateProject inserts a new project row.
func (s *Store) CreateProject(p *mindmap.Project) error {
	now := nowUTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, idea_text, status, mode, max_questions, current_questions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.IdeaText, string(p.Status), string(p.Mode),
		p.MaxQuestions, p.CurrentQuestions, formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by id.
func (s *Store) GetProject(id string) (*mindmap.Project, error) {
	row := s.db.QueryRow(
		`SELECT id, name, idea_text, status, mode, max_questions, current_questions, created_at, updated_at
		 FROM projects WHERE id = ?`, id,
	)
	return scanProject(row)
}

// SaveProject updates a project's mutable fields and bumps updated_at.
func (s *Store) SaveProject(p *mindmap.Project) error {
	p.UpdatedAt = nowUTC()
	res, err := s.db.Exec(
		`UPDATE projects
		 SET name = ?, idea_text = ?, status = ?, mode = ?,
		     max_questions = ?, current_questions = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.IdeaText, string(p.Status), string(p.Mode),
		p.MaxQuestions, p.CurrentQuestions, formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("save project %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects() ([]*mindmap.Project, error) {
	rows, err := s.db.Query(
		`SELECT id, name, idea_text, status, mode, max_questions, current_questions, created_at, updated_at
		 FROM projects ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*mindmap.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ─── Nodes ───────────────────────────────────────────────────────────────────

// InsertNode inserts a single node row.
func (s *Store) InsertNode(n *mindmap.Node) error {
	return insertNode(s.db, n)
}

// GetNode retrieves a node by id.
func (s *Store) GetNode(id string) (*mindmap.Node, error) {
	row := s.db.QueryRow(
		`SELECT id, project_id, ifnull(parent_id, ''), level, title, question, status, node_type, order_index
		 FROM nodes WHERE id = ?`, id,
	)
	return scanNode(row)
}

// SaveNode updates a node's mutable fields (title, question, status,
// order_index). Identity fields never change after insert.
func (s *Store) SaveNode(n *mindmap.Node) error {
	res, err := s.db.Exec(
		`UPDATE nodes SET title = ?, question = ?, status = ?, order_index = ? WHERE id = ?`,
		n.Title, n.Question, string(n.Status), n.OrderIndex, n.ID,
	)
	if err != nil {
		return fmt.Errorf("save node: %w", err)
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return fmt.Errorf("save node %s: %w", n.ID, ErrNotFound)
	}
	return nil
}

// NodesByProject returns all nodes of a project in insertion order,
// which doubles as the sibling tie-break order.
func (s *Store) NodesByProject(projectID string) ([]*mindmap.Node, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, ifnull(parent_id, ''), level, title, question, status, node_type, order_index
		 FROM nodes WHERE project_id = ? ORDER BY rowid`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("nodes by project: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*mindmap.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// NodesByParent returns the ordered child list of a node.
func (s *Store) NodesByParent(parentID string) ([]*mindmap.Node, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, ifnull(parent_id, ''), level, title, question, status, node_type, order_index
		 FROM nodes WHERE parent_id = ? ORDER BY order_index, rowid`, parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("nodes by parent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*mindmap.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CreateProjectTree atomically inserts a project, its node forest, and
// its creation dialog log. Used for project creation so a failed AI tree
// never leaves a half-written project behind.
func (s *Store) CreateProjectTree(p *mindmap.Project, nodes []*mindmap.Node, dialog []mindmap.DialogMessage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("create project tree: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowUTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := tx.Exec(
		`INSERT INTO projects (id, name, idea_text, status, mode, max_questions, current_questions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.IdeaText, string(p.Status), string(p.Mode),
		p.MaxQuestions, p.CurrentQuestions, formatTime(now), formatTime(now),
	); err != nil {
		return fmt.Errorf("create project tree: project: %w", err)
	}

	for _, n := range nodes {
		if err := insertNode(tx, n); err != nil {
			return fmt.Errorf("create project tree: %w", err)
		}
	}

	for _, d := range dialog {
		if _, err := tx.Exec(
			`INSERT INTO project_dialogs (project_id, role, content) VALUES (?, ?, ?)`,
			p.ID, d.Role, d.Content,
		); err != nil {
			return fmt.Errorf("create project tree: dialog: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create project tree: commit: %w", err)
	}
	return nil
}

// ─── Answers ─────────────────────────────────────────────────────────────────

// AddAnswer appends an answer record for a node and returns it.
func (s *Store) AddAnswer(nodeID, content string) (*mindmap.NodeAnswer, error) {
	now := nowUTC()
	res, err := s.db.Exec(
		`INSERT INTO node_answers (node_id, content, created_at) VALUES (?, ?, ?)`,
		nodeID, content, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("add answer: %w", err)
	}
	id, _ := res.LastInsertId()
	return &mindmap.NodeAnswer{ID: id, NodeID: nodeID, Content: content, CreatedAt: now}, nil
}

// AnswersByNode returns a node's answers, oldest first.
func (s *Store) AnswersByNode(nodeID string) ([]*mindmap.NodeAnswer, error) {
	rows, err := s.db.Query(
		`SELECT id, node_id, content, created_at
		 FROM node_answers WHERE node_id = ? ORDER BY created_at, id`, nodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("answers by node: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*mindmap.NodeAnswer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LatestAnswer returns the most recent answer for a node, or nil when
// the node has none.
func (s *Store) LatestAnswer(nodeID string) (*mindmap.NodeAnswer, error) {
	row := s.db.QueryRow(
		`SELECT id, node_id, content, created_at
		 FROM node_answers WHERE node_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, nodeID,
	)
	a, err := scanAnswer(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// ─── Drafts ──────────────────────────────────────────────────────────────────

// CreateDraft inserts a new draft row.
func (s *Store) CreateDraft(d *mindmap.Draft) error {
	now := nowUTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := s.db.Exec(
		`INSERT INTO drafts (id, messages, status, mode, max_questions, current_questions, project_title, initial_questions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Messages, string(d.Status), string(d.Mode),
		d.MaxQuestions, d.CurrentQuestions,
		nullableString(d.ProjectTitle), d.InitialQuestions,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	return nil
}

// GetDraft retrieves a draft by id.
func (s *Store) GetDraft(id string) (*mindmap.Draft, error) {
	row := s.db.QueryRow(
		`SELECT id, messages, status, mode, max_questions, current_questions,
		        ifnull(project_title, ''), initial_questions, created_at, updated_at
		 FROM drafts WHERE id = ?`, id,
	)
	var (
		d                    mindmap.Draft
		status, mode, ct, ut string
	)
	err := row.Scan(&d.ID, &d.Messages, &status, &mode, &d.MaxQuestions,
		&d.CurrentQuestions, &d.ProjectTitle, &d.InitialQuestions, &ct, &ut)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	d.Status = mindmap.DraftStatus(status)
	d.Mode = mindmap.Mode(mode)
	d.CreatedAt = parseTime(ct)
	d.UpdatedAt = parseTime(ut)
	return &d, nil
}

// SaveDraft updates a draft's mutable fields and bumps updated_at.
func (s *Store) SaveDraft(d *mindmap.Draft) error {
	d.UpdatedAt = nowUTC()
	res, err := s.db.Exec(
		`UPDATE drafts
		 SET messages = ?, status = ?, mode = ?, max_questions = ?, current_questions = ?,
		     project_title = ?, initial_questions = ?, updated_at = ?
		 WHERE id = ?`,
		d.Messages, string(d.Status), string(d.Mode),
		d.MaxQuestions, d.CurrentQuestions,
		nullableString(d.ProjectTitle), d.InitialQuestions,
		formatTime(d.UpdatedAt), d.ID,
	)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("save draft %s: %w", d.ID, ErrNotFound)
	}
	return nil
}

// ─── Dialogs ─────────────────────────────────────────────────────────────────

// AddDialog appends one message to a project's creation dialog log.
func (s *Store) AddDialog(projectID, role, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO project_dialogs (project_id, role, content) VALUES (?, ?, ?)`,
		projectID, role, content,
	)
	if err != nil {
		return fmt.Errorf("add dialog: %w", err)
	}
	return nil
}

// DialogsByProject returns a project's dialog log, oldest first.
func (s *Store) DialogsByProject(projectID string) ([]mindmap.DialogMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, role, content, created_at
		 FROM project_dialogs WHERE project_id = ? ORDER BY id`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("dialogs by project: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []mindmap.DialogMessage
	for rows.Next() {
		var (
			m  mindmap.DialogMessage
			ct string
		)
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &ct); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(ct)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertNode(db execer, n *mindmap.Node) error {
	_, err := db.Exec(
		`INSERT INTO nodes (id, project_id, parent_id, level, title, question, status, node_type, order_index)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.ProjectID, nullableString(n.ParentID), n.Level,
		n.Title, n.Question, string(n.Status), string(n.NodeType), n.OrderIndex,
	)
	if err != nil {
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*mindmap.Project, error) {
	var (
		p                    mindmap.Project
		status, mode, ct, ut string
	)
	err := row.Scan(&p.ID, &p.Name, &p.IdeaText, &status, &mode,
		&p.MaxQuestions, &p.CurrentQuestions, &ct, &ut)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.Status = mindmap.ProjectStatus(status)
	p.Mode = mindmap.Mode(mode)
	p.CreatedAt = parseTime(ct)
	p.UpdatedAt = parseTime(ut)
	return &p, nil
}

func scanNode(row rowScanner) (*mindmap.Node, error) {
	var (
		n            mindmap.Node
		status, ntyp string
	)
	err := row.Scan(&n.ID, &n.ProjectID, &n.ParentID, &n.Level,
		&n.Title, &n.Question, &status, &ntyp, &n.OrderIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan node: %w", err)
	}
	n.Status = mindmap.NodeStatus(status)
	n.NodeType = mindmap.NodeType(ntyp)
	return &n, nil
}

func scanAnswer(row rowScanner) (*mindmap.NodeAnswer, error) {
	var (
		a  mindmap.NodeAnswer
		ct string
	)
	err := row.Scan(&a.ID, &a.NodeID, &a.Content, &ct)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("answer: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan answer: %w", err)
	}
	a.CreatedAt = parseTime(ct)
	return &a, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
