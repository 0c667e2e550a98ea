// Package sqlite implements the SQLite Repository backend. Nodes and
// properties live in two tables inside DataDir/arbor.db; the
// database is reused across Attach calls.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/arbor/internal/auth"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// DatabaseFile is the name of the database inside DataDir.
const DatabaseFile = "arbor.db"

var _ types.Repository = (*Backend)(nil)

// Backend implements the Repository interface on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	rootID   string
	sessions []*session
	logger   *slog.Logger
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{logger: logger}
}

// Attach opens DataDir/arbor.db, creating DataDir and the schema if needed,
// and makes sure the root node exists.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(config.DataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// A single connection serializes writers and keeps SQLite from
	// returning SQLITE_BUSY between sessions of this process.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	rootID, err := ensureRoot(db)
	if err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.rootID = rootID
	b.attached = true
	b.logger.Debug("sqlite repository attached", "path", dbPath, "root", rootID)
	return nil
}

// Login checks creds against the configured users and opens a session.
// Returns ErrRepositoryUnavailable if the backend is detached.
func (b *Backend) Login(creds types.Credentials) (types.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrRepositoryUnavailable
	}
	if err := auth.Verify(b.config.Users, creds); err != nil {
		b.logger.Debug("login rejected", "user", creds.User)
		return nil, err
	}
	s := &session{b: b, user: creds.User, live: true, handles: make(map[string]*node)}
	b.sessions = append(b.sessions, s)
	b.logger.Debug("login", "user", creds.User)
	return s, nil
}

// Detach logs out open sessions and closes the database. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	for _, s := range b.sessions {
		s.live = false
	}
	b.sessions = nil

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.logger.Debug("sqlite repository detached")
	return nil
}

// ensureRoot returns the root node id, inserting the root on first use.
func ensureRoot(db *sql.DB) (string, error) {
	var id string
	err := db.QueryRow("SELECT node_id FROM nodes WHERE parent_id IS NULL").Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("loading root node: %w", err)
	}
	id = generateUUID()
	_, err = db.Exec(
		"INSERT INTO nodes (node_id, parent_id, name, type_name, ordinal, created_at) VALUES (?, NULL, '', ?, 0, ?)",
		id, types.NodeTypeRoot, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("creating root node: %w", err)
	}
	return id, nil
}

// generateUUID generates a new UUID v7 for node identifiers.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
