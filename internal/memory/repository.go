// Package memory implements an in-process Repository backend. The tree is
// shared by every session of a Repository and lives until Detach.
package memory

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/arbor/internal/auth"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

var _ types.Repository = (*Repository)(nil)

// Repository is the in-memory backend.
type Repository struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	root     *nodeData
	byID     map[string]*nodeData
	sessions []*session
	logger   *slog.Logger
}

// nodeData is the shared state of one node. Handles returned to callers
// wrap it together with the session they came from.
type nodeData struct {
	id       string
	name     string
	typeName string
	parent   *nodeData
	children []*nodeData
	props    map[string]*propData
	removed  bool
}

type propData struct {
	name     string
	typ      types.PropertyType
	multiple bool
	values   []types.Value
}

// NewRepository creates a detached in-memory repository.
func NewRepository(logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{logger: logger}
}

// Attach creates an empty tree with a root node.
func (r *Repository) Attach(config types.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	r.root = &nodeData{
		id:       newID(),
		typeName: types.NodeTypeRoot,
		props:    make(map[string]*propData),
	}
	r.byID = map[string]*nodeData{r.root.id: r.root}
	r.config = config
	r.attached = true
	r.logger.Debug("memory repository attached", "root", r.root.id)
	return nil
}

// Login checks creds against the configured users and opens a session.
func (r *Repository) Login(creds types.Credentials) (types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.attached {
		return nil, types.ErrRepositoryUnavailable
	}
	if err := auth.Verify(r.config.Users, creds); err != nil {
		r.logger.Debug("login rejected", "user", creds.User)
		return nil, err
	}
	s := &session{repo: r, user: creds.User, live: true, handles: make(map[*nodeData]*node)}
	r.sessions = append(r.sessions, s)
	return s, nil
}

// Detach drops the tree and logs out every open session. Idempotent.
func (r *Repository) Detach() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.attached {
		return nil
	}
	for _, s := range r.sessions {
		s.live = false
	}
	r.sessions = nil
	r.root = nil
	r.byID = nil
	r.attached = false
	r.logger.Debug("memory repository detached")
	return nil
}

// newID generates a UUID v7 for node identifiers.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func (d *nodeData) path() string {
	if d.parent == nil {
		return "/"
	}
	return types.JoinPath(d.parent.path(), d.name)
}

func (d *nodeData) depth() int {
	n := 0
	for p := d.parent; p != nil; p = p.parent {
		n++
	}
	return n
}

func (d *nodeData) child(name string) *nodeData {
	for _, c := range d.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// markRemoved flags the subtree and unregisters it from byID.
func (r *Repository) markRemoved(d *nodeData) {
	d.removed = true
	delete(r.byID, d.id)
	for _, c := range d.children {
		r.markRemoved(c)
	}
}

func checkValues(values []types.Value) (types.PropertyType, error) {
	if len(values) == 0 {
		return types.TypeString, nil
	}
	typ := values[0].Type()
	if typ == types.TypeUndefined {
		return 0, fmt.Errorf("%w: undefined value", types.ErrInvalidValueType)
	}
	for _, v := range values[1:] {
		if v.Type() != typ {
			return 0, fmt.Errorf("%w: mixed value types %s and %s", types.ErrTypeMismatch, typ, v.Type())
		}
	}
	return typ, nil
}
