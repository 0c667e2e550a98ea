package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

var _ types.Session = (*session)(nil)

type session struct {
	b    *Backend
	user string
	live bool

	hmu     sync.Mutex
	handles map[string]*node
}

func (s *session) User() string { return s.user }

func (s *session) Live() bool {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	return s.live
}

func (s *session) RootNode() (types.Node, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.live {
		return nil, types.ErrSessionClosed
	}
	return s.root(), nil
}

func (s *session) NodeAt(path string) (types.Node, error) {
	names, err := types.SplitPath(path)
	if err != nil {
		return nil, err
	}

	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.live {
		return nil, types.ErrSessionClosed
	}
	cur := s.root()
	for _, name := range names {
		next, err := s.child(cur, name)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %s", types.ErrItemNotFound, path)
		}
		cur = next
	}
	return cur, nil
}

func (s *session) NodeByIdentifier(id string) (types.Node, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.live {
		return nil, types.ErrSessionClosed
	}
	return s.byID(id)
}

// Logout invalidates the session. Idempotent.
func (s *session) Logout() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	s.live = false
	s.hmu.Lock()
	s.handles = make(map[string]*node)
	s.hmu.Unlock()
	return nil
}

// The helpers below require s.b.mu to be held.

func (s *session) root() *node {
	return s.handle(s.b.rootID, "", "", types.NodeTypeRoot, "/", 0)
}

// handle returns the cached handle for id or records a new one, so that a
// node yields the same handle for the lifetime of the session.
func (s *session) handle(id, parentID, name, typeName, path string, depth int) *node {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	if h, ok := s.handles[id]; ok {
		return h
	}
	h := &node{s: s, id: id, parentID: parentID, name: name, typeName: typeName, path: path, depth: depth}
	s.handles[id] = h
	return h
}

func (s *session) cached(id string) (*node, bool) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	h, ok := s.handles[id]
	return h, ok
}

// child looks up the child of parent named name; nil if there is none.
func (s *session) child(parent *node, name string) (*node, error) {
	var id, typeName string
	err := s.b.db.QueryRow(
		"SELECT node_id, type_name FROM nodes WHERE parent_id = ? AND name = ?",
		parent.id, name,
	).Scan(&id, &typeName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading child %s: %w", name, err)
	}
	return s.handle(id, parent.id, name, typeName, types.JoinPath(parent.path, name), parent.depth+1), nil
}

// byID resolves a node by walking its ancestor chain up to the root.
func (s *session) byID(id string) (*node, error) {
	if h, ok := s.cached(id); ok {
		return h, nil
	}
	if id == s.b.rootID {
		return s.root(), nil
	}

	type row struct {
		parentID sql.NullString
		name     string
		typeName string
	}
	load := func(id string) (row, error) {
		var r row
		err := s.b.db.QueryRow(
			"SELECT parent_id, name, type_name FROM nodes WHERE node_id = ?", id,
		).Scan(&r.parentID, &r.name, &r.typeName)
		if errors.Is(err, sql.ErrNoRows) {
			return r, fmt.Errorf("%w: identifier %s", types.ErrItemNotFound, id)
		}
		if err != nil {
			return r, fmt.Errorf("loading node %s: %w", id, err)
		}
		return r, nil
	}

	self, err := load(id)
	if err != nil {
		return nil, err
	}
	if !self.parentID.Valid {
		return s.root(), nil
	}
	parent, err := s.byID(self.parentID.String)
	if err != nil {
		return nil, err
	}
	return s.handle(id, parent.id, self.name, self.typeName, types.JoinPath(parent.path, self.name), parent.depth+1), nil
}
