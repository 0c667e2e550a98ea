package memory

import (
	"fmt"
	"sync"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

var _ types.Session = (*session)(nil)

type session struct {
	repo *Repository
	user string
	live bool

	hmu     sync.Mutex
	handles map[*nodeData]*node
}

func (s *session) User() string { return s.user }

func (s *session) Live() bool {
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()
	return s.live
}

func (s *session) RootNode() (types.Node, error) {
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()

	if !s.live {
		return nil, types.ErrSessionClosed
	}
	return s.handle(s.repo.root), nil
}

func (s *session) NodeAt(path string) (types.Node, error) {
	names, err := types.SplitPath(path)
	if err != nil {
		return nil, err
	}

	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()

	if !s.live {
		return nil, types.ErrSessionClosed
	}
	cur := s.repo.root
	for _, name := range names {
		cur = cur.child(name)
		if cur == nil {
			return nil, fmt.Errorf("%w: %s", types.ErrItemNotFound, path)
		}
	}
	return s.handle(cur), nil
}

func (s *session) NodeByIdentifier(id string) (types.Node, error) {
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()

	if !s.live {
		return nil, types.ErrSessionClosed
	}
	d, ok := s.repo.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: identifier %s", types.ErrItemNotFound, id)
	}
	return s.handle(d), nil
}

// Logout invalidates the session. Idempotent.
func (s *session) Logout() error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	s.live = false
	s.hmu.Lock()
	s.handles = make(map[*nodeData]*node)
	s.hmu.Unlock()
	return nil
}

// handle returns the session's handle for d, creating it on first use so
// that the same node always yields the same handle within a session.
// The caller must hold repo.mu, shared or exclusive.
func (s *session) handle(d *nodeData) *node {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	if h, ok := s.handles[d]; ok {
		return h
	}
	h := &node{s: s, d: d}
	s.handles[d] = h
	return h
}
