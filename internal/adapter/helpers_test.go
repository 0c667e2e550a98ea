package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/internal/memory"
	"github.com/mesh-intelligence/arbor/internal/sqlite"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// newSession attaches an in-memory repository and logs in. Teardown logs
// out and detaches.
func newSession(t *testing.T) types.Session {
	t.Helper()
	return login(t, memory.NewRepository(nil), types.Config{Backend: types.BackendMemory})
}

// backends lists the repositories that tests run against in turn.
var backends = []struct {
	name string
	open func(t *testing.T) types.Session
}{
	{types.BackendMemory, newSession},
	{types.BackendSQLite, func(t *testing.T) types.Session {
		return login(t, sqlite.NewBackend(nil), types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	}},
}

func login(t *testing.T, repo types.Repository, cfg types.Config) types.Session {
	t.Helper()
	require.NoError(t, repo.Attach(cfg))
	s, err := repo.Login(types.Credentials{User: "admin", Password: "admin"})
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Logout()
		repo.Detach()
	})
	return s
}

// newRoot returns a fresh node "foo" under the root of a new session.
func newRoot(t *testing.T) types.Node {
	t.Helper()
	root, err := newSession(t).RootNode()
	require.NoError(t, err)
	foo, err := root.AddNode("foo")
	require.NoError(t, err)
	return foo
}

func addChildren(t *testing.T, n types.Node, names ...string) []types.Node {
	t.Helper()
	out := make([]types.Node, len(names))
	for i, name := range names {
		c, err := n.AddNode(name)
		require.NoError(t, err)
		out[i] = c
	}
	return out
}
