package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantErr error
	}{
		{"sqlite", types.BackendSQLite, nil},
		{"memory", types.BackendMemory, nil},
		{"empty", "", types.ErrBackendEmpty},
		{"unknown", "postgres", types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := New(types.Config{Backend: tt.backend}, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, repo)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, repo)
		})
	}
}

func TestOpen(t *testing.T) {
	t.Run("sqlite creates the database", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir}, nil)
		require.NoError(t, err)
		defer repo.Detach()

		_, err = os.Stat(filepath.Join(dir, "arbor.db"))
		assert.NoError(t, err)

		s, err := repo.Login(types.Credentials{})
		require.NoError(t, err)
		root, err := s.RootNode()
		require.NoError(t, err)
		assert.Equal(t, "/", root.Path())
	})

	t.Run("sqlite without data dir", func(t *testing.T) {
		_, err := Open(types.Config{Backend: types.BackendSQLite}, nil)
		assert.ErrorIs(t, err, types.ErrDataDirEmpty)
	})

	t.Run("memory", func(t *testing.T) {
		repo, err := Open(types.Config{Backend: types.BackendMemory}, nil)
		require.NoError(t, err)
		assert.NoError(t, repo.Detach())
	})
}
