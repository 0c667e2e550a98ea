// Package repository provides the public factory for arbor repositories.
// It picks the backend named in a Config while keeping implementations
// internal.
package repository

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/arbor/internal/memory"
	"github.com/mesh-intelligence/arbor/internal/sqlite"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// New creates a detached repository for cfg.Backend. Call Attach with the
// same Config to open it.
//
// Example:
//
//	repo, err := repository.New(cfg, nil)
//	if err != nil { ... }
//	if err := repo.Attach(cfg); err != nil { ... }
//	defer repo.Detach()
func New(cfg types.Config, logger *slog.Logger) (types.Repository, error) {
	switch cfg.Backend {
	case types.BackendSQLite:
		return sqlite.NewBackend(logger), nil
	case types.BackendMemory:
		return memory.NewRepository(logger), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}
}

// Open creates and attaches a repository in one step.
func Open(cfg types.Config, logger *slog.Logger) (types.Repository, error) {
	repo, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := repo.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attaching %s repository: %w", cfg.Backend, err)
	}
	return repo, nil
}
