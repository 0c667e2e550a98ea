// Package arbor is the embedding entry point. It installs the attribute
// adapter once per process and runs Lua scripts against a session.
package arbor

import (
	"io"
	"log/slog"

	"github.com/mesh-intelligence/arbor/internal/adapter"
	"github.com/mesh-intelligence/arbor/internal/luabind"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Version is the arbor release.
const Version = "0.1.0"

// Install installs the process-wide attribute adapter. It reports whether
// this call did the installation; later calls are no-ops.
func Install(logger *slog.Logger) bool {
	_, first := adapter.Install(adapter.WithLogger(logger))
	return first
}

// Eval runs script with s bound to the global "session". The script's
// print output goes to out. Adapter failures come back with their class,
// so errors.Is(err, types.ErrUnresolvedOperation) and friends work.
func Eval(s types.Session, script string, out io.Writer, logger *slog.Logger) error {
	return newShell(s, out, logger).Eval(script)
}

// RunFile is Eval for a script on disk.
func RunFile(s types.Session, path string, out io.Writer, logger *slog.Logger) error {
	return newShell(s, out, logger).RunFile(path)
}

func newShell(s types.Session, out io.Writer, logger *slog.Logger) *luabind.Shell {
	if logger == nil {
		logger = slog.Default()
	}
	p, _ := adapter.Install(adapter.WithLogger(logger))
	sh := luabind.NewShell(p, luabind.WithLogger(logger), luabind.WithOutput(out))
	sh.SetGlobal("session", s)
	return sh
}
