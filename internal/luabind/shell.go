// Package luabind hosts Lua scripts against a repository session. Nodes,
// properties and sessions are exposed as userdata whose metatables route
// attribute access, indexing and iteration through an adapter.Pipeline.
package luabind

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/mesh-intelligence/arbor/internal/adapter"
)

// Metatable names registered in the Lua registry.
const (
	nodeMeta     = "arbor.Node"
	propertyMeta = "arbor.Property"
	sessionMeta  = "arbor.Session"
	valueMeta    = "arbor.Value"
)

// Shell is a Lua state bound to a pipeline. A Shell is not safe for
// concurrent use.
type Shell struct {
	l        *lua.State
	pipeline *adapter.Pipeline
	logger   *slog.Logger
	out      io.Writer

	// lastErr is the most recent Go error raised into Lua, kept so Eval can
	// return it with its class intact.
	lastErr error
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the shell's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) { s.logger = l }
}

// WithOutput redirects the script's print function.
func WithOutput(w io.Writer) Option {
	return func(s *Shell) { s.out = w }
}

// NewShell creates a Lua state with the standard libraries, the arbor
// metatables and the arbor global table.
func NewShell(p *adapter.Pipeline, opts ...Option) *Shell {
	s := &Shell{
		l:        lua.NewState(),
		pipeline: p,
		logger:   slog.Default(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	lua.OpenLibraries(s.l)
	s.Install()
	return s
}

// Install registers the metatables and globals. Calling it again has no
// effect.
func (s *Shell) Install() {
	if !lua.NewMetaTable(s.l, nodeMeta) {
		s.l.Pop(1)
		return
	}
	s.setMetamethods(nodeMeta, true)
	s.l.Pop(1)

	lua.NewMetaTable(s.l, propertyMeta)
	s.setMetamethods(propertyMeta, false)
	s.l.Pop(1)

	lua.NewMetaTable(s.l, sessionMeta)
	s.setMetamethods(sessionMeta, false)
	s.l.Pop(1)

	lua.NewMetaTable(s.l, valueMeta)
	lua.SetFunctions(s.l, []lua.RegistryFunction{
		{Name: "__index", Function: s.valueIndex},
		{Name: "__eq", Function: s.valueEq},
		{Name: "__tostring", Function: s.valueToString},
	}, 0)
	s.l.Pop(1)

	s.registerGlobals()
}

// SetGlobal binds v to a global name. Nodes, properties, sessions and host
// values become userdata; other values are converted as they are for
// results of native operations.
func (s *Shell) SetGlobal(name string, v any) {
	s.push(s.l, v)
	s.l.SetGlobal(name)
}

// Eval runs a chunk of Lua source.
func (s *Shell) Eval(script string) error {
	return s.run("eval", func() error { return lua.LoadString(s.l, script) })
}

// RunFile runs a Lua file.
func (s *Shell) RunFile(path string) error {
	return s.run(path, func() error { return lua.LoadFile(s.l, path, "") })
}

func (s *Shell) run(name string, load func() error) error {
	s.lastErr = nil
	defer s.l.SetTop(0)

	if err := load(); err != nil {
		return &ScriptError{Message: err.Error()}
	}
	if err := s.l.ProtectedCall(0, 0, 0); err != nil {
		serr := &ScriptError{Message: err.Error()}
		if s.lastErr != nil && strings.Contains(serr.Message, message(s.lastErr)) {
			serr.Err = s.lastErr
		}
		s.logger.Debug("script failed", "script", name, "class", adapter.Classify(serr.Err), "error", serr.Message)
		return serr
	}
	return nil
}

// ScriptError is a failed script. Err is the repository or adapter error
// that was raised into Lua, when there was one, so errors.Is sees through
// the script boundary.
type ScriptError struct {
	Message string
	Err     error
}

func (e *ScriptError) Error() string { return e.Message }

func (e *ScriptError) Unwrap() error { return e.Err }

// raise records err and raises it as a Lua error whose message starts with
// the error class.
func (s *Shell) raise(l *lua.State, err error) int {
	s.lastErr = err
	lua.Errorf(l, "%s", message(err))
	return 0
}

// message renders err so that it starts with its class.
func message(err error) string {
	msg := err.Error()
	class := adapter.Classify(err)
	if class == "" || class == "error" || strings.HasPrefix(msg, class) {
		return msg
	}
	return fmt.Sprintf("%s: %s", class, msg)
}
