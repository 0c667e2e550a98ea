package adapter

import (
	"errors"
	"sync"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

var (
	installMu sync.Mutex
	installed *Pipeline
)

// Install builds the process-wide pipeline on first call and reports true.
// Later calls ignore opts and return the installed pipeline with false.
func Install(opts ...Option) (*Pipeline, bool) {
	installMu.Lock()
	defer installMu.Unlock()

	if installed != nil {
		return installed, false
	}
	installed = New(opts...)
	return installed, true
}

// Installed returns the process-wide pipeline, or nil before Install.
func Installed() *Pipeline {
	installMu.Lock()
	defer installMu.Unlock()
	return installed
}

// classes lists the error classes in match order.
var classes = []error{
	types.ErrUnresolvedOperation,
	types.ErrNameConflict,
	types.ErrIndexOutOfRange,
	types.ErrUnsupportedType,
	types.ErrOutOfRange,
	types.ErrTypeMismatch,
	types.ErrInvalidValueType,
	types.ErrPropertyNotFound,
	types.ErrItemNotFound,
	types.ErrItemExists,
	types.ErrInvalidName,
	types.ErrConstraintViolation,
	types.ErrSessionClosed,
	types.ErrAuthenticationFailure,
	types.ErrRepositoryUnavailable,
}

// Classify returns the class of err, which is the message of the matching
// sentinel in pkg/types ("unresolved operation", "name conflict", ...).
// It returns "" for nil and "error" for errors outside the taxonomy.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range classes {
		if errors.Is(err, c) {
			return c.Error()
		}
	}
	return "error"
}

// ClassOf returns the sentinel matching class, as produced by Classify.
func ClassOf(class string) (error, bool) {
	for _, c := range classes {
		if c.Error() == class {
			return c, true
		}
	}
	return nil, false
}

// Classes lists every class name Classify can return for a classified
// error.
func Classes() []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.Error()
	}
	return out
}
