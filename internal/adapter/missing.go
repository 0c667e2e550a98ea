package adapter

import (
	"fmt"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// RequestKind is the kind of dynamic request a host dispatches.
type RequestKind uint8

// Request kinds.
const (
	ReadAttribute RequestKind = iota + 1
	WriteAttribute
	Index
	Iterate
	Invoke
)

var requestKindNames = map[RequestKind]string{
	ReadAttribute:  "read attribute",
	WriteAttribute: "write attribute",
	Index:          "index",
	Iterate:        "iterate",
	Invoke:         "invoke",
}

func (k RequestKind) String() string {
	if name, ok := requestKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RequestKind(%d)", uint8(k))
}

// Request is one dynamic request against a node, property or session.
type Request struct {
	Kind   RequestKind
	Target any
	Name   string          // attribute, method or iteration name
	Index  int             // Index requests
	Value  types.HostValue // WriteAttribute requests; the zero value removes
	Args   []any           // Invoke requests
}

// UnresolvedError is returned when a request matches no native operation,
// child, property, index or iteration. It matches
// types.ErrUnresolvedOperation under errors.Is.
type UnresolvedError struct {
	Kind   RequestKind
	Name   string
	Index  int
	Target string
}

func (e *UnresolvedError) Error() string {
	if e.Kind == Index {
		return fmt.Sprintf("%s: %s [%d] on %s", types.ErrUnresolvedOperation, e.Kind, e.Index, e.Target)
	}
	return fmt.Sprintf("%s: %s %q on %s", types.ErrUnresolvedOperation, e.Kind, e.Name, e.Target)
}

// Is reports whether target is types.ErrUnresolvedOperation.
func (e *UnresolvedError) Is(target error) bool {
	return target == types.ErrUnresolvedOperation
}

// Missing is the last resort for req. When the target's native contract
// defines the requested operation it is delegated to and its result and
// error are returned unchanged; otherwise Missing returns an
// *UnresolvedError. It never returns a default value.
func Missing(req Request) (any, error) {
	ops := nativeOpsFor(req.Target)
	if ops != nil {
		switch req.Kind {
		case ReadAttribute:
			if f, ok := ops.fields[req.Name]; ok {
				return f(req.Target)
			}
		case Invoke:
			if m, ok := ops.methods[req.Name]; ok {
				return m(req.Target, req.Args)
			}
		}
	}
	return nil, &UnresolvedError{
		Kind:   req.Kind,
		Name:   req.Name,
		Index:  req.Index,
		Target: describe(req.Target),
	}
}

// describe names a request target for errors and logs.
func describe(target any) string {
	switch t := target.(type) {
	case types.Node:
		return t.Path()
	case types.Property:
		return "property " + t.Name()
	case types.Session:
		return "session of " + t.User()
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%T", target)
}
