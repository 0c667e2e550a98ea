// Package adapter resolves dynamic attribute, index, iteration and
// invocation requests against repository nodes, properties and sessions.
// A Pipeline tries a fixed chain of strategies and the first one that
// claims a request answers it.
package adapter

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Strategy is one link of the resolution chain. Resolve reports handled
// false to pass the request on; when handled is true its value and error
// are the answer.
type Strategy interface {
	Name() string
	Resolve(req Request) (value any, handled bool, err error)
}

// Options configure a Pipeline.
type Options struct {
	Logger *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger used for resolution misses.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Pipeline is the resolution chain. It holds no mutable state and may be
// shared between sessions.
type Pipeline struct {
	strategies []Strategy
	logger     *slog.Logger
}

// New composes the chain native, attribute, index, iteration, missing.
func New(opts ...Option) *Pipeline {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Pipeline{
		strategies: []Strategy{
			nativeStrategy{},
			attributeStrategy{},
			indexStrategy{},
			iterationStrategy{},
			missingStrategy{},
		},
		logger: o.Logger,
	}
}

// Strategies returns the strategy names in the order they are tried.
func (p *Pipeline) Strategies() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name()
	}
	return names
}

// Dispatch runs req through the chain.
func (p *Pipeline) Dispatch(req Request) (any, error) {
	if req.Target == nil {
		return nil, fmt.Errorf("%w: %s on nil target", types.ErrUnresolvedOperation, req.Kind)
	}
	for _, s := range p.strategies {
		v, handled, err := s.Resolve(req)
		if !handled {
			continue
		}
		if err != nil {
			p.logger.Debug("request failed",
				"kind", req.Kind.String(),
				"name", req.Name,
				"target", describe(req.Target),
				"strategy", s.Name(),
				"error", err)
		}
		return v, err
	}
	// missingStrategy always claims; this is only reached with a custom chain.
	return Missing(req)
}

// Get reads attribute name of target.
func (p *Pipeline) Get(target any, name string) (any, error) {
	return p.Dispatch(Request{Kind: ReadAttribute, Target: target, Name: name})
}

// Set writes v to attribute name of target.
func (p *Pipeline) Set(target any, name string, v types.HostValue) error {
	_, err := p.Dispatch(Request{Kind: WriteAttribute, Target: target, Name: name, Value: v})
	return err
}

// Unset removes attribute name of target. Names held by a child or a
// native operation fail with ErrNameConflict.
func (p *Pipeline) Unset(target any, name string) error {
	_, err := p.Dispatch(Request{Kind: WriteAttribute, Target: target, Name: name})
	return err
}

// Index returns child i of target.
func (p *Pipeline) Index(target any, i int) (any, error) {
	return p.Dispatch(Request{Kind: Index, Target: target, Index: i})
}

// Iterate returns a cursor over target. mode selects the sequence: "each"
// (or "") for children, "eachWithIndex" for indexed children and
// "eachProperty" for properties.
func (p *Pipeline) Iterate(target any, mode string) (any, error) {
	return p.Dispatch(Request{Kind: Iterate, Target: target, Name: mode})
}

// Invoke calls method name of target with args.
func (p *Pipeline) Invoke(target any, name string, args ...any) (any, error) {
	return p.Dispatch(Request{Kind: Invoke, Target: target, Name: name, Args: args})
}

// nativeStrategy answers reads of native fields and invocations of native
// methods. Attribute writes to a native name fail with ErrNameConflict.
type nativeStrategy struct{}

func (nativeStrategy) Name() string { return "native" }

func (nativeStrategy) Resolve(req Request) (any, bool, error) {
	ops := nativeOpsFor(req.Target)
	if ops == nil {
		return nil, false, nil
	}
	switch req.Kind {
	case ReadAttribute:
		if f, ok := ops.fields[req.Name]; ok {
			v, err := f(req.Target)
			return v, true, err
		}
	case Invoke:
		if m, ok := ops.methods[req.Name]; ok {
			v, err := m(req.Target, req.Args)
			return v, true, err
		}
	case WriteAttribute:
		if IsNative(req.Target, req.Name) {
			return nil, true, fmt.Errorf("%w: %q is a native operation of %s", types.ErrNameConflict, req.Name, describe(req.Target))
		}
	}
	return nil, false, nil
}

type attributeStrategy struct{}

func (attributeStrategy) Name() string { return "attribute" }

func (attributeStrategy) Resolve(req Request) (any, bool, error) {
	n, ok := req.Target.(types.Node)
	if !ok {
		return nil, false, nil
	}
	switch req.Kind {
	case ReadAttribute:
		v, found, err := GetAttribute(n, req.Name)
		return v, found || err != nil, err
	case WriteAttribute:
		if !req.Value.IsValid() {
			return nil, true, RemoveAttribute(n, req.Name)
		}
		p, err := SetAttribute(n, req.Name, req.Value)
		return p, true, err
	}
	return nil, false, nil
}

type indexStrategy struct{}

func (indexStrategy) Name() string { return "index" }

func (indexStrategy) Resolve(req Request) (any, bool, error) {
	n, ok := req.Target.(types.Node)
	if !ok || req.Kind != Index {
		return nil, false, nil
	}
	child, err := ByIndex(n, req.Index)
	return child, true, err
}

type iterationStrategy struct{}

func (iterationStrategy) Name() string { return "iteration" }

func (iterationStrategy) Resolve(req Request) (any, bool, error) {
	n, ok := req.Target.(types.Node)
	if !ok || req.Kind != Iterate {
		return nil, false, nil
	}
	switch req.Name {
	case "", "each":
		return EachChild(n), true, nil
	case "eachWithIndex":
		return EachChildIndexed(n), true, nil
	case "eachProperty":
		return EachProperty(n), true, nil
	}
	return nil, false, nil
}

type missingStrategy struct{}

func (missingStrategy) Name() string { return "missing" }

func (missingStrategy) Resolve(req Request) (any, bool, error) {
	v, err := Missing(req)
	return v, true, err
}
