package memory

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

var (
	_ types.Node     = (*node)(nil)
	_ types.Property = (*property)(nil)
)

type node struct {
	s *session
	d *nodeData
}

// check reports whether the handle may still be used. The caller must hold
// repo.mu.
func (n *node) check() error {
	if !n.s.live {
		return types.ErrSessionClosed
	}
	if n.d.removed {
		return fmt.Errorf("%w: node %s was removed", types.ErrItemNotFound, n.d.id)
	}
	return nil
}

func (n *node) Name() string       { return n.d.name }
func (n *node) Identifier() string { return n.d.id }
func (n *node) TypeName() string   { return n.d.typeName }

func (n *node) Path() string {
	n.s.repo.mu.RLock()
	defer n.s.repo.mu.RUnlock()
	return n.d.path()
}

func (n *node) Depth() int {
	n.s.repo.mu.RLock()
	defer n.s.repo.mu.RUnlock()
	return n.d.depth()
}

func (n *node) Parent() (types.Node, error) {
	n.s.repo.mu.RLock()
	defer n.s.repo.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	if n.d.parent == nil {
		return nil, fmt.Errorf("%w: root has no parent", types.ErrItemNotFound)
	}
	return n.s.handle(n.d.parent), nil
}

func (n *node) AddNode(name string) (types.Node, error) {
	return n.AddNodeOfType(name, types.NodeTypeUnstructured)
}

func (n *node) AddNodeOfType(name, typeName string) (types.Node, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	if typeName == "" {
		typeName = types.NodeTypeUnstructured
	}

	n.s.repo.mu.Lock()
	defer n.s.repo.mu.Unlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	if n.d.child(name) != nil {
		return nil, fmt.Errorf("%w: node %s", types.ErrItemExists, types.JoinPath(n.d.path(), name))
	}
	c := &nodeData{
		id:       newID(),
		name:     name,
		typeName: typeName,
		parent:   n.d,
		props:    make(map[string]*propData),
	}
	n.d.children = append(n.d.children, c)
	n.s.repo.byID[c.id] = c
	return n.s.handle(c), nil
}

func (n *node) Node(name string) (types.Node, error) {
	n.s.repo.mu.RLock()
	defer n.s.repo.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	c := n.d.child(name)
	if c == nil {
		return nil, fmt.Errorf("%w: node %s", types.ErrItemNotFound, types.JoinPath(n.d.path(), name))
	}
	return n.s.handle(c), nil
}

func (n *node) HasNode(name string) (bool, error) {
	n.s.repo.mu.RLock()
	defer n.s.repo.mu.RUnlock()

	if err := n.check(); err != nil {
		return false, err
	}
	return n.d.child(name) != nil, nil
}

func (n *node) Nodes() ([]types.Node, error) {
	n.s.repo.mu.RLock()
	defer n.s.repo.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	out := make([]types.Node, len(n.d.children))
	for i, c := range n.d.children {
		out[i] = n.s.handle(c)
	}
	return out, nil
}

func (n *node) Property(name string) (types.Property, error) {
	n.s.repo.mu.RLock()
	defer n.s.repo.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	if _, ok := n.d.props[name]; !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrPropertyNotFound, types.JoinPath(n.d.path(), name))
	}
	return &property{s: n.s, owner: n.d, name: name}, nil
}

func (n *node) HasProperty(name string) (bool, error) {
	n.s.repo.mu.RLock()
	defer n.s.repo.mu.RUnlock()

	if err := n.check(); err != nil {
		return false, err
	}
	_, ok := n.d.props[name]
	return ok, nil
}

func (n *node) Properties() ([]types.Property, error) {
	n.s.repo.mu.RLock()
	defer n.s.repo.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	out := make([]types.Property, 0, len(n.d.props))
	for _, name := range slices.Sorted(maps.Keys(n.d.props)) {
		out = append(out, &property{s: n.s, owner: n.d, name: name})
	}
	return out, nil
}

func (n *node) SetProperty(name string, value types.Value) (types.Property, error) {
	return n.set(name, []types.Value{value}, false)
}

func (n *node) SetPropertyValues(name string, values []types.Value) (types.Property, error) {
	return n.set(name, values, true)
}

func (n *node) set(name string, values []types.Value, multiple bool) (types.Property, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	typ, err := checkValues(values)
	if err != nil {
		return nil, err
	}

	n.s.repo.mu.Lock()
	defer n.s.repo.mu.Unlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	n.d.props[name] = &propData{
		name:     name,
		typ:      typ,
		multiple: multiple,
		values:   append([]types.Value(nil), values...),
	}
	return &property{s: n.s, owner: n.d, name: name}, nil
}

func (n *node) Remove() error {
	n.s.repo.mu.Lock()
	defer n.s.repo.mu.Unlock()

	if err := n.check(); err != nil {
		return err
	}
	p := n.d.parent
	if p == nil {
		return fmt.Errorf("%w: cannot remove the root node", types.ErrConstraintViolation)
	}
	for i, c := range p.children {
		if c == n.d {
			p.children = append(p.children[:i:i], p.children[i+1:]...)
			break
		}
	}
	n.s.repo.markRemoved(n.d)
	return nil
}

func (n *node) String() string { return n.Path() }

// property is a live handle: every accessor reads the current state of the
// named property on its owner.
type property struct {
	s     *session
	owner *nodeData
	name  string
}

func (p *property) Name() string { return p.name }

// load returns the current data. The caller must hold repo.mu.
func (p *property) load() (*propData, error) {
	if !p.s.live {
		return nil, types.ErrSessionClosed
	}
	if p.owner.removed {
		return nil, fmt.Errorf("%w: owner of %s was removed", types.ErrItemNotFound, p.name)
	}
	d, ok := p.owner.props[p.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrPropertyNotFound, types.JoinPath(p.owner.path(), p.name))
	}
	return d, nil
}

func (p *property) Type() types.PropertyType {
	p.s.repo.mu.RLock()
	defer p.s.repo.mu.RUnlock()

	d, err := p.load()
	if err != nil {
		return types.TypeUndefined
	}
	return d.typ
}

func (p *property) IsMultiple() bool {
	p.s.repo.mu.RLock()
	defer p.s.repo.mu.RUnlock()

	d, err := p.load()
	return err == nil && d.multiple
}

func (p *property) Parent() (types.Node, error) {
	p.s.repo.mu.RLock()
	defer p.s.repo.mu.RUnlock()

	if _, err := p.load(); err != nil {
		return nil, err
	}
	return p.s.handle(p.owner), nil
}

func (p *property) Value() (types.Value, error) {
	p.s.repo.mu.RLock()
	defer p.s.repo.mu.RUnlock()

	d, err := p.load()
	if err != nil {
		return types.Value{}, err
	}
	if d.multiple {
		return types.Value{}, fmt.Errorf("%w: %s is multi-valued", types.ErrTypeMismatch, p.name)
	}
	return d.values[0], nil
}

func (p *property) Values() ([]types.Value, error) {
	p.s.repo.mu.RLock()
	defer p.s.repo.mu.RUnlock()

	d, err := p.load()
	if err != nil {
		return nil, err
	}
	return append([]types.Value(nil), d.values...), nil
}

func (p *property) AsString() (string, error) {
	v, err := p.Value()
	if err != nil {
		return "", err
	}
	return v.AsString()
}

func (p *property) AsLong() (int64, error) {
	v, err := p.Value()
	if err != nil {
		return 0, err
	}
	return v.AsLong()
}

func (p *property) AsDouble() (float64, error) {
	v, err := p.Value()
	if err != nil {
		return 0, err
	}
	return v.AsDouble()
}

func (p *property) AsBool() (bool, error) {
	v, err := p.Value()
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

func (p *property) AsDate() (time.Time, error) {
	v, err := p.Value()
	if err != nil {
		return time.Time{}, err
	}
	return v.AsDate()
}

func (p *property) Remove() error {
	p.s.repo.mu.Lock()
	defer p.s.repo.mu.Unlock()

	if _, err := p.load(); err != nil {
		return err
	}
	delete(p.owner.props, p.name)
	return nil
}

func (p *property) String() string { return p.name }
