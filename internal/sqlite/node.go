package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

var (
	_ types.Node     = (*node)(nil)
	_ types.Property = (*property)(nil)
)

// node is a session-scoped handle onto a row of the nodes table. Name,
// path and depth never change once a node exists, so they are kept on the
// handle; everything else is read from the database.
type node struct {
	s        *session
	id       string
	parentID string
	name     string
	typeName string
	path     string
	depth    int
}

// check reports whether the handle may still be used. The caller must hold
// b.mu.
func (n *node) check() error {
	if !n.s.live {
		return types.ErrSessionClosed
	}
	var one int
	err := n.s.b.db.QueryRow("SELECT 1 FROM nodes WHERE node_id = ?", n.id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: node %s was removed", types.ErrItemNotFound, n.id)
	}
	if err != nil {
		return fmt.Errorf("checking node %s: %w", n.id, err)
	}
	return nil
}

func (n *node) Name() string       { return n.name }
func (n *node) Path() string       { return n.path }
func (n *node) Identifier() string { return n.id }
func (n *node) TypeName() string   { return n.typeName }
func (n *node) Depth() int         { return n.depth }

func (n *node) Parent() (types.Node, error) {
	n.s.b.mu.RLock()
	defer n.s.b.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	if n.parentID == "" {
		return nil, fmt.Errorf("%w: root has no parent", types.ErrItemNotFound)
	}
	return n.s.byID(n.parentID)
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

	n.s.b.mu.Lock()
	defer n.s.b.mu.Unlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	existing, err := n.s.child(n, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: node %s", types.ErrItemExists, existing.path)
	}

	var ordinal int
	err = n.s.b.db.QueryRow(
		"SELECT COALESCE(MAX(ordinal), -1) + 1 FROM nodes WHERE parent_id = ?", n.id,
	).Scan(&ordinal)
	if err != nil {
		return nil, fmt.Errorf("computing ordinal: %w", err)
	}

	id := generateUUID()
	_, err = n.s.b.db.Exec(
		"INSERT INTO nodes (node_id, parent_id, name, type_name, ordinal, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, n.id, name, typeName, ordinal, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting node %s: %w", name, err)
	}
	return n.s.handle(id, n.id, name, typeName, types.JoinPath(n.path, name), n.depth+1), nil
}

func (n *node) Node(name string) (types.Node, error) {
	n.s.b.mu.RLock()
	defer n.s.b.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	c, err := n.s.child(n, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: node %s", types.ErrItemNotFound, types.JoinPath(n.path, name))
	}
	return c, nil
}

func (n *node) HasNode(name string) (bool, error) {
	n.s.b.mu.RLock()
	defer n.s.b.mu.RUnlock()

	if err := n.check(); err != nil {
		return false, err
	}
	c, err := n.s.child(n, name)
	return c != nil, err
}

func (n *node) Nodes() ([]types.Node, error) {
	n.s.b.mu.RLock()
	defer n.s.b.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	rows, err := n.s.b.db.Query(
		"SELECT node_id, name, type_name FROM nodes WHERE parent_id = ? ORDER BY ordinal", n.id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading children of %s: %w", n.path, err)
	}
	defer rows.Close()

	var out []types.Node
	for rows.Next() {
		var id, name, typeName string
		if err := rows.Scan(&id, &name, &typeName); err != nil {
			return nil, fmt.Errorf("scanning child: %w", err)
		}
		out = append(out, n.s.handle(id, n.id, name, typeName, types.JoinPath(n.path, name), n.depth+1))
	}
	return out, rows.Err()
}

func (n *node) Property(name string) (types.Property, error) {
	n.s.b.mu.RLock()
	defer n.s.b.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	ok, err := n.hasProperty(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrPropertyNotFound, types.JoinPath(n.path, name))
	}
	return &property{owner: n, name: name}, nil
}

func (n *node) HasProperty(name string) (bool, error) {
	n.s.b.mu.RLock()
	defer n.s.b.mu.RUnlock()

	if err := n.check(); err != nil {
		return false, err
	}
	return n.hasProperty(name)
}

func (n *node) hasProperty(name string) (bool, error) {
	var one int
	err := n.s.b.db.QueryRow(
		"SELECT 1 FROM properties WHERE node_id = ? AND name = ?", n.id, name,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking property %s: %w", name, err)
	}
	return true, nil
}

func (n *node) Properties() ([]types.Property, error) {
	n.s.b.mu.RLock()
	defer n.s.b.mu.RUnlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	rows, err := n.s.b.db.Query("SELECT name FROM properties WHERE node_id = ? ORDER BY name", n.id)
	if err != nil {
		return nil, fmt.Errorf("loading properties of %s: %w", n.path, err)
	}
	defer rows.Close()

	var out []types.Property
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		out = append(out, &property{owner: n, name: name})
	}
	return out, rows.Err()
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
	encoded, err := encodeValues(values)
	if err != nil {
		return nil, err
	}

	n.s.b.mu.Lock()
	defer n.s.b.mu.Unlock()

	if err := n.check(); err != nil {
		return nil, err
	}
	_, err = n.s.b.db.Exec(`INSERT INTO properties (node_id, name, value_type, multiple, value, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (node_id, name) DO UPDATE SET
    value_type = excluded.value_type,
    multiple = excluded.multiple,
    value = excluded.value,
    updated_at = excluded.updated_at`,
		n.id, name, typ.String(), multiple, encoded, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("writing property %s: %w", name, err)
	}
	return &property{owner: n, name: name}, nil
}

// Remove deletes the node, its subtree and all their properties.
func (n *node) Remove() error {
	n.s.b.mu.Lock()
	defer n.s.b.mu.Unlock()

	if err := n.check(); err != nil {
		return err
	}
	if n.parentID == "" {
		return fmt.Errorf("%w: cannot remove the root node", types.ErrConstraintViolation)
	}

	tx, err := n.s.b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning removal: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(subtreeCTE+" DELETE FROM properties WHERE node_id IN (SELECT id FROM subtree)", n.id); err != nil {
		return fmt.Errorf("removing properties under %s: %w", n.path, err)
	}
	if _, err := tx.Exec(subtreeCTE+" DELETE FROM nodes WHERE node_id IN (SELECT id FROM subtree)", n.id); err != nil {
		return fmt.Errorf("removing nodes under %s: %w", n.path, err)
	}
	return tx.Commit()
}

func (n *node) String() string { return n.path }

// property is a live handle; each accessor reads the current row.
type property struct {
	owner *node
	name  string
}

type propRow struct {
	typ      types.PropertyType
	multiple bool
	values   []types.Value
}

func (p *property) Name() string { return p.name }

// load returns the current row. The caller must hold b.mu.
func (p *property) load() (propRow, error) {
	var row propRow
	if err := p.owner.check(); err != nil {
		return row, err
	}
	var typeName, raw string
	err := p.owner.s.b.db.QueryRow(
		"SELECT value_type, multiple, value FROM properties WHERE node_id = ? AND name = ?",
		p.owner.id, p.name,
	).Scan(&typeName, &row.multiple, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return row, fmt.Errorf("%w: %s", types.ErrPropertyNotFound, types.JoinPath(p.owner.path, p.name))
	}
	if err != nil {
		return row, fmt.Errorf("loading property %s: %w", p.name, err)
	}
	if row.typ, err = types.ParsePropertyType(typeName); err != nil {
		return row, err
	}
	if row.values, err = decodeValues(row.typ, raw); err != nil {
		return row, err
	}
	return row, nil
}

func (p *property) read() (propRow, error) {
	p.owner.s.b.mu.RLock()
	defer p.owner.s.b.mu.RUnlock()
	return p.load()
}

func (p *property) Type() types.PropertyType {
	row, err := p.read()
	if err != nil {
		return types.TypeUndefined
	}
	return row.typ
}

func (p *property) IsMultiple() bool {
	row, err := p.read()
	return err == nil && row.multiple
}

func (p *property) Parent() (types.Node, error) {
	if _, err := p.read(); err != nil {
		return nil, err
	}
	return p.owner, nil
}

func (p *property) Value() (types.Value, error) {
	row, err := p.read()
	if err != nil {
		return types.Value{}, err
	}
	if row.multiple {
		return types.Value{}, fmt.Errorf("%w: %s is multi-valued", types.ErrTypeMismatch, p.name)
	}
	return row.values[0], nil
}

func (p *property) Values() ([]types.Value, error) {
	row, err := p.read()
	if err != nil {
		return nil, err
	}
	return row.values, nil
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
	p.owner.s.b.mu.Lock()
	defer p.owner.s.b.mu.Unlock()

	if _, err := p.load(); err != nil {
		return err
	}
	_, err := p.owner.s.b.db.Exec("DELETE FROM properties WHERE node_id = ? AND name = ?", p.owner.id, p.name)
	if err != nil {
		return fmt.Errorf("removing property %s: %w", p.name, err)
	}
	return nil
}

func (p *property) String() string { return p.name }
