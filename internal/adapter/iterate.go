package adapter

import (
	"iter"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Cursor is a lazy, single-pass sequence. The snapshot it walks is taken
// on the first call to Next, so creating a cursor touches nothing and two
// cursors never share position.
type Cursor[T any] struct {
	load   func() ([]T, error)
	items  []T
	pos    int
	loaded bool
	err    error
}

func newCursor[T any](load func() ([]T, error)) *Cursor[T] {
	return &Cursor[T]{load: load, pos: -1}
}

// Next advances to the next element and reports whether there is one.
// It returns false at the end or on error; check Err afterwards.
func (c *Cursor[T]) Next() bool {
	if !c.loaded {
		c.loaded = true
		c.items, c.err = c.load()
	}
	if c.err != nil {
		return false
	}
	if c.pos+1 >= len(c.items) {
		c.pos = len(c.items)
		return false
	}
	c.pos++
	return true
}

// Value returns the current element.
func (c *Cursor[T]) Value() T {
	var zero T
	if c.pos < 0 || c.pos >= len(c.items) {
		return zero
	}
	return c.items[c.pos]
}

// Index returns the 0-based position of the current element.
func (c *Cursor[T]) Index() int { return c.pos }

// Err returns the error that stopped the cursor, if any.
func (c *Cursor[T]) Err() error { return c.err }

// All consumes the rest of the cursor as a range-over-func sequence of
// (index, element) pairs.
func (c *Cursor[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for c.Next() {
			if !yield(c.pos, c.items[c.pos]) {
				return
			}
		}
	}
}

// Collect drains the cursor into a slice.
func (c *Cursor[T]) Collect() ([]T, error) {
	var out []T
	for c.Next() {
		out = append(out, c.Value())
	}
	return out, c.Err()
}

// IndexedNode pairs a child with its position.
type IndexedNode struct {
	Node  types.Node
	Index int
}

// EachChild returns a cursor over the children of n in order.
func EachChild(n types.Node) *Cursor[types.Node] {
	return newCursor(n.Nodes)
}

// EachChildIndexed returns a cursor over (child, index) pairs of n, with
// indexes starting at 0.
func EachChildIndexed(n types.Node) *Cursor[IndexedNode] {
	return newCursor(func() ([]IndexedNode, error) {
		children, err := n.Nodes()
		if err != nil {
			return nil, err
		}
		out := make([]IndexedNode, len(children))
		for i, c := range children {
			out[i] = IndexedNode{Node: c, Index: i}
		}
		return out, nil
	})
}

// EachProperty returns a cursor over the properties of n. Callers must not
// rely on the order.
func EachProperty(n types.Node) *Cursor[types.Property] {
	return newCursor(n.Properties)
}
