package adapter

import (
	"fmt"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// GetAttribute resolves name on n: a child named name wins over a
// property of the same name, and a property reads back as its host value.
// found is false when neither exists. Names are used verbatim, prefixes
// included.
func GetAttribute(n types.Node, name string) (value any, found bool, err error) {
	ok, err := n.HasNode(name)
	if err != nil {
		return nil, false, err
	}
	if ok {
		child, err := n.Node(name)
		return child, err == nil, err
	}

	ok, err = n.HasProperty(name)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	p, err := n.Property(name)
	if err != nil {
		return nil, false, err
	}
	h, err := ToHostValue(p)
	if err != nil {
		return nil, true, err
	}
	return h, true, nil
}

// SetAttribute writes v to the property name on n, creating it when
// absent. Writing to a name held by a child fails with ErrNameConflict;
// replacing a multi-valued property with a single value fails with
// ErrTypeMismatch.
func SetAttribute(n types.Node, name string, v types.HostValue) (types.Property, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	value, err := ToPropertyValue(v)
	if err != nil {
		return nil, err
	}

	isChild, err := n.HasNode(name)
	if err != nil {
		return nil, err
	}
	if isChild {
		return nil, fmt.Errorf("%w: %s is a child node of %s", types.ErrNameConflict, name, n.Path())
	}

	exists, err := n.HasProperty(name)
	if err != nil {
		return nil, err
	}
	if exists {
		p, err := n.Property(name)
		if err != nil {
			return nil, err
		}
		if p.IsMultiple() {
			return nil, fmt.Errorf("%w: %s on %s is multi-valued", types.ErrTypeMismatch, name, n.Path())
		}
	}
	return n.SetProperty(name, value)
}

// RemoveAttribute removes the property name from n. A name held by a child
// fails with ErrNameConflict, the same as a write; an absent property fails
// with ErrPropertyNotFound.
func RemoveAttribute(n types.Node, name string) error {
	isChild, err := n.HasNode(name)
	if err != nil {
		return err
	}
	if isChild {
		return fmt.Errorf("%w: %s is a child node of %s", types.ErrNameConflict, name, n.Path())
	}
	p, err := n.Property(name)
	if err != nil {
		return err
	}
	return p.Remove()
}
