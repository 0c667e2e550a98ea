package adapter

import (
	"fmt"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// IndexError reports an index outside [-Size, Size). It matches
// types.ErrIndexOutOfRange under errors.Is.
type IndexError struct {
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d, size %d", types.ErrIndexOutOfRange, e.Index, e.Size)
}

// Is reports whether target is types.ErrIndexOutOfRange.
func (e *IndexError) Is(target error) bool {
	return target == types.ErrIndexOutOfRange
}

// ByIndex returns the i-th child of n. Negative indexes count from the end,
// so ByIndex(n, -1) is the last child.
func ByIndex(n types.Node, i int) (types.Node, error) {
	children, err := n.Nodes()
	if err != nil {
		return nil, err
	}
	size := len(children)
	eff := i
	if eff < 0 {
		eff += size
	}
	if eff < 0 || eff >= size {
		return nil, &IndexError{Index: i, Size: size}
	}
	return children[eff], nil
}
