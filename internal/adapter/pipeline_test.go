package adapter

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

func TestPipeline_Order(t *testing.T) {
	p := New()
	assert.Equal(t, []string{"native", "attribute", "index", "iteration", "missing"}, p.Strategies())
}

func TestPipeline_NativeFields(t *testing.T) {
	p := New()
	foo := newRoot(t)

	name, err := p.Get(foo, "name")
	require.NoError(t, err)
	assert.Equal(t, "foo", name)

	path, err := p.Get(foo, "path")
	require.NoError(t, err)
	assert.Equal(t, "/foo", path)

	parent, err := p.Get(foo, "parent")
	require.NoError(t, err)
	assert.Equal(t, "/", parent.(types.Node).Path())

	// A child named like a native field does not shadow it.
	addChildren(t, foo, "name")
	name, err = p.Get(foo, "name")
	require.NoError(t, err)
	assert.Equal(t, "foo", name)
}

func TestPipeline_Invoke(t *testing.T) {
	p := New()
	foo := newRoot(t)

	got, err := p.Invoke(foo, "getName")
	require.NoError(t, err)
	assert.Equal(t, "foo", got)

	child, err := p.Invoke(foo, "addNode", "file", types.NodeTypeFile)
	require.NoError(t, err)
	assert.Equal(t, types.NodeTypeFile, child.(types.Node).TypeName())

	_, err = p.Invoke(child, "addNode", types.String("jcr:content"))
	require.NoError(t, err)
	deep, err := p.Invoke(foo, "getNode", "file/jcr:content")
	require.NoError(t, err)
	assert.Equal(t, "/foo/file/jcr:content", deep.(types.Node).Path())

	prop, err := p.Invoke(foo, "setProperty", "count", types.Int8(3))
	require.NoError(t, err)
	n, err := p.Invoke(prop, "getLong")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = p.Invoke(prop, "getString")
	assert.ErrorIs(t, err, types.ErrTypeMismatch)

	size, err := p.Invoke(foo, "size")
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	_, err = p.Invoke(foo, "getProperty", "absent")
	assert.ErrorIs(t, err, types.ErrPropertyNotFound)

	_, err = p.Invoke(foo, "getNode")
	assert.ErrorIs(t, err, types.ErrUnsupportedType)
}

func TestPipeline_SetPropertyMultiAndRemove(t *testing.T) {
	p := New()
	foo := newRoot(t)

	prop, err := p.Invoke(foo, "setProperty", "tags", []types.HostValue{types.String("a"), types.String("b")})
	require.NoError(t, err)
	multi, err := p.Get(prop, "multiple")
	require.NoError(t, err)
	assert.Equal(t, true, multi)

	values, err := p.Get(prop, "value")
	require.NoError(t, err)
	assert.Len(t, values, 2)

	_, err = p.Invoke(foo, "setProperty", "tags", nil)
	require.NoError(t, err)
	ok, err := foo.HasProperty("tags")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPipeline_Attributes(t *testing.T) {
	p := New()
	foo := newRoot(t)

	require.NoError(t, p.Set(foo, "bar", types.String("baz")))
	got, err := p.Get(foo, "bar")
	require.NoError(t, err)
	assert.True(t, types.String("baz").Equal(got.(types.HostValue)))

	err = p.Set(foo, "name", types.String("x"))
	assert.ErrorIs(t, err, types.ErrNameConflict)
	err = p.Set(foo, "getNodes", types.String("x"))
	assert.ErrorIs(t, err, types.ErrNameConflict)
}

func TestPipeline_IndexAndIterate(t *testing.T) {
	p := New()
	foo := newRoot(t)
	children := addChildren(t, foo, "a", "b")

	last, err := p.Index(foo, -1)
	require.NoError(t, err)
	assert.Same(t, children[1], last)

	_, err = p.Index(foo, 2)
	assert.ErrorIs(t, err, types.ErrIndexOutOfRange)

	c, err := p.Iterate(foo, "each")
	require.NoError(t, err)
	got, err := c.(*Cursor[types.Node]).Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(got))

	c, err = p.Iterate(foo, "eachWithIndex")
	require.NoError(t, err)
	assert.IsType(t, &Cursor[IndexedNode]{}, c)

	_, err = p.Iterate(foo, "eachBackwards")
	assert.ErrorIs(t, err, types.ErrUnresolvedOperation)
}

func TestPipeline_Unresolved(t *testing.T) {
	p := New()
	foo := newRoot(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"read miss", Request{Kind: ReadAttribute, Target: foo, Name: "nothing"}},
		{"missing method", Request{Kind: Invoke, Target: foo, Name: "nothingToSeeHere"}},
		{"property attribute", Request{Kind: ReadAttribute, Target: mustProperty(t, foo), Name: "bogus"}},
		{"index on property", Request{Kind: Index, Target: mustProperty(t, foo), Index: 0}},
		{"unknown target", Request{Kind: ReadAttribute, Target: 42, Name: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := p.Dispatch(tt.req)
			assert.Nil(t, v)
			require.ErrorIs(t, err, types.ErrUnresolvedOperation)

			var ue *UnresolvedError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, tt.req.Kind, ue.Kind)
			assert.Equal(t, tt.req.Name, ue.Name)
		})
	}
}

func mustProperty(t *testing.T, n types.Node) types.Property {
	t.Helper()
	p, err := n.SetProperty("p", types.StringValue("v"))
	require.NoError(t, err)
	return p
}

func TestMissing_DelegatesToNative(t *testing.T) {
	foo := newRoot(t)

	got, err := Missing(Request{Kind: Invoke, Target: foo, Name: "getPrimaryNodeType"})
	require.NoError(t, err)
	assert.Equal(t, types.NodeTypeUnstructured, got)

	// Native failures pass through unchanged.
	_, err = Missing(Request{Kind: Invoke, Target: foo, Name: "getNode", Args: []any{"absent"}})
	assert.ErrorIs(t, err, types.ErrItemNotFound)
	assert.NotErrorIs(t, err, types.ErrUnresolvedOperation)

	_, err = Missing(Request{Kind: WriteAttribute, Target: foo, Name: "x"})
	assert.ErrorIs(t, err, types.ErrUnresolvedOperation)
}

func TestSessionTarget(t *testing.T) {
	p := New()
	s := newSession(t)

	user, err := p.Get(s, "user")
	require.NoError(t, err)
	assert.Equal(t, "admin", user)

	root, err := p.Invoke(s, "getRootNode")
	require.NoError(t, err)
	_, err = p.Invoke(root, "addNode", "x")
	require.NoError(t, err)

	x, err := p.Invoke(s, "getNode", "/x")
	require.NoError(t, err)
	assert.Equal(t, "x", x.(types.Node).Name())

	_, err = p.Invoke(s, "logout")
	require.NoError(t, err)
	live, err := p.Get(s, "live")
	require.NoError(t, err)
	assert.Equal(t, false, live)

	_, err = p.Get(x, "anything")
	assert.ErrorIs(t, err, types.ErrSessionClosed)
}

func TestInstall(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]*Pipeline, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = Install()
		}()
	}
	wg.Wait()

	for _, p := range results {
		assert.Same(t, results[0], p)
	}
	p, first := Install()
	assert.False(t, first)
	assert.Same(t, results[0], p)
	assert.Same(t, p, Installed())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&UnresolvedError{Kind: Invoke, Name: "x"}, "unresolved operation"},
		{&IndexError{Index: 3}, "index out of range"},
		{fmt.Errorf("wrapping: %w", types.ErrNameConflict), "name conflict"},
		{types.ErrSessionClosed, "session is logged out"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err))
	}

	sentinel, ok := ClassOf("type mismatch")
	require.True(t, ok)
	assert.Equal(t, types.ErrTypeMismatch, sentinel)
}
