package adapter

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

func TestSetThenGet(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		value types.HostValue
		want  types.HostValue
	}{
		{"byte", types.Int8(123), types.Int64(123)},
		{"int", types.Int32(123), types.Int64(123)},
		{"bigint", types.BigInt(big.NewInt(123)), types.Int64(123)},
		{"string", types.String("foobar"), types.String("foobar")},
		{"char", types.Char('c'), types.String("c")},
		{"boolean", types.Bool(true), types.Bool(true)},
		{"calendar", types.Date(now), types.Date(now)},
		{"double", types.Float64(0.5), types.Float64(0.5)},
		{"float", types.Float32(0.5), types.Float64(0.5)},
		{"decimal", types.Decimal(decimal.NewFromFloat(0.5)), types.Float64(0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			foo := newRoot(t)
			_, err := SetAttribute(foo, "bar", tt.value)
			require.NoError(t, err)

			got, found, err := GetAttribute(foo, "bar")
			require.NoError(t, err)
			require.True(t, found)
			h, ok := got.(types.HostValue)
			require.True(t, ok, "got %T", got)
			assert.True(t, tt.want.Equal(h), "got %v", h)
		})
	}
}

func TestSetOverwritesInPlace(t *testing.T) {
	foo := newRoot(t)
	p, err := SetAttribute(foo, "bar", types.String("one"))
	require.NoError(t, err)
	_, err = SetAttribute(foo, "bar", types.Int64(2))
	require.NoError(t, err)

	assert.Equal(t, types.TypeLong, p.Type())
	got, _, err := GetAttribute(foo, "bar")
	require.NoError(t, err)
	assert.True(t, types.Int64(2).Equal(got.(types.HostValue)))
}

func TestPropertyNamePrefix(t *testing.T) {
	foo := newRoot(t)
	res, err := foo.AddNodeOfType("res", types.NodeTypeResource)
	require.NoError(t, err)
	_, err = SetAttribute(res, "jcr:encoding", types.String("foo_encoding"))
	require.NoError(t, err)

	got, found, err := GetAttribute(res, "jcr:encoding")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, types.String("foo_encoding").Equal(got.(types.HostValue)))

	p, err := res.Property("jcr:encoding")
	require.NoError(t, err)
	s, err := p.AsString()
	require.NoError(t, err)
	assert.Equal(t, "foo_encoding", s)

	// The prefix is part of the name: the local part alone does not resolve.
	_, found, err = GetAttribute(res, "encoding")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestChildPrecedence(t *testing.T) {
	foo := newRoot(t)
	file, err := foo.AddNodeOfType("file", types.NodeTypeFile)
	require.NoError(t, err)
	content, err := file.AddNodeOfType("jcr:content", types.NodeTypeResource)
	require.NoError(t, err)

	got, found, err := GetAttribute(file, "jcr:content")
	require.NoError(t, err)
	require.True(t, found)
	assert.Same(t, content, got)

	// A same-named property is shadowed on reads.
	_, err = file.SetProperty("jcr:content", types.StringValue("shadowed"))
	require.NoError(t, err)
	got, _, err = GetAttribute(file, "jcr:content")
	require.NoError(t, err)
	assert.Same(t, content, got)
}

func TestSetNameConflictWithChild(t *testing.T) {
	foo := newRoot(t)
	addChildren(t, foo, "child")

	_, err := SetAttribute(foo, "child", types.String("x"))
	assert.ErrorIs(t, err, types.ErrNameConflict)

	ok, err := foo.HasProperty("child")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetRejections(t *testing.T) {
	foo := newRoot(t)

	_, err := SetAttribute(foo, "bad/name", types.String("x"))
	assert.ErrorIs(t, err, types.ErrInvalidName)

	_, err = SetAttribute(foo, "bar", types.HostValue{})
	assert.ErrorIs(t, err, types.ErrUnsupportedType)
	ok, _ := foo.HasProperty("bar")
	assert.False(t, ok, "failed write must not create the property")

	_, err = foo.SetPropertyValues("tags", []types.Value{types.StringValue("a")})
	require.NoError(t, err)
	_, err = SetAttribute(foo, "tags", types.String("b"))
	assert.ErrorIs(t, err, types.ErrTypeMismatch)
}

func TestGetMultiValued(t *testing.T) {
	foo := newRoot(t)
	_, err := foo.SetPropertyValues("tags", []types.Value{types.StringValue("a"), types.StringValue("b")})
	require.NoError(t, err)

	_, found, err := GetAttribute(foo, "tags")
	assert.True(t, found)
	assert.ErrorIs(t, err, types.ErrUnresolvedOperation)
}

func TestGetAbsent(t *testing.T) {
	foo := newRoot(t)
	got, found, err := GetAttribute(foo, "nothing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRemoveAttribute(t *testing.T) {
	foo := newRoot(t)
	addChildren(t, foo, "kid")
	_, err := SetAttribute(foo, "bar", types.String("x"))
	require.NoError(t, err)

	assert.ErrorIs(t, RemoveAttribute(foo, "kid"), types.ErrNameConflict)
	ok, err := foo.HasNode("kid")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, RemoveAttribute(foo, "bar"))
	_, found, err := GetAttribute(foo, "bar")
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, RemoveAttribute(foo, "bar"), types.ErrPropertyNotFound)
}

func TestPipelineUnset(t *testing.T) {
	p := New()
	foo := newRoot(t)
	addChildren(t, foo, "kid")
	require.NoError(t, p.Set(foo, "bar", types.Int32(1)))

	assert.ErrorIs(t, p.Unset(foo, "kid"), types.ErrNameConflict)
	assert.ErrorIs(t, p.Unset(foo, "name"), types.ErrNameConflict)
	require.NoError(t, p.Unset(foo, "bar"))
	_, err := p.Get(foo, "bar")
	assert.ErrorIs(t, err, types.ErrUnresolvedOperation)
}
