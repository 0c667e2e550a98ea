package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/internal/memory"
	"github.com/mesh-intelligence/arbor/internal/sqlite"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

func memorySession(t *testing.T) types.Session {
	t.Helper()
	repo := memory.NewRepository(nil)
	require.NoError(t, repo.Attach(types.Config{Backend: types.BackendMemory}))
	s, err := repo.Login(types.Credentials{})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Detach() })
	return s
}

func sqliteSession(t *testing.T) types.Session {
	t.Helper()
	b := sqlite.NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	s, err := b.Login(types.Credentials{})
	require.NoError(t, err)
	t.Cleanup(func() { b.Detach() })
	return s
}

// buildTree creates /site with properties of every type and two children.
func buildTree(t *testing.T, s types.Session) types.Node {
	t.Helper()
	root, err := s.RootNode()
	require.NoError(t, err)
	site, err := root.AddNodeOfType("site", types.NodeTypeFolder)
	require.NoError(t, err)

	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for name, v := range map[string]types.Value{
		"title":   types.StringValue("Home"),
		"visits":  types.LongValue(42),
		"ratio":   types.DoubleValue(0.25),
		"public":  types.BooleanValue(true),
		"created": types.DateValue(when),
		"logo":    types.BinaryValue([]byte{0, 1, 2}),
		"owner":   types.ReferenceValue(site.Identifier()),
	} {
		_, err := site.SetProperty(name, v)
		require.NoError(t, err)
	}
	_, err = site.SetPropertyValues("tags", []types.Value{types.StringValue("a"), types.StringValue("b")})
	require.NoError(t, err)

	file, err := site.AddNodeOfType("index.html", types.NodeTypeFile)
	require.NoError(t, err)
	content, err := file.AddNodeOfType("jcr:content", types.NodeTypeResource)
	require.NoError(t, err)
	_, err = content.SetProperty("jcr:encoding", types.StringValue("utf-8"))
	require.NoError(t, err)
	_, err = site.AddNode("empty")
	require.NoError(t, err)
	return site
}

func TestExport(t *testing.T) {
	site := buildTree(t, memorySession(t))

	var buf bytes.Buffer
	require.NoError(t, Export(site, &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "name: site\ntype: nt:folder\n"), out)
	assert.Contains(t, out, "- name: created\n    type: date\n    value: \"2024-01-02T03:04:05Z\"\n")
	assert.Contains(t, out, "multiple: true")
	assert.Contains(t, out, "name: jcr:content")
}

func TestRoundTrip(t *testing.T) {
	backends := []struct {
		name    string
		session func(*testing.T) types.Session
	}{
		{"memory", memorySession},
		{"sqlite", sqliteSession},
	}
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			src := buildTree(t, be.session(t))
			var buf bytes.Buffer
			require.NoError(t, Export(src, &buf))

			dst := be.session(t)
			root, err := dst.RootNode()
			require.NoError(t, err)
			imported, err := Import(root, bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, "/site", imported.Path())
			assert.Equal(t, types.NodeTypeFolder, imported.TypeName())

			assertSameTree(t, src, imported)
		})
	}
}

func TestImportRootMerges(t *testing.T) {
	s := memorySession(t)
	root, err := s.RootNode()
	require.NoError(t, err)
	_, err = root.SetProperty("motd", types.StringValue("hello"))
	require.NoError(t, err)
	_, err = root.AddNode("a")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(root, &buf))

	dst := memorySession(t)
	dstRoot, err := dst.RootNode()
	require.NoError(t, err)
	got, err := Import(dstRoot, &buf)
	require.NoError(t, err)
	assert.Equal(t, "/", got.Path())

	p, err := dstRoot.Property("motd")
	require.NoError(t, err)
	motd, err := p.AsString()
	require.NoError(t, err)
	assert.Equal(t, "hello", motd)
	ok, err := dstRoot.HasNode("a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"bad type", "name: x\ntype: nt:base\nproperties:\n  - name: p\n    type: float\n    value: \"1\"\n", types.ErrInvalidValueType},
		{"missing value", "name: x\ntype: nt:base\nproperties:\n  - name: p\n    type: string\n", types.ErrInvalidValueType},
		{"invalid name", "name: \"a/b\"\ntype: nt:base\n", types.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := memorySession(t).RootNode()
			require.NoError(t, err)
			_, err = Import(root, strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		root, err := memorySession(t).RootNode()
		require.NoError(t, err)
		_, err = root.AddNode("x")
		require.NoError(t, err)
		_, err = Import(root, strings.NewReader("name: x\ntype: nt:base\n"))
		assert.ErrorIs(t, err, types.ErrItemExists)
	})

	t.Run("malformed", func(t *testing.T) {
		root, err := memorySession(t).RootNode()
		require.NoError(t, err)
		_, err = Import(root, strings.NewReader("name: [x"))
		assert.Error(t, err)
	})
}

func assertSameTree(t *testing.T, want, got types.Node) {
	t.Helper()
	assert.Equal(t, want.Name(), got.Name())
	assert.Equal(t, want.TypeName(), got.TypeName())

	wantProps, err := want.Properties()
	require.NoError(t, err)
	gotProps, err := got.Properties()
	require.NoError(t, err)
	require.Len(t, gotProps, len(wantProps), got.Path())
	for i, wp := range wantProps {
		gp := gotProps[i]
		assert.Equal(t, wp.Name(), gp.Name())
		assert.Equal(t, wp.Type(), gp.Type())
		assert.Equal(t, wp.IsMultiple(), gp.IsMultiple())
		wv, err := wp.Values()
		require.NoError(t, err)
		gv, err := gp.Values()
		require.NoError(t, err)
		require.Len(t, gv, len(wv))
		for j := range wv {
			assert.True(t, wv[j].Equal(gv[j]), "%s/%s[%d]: %v != %v", got.Path(), wp.Name(), j, wv[j], gv[j])
		}
	}

	wantKids, err := want.Nodes()
	require.NoError(t, err)
	gotKids, err := got.Nodes()
	require.NoError(t, err)
	require.Len(t, gotKids, len(wantKids), got.Path())
	for i := range wantKids {
		assertSameTree(t, wantKids[i], gotKids[i])
	}
}
