package cli

import (
	"fmt"
	"io"
	"path"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/internal/adapter"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path> <name>",
		Short: "Read an attribute of a node",
		Long: `Get resolves name on the node at path the way a script's node.name does:
native fields first, then a child node, then a property.

Example:
  arbor get /site title
  arbor get /site/index.html jcr:content`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s types.Session, p *adapter.Pipeline) error {
				n, err := s.NodeAt(args[0])
				if err != nil {
					return err
				}
				v, err := p.Get(n, args[1])
				if err != nil {
					return err
				}
				result := map[string]any{"path": n.Path(), "name": args[1], "value": jsonValue(v)}
				if h, ok := v.(types.HostValue); ok {
					result["kind"] = h.Kind().String()
				}
				return a.emit(cmd, result, func(w io.Writer) { fmt.Fprintln(w, display(v)) })
			})
		},
	}
}

func (a *app) newSetCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "set <path> <name> <value>",
		Short: "Write a property of a node",
		Long: `Set coerces value from --kind and writes it as the property name.

Kinds: int8 int16 int32 int64 bigint float32 float64 decimal char bool date string bytes

Example:
  arbor set /site title Home
  arbor set /site visits 42 --kind int64
  arbor set /site created 2024-01-02T03:04:05Z --kind date`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHost(kind, args[2])
			if err != nil {
				return userError(err)
			}
			return a.withSession(func(s types.Session, p *adapter.Pipeline) error {
				n, err := s.NodeAt(args[0])
				if err != nil {
					return err
				}
				if err := p.Set(n, args[1], h); err != nil {
					return err
				}
				prop, err := n.Property(args[1])
				if err != nil {
					return err
				}
				row, err := propertyRow(prop)
				if err != nil {
					return err
				}
				return a.emit(cmd, row, func(w io.Writer) {
					fmt.Fprintf(w, "%s\t%s\t%s\n", row.Name, row.Type, display(row.value))
				})
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", types.KindString.String(), "host kind of value")
	return cmd
}

type childRow struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Path  string `json:"path"`
}

func (a *app) newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List the children of a node",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s types.Session, p *adapter.Pipeline) error {
				n, err := s.NodeAt(argOr(args, 0, "/"))
				if err != nil {
					return err
				}
				c, err := p.Iterate(n, "eachWithIndex")
				if err != nil {
					return err
				}
				rows := []childRow{}
				cur := c.(*adapter.Cursor[adapter.IndexedNode])
				for cur.Next() {
					in := cur.Value()
					rows = append(rows, childRow{Index: in.Index, Name: in.Node.Name(), Type: in.Node.TypeName(), Path: in.Node.Path()})
				}
				if err := cur.Err(); err != nil {
					return err
				}
				return a.emit(cmd, rows, func(w io.Writer) {
					for _, r := range rows {
						fmt.Fprintf(w, "%d\t%s\t%s\n", r.Index, r.Name, r.Type)
					}
				})
			})
		},
	}
}

type propertyRowJSON struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Multiple bool   `json:"multiple"`
	Value    any    `json:"value"`

	value any
}

func propertyRow(prop types.Property) (propertyRowJSON, error) {
	row := propertyRowJSON{Name: prop.Name(), Type: prop.Type().String(), Multiple: prop.IsMultiple()}
	if row.Multiple {
		hs, err := adapter.ToHostValues(prop)
		if err != nil {
			return row, err
		}
		row.value = hs
	} else {
		h, err := adapter.ToHostValue(prop)
		if err != nil {
			return row, err
		}
		row.value = h
	}
	row.Value = jsonValue(row.value)
	return row, nil
}

func (a *app) newPropsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "props [path]",
		Short: "List the properties of a node",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s types.Session, p *adapter.Pipeline) error {
				n, err := s.NodeAt(argOr(args, 0, "/"))
				if err != nil {
					return err
				}
				c, err := p.Iterate(n, "eachProperty")
				if err != nil {
					return err
				}
				rows := []propertyRowJSON{}
				cur := c.(*adapter.Cursor[types.Property])
				for cur.Next() {
					row, err := propertyRow(cur.Value())
					if err != nil {
						return err
					}
					rows = append(rows, row)
				}
				if err := cur.Err(); err != nil {
					return err
				}
				return a.emit(cmd, rows, func(w io.Writer) {
					for _, r := range rows {
						fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Type, display(r.value))
					}
				})
			})
		},
	}
}

func (a *app) newMkdirCmd() *cobra.Command {
	var (
		typeName string
		parents  bool
	)
	cmd := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a node",
		Long: `Mkdir adds the node at path to its parent. With --parents missing
ancestors are created as nt:unstructured and an existing node is not an
error.

Example:
  arbor mkdir /site --type nt:folder
  arbor mkdir -p /site/index.html/jcr:content --type nt:resource`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := types.SplitPath(args[0])
			if err != nil {
				return userError(err)
			}
			if len(names) == 0 {
				return userError(fmt.Errorf("%w: the root node already exists", types.ErrItemExists))
			}
			return a.withSession(func(s types.Session, p *adapter.Pipeline) error {
				parentPath := path.Dir(path.Clean(args[0]))
				parent, err := s.NodeAt(parentPath)
				if err != nil && parents {
					parent, err = ensurePath(s, p, names[:len(names)-1])
				}
				if err != nil {
					return err
				}

				name := names[len(names)-1]
				if parents {
					if ok, err := parent.HasNode(name); err != nil {
						return err
					} else if ok {
						n, err := parent.Node(name)
						if err != nil {
							return err
						}
						return a.emitNode(cmd, n)
					}
				}
				v, err := p.Invoke(parent, "addNode", name, typeName)
				if err != nil {
					return err
				}
				return a.emitNode(cmd, v.(types.Node))
			})
		},
	}
	cmd.Flags().StringVar(&typeName, "type", types.NodeTypeUnstructured, "node type")
	cmd.Flags().BoolVarP(&parents, "parents", "p", false, "create missing ancestors")
	return cmd
}

// ensurePath walks names from the root, adding missing nodes.
func ensurePath(s types.Session, p *adapter.Pipeline, names []string) (types.Node, error) {
	n, err := s.RootNode()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		ok, err := n.HasNode(name)
		if err != nil {
			return nil, err
		}
		var v any
		if ok {
			v, err = p.Invoke(n, "getNode", name)
		} else {
			v, err = p.Invoke(n, "addNode", name)
		}
		if err != nil {
			return nil, err
		}
		n = v.(types.Node)
	}
	return n, nil
}

func (a *app) emitNode(cmd *cobra.Command, n types.Node) error {
	row := childRow{Name: n.Name(), Type: n.TypeName(), Path: n.Path()}
	return a.emit(cmd, row, func(w io.Writer) { fmt.Fprintf(w, "%s\t%s\n", row.Path, row.Type) })
}

func (a *app) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a node and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s types.Session, p *adapter.Pipeline) error {
				n, err := s.NodeAt(args[0])
				if err != nil {
					return err
				}
				removed := n.Path()
				if _, err := p.Invoke(n, "remove"); err != nil {
					return err
				}
				return a.emit(cmd, map[string]string{"removed": removed}, func(w io.Writer) {
					fmt.Fprintf(w, "removed %s\n", removed)
				})
			})
		},
	}
}

func argOr(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}
