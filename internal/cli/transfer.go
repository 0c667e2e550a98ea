package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/internal/adapter"
	"github.com/mesh-intelligence/arbor/internal/codec"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

func (a *app) newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export a subtree as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s types.Session, _ *adapter.Pipeline) error {
				n, err := s.NodeAt(argOr(args, 0, "/"))
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return sysError(fmt.Errorf("create %s: %w", output, err))
					}
					defer f.Close()
					w = f
				}
				return codec.Export(n, w)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (a *app) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <path> <file>",
		Short: "Import a YAML subtree under a node",
		Long: `Import recreates a subtree written by export under the node at path.
A document exported from the root is merged into the target node. Use - to
read from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return userError(fmt.Errorf("open %s: %w", args[1], err))
				}
				defer f.Close()
				r = f
			}
			return a.withSession(func(s types.Session, _ *adapter.Pipeline) error {
				parent, err := s.NodeAt(args[0])
				if err != nil {
					return err
				}
				n, err := codec.Import(parent, r)
				if err != nil {
					return err
				}
				return a.emitNode(cmd, n)
			})
		},
	}
}
