package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/internal/adapter"
	"github.com/mesh-intelligence/arbor/internal/luabind"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

func (a *app) newRunCmd() *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "run [script.lua]",
		Short: "Run a Lua script against the repository",
		Long: `Run executes a Lua script with the global "session" bound to a logged-in
session. Nodes support attribute syntax (node.title = 'x'), child indexing
(node[0], node[-1]) and iteration (node:each(fn), pairs(node)).

Example:
  arbor run site.lua
  arbor run -e "print(#session:getRootNode())"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (expr == "") {
				return userError(errors.New("run needs a script file or -e, not both"))
			}
			return a.withSession(func(s types.Session, p *adapter.Pipeline) error {
				sh := luabind.NewShell(p, luabind.WithLogger(a.logger), luabind.WithOutput(cmd.OutOrStdout()))
				sh.SetGlobal("session", s)
				var err error
				if expr != "" {
					err = sh.Eval(expr)
				} else {
					err = sh.RunFile(args[0])
				}
				if err != nil {
					return userError(err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&expr, "eval", "e", "", "run this Lua source instead of a file")
	return cmd
}
