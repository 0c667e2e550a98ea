package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/pkg/repository"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize arbor storage",
		Long:  "Create the configuration and data directories, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
}

// runInit attaches and detaches the configured backend, which creates the
// SQLite schema and root node. config.yaml was written by setup.
func (a *app) runInit(cmd *cobra.Command, args []string) error {
	cfg, err := a.repoConfig()
	if err != nil {
		return err
	}
	repo, err := repository.Open(cfg, a.logger)
	if err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := repo.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	result := map[string]string{"config_dir": a.configDir, "backend": cfg.Backend, "data_dir": cfg.DataDir}
	return a.emit(cmd, result, func(w io.Writer) {
		fmt.Fprintln(w, "arbor initialized successfully")
		fmt.Fprintf(w, "config: %s\n", a.configDir)
		if cfg.DataDir != "" {
			fmt.Fprintf(w, "data:   %s\n", cfg.DataDir)
		}
	})
}
