package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/internal/auth"
)

func (a *app) newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage repository users",
	}
	cmd.AddCommand(a.newUserAddCmd(), a.newUserListCmd())
	return cmd
}

func (a *app) newUserAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a user or reset its password",
		Long: `Add reads the password from the first line of stdin and stores its
bcrypt hash under users in config.yaml. Once a user exists, every login
must present valid credentials.

Example:
  echo 's3cret' | arbor user add admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if name == "" || strings.ContainsAny(name, " \t\r\n") {
				return userError(fmt.Errorf("invalid user name %q", name))
			}
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return userError(err)
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return userError(err)
			}

			cfg, err := readConfigFile(a.configDir)
			if err != nil {
				return sysError(err)
			}
			if cfg.Users == nil {
				cfg.Users = make(map[string]string)
			}
			cfg.Users[name] = hash
			if err := writeConfigFile(a.configDir, cfg); err != nil {
				return sysError(err)
			}
			a.logger.Debug("user added", "user", name)
			return a.emit(cmd, map[string]string{"user": name}, func(w io.Writer) {
				fmt.Fprintf(w, "user %s saved\n", name)
			})
		},
	}
}

func (a *app) newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List configured users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfigFile(a.configDir)
			if err != nil {
				return sysError(err)
			}
			names := make([]string, 0, len(cfg.Users))
			for name := range cfg.Users {
				names = append(names, name)
			}
			slices.Sort(names)
			return a.emit(cmd, names, func(w io.Writer) {
				for _, name := range names {
					fmt.Fprintln(w, name)
				}
			})
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
