package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/internal/adapter"
	"github.com/mesh-intelligence/arbor/pkg/repository"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// withSession attaches the configured repository, logs in and runs fn with
// the session and the installed pipeline. The session is logged out and
// the repository detached afterwards.
func (a *app) withSession(fn func(s types.Session, p *adapter.Pipeline) error) (err error) {
	cfg, err := a.repoConfig()
	if err != nil {
		return err
	}
	creds, err := a.credentials()
	if err != nil {
		return err
	}

	repo, err := repository.Open(cfg, a.logger)
	if err != nil {
		return sysError(err)
	}
	defer func() {
		if derr := repo.Detach(); derr != nil && err == nil {
			err = sysError(fmt.Errorf("detach: %w", derr))
		}
	}()

	s, err := repo.Login(creds)
	if err != nil {
		return userError(fmt.Errorf("login: %w", err))
	}
	defer s.Logout()

	p, _ := adapter.Install(adapter.WithLogger(a.logger))
	return fn(s, p)
}

// emit writes v as indented JSON in --json mode and calls text otherwise.
func (a *app) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return sysError(fmt.Errorf("marshal JSON: %w", err))
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	text(out)
	return nil
}

// display renders a pipeline result for text output.
func display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case types.Node:
		return x.Path()
	case types.Property:
		return x.Name()
	case types.HostValue:
		return x.String()
	case []types.HostValue:
		parts := make([]string, len(x))
		for i, h := range x {
			parts[i] = h.String()
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

// jsonValue renders a pipeline result for JSON output. Nodes become their
// path.
func jsonValue(v any) any {
	switch x := v.(type) {
	case types.Node:
		return x.Path()
	case types.Property:
		return x.Name()
	case types.HostValue:
		return hostJSON(x)
	case []types.HostValue:
		out := make([]any, len(x))
		for i, h := range x {
			out[i] = hostJSON(h)
		}
		return out
	}
	return v
}

// hostJSON keeps big numbers and decimals exact by rendering them as
// strings.
func hostJSON(h types.HostValue) any {
	switch h.Kind() {
	case types.KindBigInt, types.KindDecimal, types.KindChar:
		return h.String()
	}
	return h.Interface()
}
