package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MLGBJDLW/vellum/internal/plugin/hooks"
	plugpath "github.com/MLGBJDLW/vellum/internal/plugin/path"
	"github.com/MLGBJDLW/vellum/internal/plugin/trust"
	vellumplugin "github.com/MLGBJDLW/vellum/pkg/plugin"
)

const pluginHelp = `
Discover, load, and inspect vellum plugins: commands, agents, and lifecycle
hooks contributed by project, user, global, and builtin plugin directories.
`

func newPluginCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "inspect and manage vellum plugins",
		Long:  pluginHelp,
	}
	cmd.AddCommand(
		newPluginListCmd(out),
		newPluginCommandsCmd(out),
		newPluginAgentsCmd(out),
		newPluginTrustCmd(out),
		newPluginRunHookCmd(out),
	)
	return cmd
}

// trustStorePath returns the single trust store location every vellum
// subcommand reads and writes, so a grant made by "plugin trust" is visible
// to "plugin list"/"plugin run-hook" and vice versa.
func trustStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return trust.DefaultTrustStorePath(home), nil
}

// newHost builds and initializes a pkg/plugin.Host rooted at the current
// working directory, eagerly loading every discovered plugin's components.
func newHost() (*vellumplugin.Host, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	storePath, err := trustStorePath()
	if err != nil {
		return nil, err
	}

	h := vellumplugin.New(vellumplugin.Options{
		Search: plugpath.Options{
			Context: plugpath.Context{ProjectDir: cwd},
		},
		EagerLoad:      true,
		TrustStorePath: storePath,
	})
	if err := h.Initialize(); err != nil {
		return nil, err
	}
	return h, nil
}

func newPluginListCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list discovered plugins and any that failed to load",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHost()
			if err != nil {
				return err
			}
			for _, rec := range h.Plugins() {
				fmt.Fprintf(out, "%s\t%s\t%s\n", rec.Manifest.Name, rec.Manifest.Version, rec.State)
			}
			for _, f := range h.FailedPlugins() {
				fmt.Fprintf(out, "%s\tFAILED\t%s\n", f.Name, f.Error)
			}
			return nil
		},
	}
}

func newPluginCommandsCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "list the merged slash-command registry contributed by plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHost()
			if err != nil {
				return err
			}
			for name, sc := range h.Commands() {
				fmt.Fprintf(out, "/%s\t%s\t(%s)\n", name, sc.Description, sc.Source)
			}
			return nil
		},
	}
}

func newPluginAgentsCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "list the merged agent registry contributed by plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHost()
			if err != nil {
				return err
			}
			for slug, a := range h.Agents() {
				fmt.Fprintf(out, "%s\t%s\t%s\n", slug, a.Mode, a.Description)
			}
			return nil
		},
	}
}

func newPluginTrustCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust <plugin-name> <none|ask|trusted>",
		Short: "set a plugin's trust level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, level := args[0], trust.Level(args[1])
			if level != trust.LevelNone && level != trust.LevelAsk && level != trust.LevelTrusted {
				return fmt.Errorf("trust level must be one of: none, ask, trusted")
			}

			storePath, err := trustStorePath()
			if err != nil {
				return err
			}
			store := trust.NewStore(storePath)
			store.Load()
			if level == trust.LevelNone {
				store.Revoke(name)
			} else {
				store.Grant(name, level, nil)
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s is now %s\n", name, level)
			return nil
		},
	}
	return cmd
}

func newPluginRunHookCmd(out io.Writer) *cobra.Command {
	var inputJSON string
	cmd := &cobra.Command{
		Use:   "run-hook <event>",
		Short: "run every loaded plugin's rules for a lifecycle event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event := hooks.Event(args[0])
			if !event.Valid() {
				return fmt.Errorf("unknown lifecycle event %q", args[0])
			}

			var input any
			if inputJSON != "" {
				if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
					return fmt.Errorf("parse --input: %w", err)
				}
			}

			h, err := newHost()
			if err != nil {
				return err
			}
			defer h.Shutdown()

			result := h.RunHooks(context.Background(), event, input)
			fmt.Fprintf(out, "allowed=%t ran=%d totalMs=%d\n", result.Allowed, len(result.Results), result.TotalExecutionTimeMS)
			return nil
		},
	}
	cmd.Flags().StringVar(&inputJSON, "input", "", "JSON-encoded hook input payload")
	return cmd
}
