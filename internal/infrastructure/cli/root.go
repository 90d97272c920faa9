// Package cli wires the cobra command tree over the agent service.
package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/opsgpt/internal/app"
	"github.com/doeshing/opsgpt/internal/application/agent"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	// Only the interactive surface gets the stdin prompter. serve keeps the
	// prompterless service, so HTTP confirm requests stay pending instead of
	// being resolved by the server's terminal.
	interactive := container.AgentService.With(agent.WithPrompter(NewPrompter(nil, nil)))
	runCmd := newRunCommand(container, interactive)

	root := &cobra.Command{
		Use:   "opsgpt [request]",
		Short: "OpsGPT - natural language DevOps assistant",
		Long:  "OpsGPT interprets natural language operations requests and dispatches them to capability plugins, with simulate/confirm/execute safety modes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			runCmd.SetArgs(args)
			return runCmd.ExecuteContext(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return container.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd)
	root.AddCommand(newServeCommand(container))
	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newStateCommand(container))
	root.AddCommand(newPluginsCommand(container))
	root.AddCommand(newVersionCommand())
	return root, nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
