package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/opsgpt/internal/app"
	"github.com/doeshing/opsgpt/internal/application/agent"
	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/infrastructure/api"
)

// Version is stamped at build time.
var Version = "dev"

func newRunCommand(container *app.Container, service *agent.Service) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "run [natural language request]",
		Short: "Interpret and dispatch a request, or start the interactive loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := resolveMode(container, mode)
			if len(args) == 0 {
				return runInteractive(cmd, container, service, resolved)
			}
			resp := service.Process(cmd.Context(), joinArgs(args), resolved)
			renderResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Execution mode: simulate|confirm|execute (default from config)")
	return cmd
}

func resolveMode(container *app.Container, flag string) domain.ExecutionMode {
	if flag != "" {
		return domain.ParseMode(flag)
	}
	return domain.ParseMode(container.Config.Execution.DefaultMode)
}

func runInteractive(cmd *cobra.Command, container *app.Container, service *agent.Service, mode domain.ExecutionMode) error {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprintf(out, "OpsGPT interactive session (mode: %s). Type 'help' for commands.\n", mode)
	for {
		fmt.Fprint(out, "opsgpt> ")
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			fmt.Fprintln(out, "bye")
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case line == "quit", line == "exit":
			fmt.Fprintln(out, "bye")
			return nil
		case line == "help":
			printHelp(out)
			continue
		case line == "state":
			printState(out, container)
			continue
		case strings.HasPrefix(line, "mode "):
			mode = domain.ParseMode(strings.TrimSpace(strings.TrimPrefix(line, "mode ")))
			fmt.Fprintf(out, "mode set to %s\n", mode)
			continue
		}

		resp := service.Process(cmd.Context(), line, mode)
		renderResponse(out, resp)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help            Show this help")
	fmt.Fprintln(out, "  mode <m>        Switch mode (simulate|confirm|execute)")
	fmt.Fprintln(out, "  state           Show session state summary")
	fmt.Fprintln(out, "  quit            Leave the session")
	fmt.Fprintln(out, "Anything else is interpreted as an operations request.")
}

func printState(out io.Writer, container *app.Container) {
	snap := container.StateStore.Snapshot()
	fmt.Fprintf(out, "session:  %s\n", snap.SessionID)
	fmt.Fprintf(out, "context:  %s\n", snap.CurrentContext)
	fmt.Fprintf(out, "env:      %s\n", snap.Environment)
	fmt.Fprintf(out, "commands: %d ok / %d failed\n", snap.SuccessfulCommands, snap.FailedCommands)
	if snap.LastError != "" {
		fmt.Fprintf(out, "last error: %s\n", snap.LastError)
	}
}

func renderResponse(out io.Writer, resp domain.Response) {
	if resp.Success {
		if resp.Output != "" {
			fmt.Fprintln(out, resp.Output)
		} else {
			fmt.Fprintln(out, "ok")
		}
	} else {
		fmt.Fprintf(out, "error: %s\n", resp.Error)
	}
	if pending, ok := resp.Metadata["pending_confirmation"].(bool); ok && pending {
		fmt.Fprintln(out, "(preview only; execution awaits confirmation)")
	}
}

func newServeCommand(container *app.Container) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = container.Config.API.ListenAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(addr, container.AgentService, container.Registry, container.StateStore, container.Logger)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func newHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the command audit trail",
	}

	var limit int
	var search string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.AuditStore == nil {
				return fmt.Errorf("audit is disabled in configuration")
			}
			records, err := container.AuditStore.Records(limit, search)
			if err != nil {
				return err
			}
			for _, rec := range records {
				status := "ok"
				if !rec.Success {
					status = "failed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s | %-6s | %-8s | %s | %s\n",
					rec.Timestamp.Format(time.RFC3339),
					status,
					rec.Mode,
					rec.Intent,
					rec.Input)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Max entries to show")
	listCmd.Flags().StringVar(&search, "search", "", "Filter on input or intent")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.AuditStore == nil {
				return fmt.Errorf("audit is disabled in configuration")
			}
			return container.AuditStore.Clear()
		},
	}

	historyCmd.AddCommand(listCmd, clearCmd)
	return historyCmd
}

func newStateCommand(container *app.Container) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or update the session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := container.StateStore.Snapshot()
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	contextCmd := &cobra.Command{
		Use:   "context <value>",
		Short: "Set the current operational context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.StateStore.UpdateContext(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "context set to %s\n", args[0])
			return nil
		},
	}

	stateCmd.AddCommand(contextCmd)
	return stateCmd
}

func newPluginsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered capability plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, desc := range container.Registry.Descriptors() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-20s %s\n",
					desc.Name,
					desc.Category,
					strings.Join(desc.Capabilities, ", "))
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the OpsGPT version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "opsgpt %s\n", Version)
		},
	}
}
