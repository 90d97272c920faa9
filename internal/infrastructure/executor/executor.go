// Package executor runs handler command lines on the host shell.
package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/doeshing/opsgpt/internal/ports"
)

// LocalExecutor runs commands on the host shell.
type LocalExecutor struct {
	shell string
}

// NewLocalExecutor builds a new executor. shell "auto" or "" resolves to
// $SHELL, then /bin/sh.
func NewLocalExecutor(shell string) *LocalExecutor {
	if shell == "" || shell == "auto" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &LocalExecutor{shell: shell}
}

// Execute implements ports.CommandExecutor. Output combines stdout and stderr
// so handlers surface diagnostics from failed tools.
func (e *LocalExecutor) Execute(ctx context.Context, command string) (string, error) {
	c := exec.CommandContext(ctx, e.shell, "-c", command)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	output := strings.TrimRight(stdout.String(), "\n")
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n"
		}
		output += strings.TrimRight(stderr.String(), "\n")
	}
	return output, err
}

var _ ports.CommandExecutor = (*LocalExecutor)(nil)
