package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// Prompter implements ConfirmationPrompter using stdin/stdout.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Enabled indicates the prompter is interactive.
func (p *Prompter) Enabled() bool {
	return true
}

// Confirm shows the preview and asks the operator to approve execution.
func (p *Prompter) Confirm(command domain.Command, preview domain.ExecutionResult) (bool, error) {
	fmt.Fprintf(p.out, "\nAbout to execute %s (%s)\n", command.Intent, command.Category)
	if preview.CommandExecuted != "" {
		fmt.Fprintf(p.out, "Command:\n  %s\n", preview.CommandExecuted)
	} else if preview.Output != "" {
		fmt.Fprintf(p.out, "%s\n", preview.Output)
	}
	fmt.Fprint(p.out, "Continue? [y/N]: ")

	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

var _ ports.ConfirmationPrompter = (*Prompter)(nil)
