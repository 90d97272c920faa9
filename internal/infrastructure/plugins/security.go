package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// SecurityPlugin services port and vulnerability scans through the executor.
type SecurityPlugin struct {
	base
	executor ports.CommandExecutor
}

// NewSecurityPlugin wires the plugin over a command executor.
func NewSecurityPlugin(executor ports.CommandExecutor) *SecurityPlugin {
	return &SecurityPlugin{
		base: base{descriptor: domain.PluginDescriptor{
			Name:         "security",
			Category:     domain.CategorySecurityCompliance,
			Capabilities: []string{"security_scan"},
			ParameterSchema: map[string]domain.ParamSpec{
				"security_type": {Type: "string", Required: true},
				"target":        {Type: "string", Required: false, Default: "localhost"},
			},
		}},
		executor: executor,
	}
}

// Execute implements ports.Handler.
func (p *SecurityPlugin) Execute(ctx context.Context, command domain.Command, mode domain.ExecutionMode) (domain.ExecutionResult, error) {
	if command.Intent != "security_scan" {
		return domain.FailedResult("", fmt.Sprintf("intent %q not supported by security plugin", command.Intent)), nil
	}

	target := command.Param("target", "localhost")
	var commandLine string
	switch command.Param("security_type", "") {
	case "ports":
		commandLine = fmt.Sprintf("nmap -sT %s", target)
	case "cve", "vulnerabilities":
		commandLine = fmt.Sprintf("trivy fs --severity HIGH,CRITICAL %s", target)
	default:
		return domain.FailedResult("", "unknown security scan type"), nil
	}

	if mode != domain.ModeExecute {
		return preview(commandLine), nil
	}

	start := time.Now()
	output, err := p.executor.Execute(ctx, commandLine)
	elapsed := time.Since(start)
	if err != nil {
		result := domain.FailedResult(output, err.Error())
		result.CommandExecuted = commandLine
		result.ExecutionTime = elapsed
		return result, nil
	}
	return domain.ExecutionResult{
		Success:         true,
		Output:          output,
		CommandExecuted: commandLine,
		ExecutionTime:   elapsed,
		Metadata:        map[string]any{"target": target},
	}, nil
}

var _ ports.Handler = (*SecurityPlugin)(nil)
