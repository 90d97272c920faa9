package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// TroubleshootingPlugin services log retrieval, restarts, and health checks
// by shelling out to kubectl in execute mode.
type TroubleshootingPlugin struct {
	base
	executor ports.CommandExecutor
}

// NewTroubleshootingPlugin wires the plugin over a command executor.
func NewTroubleshootingPlugin(executor ports.CommandExecutor) *TroubleshootingPlugin {
	return &TroubleshootingPlugin{
		base: base{descriptor: domain.PluginDescriptor{
			Name:         "troubleshooting",
			Category:     domain.CategoryTroubleshooting,
			Capabilities: []string{"show_logs", "restart_service", "health_check"},
			ParameterSchema: map[string]domain.ParamSpec{
				"service": {Type: "string", Required: true},
			},
		}},
		executor: executor,
	}
}

// Execute implements ports.Handler.
func (p *TroubleshootingPlugin) Execute(ctx context.Context, command domain.Command, mode domain.ExecutionMode) (domain.ExecutionResult, error) {
	service := command.Param("service", "unknown")

	var commandLine string
	switch command.Intent {
	case "show_logs":
		commandLine = fmt.Sprintf("kubectl logs -l app=%s --tail=50", service)
	case "restart_service":
		commandLine = fmt.Sprintf("kubectl rollout restart deployment/%s", service)
	case "health_check":
		commandLine = fmt.Sprintf("kubectl get pods -l app=%s", service)
	default:
		return domain.FailedResult("", fmt.Sprintf("intent %q not supported by troubleshooting plugin", command.Intent)), nil
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
		Metadata:        map[string]any{"service": service},
	}, nil
}

var _ ports.Handler = (*TroubleshootingPlugin)(nil)
