package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// CostPlugin answers spend queries with a summary report. Like monitoring,
// the query itself is summary-level glue over the billing endpoint.
type CostPlugin struct {
	base
	billingEndpoint string
}

// NewCostPlugin wires the plugin against a billing API base URL.
func NewCostPlugin(billingEndpoint string) *CostPlugin {
	if billingEndpoint == "" {
		billingEndpoint = "https://ce.us-east-1.amazonaws.com"
	}
	return &CostPlugin{
		base: base{descriptor: domain.PluginDescriptor{
			Name:         "cost",
			Category:     domain.CategoryCostUsage,
			Capabilities: []string{"analyze_cost"},
			ParameterSchema: map[string]domain.ParamSpec{
				"service": {Type: "string", Required: false},
				"period":  {Type: "string", Required: false, Default: "30d"},
			},
		}},
		billingEndpoint: billingEndpoint,
	}
}

// Execute implements ports.Handler.
func (p *CostPlugin) Execute(_ context.Context, command domain.Command, mode domain.ExecutionMode) (domain.ExecutionResult, error) {
	if command.Intent != "analyze_cost" {
		return domain.FailedResult("", fmt.Sprintf("intent %q not supported by cost plugin", command.Intent)), nil
	}

	service := command.Param("service", "all")
	period := command.Param("period", "30d")
	query := fmt.Sprintf("cost report service=%s period=%s", service, period)

	if mode != domain.ModeExecute {
		return preview(fmt.Sprintf("billing query %s: %s", p.billingEndpoint, query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cost report for %q over the last %s:\n", service, period)
	fmt.Fprintf(&b, "  query: %s\n", query)
	fmt.Fprintf(&b, "  endpoint: %s\n", p.billingEndpoint)
	return domain.ExecutionResult{
		Success:         true,
		Output:          b.String(),
		CommandExecuted: query,
		Metadata: map[string]any{
			"service": service,
			"period":  period,
		},
	}, nil
}

var _ ports.Handler = (*CostPlugin)(nil)
