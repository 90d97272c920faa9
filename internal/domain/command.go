// Package domain defines core business entities and value objects for OpsGPT.
//
// The domain layer is independent of infrastructure concerns and represents
// pure business logic and data structures.
package domain

// TaskCategory classifies a command into one of the supported operational domains.
type TaskCategory string

const (
	CategoryTroubleshooting    TaskCategory = "troubleshooting"
	CategoryCICD               TaskCategory = "cicd"
	CategoryCloudProvisioning  TaskCategory = "cloud_provisioning"
	CategoryCostUsage          TaskCategory = "cost_usage"
	CategorySecurityCompliance TaskCategory = "security_compliance"
	CategoryMonitoringAlerts   TaskCategory = "monitoring_alerts"
)

// CategoryFallback is where unmapped input lands. Routing still happens; if no
// handler claims the category the command fails downstream as a normal outcome.
const CategoryFallback = CategoryTroubleshooting

// Categories lists every valid task category in priority order.
func Categories() []TaskCategory {
	return []TaskCategory{
		CategoryTroubleshooting,
		CategoryCICD,
		CategoryCloudProvisioning,
		CategoryCostUsage,
		CategorySecurityCompliance,
		CategoryMonitoringAlerts,
	}
}

// ValidCategory reports whether value is a member of the category taxonomy.
func ValidCategory(value TaskCategory) bool {
	for _, c := range Categories() {
		if c == value {
			return true
		}
	}
	return false
}

// ExecutionMode controls whether a command produces side effects.
type ExecutionMode string

const (
	// ModeSimulate asks the handler for a preview-only result.
	ModeSimulate ExecutionMode = "simulate"
	// ModeConfirm suspends execution until an explicit confirmation signal.
	ModeConfirm ExecutionMode = "confirm"
	// ModeExecute runs the handler with real side effects.
	ModeExecute ExecutionMode = "execute"
)

// ParseMode maps a user-supplied string to an ExecutionMode, defaulting to simulate.
func ParseMode(value string) ExecutionMode {
	switch ExecutionMode(value) {
	case ModeConfirm:
		return ModeConfirm
	case ModeExecute:
		return ModeExecute
	default:
		return ModeSimulate
	}
}

// Command is the structured form of a natural-language request.
// It is immutable once parsed; Mode is attached by the caller, never mutated later.
type Command struct {
	Intent     string            `json:"intent"`
	Category   TaskCategory      `json:"category"`
	Parameters map[string]string `json:"parameters"`
	RawInput   string            `json:"raw_input"`
	Confidence float64           `json:"confidence"`
	Mode       ExecutionMode     `json:"mode"`
}

// WithMode returns a copy of the command with the execution mode attached.
func (c Command) WithMode(mode ExecutionMode) Command {
	c.Mode = mode
	return c
}

// Param returns the named parameter or def when absent or empty.
func (c Command) Param(name, def string) string {
	if v, ok := c.Parameters[name]; ok && v != "" {
		return v
	}
	return def
}
