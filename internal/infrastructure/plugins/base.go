package plugins

import (
	"github.com/doeshing/opsgpt/internal/domain"
)

// base carries the descriptor-driven parts of the handler contract so the
// concrete plugins only implement Execute.
type base struct {
	descriptor domain.PluginDescriptor
}

func (b base) Descriptor() domain.PluginDescriptor {
	return b.descriptor
}

func (b base) Capabilities() domain.Capabilities {
	return domain.Capabilities{
		Name:       b.descriptor.Name,
		Categories: []domain.TaskCategory{b.descriptor.Category},
		Actions:    b.descriptor.Capabilities,
		Parameters: b.descriptor.ParameterSchema,
	}
}

func (b base) Categories() []domain.TaskCategory {
	return []domain.TaskCategory{b.descriptor.Category}
}

// ValidateParams is true iff every schema-required parameter is present.
func (b base) ValidateParams(params map[string]string) bool {
	for name, spec := range b.descriptor.ParameterSchema {
		if !spec.Required {
			continue
		}
		if v, ok := params[name]; !ok || v == "" {
			return false
		}
	}
	return true
}

// preview builds the standard simulate-mode result for a concrete command line.
func preview(commandLine string) domain.ExecutionResult {
	return domain.ExecutionResult{
		Success:         true,
		Output:          "[DRY RUN] Would execute: " + commandLine,
		CommandExecuted: commandLine,
		Metadata:        map[string]any{"dry_run": true},
	}
}
