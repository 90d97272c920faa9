// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). The application depends only on these
// abstractions, never on concrete databases, HTTP clients, or CLI frameworks.
package ports

import (
	"context"

	"github.com/doeshing/opsgpt/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.opsgpt/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Provider is the uniform text-generation contract implemented by every
// model endpoint, remote or local, and by the fallback composite.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ProviderFactory builds the configured provider chain, wrapping primary and
// secondary providers into a single-hop fallback composite when enabled.
type ProviderFactory interface {
	Build(domain.LLMSettings) (Provider, error)
}

// IntentParser converts raw text into a structured command, via the fast
// pattern table or a provider-chain fallback with strict schema validation.
type IntentParser interface {
	Parse(ctx context.Context, text string) (domain.Command, error)
}

// Handler is the capability contract implemented by plugin code.
// Execute with ModeSimulate must not perform side effects and must set
// metadata["dry_run"]=true on the preview result.
type Handler interface {
	Execute(ctx context.Context, command domain.Command, mode domain.ExecutionMode) (domain.ExecutionResult, error)
	Capabilities() domain.Capabilities
	Categories() []domain.TaskCategory
	ValidateParams(params map[string]string) bool
}

// Registry routes commands to the handler registered for their category.
// Route returns a NO_HANDLER error as a normal outcome when nothing matches.
type Registry interface {
	Register(descriptor domain.PluginDescriptor, handler Handler)
	Route(command domain.Command) (Handler, domain.PluginDescriptor, error)
	Descriptors() []domain.PluginDescriptor
}

// SecurityPolicy gates handler invocation on the allow/deny action lists.
type SecurityPolicy interface {
	Check(command domain.Command) error
}

// StateObserver receives typed lifecycle notifications from the state store.
type StateObserver func(payload domain.StatePayload)

// StateRepository owns the durable agent state for the process lifetime.
type StateRepository interface {
	Snapshot() domain.AgentState
	UpdateContext(ctx string) error
	RecordCommand(command string, success bool, executionTime float64) error
	RecordError(message string) error
	UpdatePluginState(plugin string, state map[string]any) error
	PluginState(plugin string) map[string]any
	Subscribe(event domain.StateEvent, observer StateObserver) (unsubscribe func())
	Close() error
}

// AuditRepository mirrors processed commands into queryable storage.
type AuditRepository interface {
	Save(record domain.AuditRecord) error
	Records(limit int, search string) ([]domain.AuditRecord, error)
	Clear() error
}

// CommandExecutor runs shell commands in the configured shell environment.
type CommandExecutor interface {
	Execute(ctx context.Context, command string) (output string, err error)
}

// ConfirmationPrompter resolves pending confirmations for confirm-mode commands.
type ConfirmationPrompter interface {
	Confirm(command domain.Command, preview domain.ExecutionResult) (bool, error)
	Enabled() bool
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
}
