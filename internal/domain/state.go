package domain

import "time"

// HistoryEntry is one append-only record in the session execution history.
type HistoryEntry struct {
	Timestamp     time.Time     `json:"timestamp"`
	Command       string        `json:"command"`
	Success       bool          `json:"success"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// AgentState maintains the agent's durable operational state for one session.
// The state store owns the single instance for the process lifetime.
type AgentState struct {
	SessionID        string         `json:"session_id"`
	CurrentContext   string         `json:"current_context"`
	LastCommand      string         `json:"last_command,omitempty"`
	Environment      string         `json:"environment"`
	SessionStart     time.Time      `json:"session_start"`
	ExecutionHistory []HistoryEntry `json:"execution_history"`

	ActiveServices []string       `json:"active_services"`
	ResourceStates map[string]any `json:"resource_states"`
	ErrorCount     int            `json:"error_count"`
	LastError      string         `json:"last_error,omitempty"`

	SuccessfulCommands int     `json:"successful_commands"`
	FailedCommands     int     `json:"failed_commands"`
	TotalExecutionTime float64 `json:"total_execution_time"`

	PluginStates map[string]map[string]any `json:"plugin_states"`
}

// StateEvent enumerates the state lifecycle events observers can subscribe to.
type StateEvent string

const (
	EventSessionStarted  StateEvent = "session_started"
	EventSessionEnded    StateEvent = "session_ended"
	EventContextUpdated  StateEvent = "context_updated"
	EventCommandExecuted StateEvent = "command_executed"
	EventErrorOccurred   StateEvent = "error_occurred"
)

// StatePayload is delivered to observers on every notification.
type StatePayload struct {
	Event     StateEvent `json:"event"`
	SessionID string     `json:"session_id"`
	Context   string     `json:"context,omitempty"`
	Command   string     `json:"command,omitempty"`
	Success   bool       `json:"success,omitempty"`
	Error     string     `json:"error,omitempty"`
	At        time.Time  `json:"at"`
}

// AuditRecord mirrors a processed command into the audit repository.
type AuditRecord struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Input     string        `json:"input"`
	Intent    string        `json:"intent"`
	Category  TaskCategory  `json:"category"`
	Mode      ExecutionMode `json:"mode"`
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"duration"`
}
