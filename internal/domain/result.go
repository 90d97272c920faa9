package domain

import "time"

// ExecutionResult captures the outcome of a single handler invocation.
type ExecutionResult struct {
	Success         bool           `json:"success"`
	Output          string         `json:"output"`
	Error           string         `json:"error,omitempty"`
	ExecutionTime   time.Duration  `json:"execution_time"`
	CommandExecuted string         `json:"command_executed,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// DryRun reports whether this result came from a preview-only invocation.
func (r ExecutionResult) DryRun() bool {
	v, ok := r.Metadata["dry_run"].(bool)
	return ok && v
}

// FailedResult builds a failure outcome with a descriptive error.
func FailedResult(output, errMsg string) ExecutionResult {
	return ExecutionResult{
		Success: false,
		Output:  output,
		Error:   errMsg,
	}
}

// Response is the caller-facing command/result exchange. It carries the same
// shape whether the request arrived through the interactive loop or the HTTP API.
type Response struct {
	Success  bool           `json:"success"`
	Output   string         `json:"output"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ResponseFrom flattens an execution result into the external response shape.
func ResponseFrom(result ExecutionResult) Response {
	return Response{
		Success:  result.Success,
		Output:   result.Output,
		Error:    result.Error,
		Metadata: result.Metadata,
	}
}
