// Package agent is the application core: it drives a natural-language request
// through parsing, mediation, and bookkeeping, and folds every outcome into a
// caller-facing Response.
package agent

import (
	"context"
	"time"

	"github.com/doeshing/opsgpt/internal/application/mediator"
	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// Service processes commands end to end. Pipeline failures become failed
// Responses, never faults; the caller always gets the same response shape.
type Service struct {
	parser   ports.IntentParser
	mediator *mediator.Mediator
	state    ports.StateRepository
	audit    ports.AuditRepository
	prompter ports.ConfirmationPrompter
	logger   ports.Logger
}

// Option customizes optional service collaborators.
type Option func(*Service)

// WithAudit mirrors processed commands into the audit repository.
func WithAudit(audit ports.AuditRepository) Option {
	return func(s *Service) { s.audit = audit }
}

// WithPrompter resolves confirm-mode commands interactively. Without one,
// confirm-mode requests return the preview and a pending_confirmation marker.
func WithPrompter(prompter ports.ConfirmationPrompter) Option {
	return func(s *Service) { s.prompter = prompter }
}

// NewService wires the command pipeline.
func NewService(parser ports.IntentParser, med *mediator.Mediator, state ports.StateRepository, logger ports.Logger, opts ...Option) *Service {
	s := &Service{
		parser:   parser,
		mediator: med,
		state:    state,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// With returns a copy of the service with extra collaborators attached. The
// interactive surface uses it to add its prompter without leaking it into
// non-interactive surfaces sharing the same pipeline.
func (s *Service) With(opts ...Option) *Service {
	clone := *s
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Process interprets text, dispatches the resulting command in the given mode,
// records the outcome, and returns the external response.
//
// Model providers are only consulted during parsing, before any state lock is
// taken; a slow provider never blocks state readers.
func (s *Service) Process(ctx context.Context, text string, mode domain.ExecutionMode) domain.Response {
	start := time.Now()

	command, err := s.parser.Parse(ctx, text)
	if err != nil {
		s.logger.Warn("parse failed", map[string]any{"input": text, "error": err.Error()})
		s.recordFailure(err.Error())
		return failedResponse(err)
	}
	command = command.WithMode(mode)

	result, pending, err := s.mediator.Dispatch(ctx, command)
	if err != nil {
		s.recordFailure(err.Error())
		s.record(command, false, time.Since(start))
		return failedResponse(err)
	}

	if pending != nil {
		result = s.resolvePending(ctx, command, result, pending)
	}

	s.record(command, result.Success, time.Since(start))
	return domain.ResponseFrom(result)
}

// resolvePending settles a confirm-mode command. With a prompter attached the
// operator decides now; otherwise the preview travels back to the caller
// unresolved and nothing executes.
func (s *Service) resolvePending(ctx context.Context, command domain.Command, preview domain.ExecutionResult, pending *mediator.Pending) domain.ExecutionResult {
	if s.prompter == nil || !s.prompter.Enabled() {
		return preview
	}

	approved, err := s.prompter.Confirm(command, preview)
	if err != nil {
		s.logger.Warn("confirmation prompt failed", map[string]any{"error": err.Error()})
		return pending.Reject()
	}
	if !approved {
		return pending.Reject()
	}

	result, err := pending.Confirm(ctx)
	if err != nil {
		s.recordFailure(err.Error())
		return domain.FailedResult("", err.Error())
	}
	return result
}

// record persists the command outcome; persistence trouble is logged and
// reported through state events but never alters the response.
func (s *Service) record(command domain.Command, success bool, elapsed time.Duration) {
	if err := s.state.RecordCommand(command.Intent, success, elapsed.Seconds()); err != nil {
		s.logger.Error("recording command outcome failed", err, nil)
	}
	if s.audit == nil {
		return
	}
	err := s.audit.Save(domain.AuditRecord{
		Timestamp: time.Now().UTC(),
		Input:     command.RawInput,
		Intent:    command.Intent,
		Category:  command.Category,
		Mode:      command.Mode,
		Success:   success,
		Duration:  elapsed,
	})
	if err != nil {
		s.logger.Error("audit save failed", err, nil)
	}
}

func (s *Service) recordFailure(message string) {
	if err := s.state.RecordError(message); err != nil {
		s.logger.Error("recording error failed", err, nil)
	}
}

// failedResponse converts a pipeline error into the external response shape,
// tagging the failure class in metadata.
func failedResponse(err error) domain.Response {
	resp := domain.Response{
		Success: false,
		Error:   err.Error(),
	}
	if code := domain.CodeOf(err); code != "" {
		resp.Metadata = map[string]any{"error_code": string(code)}
	}
	return resp
}
