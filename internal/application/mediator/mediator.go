// Package mediator gates every command between parsing and handler execution:
// policy check, routing, parameter validation, then the execution mode machine.
package mediator

import (
	"context"
	"sync"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// Mediator is the single chokepoint for handler invocation. No handler runs
// without passing the security policy and parameter validation first.
type Mediator struct {
	registry ports.Registry
	policy   ports.SecurityPolicy
	logger   ports.Logger
}

// New builds a mediator over the registry and policy gate.
func New(registry ports.Registry, policy ports.SecurityPolicy, logger ports.Logger) *Mediator {
	return &Mediator{registry: registry, policy: policy, logger: logger}
}

// Dispatch runs the command through the gate and the mode machine.
//
// In simulate mode the result is a side-effect-free preview. In execute mode
// the handler runs immediately. In confirm mode Dispatch returns the preview
// plus a Pending handle; the handler only runs if the caller confirms it.
func (m *Mediator) Dispatch(ctx context.Context, command domain.Command) (domain.ExecutionResult, *Pending, error) {
	if err := m.policy.Check(command); err != nil {
		m.logger.Warn("command denied by policy", map[string]any{"intent": command.Intent})
		return domain.ExecutionResult{}, nil, err
	}

	handler, descriptor, err := m.registry.Route(command)
	if err != nil {
		return domain.ExecutionResult{}, nil, err
	}

	if !handler.ValidateParams(command.Parameters) {
		return domain.ExecutionResult{}, nil, domain.Errorf(domain.ErrParamValidation,
			"command %q is missing required parameters for plugin %q", command.Intent, descriptor.Name)
	}

	switch command.Mode {
	case domain.ModeExecute:
		result, err := m.run(ctx, handler, command, domain.ModeExecute)
		return result, nil, err

	case domain.ModeConfirm:
		preview, err := m.run(ctx, handler, command, domain.ModeSimulate)
		if err != nil {
			return domain.ExecutionResult{}, nil, err
		}
		if preview.Metadata == nil {
			preview.Metadata = map[string]any{}
		}
		preview.Metadata["pending_confirmation"] = true
		return preview, &Pending{mediator: m, handler: handler, command: command}, nil

	default:
		result, err := m.run(ctx, handler, command, domain.ModeSimulate)
		return result, nil, err
	}
}

func (m *Mediator) run(ctx context.Context, handler ports.Handler, command domain.Command, mode domain.ExecutionMode) (domain.ExecutionResult, error) {
	result, err := handler.Execute(ctx, command, mode)
	if err != nil {
		return domain.ExecutionResult{}, domain.NewError(domain.ErrHandler, "handler execution failed").WithCause(err)
	}
	return result, nil
}

// Pending is an unresolved confirm-mode command. Exactly one of Confirm or
// Reject resolves it; later calls return the first resolution.
type Pending struct {
	mediator *Mediator
	handler  ports.Handler
	command  domain.Command

	mu       sync.Mutex
	resolved bool
	result   domain.ExecutionResult
	err      error
}

// Confirm executes the held command. The first resolution wins.
func (p *Pending) Confirm(ctx context.Context) (domain.ExecutionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return p.result, p.err
	}
	p.resolved = true
	p.result, p.err = p.mediator.run(ctx, p.handler, p.command, domain.ModeExecute)
	return p.result, p.err
}

// Reject discards the held command without executing it.
func (p *Pending) Reject() domain.ExecutionResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return p.result
	}
	p.resolved = true
	p.result = domain.ExecutionResult{
		Success:  false,
		Error:    "execution cancelled",
		Metadata: map[string]any{"cancelled": true},
	}
	return p.result
}
