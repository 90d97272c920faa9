package mediator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/pkg/logger"
	"github.com/doeshing/opsgpt/internal/ports"
)

type stubHandler struct {
	validParams bool
	executions  int
	simulations int
	execErr     error
}

func (h *stubHandler) Execute(_ context.Context, command domain.Command, mode domain.ExecutionMode) (domain.ExecutionResult, error) {
	if h.execErr != nil {
		return domain.ExecutionResult{}, h.execErr
	}
	if mode == domain.ModeExecute {
		h.executions++
		return domain.ExecutionResult{Success: true, Output: "executed " + command.Intent}, nil
	}
	h.simulations++
	return domain.ExecutionResult{
		Success:  true,
		Output:   "[DRY RUN] Would execute: " + command.Intent,
		Metadata: map[string]any{"dry_run": true},
	}, nil
}

func (h *stubHandler) Capabilities() domain.Capabilities { return domain.Capabilities{Name: "stub"} }

func (h *stubHandler) Categories() []domain.TaskCategory {
	return []domain.TaskCategory{domain.CategoryTroubleshooting}
}

func (h *stubHandler) ValidateParams(map[string]string) bool { return h.validParams }

type stubRegistry struct {
	handler ports.Handler
}

func (r *stubRegistry) Register(domain.PluginDescriptor, ports.Handler) {}

func (r *stubRegistry) Route(command domain.Command) (ports.Handler, domain.PluginDescriptor, error) {
	if r.handler == nil {
		return nil, domain.PluginDescriptor{}, domain.Errorf(domain.ErrNoHandler,
			"no handler registered for category %s", command.Category)
	}
	return r.handler, domain.PluginDescriptor{Name: "stub"}, nil
}

func (r *stubRegistry) Descriptors() []domain.PluginDescriptor { return nil }

type stubPolicy struct {
	denied bool
}

func (p *stubPolicy) Check(command domain.Command) error {
	if p.denied {
		return domain.Errorf(domain.ErrPolicyDenied, "action %q is on the deny list", command.Intent)
	}
	return nil
}

func newMediator(handler ports.Handler, policy ports.SecurityPolicy) *Mediator {
	return New(&stubRegistry{handler: handler}, policy, logger.NewNop())
}

func command(mode domain.ExecutionMode) domain.Command {
	return domain.Command{
		Intent:   "restart_service",
		Category: domain.CategoryTroubleshooting,
		Mode:     mode,
	}
}

func TestDispatchDeniedByPolicyNeverRoutes(t *testing.T) {
	handler := &stubHandler{validParams: true}
	m := newMediator(handler, &stubPolicy{denied: true})

	_, _, err := m.Dispatch(context.Background(), command(domain.ModeExecute))
	require.Error(t, err)
	assert.Equal(t, domain.ErrPolicyDenied, domain.CodeOf(err))
	assert.Zero(t, handler.executions)
	assert.Zero(t, handler.simulations)
}

func TestDispatchNoHandlerIsNormalOutcome(t *testing.T) {
	m := newMediator(nil, &stubPolicy{})

	_, _, err := m.Dispatch(context.Background(), command(domain.ModeSimulate))
	require.Error(t, err)
	assert.Equal(t, domain.ErrNoHandler, domain.CodeOf(err))
}

func TestDispatchInvalidParamsSkipsHandler(t *testing.T) {
	handler := &stubHandler{validParams: false}
	m := newMediator(handler, &stubPolicy{})

	_, _, err := m.Dispatch(context.Background(), command(domain.ModeExecute))
	require.Error(t, err)
	assert.Equal(t, domain.ErrParamValidation, domain.CodeOf(err))
	assert.Zero(t, handler.executions, "handler must not run with invalid params")
}

func TestDispatchSimulateReturnsPreview(t *testing.T) {
	handler := &stubHandler{validParams: true}
	m := newMediator(handler, &stubPolicy{})

	result, pending, err := m.Dispatch(context.Background(), command(domain.ModeSimulate))
	require.NoError(t, err)
	assert.Nil(t, pending)
	assert.True(t, result.DryRun())
	assert.Zero(t, handler.executions)
	assert.Equal(t, 1, handler.simulations)
}

func TestDispatchExecuteRunsHandler(t *testing.T) {
	handler := &stubHandler{validParams: true}
	m := newMediator(handler, &stubPolicy{})

	result, pending, err := m.Dispatch(context.Background(), command(domain.ModeExecute))
	require.NoError(t, err)
	assert.Nil(t, pending)
	assert.True(t, result.Success)
	assert.Equal(t, 1, handler.executions)
}

func TestDispatchConfirmHoldsExecutionUntilConfirmed(t *testing.T) {
	handler := &stubHandler{validParams: true}
	m := newMediator(handler, &stubPolicy{})

	preview, pending, err := m.Dispatch(context.Background(), command(domain.ModeConfirm))
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.True(t, preview.DryRun())
	assert.Equal(t, true, preview.Metadata["pending_confirmation"])
	assert.Zero(t, handler.executions, "nothing executes before confirmation")

	result, err := pending.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, handler.executions)
}

func TestPendingRejectNeverExecutes(t *testing.T) {
	handler := &stubHandler{validParams: true}
	m := newMediator(handler, &stubPolicy{})

	_, pending, err := m.Dispatch(context.Background(), command(domain.ModeConfirm))
	require.NoError(t, err)

	result := pending.Reject()
	assert.False(t, result.Success)
	assert.Equal(t, "execution cancelled", result.Error)
	assert.Zero(t, handler.executions)

	// resolution is sticky
	confirmed, err := pending.Confirm(context.Background())
	require.NoError(t, err)
	assert.False(t, confirmed.Success)
	assert.Zero(t, handler.executions)
}

func TestPendingConfirmIsIdempotent(t *testing.T) {
	handler := &stubHandler{validParams: true}
	m := newMediator(handler, &stubPolicy{})

	_, pending, err := m.Dispatch(context.Background(), command(domain.ModeConfirm))
	require.NoError(t, err)

	_, err = pending.Confirm(context.Background())
	require.NoError(t, err)
	_, err = pending.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, handler.executions)
}

func TestDispatchWrapsHandlerFailure(t *testing.T) {
	handler := &stubHandler{validParams: true, execErr: errors.New("kubectl not found")}
	m := newMediator(handler, &stubPolicy{})

	_, _, err := m.Dispatch(context.Background(), command(domain.ModeExecute))
	require.Error(t, err)
	assert.Equal(t, domain.ErrHandler, domain.CodeOf(err))
	assert.Contains(t, err.Error(), "kubectl not found")
}
