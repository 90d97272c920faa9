package llm

import (
	"context"
	"fmt"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// Fallback composes a primary and secondary provider. On any primary failure
// it retries the identical prompt against the secondary; when both fail the
// returned error carries both underlying causes. The secondary is never
// itself a Fallback, so exactly one hop can occur.
type Fallback struct {
	primary   ports.Provider
	secondary ports.Provider
	logger    ports.Logger
}

// NewFallback wires the composite.
func NewFallback(primary, secondary ports.Provider, logger ports.Logger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// Name reports "<primary>+<secondary>" for observability.
func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

// Generate implements ports.Provider.
func (f *Fallback) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	text, primaryErr := f.primary.Generate(ctx, prompt, maxTokens)
	if primaryErr == nil {
		return text, nil
	}

	f.logger.Warn("primary provider failed, falling back", map[string]any{
		"primary":   f.primary.Name(),
		"secondary": f.secondary.Name(),
		"error":     primaryErr.Error(),
	})

	text, secondaryErr := f.secondary.Generate(ctx, prompt, maxTokens)
	if secondaryErr == nil {
		return text, nil
	}

	return "", domain.NewError(domain.ErrProvider, "both providers failed").
		WithCause(fmt.Errorf("primary %s: %w; secondary %s: %v",
			f.primary.Name(), primaryErr, f.secondary.Name(), secondaryErr))
}

var _ ports.Provider = (*Fallback)(nil)
