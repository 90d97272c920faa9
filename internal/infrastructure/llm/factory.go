// Package llm implements the model provider chain: concrete text-generation
// providers plus the single-hop fallback composite that joins them.
package llm

import (
	"net/http"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// Factory builds provider chains from configuration.
type Factory struct {
	httpClient *http.Client
	logger     ports.Logger
}

// NewFactory creates a factory sharing one HTTP client across providers.
// The per-call timeout is applied through the request context, not the client.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Build implements ports.ProviderFactory. When fallback is enabled the
// primary is wrapped with the secondary; the secondary itself is never
// wrapped again, so at most one fallback hop can occur.
func (f *Factory) Build(settings domain.LLMSettings) (ports.Provider, error) {
	primary, err := f.forSettings(settings.Primary, settings)
	if err != nil {
		return nil, err
	}
	if !settings.FallbackEnabled {
		return primary, nil
	}
	secondary, err := f.forSettings(settings.Secondary, settings)
	if err != nil {
		return nil, err
	}
	return NewFallback(primary, secondary, f.logger), nil
}

func (f *Factory) forSettings(p domain.ProviderSettings, chain domain.LLMSettings) (ports.Provider, error) {
	switch p.Kind {
	case domain.ProviderKindOpenAI:
		return newOpenAIProvider(p, chain, f.httpClient), nil
	case domain.ProviderKindOllama:
		return newOllamaProvider(p, chain, f.httpClient, f.logger), nil
	default:
		return nil, domain.Errorf(domain.ErrProvider, "unsupported provider kind: %s", p.Kind)
	}
}

var _ ports.ProviderFactory = (*Factory)(nil)
