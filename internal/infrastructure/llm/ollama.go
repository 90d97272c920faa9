package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// ollamaProvider calls a locally reachable Ollama server.
type ollamaProvider struct {
	settings   domain.ProviderSettings
	chain      domain.LLMSettings
	httpClient *http.Client
	logger     ports.Logger

	warmOnce sync.Once
}

func newOllamaProvider(settings domain.ProviderSettings, chain domain.LLMSettings, client *http.Client, logger ports.Logger) ports.Provider {
	return &ollamaProvider{
		settings:   settings,
		chain:      chain,
		httpClient: client,
		logger:     logger,
	}
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) baseURL() string {
	return strings.TrimRight(valueOrDefault(p.settings.Endpoint, "http://localhost:11434"), "/")
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (p *ollamaProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	// Best-effort model pull before the first call. A failed pull is a
	// warning, not an error: the generate call decides success.
	p.warmOnce.Do(func() { p.pullModel(ctx) })

	payload := ollamaGenerateRequest{
		Model:  valueOrDefault(p.settings.ModelID, "llama2"),
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"num_predict": valueOrDefaultInt(maxTokens, p.chain.MaxTokens),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.chain.Timeout())
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL()+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("content-type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.NewError(domain.ErrProvider, "ollama request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", domain.Errorf(domain.ErrProvider, "ollama: %s", resp.Status)
	}

	var decoded ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", domain.NewError(domain.ErrProvider, "ollama: malformed response body").WithCause(err)
	}
	return strings.TrimSpace(decoded.Response), nil
}

func (p *ollamaProvider) pullModel(ctx context.Context) {
	body, err := json.Marshal(map[string]string{"name": valueOrDefault(p.settings.ModelID, "llama2")})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL()+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("content-type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("ollama model pull failed", map[string]any{"error": err.Error()})
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		p.logger.Warn("ollama model pull failed", map[string]any{"status": resp.Status})
	}
}
