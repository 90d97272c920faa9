package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// openAIProvider calls an OpenAI-compatible chat-completions endpoint.
// It covers the hosted OpenAI API and any gateway speaking the same format.
type openAIProvider struct {
	settings   domain.ProviderSettings
	chain      domain.LLMSettings
	httpClient *http.Client
}

func newOpenAIProvider(settings domain.ProviderSettings, chain domain.LLMSettings, client *http.Client) ports.Provider {
	return &openAIProvider{
		settings:   settings,
		chain:      chain,
		httpClient: client,
	}
}

func (p *openAIProvider) Name() string {
	return "openai"
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *openAIProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	apiKey := resolveAuth(p.settings.AuthEnvVar, "OPENAI_API_KEY")
	if apiKey == "" {
		return "", domain.Errorf(domain.ErrProvider, "missing API key: set %s or OPENAI_API_KEY", p.settings.AuthEnvVar)
	}

	payload := chatCompletionRequest{
		Model:     valueOrDefault(p.settings.ModelID, "gpt-4o"),
		MaxTokens: valueOrDefaultInt(maxTokens, p.chain.MaxTokens),
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.chain.Timeout())
	defer cancel()

	endpoint := valueOrDefault(p.settings.Endpoint, "https://api.openai.com/v1/chat/completions")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("authorization", "Bearer "+apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.NewError(domain.ErrProvider, "openai request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", domain.Errorf(domain.ErrProvider, "openai: %s", resp.Status)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", domain.NewError(domain.ErrProvider, "openai: malformed response body").WithCause(err)
	}
	if len(decoded.Choices) == 0 {
		return "", domain.NewError(domain.ErrProvider, "openai: empty completion")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

func resolveAuth(primary string, fallback string) string {
	if primary != "" {
		if value := os.Getenv(primary); value != "" {
			return value
		}
	}
	if fallback == "" {
		return ""
	}
	return os.Getenv(fallback)
}

func valueOrDefault(value string, def string) string {
	if value == "" {
		return def
	}
	return value
}

func valueOrDefaultInt(value int, def int) int {
	if value == 0 {
		return def
	}
	return value
}
