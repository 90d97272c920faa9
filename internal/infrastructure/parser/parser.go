// Package parser converts free-text operational requests into structured
// commands. A deterministic pattern table is tried first; unmatched input is
// delegated to the model provider chain and the response is validated
// strictly against the command schema. Model output is data, never code.
package parser

import (
	"context"
	"strings"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

const matchedConfidence = 0.8
const fallbackConfidence = 0.1

// Parser implements ports.IntentParser.
type Parser struct {
	patterns  []compiledEntry
	provider  ports.Provider
	maxTokens int
	logger    ports.Logger
}

// New builds a parser over the given pattern table. provider may be nil, in
// which case unmatched input degrades to the low-confidence fallback command.
func New(entries []PatternEntry, provider ports.Provider, maxTokens int, logger ports.Logger) (*Parser, error) {
	compiled, err := compilePatterns(entries)
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Parser{
		patterns:  compiled,
		provider:  provider,
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

// Parse implements ports.IntentParser. Pattern matches are deterministic:
// entries are evaluated in registration order and the first match wins.
func (p *Parser) Parse(ctx context.Context, text string) (domain.Command, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	for _, entry := range p.patterns {
		match := entry.re.FindStringSubmatch(normalized)
		if match == nil {
			continue
		}
		return domain.Command{
			Intent:     entry.intent,
			Category:   entry.category,
			Parameters: captureParams(entry.re, match),
			RawInput:   normalized,
			Confidence: matchedConfidence,
		}, nil
	}

	if p.provider == nil {
		return p.fallbackCommand(normalized), nil
	}

	return p.parseWithProvider(ctx, normalized)
}

func (p *Parser) parseWithProvider(ctx context.Context, text string) (domain.Command, error) {
	p.logger.Debug("no pattern matched, delegating to provider", map[string]any{
		"provider": p.provider.Name(),
	})

	response, err := p.provider.Generate(ctx, buildInstructionalPrompt(text), p.maxTokens)
	if err != nil {
		// A provider-chain exhaustion keeps its own failure class so callers
		// can tell a model outage from malformed model output.
		if domain.IsCode(err, domain.ErrProvider) {
			return domain.Command{}, err
		}
		return domain.Command{}, domain.NewError(domain.ErrParse, "provider chain failed").WithCause(err)
	}
	if strings.TrimSpace(response) == "" {
		return p.fallbackCommand(text), nil
	}

	parsed, err := decodeModelResponse(response)
	if err != nil {
		return domain.Command{}, err
	}

	return domain.Command{
		Intent:     parsed.Action,
		Category:   domain.TaskCategory(parsed.Category),
		Parameters: parsed.Parameters,
		RawInput:   text,
		Confidence: matchedConfidence,
	}, nil
}

func (p *Parser) fallbackCommand(text string) domain.Command {
	return domain.Command{
		Intent:     "unknown",
		Category:   domain.CategoryFallback,
		Parameters: map[string]string{},
		RawInput:   text,
		Confidence: fallbackConfidence,
	}
}

var _ ports.IntentParser = (*Parser)(nil)
