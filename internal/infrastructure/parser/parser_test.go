package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/pkg/logger"
)

type scriptedProvider struct {
	response string
	err      error
	calls    int
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Generate(context.Context, string, int) (string, error) {
	s.calls++
	return s.response, s.err
}

func newTestParser(t *testing.T, provider *scriptedProvider) *Parser {
	t.Helper()
	var p *Parser
	var err error
	if provider == nil {
		p, err = New(DefaultPatterns(), nil, 500, logger.NewNop())
	} else {
		p, err = New(DefaultPatterns(), provider, 500, logger.NewNop())
	}
	require.NoError(t, err)
	return p
}

func TestParsePatternTable(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantIntent string
		wantCat    domain.TaskCategory
		wantParams map[string]string
	}{
		{
			name:       "show logs",
			input:      "show logs from frontend",
			wantIntent: "show_logs",
			wantCat:    domain.CategoryTroubleshooting,
			wantParams: map[string]string{"service": "frontend"},
		},
		{
			name:       "restart service",
			input:      "restart the payments service",
			wantIntent: "restart_service",
			wantCat:    domain.CategoryTroubleshooting,
			wantParams: map[string]string{"service": "payments"},
		},
		{
			name:       "trigger pipeline",
			input:      "trigger deploy pipeline",
			wantIntent: "trigger_pipeline",
			wantCat:    domain.CategoryCICD,
			wantParams: map[string]string{"pipeline": "deploy"},
		},
		{
			name:       "create instance",
			input:      "create ec2 instance",
			wantIntent: "create_instance",
			wantCat:    domain.CategoryCloudProvisioning,
			wantParams: map[string]string{"resource_type": "ec2"},
		},
		{
			name:       "cost analysis",
			input:      "show cost for storage",
			wantIntent: "analyze_cost",
			wantCat:    domain.CategoryCostUsage,
			wantParams: map[string]string{"service": "storage"},
		},
		{
			name:       "security scan",
			input:      "check open ports",
			wantIntent: "security_scan",
			wantCat:    domain.CategorySecurityCompliance,
			wantParams: map[string]string{"security_type": "ports"},
		},
		{
			name:       "check alerts",
			input:      "check alerts",
			wantIntent: "check_alerts",
			wantCat:    domain.CategoryMonitoringAlerts,
			wantParams: map[string]string{},
		},
	}

	p := newTestParser(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := p.Parse(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIntent, cmd.Intent)
			assert.Equal(t, tt.wantCat, cmd.Category)
			assert.Equal(t, tt.wantParams, cmd.Parameters)
			assert.InDelta(t, 0.8, cmd.Confidence, 1e-9)
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	p := newTestParser(t, nil)
	first, err := p.Parse(context.Background(), "show logs from frontend")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := p.Parse(context.Background(), "show logs from frontend")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParseFallbackCommandWithoutProvider(t *testing.T) {
	p := newTestParser(t, nil)
	cmd, err := p.Parse(context.Background(), "please do the thing")
	require.NoError(t, err)
	assert.Equal(t, "unknown", cmd.Intent)
	assert.Equal(t, domain.CategoryFallback, cmd.Category)
	assert.InDelta(t, 0.1, cmd.Confidence, 1e-9)
}

func TestParseDelegatesToProviderOnce(t *testing.T) {
	provider := &scriptedProvider{
		response: `{"action": "fetch_logs", "category": "troubleshooting", "parameters": {"service": "frontend"}, "context": {}}`,
	}
	p := newTestParser(t, provider)

	cmd, err := p.Parse(context.Background(), "please do the thing")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "fetch_logs", cmd.Intent)
	assert.Equal(t, domain.CategoryTroubleshooting, cmd.Category)
	assert.Equal(t, "frontend", cmd.Parameters["service"])
}

func TestParseRejectsMalformedModelResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose only", "sure, I'd restart the frontend for you"},
		{"invalid category", `{"action": "x", "category": "mainframe", "parameters": {}, "context": {}}`},
		{"missing action", `{"action": "", "category": "cicd", "parameters": {}, "context": {}}`},
		{"unknown field", `{"action": "x", "category": "cicd", "parameters": {}, "context": {}, "shell": "rm -rf /"}`},
		{"wrong parameter type", `{"action": "x", "category": "cicd", "parameters": {"replicas": 3}, "context": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser(t, &scriptedProvider{response: tt.response})
			_, err := p.Parse(context.Background(), "please do the thing")
			require.Error(t, err)
			assert.Equal(t, domain.ErrParse, domain.CodeOf(err))
		})
	}
}

func TestParseEmptyModelResponseYieldsFallback(t *testing.T) {
	p := newTestParser(t, &scriptedProvider{response: "   "})
	cmd, err := p.Parse(context.Background(), "please do the thing")
	require.NoError(t, err)
	assert.Equal(t, "unknown", cmd.Intent)
	assert.InDelta(t, 0.1, cmd.Confidence, 1e-9)
}

func TestParseProviderExhaustionKeepsProviderCode(t *testing.T) {
	providerErr := domain.NewError(domain.ErrProvider, "both providers failed")
	p := newTestParser(t, &scriptedProvider{err: providerErr})
	_, err := p.Parse(context.Background(), "please do the thing")
	require.Error(t, err)
	assert.Equal(t, domain.ErrProvider, domain.CodeOf(err))
}

func TestParseUncodedProviderFailureIsParseError(t *testing.T) {
	p := newTestParser(t, &scriptedProvider{err: errors.New("connection reset")})
	_, err := p.Parse(context.Background(), "please do the thing")
	require.Error(t, err)
	assert.Equal(t, domain.ErrParse, domain.CodeOf(err))
}

func TestExtractJSONObjectFromFencedResponse(t *testing.T) {
	response := "Here you go:\n```json\n{\"action\": \"scale\", \"category\": \"cicd\", \"parameters\": {}, \"context\": {}}\n```"
	parsed, err := decodeModelResponse(response)
	require.NoError(t, err)
	assert.Equal(t, "scale", parsed.Action)
}
