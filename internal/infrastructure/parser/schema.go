package parser

import (
	"encoding/json"
	"strings"

	"github.com/doeshing/opsgpt/internal/domain"
)

// buildInstructionalPrompt encodes the target schema the model must produce.
// The schema is fixed; the only variable part is the trailing input text.
func buildInstructionalPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are a DevOps command parser.\n")
	b.WriteString("Respond with a single JSON object and nothing else, using this schema:\n")
	b.WriteString(`{"action": "<intent identifier>", "category": "<one of: `)
	for i, c := range domain.Categories() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(c))
	}
	b.WriteString(`>", "parameters": {"<key>": "<value>"}, "context": {"<key>": "<value>"}}`)
	b.WriteString("\n\nCommand to parse: ")
	b.WriteString(text)
	return b.String()
}

// modelCommand is the strict shape a model response must satisfy.
type modelCommand struct {
	Action     string            `json:"action"`
	Category   string            `json:"category"`
	Parameters map[string]string `json:"parameters"`
	Context    map[string]string `json:"context"`
}

// decodeModelResponse validates the generated text against the schema.
// Any deviation fails closed with a PARSE_FAILED error; the response is
// never evaluated as code or expressions.
func decodeModelResponse(response string) (modelCommand, error) {
	raw := extractJSONObject(response)
	if raw == "" {
		return modelCommand{}, domain.NewError(domain.ErrParse, "response contains no JSON object")
	}

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.DisallowUnknownFields()

	var parsed modelCommand
	if err := decoder.Decode(&parsed); err != nil {
		return modelCommand{}, domain.NewError(domain.ErrParse, "response is not schema-conforming JSON").WithCause(err)
	}

	if parsed.Action == "" {
		return modelCommand{}, domain.NewError(domain.ErrParse, "response is missing required field: action")
	}
	if !domain.ValidCategory(domain.TaskCategory(parsed.Category)) {
		return modelCommand{}, domain.Errorf(domain.ErrParse, "response category %q is not a taxonomy member", parsed.Category)
	}
	if parsed.Parameters == nil {
		parsed.Parameters = map[string]string{}
	}
	return parsed, nil
}

// extractJSONObject returns the first balanced top-level JSON object in text.
// Models frequently wrap the object in prose or code fences.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
