package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

type contentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Parser extracts structured resume data by prompting the model for strict
// JSON and decoding the reply.
type Parser struct {
	gen contentGenerator
}

var _ ports.ResumeParser = (*Parser)(nil)

func NewParser(gen contentGenerator) *Parser {
	return &Parser{gen: gen}
}

const parsePromptHeader = `Extract the following resume into strict JSON with this shape:
{"summary": "...", "experience": [{"company": "...", "title": "...", "duration": "...", "bullets": ["..."]}],
"education": [{"institution": "...", "degree": "...", "year": "..."}],
"skills": {"technical": ["..."], "tools": ["..."], "soft": ["..."]},
"certifications": ["..."], "extracted_keywords": ["..."]}
Respond with the JSON object only, no prose and no code fences.

Resume:
`

func (p *Parser) Parse(ctx context.Context, raw string) (domain.ParsedResume, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ParsedResume{}, errors.New("resume text is empty")
	}

	reply, err := p.gen.Generate(ctx, parsePromptHeader+raw)
	if err != nil {
		return domain.ParsedResume{}, err
	}

	var parsed domain.ParsedResume
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err != nil {
		return domain.ParsedResume{}, fmt.Errorf("decode parsed resume: %w", err)
	}
	return parsed, nil
}

// extractJSON strips markdown code fences that models wrap JSON in despite
// instructions.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}
