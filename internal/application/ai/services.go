package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	domai "github.com/lexplain/docanalyzer/internal/domain/ai"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
	"github.com/lexplain/docanalyzer/internal/infra/ai/prompt"
	"github.com/lexplain/docanalyzer/internal/utils"
)

// Service answers free-form requests about a document the caller already holds as text.
type Service struct {
	client        domai.Client
	maxInputChars int
}

func NewService(client domai.Client, maxInputChars int) *Service {
	return &Service{client: client, maxInputChars: maxInputChars}
}

// Answer replies to question using only text.
func (s *Service) Answer(ctx context.Context, question, text string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" || strings.TrimSpace(text) == "" {
		return "", documents.Invalid("question and textContent are required")
	}
	raw, err := s.client.Generate(ctx, prompt.Question(prompt.Clip(text, s.maxInputChars), question))
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return strings.TrimSpace(utils.StripCodeFence(raw)), nil
}

// Checklist produces a plain-text checklist, one "[ ] item" per line.
func (s *Service) Checklist(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", documents.Invalid("textContent is required")
	}
	raw, err := s.client.Generate(ctx, prompt.Checklist(prompt.Clip(text, s.maxInputChars)))
	if err != nil {
		return "", fmt.Errorf("generate checklist: %w", err)
	}
	out := FormatChecklist(raw)
	if out == "" {
		return "", fmt.Errorf("generate checklist: %w", domai.ErrEmptyResponse)
	}
	return out, nil
}

var (
	checklistMarker = regexp.MustCompile(`^\s*(?:[-*+•]|\d+[.)])?\s*(?:\[[ xX]?\]|☐|☑)?\s*`)
	checklistNoise  = strings.NewReplacer("**", "", "__", "", "`", "")
)

// FormatChecklist normalizes model output to "[ ] item" lines. Lines ending in ':' are kept
// as section headings.
func FormatChecklist(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(utils.StripCodeFence(raw), "\n") {
		line = strings.TrimSpace(checklistNoise.Replace(line))
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, ":") {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}
		item := strings.TrimSpace(checklistMarker.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		b.WriteString("[ ] ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
	return b.String()
}
