package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

// maxTexts bounds a single translate request.
const maxTexts = 1000

// LanguageValidator reports whether a target language code is acceptable.
type LanguageValidator func(code string) error

type Service struct {
	translator documents.Translator
	validate   LanguageValidator
}

func NewService(translator documents.Translator, validate LanguageValidator) *Service {
	return &Service{translator: translator, validate: validate}
}

// Translate returns one translation per input text, in input order. Blank texts are passed
// through untouched without being sent upstream.
func (s *Service) Translate(ctx context.Context, texts []string, target string) ([]string, error) {
	target = strings.TrimSpace(target)
	if len(texts) == 0 || target == "" {
		return nil, documents.Invalid("A list of texts and a target language are required")
	}
	if len(texts) > maxTexts {
		return nil, documents.Invalid("at most %d texts can be translated at once", maxTexts)
	}
	if s.validate != nil {
		if err := s.validate(target); err != nil {
			return nil, documents.Invalid("%v", err)
		}
	}

	out := make([]string, len(texts))
	var pending []string
	var index []int
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			out[i] = t
			continue
		}
		pending = append(pending, t)
		index = append(index, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	translated, err := s.translator.Translate(ctx, pending, target)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	if len(translated) != len(pending) {
		return nil, fmt.Errorf("translate: got %d results for %d texts", len(translated), len(pending))
	}
	for j, i := range index {
		out[i] = translated[j]
	}
	return out, nil
}
