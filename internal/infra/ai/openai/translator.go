package openai

import (
	"context"
	"fmt"

	"github.com/lexplain/docanalyzer/internal/domain/ai"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
	"github.com/lexplain/docanalyzer/internal/infra/ai/prompt"
	"github.com/lexplain/docanalyzer/internal/utils"
)

// Translator translates through the generative model instead of a dedicated translation API.
type Translator struct {
	client ai.Client
}

func NewTranslator(client ai.Client) *Translator {
	return &Translator{client: client}
}

func (t *Translator) Translate(ctx context.Context, texts []string, target string) ([]string, error) {
	raw, err := t.client.Generate(ctx, prompt.Translate(utils.ToJSON(texts), target))
	if err != nil {
		return nil, err
	}
	var out struct {
		Translations []string `json:"translations"`
	}
	if err := utils.DecodeObject(raw, &out, "translations"); err != nil {
		return nil, fmt.Errorf("%w: %v", documents.ErrDecode, err)
	}
	if len(out.Translations) != len(texts) {
		return nil, fmt.Errorf("%w: got %d translations for %d texts", documents.ErrDecode, len(out.Translations), len(texts))
	}
	return out.Translations, nil
}
