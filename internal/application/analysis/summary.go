package analysis

import (
	"context"

	"github.com/lexplain/docanalyzer/internal/domain/ai"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
	"github.com/lexplain/docanalyzer/internal/infra/ai/prompt"
	"github.com/lexplain/docanalyzer/internal/utils"
)

// SummaryUnavailable is the single bullet returned when no summary could be produced.
const SummaryUnavailable = "Summary could not be generated for this document."

// Summarizer turns document text into a few plain bullet points.
type Summarizer struct {
	client        ai.Client
	maxInputChars int
}

func NewSummarizer(client ai.Client, maxInputChars int) *Summarizer {
	return &Summarizer{client: client, maxInputChars: maxInputChars}
}

// Summarize always returns a usable list. A non-nil error means the list is the
// SummaryUnavailable sentinel.
func (s *Summarizer) Summarize(ctx context.Context, text string) ([]string, error) {
	raw, err := s.client.Generate(ctx, prompt.Summary(prompt.Clip(text, s.maxInputChars)))
	if err != nil {
		return []string{SummaryUnavailable}, documents.Upstream(documents.StageSummary, err)
	}
	points := utils.BulletPoints(raw)
	if len(points) == 0 {
		return []string{SummaryUnavailable}, documents.Upstream(documents.StageSummary, ai.ErrEmptyResponse)
	}
	return points, nil
}
