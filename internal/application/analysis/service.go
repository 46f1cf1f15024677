package analysis

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/lexplain/docanalyzer/internal/domain/ai"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

// Service runs the analyze pipeline:
// extract text -> (summary || clauses) -> risk annotation -> result.
// Only extraction is fatal; the later stages fall back to sentinel content.
// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	Extractor  documents.Extractor
	Summarizer *Summarizer
	Clauses    *ClauseExtractor
	Risks      *RiskAnnotator
}

func NewService(extractor documents.Extractor, client ai.Client, maxInputChars int) *Service {
	return &Service{
		Extractor:  extractor,
		Summarizer: NewSummarizer(client, maxInputChars),
		Clauses:    NewClauseExtractor(client, maxInputChars),
		Risks:      NewRiskAnnotator(client),
	}
}

// Analyze returns either a complete result or an error, never a partial result. If ctx ends
// while stages are running, the result is discarded and ctx's error returned.
func (s *Service) Analyze(ctx context.Context, req documents.AnalyzeRequest) (*documents.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	klog.V(6).Infof("[Analyze] extracting %s (%s)", req.Locator, req.MimeType)
	text, err := s.Extractor.Extract(ctx, req.Locator, req.MimeType)
	if err != nil {
		return nil, documents.Upstream(documents.StageExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, documents.Upstream(documents.StageExtraction, errors.New("no text extracted"))
	}

	result := &documents.AnalysisResult{OriginalText: text}

	var (
		summary    []string
		summaryErr error
		clauses    []documents.Clause
		clausesErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, summaryErr = s.Summarizer.Summarize(gctx, text)
		return nil
	})
	g.Go(func() error {
		clauses, clausesErr = s.Clauses.Extract(gctx, text)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if summaryErr != nil {
		klog.Warningf("[Analyze] summary degraded for %s: %v", req.Locator, summaryErr)
		result.Degraded = append(result.Degraded, documents.StageSummary)
	}

	if clausesErr != nil {
		klog.Warningf("[Analyze] clause extraction degraded for %s: %v", req.Locator, clausesErr)
		result.Degraded = append(result.Degraded, documents.StageClauses)
		clauses = MarkAll(clauses, documents.RiskError, JustificationNoAnalysis)
	} else {
		var riskErr error
		clauses, riskErr = s.Risks.Annotate(ctx, clauses)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if riskErr != nil {
			klog.Warningf("[Analyze] risk annotation degraded for %s: %v", req.Locator, riskErr)
			result.Degraded = append(result.Degraded, documents.StageRisk)
		}
	}

	result.Summary = summary
	result.Clauses = clauses
	klog.V(6).Infof("[Analyze] done %s: %d summary points, %d clauses, degraded=%v",
		req.Locator, len(summary), len(clauses), result.Degraded)
	return result, nil
}
