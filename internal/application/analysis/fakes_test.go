package analysis

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lexplain/docanalyzer/internal/domain/ai"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

type reply struct {
	text string
	err  error
}

// scriptedAI answers each pipeline stage with a canned reply, recognised from the prompt.
type scriptedAI struct {
	summary, clauses, risk reply

	mu      sync.Mutex
	prompts map[documents.Stage][]ai.Prompt
	calls   int32
	// block makes every call wait for ctx to end
	block bool
}

func stageOf(p ai.Prompt) documents.Stage {
	switch {
	case strings.Contains(p.User, "Summarize"):
		return documents.StageSummary
	case strings.Contains(p.User, "Identify the important clauses"):
		return documents.StageClauses
	case strings.Contains(p.User, "Assess how risky"):
		return documents.StageRisk
	}
	return ""
}

func (f *scriptedAI) Generate(ctx context.Context, p ai.Prompt) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	stage := stageOf(p)

	f.mu.Lock()
	if f.prompts == nil {
		f.prompts = make(map[documents.Stage][]ai.Prompt)
	}
	f.prompts[stage] = append(f.prompts[stage], p)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	var r reply
	switch stage {
	case documents.StageSummary:
		r = f.summary
	case documents.StageClauses:
		r = f.clauses
	case documents.StageRisk:
		r = f.risk
	}
	return r.text, r.err
}

func (f *scriptedAI) callsFor(stage documents.Stage) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts[stage])
}

type fakeExtractor struct {
	text  string
	err   error
	calls int32
	seen  []documents.Locator
}

func (f *fakeExtractor) Extract(_ context.Context, loc documents.Locator, mimeType string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.seen = append(f.seen, loc)
	return f.text, f.err
}
