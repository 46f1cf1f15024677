package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/lexplain/docanalyzer/internal/domain/ai"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
	"github.com/lexplain/docanalyzer/internal/infra/ai/prompt"
	"github.com/lexplain/docanalyzer/internal/utils"
)

// ErrorClauseID marks the sentinel clause returned when clause extraction fails.
const ErrorClauseID = "error"

// ErrNoClauses is returned when the model answered with a well-formed but empty clause list.
var ErrNoClauses = errors.New("no clauses identified")

// ErrorClause builds the sentinel clause.
func ErrorClause(cause error) documents.Clause {
	explanation := "The clauses of this document could not be analysed automatically. Please try again later."
	if errors.Is(cause, ErrNoClauses) {
		explanation = "No distinct clauses could be identified in this document."
	}
	return documents.Clause{
		ID:          ErrorClauseID,
		Title:       "Clause analysis unavailable",
		Explanation: explanation,
	}
}

// IsErrorClause reports whether clauses is the single sentinel clause.
func IsErrorClause(clauses []documents.Clause) bool {
	return len(clauses) == 1 && clauses[0].ID == ErrorClauseID
}

// ClauseExtractor asks the model for the document's clauses with correlation ids.
type ClauseExtractor struct {
	client        ai.Client
	maxInputChars int
}

func NewClauseExtractor(client ai.Client, maxInputChars int) *ClauseExtractor {
	return &ClauseExtractor{client: client, maxInputChars: maxInputChars}
}

// Extract always returns at least one clause. A non-nil error means the result is the
// sentinel from ErrorClause.
func (e *ClauseExtractor) Extract(ctx context.Context, text string) ([]documents.Clause, error) {
	raw, err := e.client.Generate(ctx, prompt.Clauses(prompt.Clip(text, e.maxInputChars)))
	if err != nil {
		return []documents.Clause{ErrorClause(err)}, documents.Upstream(documents.StageClauses, err)
	}
	clauses, err := ParseClauses(raw)
	if err != nil {
		return []documents.Clause{ErrorClause(err)}, documents.Upstream(documents.StageClauses, err)
	}
	return clauses, nil
}

type clausePayload struct {
	Clauses []struct {
		ID          looseID `json:"id"`
		Title       string  `json:"title"`
		Explanation string  `json:"explanation"`
	} `json:"clauses"`
}

// ParseClauses decodes the model's clause object. Entries without a title or explanation are
// dropped, missing ids are assigned and duplicate ids are made unique so every clause can be
// correlated with its risk assessment.
func ParseClauses(raw string) ([]documents.Clause, error) {
	var payload clausePayload
	if err := utils.DecodeObject(raw, &payload, "clauses"); err != nil {
		return nil, fmt.Errorf("%w: %v", documents.ErrDecode, err)
	}

	seen := make(map[string]bool, len(payload.Clauses))
	clauses := make([]documents.Clause, 0, len(payload.Clauses))
	for i, c := range payload.Clauses {
		title := strings.TrimSpace(c.Title)
		explanation := strings.TrimSpace(c.Explanation)
		if title == "" || explanation == "" {
			klog.V(6).Infof("[ClauseExtractor] dropping incomplete clause #%d (id=%q)", i+1, c.ID)
			continue
		}
		clauses = append(clauses, documents.Clause{
			ID:          uniqueID(strings.TrimSpace(string(c.ID)), len(clauses)+1, seen),
			Title:       title,
			Explanation: explanation,
		})
	}
	if len(clauses) == 0 {
		return nil, ErrNoClauses
	}
	return clauses, nil
}
