package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexplain/docanalyzer/internal/domain/ai"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
	"github.com/lexplain/docanalyzer/internal/infra/ai/prompt"
	"github.com/lexplain/docanalyzer/internal/utils"
)

const (
	JustificationMissing    = "Assessment not returned."
	JustificationFailed     = "Risk assessment failed."
	JustificationNoAnalysis = "Clause extraction failed."
)

// RiskAnnotator scores every clause of one analysis in a single batched model call.
type RiskAnnotator struct {
	client ai.Client
}

func NewRiskAnnotator(client ai.Client) *RiskAnnotator {
	return &RiskAnnotator{client: client}
}

// Annotate returns a copy of clauses with risk fields set. On a failed call or unparsable
// reply every clause is marked Error and the error is returned alongside.
func (a *RiskAnnotator) Annotate(ctx context.Context, clauses []documents.Clause) ([]documents.Clause, error) {
	if len(clauses) == 0 {
		return clauses, nil
	}
	refs := make([]prompt.ClauseRef, len(clauses))
	for i, c := range clauses {
		refs[i] = prompt.ClauseRef{ID: c.ID, Title: c.Title}
	}

	raw, err := a.client.Generate(ctx, prompt.Risk(utils.ToJSON(refs)))
	if err != nil {
		return MarkAll(clauses, documents.RiskError, JustificationFailed), documents.Upstream(documents.StageRisk, err)
	}
	assessments, err := ParseAssessments(raw)
	if err != nil {
		return MarkAll(clauses, documents.RiskError, JustificationFailed), documents.Upstream(documents.StageRisk, err)
	}
	return ApplyAssessments(clauses, assessments), nil
}

type riskPayload struct {
	Assessments *[]struct {
		ID            looseID `json:"id"`
		RiskLevel     string  `json:"risk_level"`
		Justification string  `json:"justification"`
	} `json:"risk_assessments"`
}

// ParseAssessments decodes the model's risk object. A reply without a risk_assessments array
// is a decode failure.
func ParseAssessments(raw string) ([]documents.RiskAssessment, error) {
	var payload riskPayload
	if err := utils.DecodeObject(raw, &payload, "risk_assessments"); err != nil {
		return nil, fmt.Errorf("%w: %v", documents.ErrDecode, err)
	}
	if payload.Assessments == nil {
		return nil, fmt.Errorf("%w: risk_assessments missing", documents.ErrDecode)
	}
	out := make([]documents.RiskAssessment, 0, len(*payload.Assessments))
	for _, a := range *payload.Assessments {
		out = append(out, documents.RiskAssessment{
			ID:            strings.TrimSpace(string(a.ID)),
			RiskLevel:     a.RiskLevel,
			Justification: strings.TrimSpace(a.Justification),
		})
	}
	return out, nil
}

// ApplyAssessments matches assessments to clauses by id. Clause order is kept, the first
// assessment for an id wins, ids the model invented are ignored and clauses it skipped get
// Unknown.
func ApplyAssessments(clauses []documents.Clause, assessments []documents.RiskAssessment) []documents.Clause {
	byID := make(map[string]documents.RiskAssessment, len(assessments))
	for _, a := range assessments {
		if _, dup := byID[a.ID]; !dup {
			byID[a.ID] = a
		}
	}

	out := make([]documents.Clause, len(clauses))
	for i, c := range clauses {
		a, ok := byID[c.ID]
		if !ok {
			out[i] = c.WithRisk(documents.RiskUnknown, JustificationMissing)
			continue
		}
		justification := a.Justification
		if justification == "" {
			justification = JustificationMissing
		}
		out[i] = c.WithRisk(documents.ParseRiskLevel(a.RiskLevel), justification)
	}
	return out
}

// MarkAll returns a copy of clauses with the same risk on every clause.
func MarkAll(clauses []documents.Clause, level documents.RiskLevel, justification string) []documents.Clause {
	out := make([]documents.Clause, len(clauses))
	for i, c := range clauses {
		out[i] = c.WithRisk(level, justification)
	}
	return out
}
