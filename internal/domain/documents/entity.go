package documents

import "strings"

// Locator is an opaque reference to a stored blob, e.g. gs://bucket/key.
type Locator string

// RiskLevel enum
type RiskLevel string

const (
	RiskLow     RiskLevel = "Low"
	RiskMedium  RiskLevel = "Medium"
	RiskHigh    RiskLevel = "High"
	RiskUnknown RiskLevel = "Unknown"
	RiskError   RiskLevel = "Error"
)

// ParseRiskLevel matches Low/Medium/High case-insensitively. Anything else is Unknown.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow
	case "medium":
		return RiskMedium
	case "high":
		return RiskHigh
	default:
		return RiskUnknown
	}
}

// Clause is one clause of an analysed document. ID is only unique inside a single
// analysis response and exists to correlate risk assessments with their clause.
type Clause struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Explanation       string    `json:"explanation"`
	RiskLevel         RiskLevel `json:"riskLevel,omitempty"`
	RiskJustification string    `json:"riskJustification,omitempty"`
}

// WithRisk returns a copy of c carrying the given level and justification.
// Both fields are always set together.
func (c Clause) WithRisk(level RiskLevel, justification string) Clause {
	c.RiskLevel = level
	c.RiskJustification = justification
	return c
}

// RiskAssessment is one entry of the risk annotator's structured reply.
type RiskAssessment struct {
	ID            string `json:"id"`
	RiskLevel     string `json:"risk_level"`
	Justification string `json:"justification"`
}

// Stage names a step of the analyze pipeline.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageSummary    Stage = "summary"
	StageClauses    Stage = "clauses"
	StageRisk       Stage = "risk"
)

// AnalysisResult is the aggregate returned by one analyze request.
type AnalysisResult struct {
	Summary      []string `json:"summary"`
	OriginalText string   `json:"originalText"`
	Clauses      []Clause `json:"clauses"`

	// Degraded lists the stages that fell back to sentinel content.
	Degraded []Stage `json:"-"`
}

// AnalyzeRequest carries the blob to analyse.
type AnalyzeRequest struct {
	Locator  Locator
	MimeType string
}

// Validate checks both fields are present.
func (r AnalyzeRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(string(r.Locator)) == "" {
		missing = append(missing, "gcs_uri")
	}
	if strings.TrimSpace(r.MimeType) == "" {
		missing = append(missing, "mime_type")
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		return Invalid("%s is required", missing[0])
	default:
		return Invalid("%s are required", strings.Join(missing, " and "))
	}
}
