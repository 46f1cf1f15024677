package analysis

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

func sampleClauses() []documents.Clause {
	return []documents.Clause{
		{ID: "c1", Title: "Term", Explanation: "Two years."},
		{ID: "c2", Title: "Fees", Explanation: "Monthly."},
		{ID: "c3", Title: "Exit", Explanation: "Ninety days notice."},
	}
}

const riskReply = `{"risk_assessments":[
	{"id":"c2","risk_level":"high","justification":"Late fees compound."},
	{"id":"c1","risk_level":"Low","justification":"Standard term."},
	{"id":"c9","risk_level":"High","justification":"Invented."},
	{"id":"c2","risk_level":"Low","justification":"Duplicate ignored."}
]}`

func TestAnnotateMatchesByID(t *testing.T) {
	fake := &scriptedAI{risk: reply{text: riskReply}}
	out, err := NewRiskAnnotator(fake).Annotate(context.Background(), sampleClauses())
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, documents.RiskLow, out[0].RiskLevel)
	assert.Equal(t, documents.RiskHigh, out[1].RiskLevel)
	assert.Equal(t, "Late fees compound.", out[1].RiskJustification)
	assert.Equal(t, documents.RiskUnknown, out[2].RiskLevel)
	assert.Equal(t, JustificationMissing, out[2].RiskJustification)
	assert.Equal(t, 1, fake.callsFor(documents.StageRisk), "one batched call")
}

func TestAnnotateIsOrderIndependent(t *testing.T) {
	byID := func(cs []documents.Clause) map[string]documents.Clause {
		m := make(map[string]documents.Clause)
		for _, c := range cs {
			m[c.ID] = c
		}
		return m
	}

	in := sampleClauses()
	first, err := NewRiskAnnotator(&scriptedAI{risk: reply{text: riskReply}}).Annotate(context.Background(), in)
	require.NoError(t, err)

	shuffled := append([]documents.Clause(nil), in...)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	second, err := NewRiskAnnotator(&scriptedAI{risk: reply{text: riskReply}}).Annotate(context.Background(), shuffled)
	require.NoError(t, err)

	assert.Equal(t, byID(first), byID(second))
	for i := range shuffled {
		assert.Equal(t, shuffled[i].ID, second[i].ID, "output follows input order")
	}
}

func TestAnnotateWholeBatchFailsTogether(t *testing.T) {
	for name, r := range map[string]reply{
		"call fails":       {err: errors.New("timeout")},
		"not json":         {text: "All clauses look fine."},
		"missing array":    {text: `{"assessments":[{"id":"c1","risk_level":"Low"}]}`},
		"wrong array type": {text: `{"risk_assessments":"none"}`},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := NewRiskAnnotator(&scriptedAI{risk: r}).Annotate(context.Background(), sampleClauses())
			require.Error(t, err)
			require.Len(t, out, 3)
			for _, c := range out {
				assert.Equal(t, documents.RiskError, c.RiskLevel)
				assert.Equal(t, JustificationFailed, c.RiskJustification)
			}
		})
	}
}

func TestApplyAssessmentsNormalizesValues(t *testing.T) {
	out := ApplyAssessments(sampleClauses()[:2], []documents.RiskAssessment{
		{ID: "c1", RiskLevel: "catastrophic", Justification: "Odd level."},
		{ID: "c2", RiskLevel: "Medium"},
	})
	assert.Equal(t, documents.RiskUnknown, out[0].RiskLevel)
	assert.Equal(t, "Odd level.", out[0].RiskJustification)
	assert.Equal(t, documents.RiskMedium, out[1].RiskLevel)
	assert.Equal(t, JustificationMissing, out[1].RiskJustification)
}

func TestAnnotateEmptyInputMakesNoCall(t *testing.T) {
	fake := &scriptedAI{}
	out, err := NewRiskAnnotator(fake).Annotate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, fake.calls)
}

func TestAnnotateDoesNotMutateInput(t *testing.T) {
	in := sampleClauses()
	_, err := NewRiskAnnotator(&scriptedAI{risk: reply{text: riskReply}}).Annotate(context.Background(), in)
	require.NoError(t, err)
	for _, c := range in {
		assert.Empty(t, c.RiskLevel)
		assert.Empty(t, c.RiskJustification)
	}
}
