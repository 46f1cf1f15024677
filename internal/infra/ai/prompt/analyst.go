package prompt

import (
	"fmt"

	"github.com/lexplain/docanalyzer/internal/domain/ai"
)

const legalAnalyst = "You are a legal analyst who explains contracts and other legal documents to people without legal training. Be accurate, neutral and concise."

// Summary asks for a handful of key points as a markdown list. The count is advisory.
func Summary(document string) ai.Prompt {
	return ai.Prompt{
		System: legalAnalyst,
		User: fmt.Sprintf(`Summarize the following legal document in 3 to 5 key points.
Answer with a markdown bullet list only, one point per bullet, in plain language.

Document:
%s`, document),
	}
}

// Clauses asks for the document's clauses as a JSON object.
func Clauses(document string) ai.Prompt {
	return ai.Prompt{
		System: legalAnalyst + ` You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Schema:
{
  "clauses": [
    {"id": "<short unique id, e.g. clause-1>", "title": "<clause heading as found in the document>", "explanation": "<plain-language explanation of what the clause means>"}
  ]
}`,
		User: fmt.Sprintf("Identify the important clauses of this document and explain each one.\n\nDocument:\n%s", document),
		JSON: true,
	}
}

// ClauseRef is what the risk prompt sees of a clause.
type ClauseRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Risk asks for one risk assessment per clause, all clauses in a single request.
func Risk(clausesJSON string) ai.Prompt {
	return ai.Prompt{
		System: legalAnalyst + ` You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Return exactly one assessment per input clause, reusing the clause id unchanged.
- risk_level is one of: Low, Medium, High.
- justification is a single sentence.

Schema:
{
  "risk_assessments": [
    {"id": "<clause id>", "risk_level": "<Low|Medium|High>", "justification": "<one sentence>"}
  ]
}`,
		User: fmt.Sprintf("Assess how risky each of these clauses is for the person signing the document.\n\nClauses:\n%s", clausesJSON),
		JSON: true,
	}
}

// Question answers a question using only the document.
func Question(document, question string) ai.Prompt {
	return ai.Prompt{
		System: legalAnalyst + " Answer using only the document provided. If the document does not contain the answer, say so.",
		User:   fmt.Sprintf("Document:\n%s\n\nQuestion: %s", document, question),
	}
}

// Checklist asks for a plain-text action checklist.
func Checklist(document string) ai.Prompt {
	return ai.Prompt{
		System: legalAnalyst,
		User: fmt.Sprintf(`Create a checklist of the obligations, deadlines and things to verify before signing this document.
Write plain text only, one item per line, each line starting with "[ ] ".

Document:
%s`, document),
	}
}

// Translate asks for a JSON object holding the translations in input order.
func Translate(textsJSON, target string) ai.Prompt {
	return ai.Prompt{
		System: `You are a professional translator. You must produce one valid JSON object only: {"translations": ["<text>", ...]}. Keep the same number of items in the same order. Do not include code fences.`,
		User:   fmt.Sprintf("Translate each item of this JSON array into the language with code %q.\n\n%s", target, textsJSON),
		JSON:   true,
	}
}

// Clip shortens document to at most limit runes. limit <= 0 disables clipping.
func Clip(document string, limit int) string {
	if limit <= 0 {
		return document
	}
	runes := []rune(document)
	if len(runes) <= limit {
		return document
	}
	return string(runes[:limit])
}
