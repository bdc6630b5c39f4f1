package generator

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/smartquiz/backend/internal/models"
)

// MalformedResponseError means the provider's raw text contained no parsable
// JSON payload of the expected shape.
type MalformedResponseError struct {
	Reason  string
	Snippet string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed provider response: %s (snippet: %q)", e.Reason, e.Snippet)
}

// SchemaViolationError means the payload parsed but a question broke the
// output schema. Index and Field name the first offending entry; parsing is
// fail-fast rather than accumulate-all-errors.
type SchemaViolationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("question %d: field %q: %s", e.Index+1, e.Field, e.Reason)
}

var requiredQuestionFields = []string{"question_text", "options", "correct_answer_index", "explanation"}

// ParseQuestions extracts the first balanced JSON array from the provider's
// raw text and validates every question against the output schema. A
// returned set unconditionally satisfies: exactly 4 options, correct index
// in [0,3], required fields present.
func ParseQuestions(raw string, expectedCount int) ([]models.GeneratedQuestion, error) {
	payload, ok := extractBalanced(raw, '[', ']')
	if !ok {
		return nil, &MalformedResponseError{Reason: "no JSON array found", Snippet: snippet(raw)}
	}

	// Unmarshal twice: raw maps keep field presence, structs carry the data.
	var rawQuestions []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &rawQuestions); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON array: " + err.Error(), Snippet: snippet(payload)}
	}
	if len(rawQuestions) == 0 {
		return nil, &MalformedResponseError{Reason: "empty question array", Snippet: snippet(payload)}
	}

	var questions []models.GeneratedQuestion
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		return nil, &MalformedResponseError{Reason: "question fields have wrong types: " + err.Error(), Snippet: snippet(payload)}
	}

	for i := range questions {
		for _, field := range requiredQuestionFields {
			if _, present := rawQuestions[i][field]; !present {
				return nil, &SchemaViolationError{Index: i, Field: field, Reason: "missing required field"}
			}
		}

		q := &questions[i]
		if len(q.Options) != 4 {
			return nil, &SchemaViolationError{
				Index: i, Field: "options",
				Reason: fmt.Sprintf("expected exactly 4 options, got %d", len(q.Options)),
			}
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex > 3 {
			return nil, &SchemaViolationError{
				Index: i, Field: "correct_answer_index",
				Reason: fmt.Sprintf("index %d outside [0,3]", q.CorrectAnswerIndex),
			}
		}
		if q.Points < 1 {
			q.Points = 1
		}
	}

	if expectedCount > 0 && len(questions) != expectedCount {
		log.Printf("WARN: provider returned %d questions, expected %d, serving what came back", len(questions), expectedCount)
	}

	return questions, nil
}

var advisoryFeedbackFields = []string{"overall_assessment", "strengths", "weaknesses", "recommendations"}

// ParseFeedback extracts the first balanced JSON object from the provider's
// raw text. Feedback is advisory content, so validation is lenient: missing
// fields are logged as warnings and the result is returned best-effort.
func ParseFeedback(raw string) (*models.FeedbackResult, error) {
	payload, ok := extractBalanced(raw, '{', '}')
	if !ok {
		return nil, &MalformedResponseError{Reason: "no JSON object found", Snippet: snippet(raw)}
	}

	var rawFields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &rawFields); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON object: " + err.Error(), Snippet: snippet(payload)}
	}

	var feedback models.FeedbackResult
	if err := json.Unmarshal([]byte(payload), &feedback); err != nil {
		return nil, &MalformedResponseError{Reason: "feedback fields have wrong types: " + err.Error(), Snippet: snippet(payload)}
	}

	for _, field := range advisoryFeedbackFields {
		if _, present := rawFields[field]; !present {
			log.Printf("WARN: feedback response missing field %q", field)
		}
	}

	if feedback.ConfidenceScore < 0 || feedback.ConfidenceScore > 1 {
		log.Printf("WARN: feedback confidence_score %.2f outside [0,1], clamping", feedback.ConfidenceScore)
		feedback.ConfidenceScore = clamp01(feedback.ConfidenceScore)
	}

	return &feedback, nil
}

// extractBalanced returns the first syntactically balanced open..close region
// of s, skipping brackets inside JSON string literals (escape-aware). This is
// the defined fallback for models that wrap their JSON in prose or markdown
// fences.
func extractBalanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// snippet truncates raw provider text for error messages and logs.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
