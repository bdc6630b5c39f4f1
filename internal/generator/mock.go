package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockClient returns canned responses for local development. It inspects the
// prompt's embedded output schema to decide whether a question set or a
// feedback object is expected.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	content := buildMockQuestionsJSON()
	if strings.Contains(userPrompt, `"overall_assessment"`) {
		content = mockFeedbackJSON
	}
	return &LLMResponse{
		Content:      content,
		PromptTokens: 800,
		OutputTokens: 1600,
	}, nil
}

func buildMockQuestionsJSON() string {
	topics := []string{"fractions", "linear equations", "percentages", "geometry"}

	questions := "["
	for i, topic := range topics {
		if i > 0 {
			questions += ","
		}
		correctIndex := i % 4

		options := "["
		for j := 0; j < 4; j++ {
			if j > 0 {
				options += ","
			}
			label := "a plausible distractor"
			if j == correctIndex {
				label = "the correct result"
			}
			options += fmt.Sprintf(`"[Mock] Option %d: %s for this %s problem"`, j+1, label, topic)
		}
		options += "]"

		questions += fmt.Sprintf(`{"question_text":"[Mock] A practice question about %s that tests a single well-defined concept.","options":%s,"correct_answer_index":%d,"explanation":"[Mock] The correct option follows directly from the standard method for %s.","hints":["[Mock] Recall the definition.","[Mock] Work one step at a time."],"tags":["%s"],"points":1,"difficulty_score":0.5}`,
			topic, options, correctIndex, topic, strings.ReplaceAll(topic, " ", "_"))
	}
	questions += "]"

	return questions
}

const mockFeedbackJSON = `{
  "overall_assessment": "[Mock] Solid performance with room to grow on the harder problems.",
  "performance_level": "good",
  "strengths": ["[Mock] Consistent accuracy", "[Mock] Good pacing", "[Mock] Strong fundamentals"],
  "weaknesses": ["[Mock] Multi-step problems", "[Mock] Time pressure on hard items", "[Mock] Careless slips"],
  "recommendations": ["[Mock] Review missed topics", "[Mock] Practice timed sets", "[Mock] Re-read explanations", "[Mock] Increase difficulty gradually", "[Mock] Keep a daily streak"],
  "next_difficulty": "medium",
  "study_time_minutes": 30,
  "focus_areas": ["[Mock] Word problems"],
  "confidence_score": 0.85,
  "motivational_message": "[Mock] Keep it up, you are trending upward."
}`
