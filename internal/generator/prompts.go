package generator

import (
	"fmt"
	"strings"

	"github.com/smartquiz/backend/internal/models"
)

var difficultyDescriptors = map[models.Difficulty]string{
	models.DifficultyEasy:   "basic, suitable for beginners",
	models.DifficultyMedium: "intermediate, requiring solid understanding",
	models.DifficultyHard:   "advanced, challenging critical thinking",
}

// DifficultyDescriptor maps a difficulty enum to the phrasing embedded in
// prompts. Unknown values fall back to the raw string.
func DifficultyDescriptor(difficulty models.Difficulty) string {
	if d, ok := difficultyDescriptors[difficulty]; ok {
		return d
	}
	return string(difficulty)
}

func QuestionSystemPrompt() string {
	return "You are an education expert with 20 years of experience creating high-quality multiple-choice questions for students. You produce precise, unambiguous questions with exactly one correct answer, and you respond with valid JSON only."
}

// BuildQuestionPrompt renders the generation instruction set plus the output
// schema for a question request. Purely templating: no validation happens
// here, and the same request always renders the same prompt.
func BuildQuestionPrompt(req models.GenerateQuestionsRequest, userLevel int) string {
	topicsContext := ""
	if len(req.Topics) > 0 {
		topicsContext = fmt.Sprintf(" focusing on %s", strings.Join(req.Topics, ", "))
	}

	return fmt.Sprintf(`Create %d high-quality multiple-choice questions for the subject %s at %s difficulty%s.

The student is at level %d. Calibrate wording and distractors accordingly.

Professional requirements:
- Each question has exactly 4 options
- The answer must be 100%% correct and well-founded
- A detailed, easy-to-understand explanation for the correct answer
- 2-3 smart hints that guide the student's thinking
- Questions must have practical applicability
- Use precise, standard terminology
- Avoid ambiguous questions or questions with multiple correct answers

Respond with this exact JSON array:
[
  {
    "question_text": "A clear and specific question",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correct_answer_index": 0,
    "explanation": "A detailed explanation with reasoning",
    "hints": ["Hint 1 guiding the approach", "Hint 2 linking prior knowledge"],
    "tags": ["main_topic", "required_skill"],
    "points": 1,
    "difficulty_score": 0.7
  }
]`,
		req.Count, req.Subject, DifficultyDescriptor(req.Difficulty), topicsContext, userLevel)
}

func FeedbackSystemPrompt() string {
	return "You are an educational psychology and learning-analytics expert who gives personalized feedback that helps students improve. You respond with valid JSON only."
}

// BuildFeedbackPrompt renders the post-quiz analysis instruction set with the
// answer breakdown and optional student profile embedded.
func BuildFeedbackPrompt(req models.FeedbackRequest) string {
	correctCount := 0
	var totalTimeMs int64
	for _, a := range req.Answers {
		if a.IsCorrect {
			correctCount++
		}
		totalTimeMs += a.TimeSpentMs
	}

	total := len(req.Answers)
	accuracy := 0.0
	avgTimeMs := int64(0)
	if total > 0 {
		accuracy = float64(correctCount) / float64(total) * 100
		avgTimeMs = totalTimeMs / int64(total)
	}

	profileContext := ""
	if req.UserProfile != nil {
		profileContext = fmt.Sprintf(`
Student profile:
- Level: %d
- Total XP: %d
- Study streak: %d days
`, req.UserProfile.Level, req.UserProfile.TotalXP, req.UserProfile.CurrentStreak)
	}

	var answerLines strings.Builder
	for i, a := range req.Answers {
		result := "wrong"
		if a.IsCorrect {
			result = "correct"
		}
		fmt.Fprintf(&answerLines, "- question %d: %s in %.1fs\n", i+1, result, float64(a.TimeSpentMs)/1000)
	}

	return fmt.Sprintf(`Analyze the quiz results below and give personalized feedback.
%s
Quiz results:
- Subject: %s
- Difficulty: %s
- Score: %d/%d (%.1f%%)
- Average time per question: %.1f seconds
- Wrong answers: %d

Per-answer breakdown:
%s
Professional analysis requirements:
1. Overall assessment of current ability
2. Identify 3 specific strengths
3. Analyze 3 areas to improve, with reasons
4. Give 5 concrete, achievable study recommendations
5. Suggest a suitable difficulty for the next session
6. Estimate the review time needed
7. Rate the confidence of this analysis

Respond with this exact JSON object:
{
  "overall_assessment": "A detailed overall assessment",
  "performance_level": "excellent|good|average|needs_improvement",
  "strengths": ["strength 1", "strength 2", "strength 3"],
  "weaknesses": ["weakness 1", "weakness 2", "weakness 3"],
  "recommendations": ["recommendation 1", "recommendation 2", "recommendation 3", "recommendation 4", "recommendation 5"],
  "next_difficulty": "easy|medium|hard",
  "study_time_minutes": 45,
  "focus_areas": ["focus topic 1", "focus topic 2"],
  "confidence_score": 0.92,
  "motivational_message": "A positive, encouraging message"
}`,
		profileContext, req.QuizData.Subject, req.QuizData.Difficulty,
		correctCount, total, accuracy, float64(avgTimeMs)/1000,
		total-correctCount, answerLines.String())
}
