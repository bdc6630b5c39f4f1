package models

import "time"

type Subject string

const (
	SubjectMath       Subject = "math"
	SubjectPhysics    Subject = "physics"
	SubjectChemistry  Subject = "chemistry"
	SubjectBiology    Subject = "biology"
	SubjectHistory    Subject = "history"
	SubjectGeography  Subject = "geography"
	SubjectLiterature Subject = "literature"
	SubjectEnglish    Subject = "english"
)

var ValidSubjects = map[Subject]bool{
	SubjectMath:       true,
	SubjectPhysics:    true,
	SubjectChemistry:  true,
	SubjectBiology:    true,
	SubjectHistory:    true,
	SubjectGeography:  true,
	SubjectLiterature: true,
	SubjectEnglish:    true,
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

type PerformanceLevel string

const (
	PerformanceExcellent        PerformanceLevel = "excellent"
	PerformanceGood             PerformanceLevel = "good"
	PerformanceAverage          PerformanceLevel = "average"
	PerformanceNeedsImprovement PerformanceLevel = "needs_improvement"
)

// ── Core Structs ───────────────────────────────────────

// GeneratedQuestion is a single multiple-choice question produced by the
// provider. Options always has exactly 4 entries and CorrectAnswerIndex
// indexes into it; the parser enforces both before a question reaches here.
type GeneratedQuestion struct {
	ID                 string   `json:"id,omitempty"`
	QuestionText       string   `json:"question_text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
	Explanation        string   `json:"explanation"`
	Hints              []string `json:"hints,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Points             int      `json:"points,omitempty"`
	DifficultyScore    float64  `json:"difficulty_score,omitempty"`
}

// ── Request Types ─────────────────────────────────────

type GenerateQuestionsRequest struct {
	Subject    Subject    `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
	Count      int        `json:"count,omitempty"`
	Topics     []string   `json:"topics,omitempty"`
}

type QuizSummary struct {
	Subject    Subject    `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
}

type QuizAnswer struct {
	IsCorrect   bool  `json:"is_correct"`
	TimeSpentMs int64 `json:"time_spent"`
}

type UserProfile struct {
	Level         int `json:"level"`
	TotalXP       int `json:"total_xp"`
	CurrentStreak int `json:"current_streak"`
}

type FeedbackRequest struct {
	QuizData    QuizSummary  `json:"quiz_data"`
	Answers     []QuizAnswer `json:"answers"`
	UserProfile *UserProfile `json:"user_profile,omitempty"`
}

// ── Response Types ────────────────────────────────────

type GenerationMetadata struct {
	Subject    Subject    `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
	Count      int        `json:"count"`
	UserLevel  int        `json:"user_level"`
}

type GenerateQuestionsResponse struct {
	Questions   []GeneratedQuestion `json:"questions"`
	Cached      bool                `json:"cached"`
	GeneratedAt time.Time           `json:"generated_at"`
	Metadata    GenerationMetadata  `json:"metadata"`
}

// FeedbackResult is the provider's post-quiz assessment. Only
// OverallAssessment is guaranteed; the rest is advisory and may be absent
// when the provider under-fills the schema.
type FeedbackResult struct {
	OverallAssessment   string           `json:"overall_assessment"`
	PerformanceLevel    PerformanceLevel `json:"performance_level,omitempty"`
	Strengths           []string         `json:"strengths,omitempty"`
	Weaknesses          []string         `json:"weaknesses,omitempty"`
	Recommendations     []string         `json:"recommendations,omitempty"`
	NextDifficulty      Difficulty       `json:"next_difficulty,omitempty"`
	StudyTimeMinutes    int              `json:"study_time_minutes,omitempty"`
	FocusAreas          []string         `json:"focus_areas,omitempty"`
	ConfidenceScore     float64          `json:"confidence_score,omitempty"`
	MotivationalMessage string           `json:"motivational_message,omitempty"`
}
