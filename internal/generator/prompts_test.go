package generator

import (
	"strings"
	"testing"

	"github.com/smartquiz/backend/internal/models"
)

func TestBuildQuestionPrompt_Deterministic(t *testing.T) {
	req := models.GenerateQuestionsRequest{
		Subject:    models.SubjectMath,
		Difficulty: models.DifficultyMedium,
		Count:      5,
		Topics:     []string{"fractions", "percentages"},
	}

	first := BuildQuestionPrompt(req, 3)
	second := BuildQuestionPrompt(req, 3)
	if first != second {
		t.Error("same request must render the same prompt")
	}
}

func TestBuildQuestionPrompt_EmbedsRequestParameters(t *testing.T) {
	req := models.GenerateQuestionsRequest{
		Subject:    models.SubjectPhysics,
		Difficulty: models.DifficultyHard,
		Count:      7,
		Topics:     []string{"optics", "thermodynamics"},
	}

	prompt := BuildQuestionPrompt(req, 4)

	for _, want := range []string{
		"Create 7 high-quality multiple-choice questions",
		"physics",
		"advanced, challenging critical thinking",
		"focusing on optics, thermodynamics",
		"level 4",
		`"correct_answer_index"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildQuestionPrompt_NoTopics(t *testing.T) {
	req := models.GenerateQuestionsRequest{
		Subject:    models.SubjectHistory,
		Difficulty: models.DifficultyEasy,
		Count:      3,
	}

	prompt := BuildQuestionPrompt(req, 1)
	if strings.Contains(prompt, "focusing on") {
		t.Error("topic clause should be omitted when no topics are given")
	}
}

func TestDifficultyDescriptor_UnknownFallsBack(t *testing.T) {
	if got := DifficultyDescriptor(models.Difficulty("brutal")); got != "brutal" {
		t.Errorf("descriptor = %q, want raw value", got)
	}
}

func TestBuildFeedbackPrompt_ScoreAndBreakdown(t *testing.T) {
	req := models.FeedbackRequest{
		QuizData: models.QuizSummary{
			Subject:    models.SubjectMath,
			Difficulty: models.DifficultyMedium,
		},
		Answers: []models.QuizAnswer{
			{IsCorrect: true, TimeSpentMs: 12000},
			{IsCorrect: false, TimeSpentMs: 8000},
			{IsCorrect: true, TimeSpentMs: 10000},
			{IsCorrect: true, TimeSpentMs: 10000},
		},
	}

	prompt := BuildFeedbackPrompt(req)

	for _, want := range []string{
		"Score: 3/4 (75.0%)",
		"Average time per question: 10.0 seconds",
		"Wrong answers: 1",
		"question 2: wrong in 8.0s",
		`"overall_assessment"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildFeedbackPrompt_ProfileOptional(t *testing.T) {
	req := models.FeedbackRequest{
		QuizData: models.QuizSummary{Subject: models.SubjectBiology, Difficulty: models.DifficultyEasy},
		Answers:  []models.QuizAnswer{{IsCorrect: true, TimeSpentMs: 5000}},
	}

	without := BuildFeedbackPrompt(req)
	if strings.Contains(without, "Student profile") {
		t.Error("profile section should be absent without a profile")
	}

	req.UserProfile = &models.UserProfile{Level: 6, TotalXP: 1200, CurrentStreak: 9}
	with := BuildFeedbackPrompt(req)
	for _, want := range []string{"Student profile", "Level: 6", "Total XP: 1200", "Study streak: 9 days"} {
		if !strings.Contains(with, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
