package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/smartquiz/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveQuestions assigns each question its durable UUID and persists the set
// in one transaction. The questions table is append-only: rows are kept for
// analytics and never updated or deleted. On error nothing is committed.
func (s *Store) SaveQuestions(ctx context.Context, subject models.Subject, difficulty models.Difficulty, questions []models.GeneratedQuestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO questions (id, subject, difficulty, question_text, options,
		                        correct_answer_index, explanation, hints, tags, points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range questions {
		q := &questions[i]
		q.ID = uuid.NewString()

		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options for question %d: %w", i+1, err)
		}
		hints, err := json.Marshal(emptyIfNil(q.Hints))
		if err != nil {
			return fmt.Errorf("marshal hints for question %d: %w", i+1, err)
		}
		tags, err := json.Marshal(emptyIfNil(q.Tags))
		if err != nil {
			return fmt.Errorf("marshal tags for question %d: %w", i+1, err)
		}

		if _, err := stmt.ExecContext(ctx,
			q.ID, subject, difficulty, q.QuestionText, options,
			q.CorrectAnswerIndex, q.Explanation, hints, tags, q.Points,
		); err != nil {
			return fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit questions: %w", err)
	}

	return nil
}

// SaveQuizResult records a completed quiz with its AI feedback attached.
func (s *Store) SaveQuizResult(ctx context.Context, userID int64, req models.FeedbackRequest, feedback *models.FeedbackResult) error {
	correctCount := 0
	var totalTimeMs int64
	for _, a := range req.Answers {
		if a.IsCorrect {
			correctCount++
		}
		totalTimeMs += a.TimeSpentMs
	}

	feedbackJSON, err := json.Marshal(feedback)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (user_id, subject, difficulty, total_questions, correct_answers, time_spent_ms, ai_feedback)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, req.QuizData.Subject, req.QuizData.Difficulty,
		len(req.Answers), correctCount, totalTimeMs, feedbackJSON,
	)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}

	return nil
}

// GetUserLevel returns the user's level for prompt personalization,
// defaulting to 1 when the user cannot be loaded.
func (s *Store) GetUserLevel(ctx context.Context, userID int64) int {
	var level int
	err := s.db.QueryRowContext(ctx,
		`SELECT level FROM users WHERE id = $1`, userID,
	).Scan(&level)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("WARN: failed to load level for user %d: %v", userID, err)
		}
		return 1
	}
	return level
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
