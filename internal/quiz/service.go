package quiz

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/smartquiz/backend/internal/cache"
	"github.com/smartquiz/backend/internal/generator"
	"github.com/smartquiz/backend/internal/models"
	"github.com/smartquiz/backend/internal/ratelimit"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCount = 10
	maxCount     = 20
)

// RateLimitError is returned when an identity exhausts its window budget.
// RetryAfter is the window length, not the remaining time: the precise reset
// moment is deliberately not revealed.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limit exceeded"
}

// questionStore is the persistence surface the orchestrator needs;
// satisfied by *Store.
type questionStore interface {
	SaveQuestions(ctx context.Context, subject models.Subject, difficulty models.Difficulty, questions []models.GeneratedQuestion) error
	SaveQuizResult(ctx context.Context, userID int64, req models.FeedbackRequest, feedback *models.FeedbackResult) error
	GetUserLevel(ctx context.Context, userID int64) int
}

// Service orchestrates one generation call: rate check, cache lookup,
// provider invocation, validation, persistence, cache store. All
// dependencies are explicit and injected at startup.
type Service struct {
	store     questionStore
	generator *generator.Generator
	cache     *cache.ResultCache
	limiter   *ratelimit.Limiter

	// flight collapses concurrent misses for the same fingerprint so only
	// one caller invokes the provider.
	flight singleflight.Group
}

func NewService(store questionStore, gen *generator.Generator, rc *cache.ResultCache, limiter *ratelimit.Limiter) *Service {
	return &Service{
		store:     store,
		generator: gen,
		cache:     rc,
		limiter:   limiter,
	}
}

// GenerateQuestions runs the full pipeline for one request. Cache hits are
// served as-is within the TTL; they still count against the rate budget,
// which protects the cache layer as well as the provider.
func (s *Service) GenerateQuestions(ctx context.Context, userID int64, req models.GenerateQuestionsRequest) (*models.GenerateQuestionsResponse, error) {
	if req.Count <= 0 {
		req.Count = defaultCount
	}
	if req.Count > maxCount {
		req.Count = maxCount
	}

	identity := strconv.FormatInt(userID, 10)
	if !s.limiter.Allow(ctx, identity, ratelimit.OpGenerateQuestions, ratelimit.GenerateLimit, ratelimit.Window) {
		return nil, &RateLimitError{RetryAfter: ratelimit.Window}
	}

	key := cache.Fingerprint(req)

	if questions, ok := s.cache.GetQuestions(ctx, key); ok {
		log.Printf("Serving cached questions for %s/%s", req.Subject, req.Difficulty)
		return &models.GenerateQuestionsResponse{
			Questions:   questions,
			Cached:      true,
			GeneratedAt: time.Now().UTC(),
			Metadata: models.GenerationMetadata{
				Subject:    req.Subject,
				Difficulty: req.Difficulty,
				Count:      len(questions),
				UserLevel:  s.store.GetUserLevel(ctx, userID),
			},
		}, nil
	}

	userLevel := s.store.GetUserLevel(ctx, userID)

	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		return s.generateAndStore(ctx, key, req, userLevel)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("Shared in-flight generation for %s", key)
	}

	questions := v.([]models.GeneratedQuestion)
	return &models.GenerateQuestionsResponse{
		Questions:   questions,
		Cached:      false,
		GeneratedAt: time.Now().UTC(),
		Metadata: models.GenerationMetadata{
			Subject:    req.Subject,
			Difficulty: req.Difficulty,
			Count:      len(questions),
			UserLevel:  userLevel,
		},
	}, nil
}

// generateAndStore is the miss path: provider call, validation, durable
// persistence, then cache. The cache is only written after the insert
// transaction commits, so a persistence failure never leaves a cached set
// that storage does not have.
func (s *Service) generateAndStore(ctx context.Context, key string, req models.GenerateQuestionsRequest, userLevel int) ([]models.GeneratedQuestion, error) {
	start := time.Now()

	questions, llmResp, err := s.generator.GenerateQuestions(ctx, req, userLevel)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveQuestions(ctx, req.Subject, req.Difficulty, questions); err != nil {
		return nil, err
	}

	s.cache.SetQuestions(ctx, key, questions, cache.QuestionTTL)

	promptTokens, outputTokens := 0, 0
	if llmResp != nil {
		promptTokens = llmResp.PromptTokens
		outputTokens = llmResp.OutputTokens
	}
	log.Printf("Generated %d questions for %s/%s in %.2fs (tokens: %d prompt, %d output)",
		len(questions), req.Subject, req.Difficulty, time.Since(start).Seconds(), promptTokens, outputTokens)

	return questions, nil
}

// GenerateFeedback runs the feedback pipeline. Results are per-attempt, so
// there is no cache in front of the provider; only the rate limit guards it.
// Recording the quiz is best-effort: feedback is advisory and is returned
// even when the write fails.
func (s *Service) GenerateFeedback(ctx context.Context, userID int64, req models.FeedbackRequest) (*models.FeedbackResult, error) {
	identity := strconv.FormatInt(userID, 10)
	if !s.limiter.Allow(ctx, identity, ratelimit.OpFeedback, ratelimit.FeedbackLimit, ratelimit.Window) {
		return nil, &RateLimitError{RetryAfter: ratelimit.Window}
	}

	feedback, _, err := s.generator.GenerateFeedback(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveQuizResult(ctx, userID, req, feedback); err != nil {
		log.Printf("WARN: failed to record quiz result for user %d: %v", userID, err)
	}

	return feedback, nil
}
