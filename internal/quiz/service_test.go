package quiz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/smartquiz/backend/internal/cache"
	"github.com/smartquiz/backend/internal/generator"
	"github.com/smartquiz/backend/internal/models"
	"github.com/smartquiz/backend/internal/ratelimit"
)

const stubQuestionsJSON = `[
	{
		"question_text": "What is 3/4 as a percentage?",
		"options": ["25%", "50%", "75%", "80%"],
		"correct_answer_index": 2,
		"explanation": "3 divided by 4 is 0.75, which is 75%.",
		"hints": ["Divide first"],
		"tags": ["fractions"],
		"points": 1
	},
	{
		"question_text": "Solve 2x = 10.",
		"options": ["2", "5", "10", "20"],
		"correct_answer_index": 1,
		"explanation": "Divide both sides by 2.",
		"hints": ["Isolate x"],
		"tags": ["algebra"],
		"points": 1
	}
]`

const stubFeedbackJSON = `{
	"overall_assessment": "Strong grasp of the material.",
	"performance_level": "good",
	"strengths": ["algebra"],
	"weaknesses": ["geometry"],
	"recommendations": ["review angles"],
	"next_difficulty": "medium",
	"study_time_minutes": 20,
	"focus_areas": ["geometry"],
	"confidence_score": 0.9,
	"motivational_message": "Nice work."
}`

// stubLLM returns a fixed response and records how it was called.
type stubLLM struct {
	response string
	err      error
	delay    time.Duration

	mu         sync.Mutex
	calls      int
	lastPrompt string
}

func (s *stubLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (*generator.LLMResponse, error) {
	s.mu.Lock()
	s.calls++
	s.lastPrompt = userPrompt
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &generator.LLMResponse{Content: s.response, PromptTokens: 100, OutputTokens: 400}, nil
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubLLM) prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPrompt
}

// fakeStore satisfies questionStore without a database.
type fakeStore struct {
	saveErr      error
	savedBatches int
	savedResults int
	userLevel    int
}

func (f *fakeStore) SaveQuestions(ctx context.Context, subject models.Subject, difficulty models.Difficulty, questions []models.GeneratedQuestion) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedBatches++
	return nil
}

func (f *fakeStore) SaveQuizResult(ctx context.Context, userID int64, req models.FeedbackRequest, feedback *models.FeedbackResult) error {
	f.savedResults++
	return nil
}

func (f *fakeStore) GetUserLevel(ctx context.Context, userID int64) int {
	if f.userLevel == 0 {
		return 1
	}
	return f.userLevel
}

func newTestService(t *testing.T, llm generator.LLMClient, store *fakeStore) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(store, generator.New(llm, "stub"), cache.NewResultCache(rdb), ratelimit.NewLimiter(rdb)), mr
}

func questionRequest() models.GenerateQuestionsRequest {
	return models.GenerateQuestionsRequest{
		Subject:    models.SubjectMath,
		Difficulty: models.DifficultyMedium,
		Count:      2,
		Topics:     []string{"fractions", "algebra"},
	}
}

func TestGenerateQuestions_MissThenHit(t *testing.T) {
	llm := &stubLLM{response: stubQuestionsJSON}
	store := &fakeStore{}
	svc, _ := newTestService(t, llm, store)
	ctx := context.Background()

	first, err := svc.GenerateQuestions(ctx, 1, questionRequest())
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Cached {
		t.Error("first call should be a cache miss")
	}
	if llm.callCount() != 1 {
		t.Fatalf("provider calls = %d, want 1", llm.callCount())
	}
	if store.savedBatches != 1 {
		t.Errorf("saved batches = %d, want 1", store.savedBatches)
	}

	second, err := svc.GenerateQuestions(ctx, 1, questionRequest())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !second.Cached {
		t.Error("second call should be a cache hit")
	}
	if llm.callCount() != 1 {
		t.Errorf("provider calls = %d after hit, want 1", llm.callCount())
	}
	if second.Questions[0].QuestionText != first.Questions[0].QuestionText {
		t.Error("cached questions differ from generated ones")
	}
}

func TestGenerateQuestions_ConcurrentMissesCollapse(t *testing.T) {
	llm := &stubLLM{response: stubQuestionsJSON, delay: 100 * time.Millisecond}
	svc, _ := newTestService(t, llm, &fakeStore{})
	ctx := context.Background()

	const callers = 5
	start := make(chan struct{})
	errs := make(chan error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.GenerateQuestions(ctx, 1, questionRequest())
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent call: %v", err)
		}
	}
	if llm.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1 (concurrent misses must collapse)", llm.callCount())
	}
}

func TestGenerateQuestions_RateLimited(t *testing.T) {
	llm := &stubLLM{response: stubQuestionsJSON}
	svc, _ := newTestService(t, llm, &fakeStore{})
	ctx := context.Background()

	for i := 0; i < ratelimit.GenerateLimit; i++ {
		if _, err := svc.GenerateQuestions(ctx, 1, questionRequest()); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}

	_, err := svc.GenerateQuestions(ctx, 1, questionRequest())

	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.RetryAfter != ratelimit.Window {
		t.Errorf("RetryAfter = %v, want %v", rle.RetryAfter, ratelimit.Window)
	}
}

func TestGenerateQuestions_DegradedCacheStillServes(t *testing.T) {
	llm := &stubLLM{response: stubQuestionsJSON}
	svc, mr := newTestService(t, llm, &fakeStore{})
	ctx := context.Background()
	mr.Close()

	for i := 0; i < 2; i++ {
		resp, err := svc.GenerateQuestions(ctx, 1, questionRequest())
		if err != nil {
			t.Fatalf("call %d with dead redis: %v", i+1, err)
		}
		if resp.Cached {
			t.Errorf("call %d: no hit possible with a dead cache", i+1)
		}
	}

	if llm.callCount() != 2 {
		t.Errorf("provider calls = %d, want 2 (every call is a miss)", llm.callCount())
	}
}

func TestGenerateQuestions_PersistenceFailureNotCached(t *testing.T) {
	llm := &stubLLM{response: stubQuestionsJSON}
	store := &fakeStore{saveErr: errors.New("db down")}
	svc, _ := newTestService(t, llm, store)
	ctx := context.Background()

	if _, err := svc.GenerateQuestions(ctx, 1, questionRequest()); err == nil {
		t.Fatal("expected persistence failure to surface")
	}

	// Nothing was cached, so a retry goes back to the provider.
	store.saveErr = nil
	resp, err := svc.GenerateQuestions(ctx, 1, questionRequest())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if resp.Cached {
		t.Error("retry must be a miss when the failed attempt was not cached")
	}
	if llm.callCount() != 2 {
		t.Errorf("provider calls = %d, want 2", llm.callCount())
	}
}

func TestGenerateQuestions_ProviderUnavailable(t *testing.T) {
	svc, _ := newTestService(t, nil, &fakeStore{})

	_, err := svc.GenerateQuestions(context.Background(), 1, questionRequest())
	if !errors.Is(err, generator.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestGenerateQuestions_CountClamped(t *testing.T) {
	llm := &stubLLM{response: stubQuestionsJSON}
	svc, _ := newTestService(t, llm, &fakeStore{})

	req := questionRequest()
	req.Count = 50
	if _, err := svc.GenerateQuestions(context.Background(), 1, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(llm.prompt(), "Create 20 ") {
		t.Errorf("prompt should ask for the clamped count, got: %.80s", llm.prompt())
	}
}

func TestGenerateQuestions_ZeroCountDefaults(t *testing.T) {
	llm := &stubLLM{response: stubQuestionsJSON}
	svc, _ := newTestService(t, llm, &fakeStore{})

	req := questionRequest()
	req.Count = 0
	if _, err := svc.GenerateQuestions(context.Background(), 1, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(llm.prompt(), "Create 10 ") {
		t.Errorf("prompt should ask for the default count, got: %.80s", llm.prompt())
	}
}

func TestGenerateFeedback_RecordsQuizResult(t *testing.T) {
	llm := &stubLLM{response: stubFeedbackJSON}
	store := &fakeStore{}
	svc, _ := newTestService(t, llm, store)

	req := models.FeedbackRequest{
		QuizData: models.QuizSummary{Subject: models.SubjectMath, Difficulty: models.DifficultyMedium},
		Answers:  []models.QuizAnswer{{IsCorrect: true, TimeSpentMs: 9000}},
	}

	feedback, err := svc.GenerateFeedback(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feedback.OverallAssessment != "Strong grasp of the material." {
		t.Errorf("overall_assessment = %q", feedback.OverallAssessment)
	}
	if store.savedResults != 1 {
		t.Errorf("saved results = %d, want 1", store.savedResults)
	}
}
