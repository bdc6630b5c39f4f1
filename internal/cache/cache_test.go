package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smartquiz/backend/internal/models"
)

func testQuestions() []models.GeneratedQuestion {
	return []models.GeneratedQuestion{
		{
			ID:                 "q-1",
			QuestionText:       "What is 2 + 2?",
			Options:            []string{"3", "4", "5", "6"},
			CorrectAnswerIndex: 1,
			Explanation:        "Adding two and two gives four.",
			Hints:              []string{"Count on your fingers."},
			Tags:               []string{"arithmetic"},
			Points:             1,
		},
	}
}

func newTestCache(t *testing.T) (*ResultCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewResultCache(rdb), mr
}

func TestResultCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.GetQuestions(ctx, "smartquiz:questions:test"); ok {
		t.Fatal("expected miss before set")
	}

	want := testQuestions()
	c.SetQuestions(ctx, "smartquiz:questions:test", want, QuestionTTL)

	got, ok := c.GetQuestions(ctx, "smartquiz:questions:test")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 question, got %d", len(got))
	}
	if got[0].QuestionText != want[0].QuestionText {
		t.Errorf("question text mismatch: got %q", got[0].QuestionText)
	}
	if got[0].CorrectAnswerIndex != 1 {
		t.Errorf("expected correct_answer_index 1, got %d", got[0].CorrectAnswerIndex)
	}
}

func TestResultCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetQuestions(ctx, "smartquiz:questions:ttl", testQuestions(), QuestionTTL)

	mr.FastForward(QuestionTTL + time.Second)

	if _, ok := c.GetQuestions(ctx, "smartquiz:questions:ttl"); ok {
		t.Error("expected miss after TTL elapsed")
	}
}

func TestResultCache_DegradedStore(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	// Neither operation may panic or surface an error.
	c.SetQuestions(ctx, "smartquiz:questions:down", testQuestions(), QuestionTTL)
	if _, ok := c.GetQuestions(ctx, "smartquiz:questions:down"); ok {
		t.Error("expected miss when store is unreachable")
	}
}

func TestResultCache_NilClient(t *testing.T) {
	c := NewResultCache(nil)
	ctx := context.Background()

	c.SetQuestions(ctx, "k", testQuestions(), QuestionTTL)
	if _, ok := c.GetQuestions(ctx, "k"); ok {
		t.Error("expected miss with nil client")
	}
}

func TestResultCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := mr.Set("smartquiz:questions:junk", "not json"); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.GetQuestions(ctx, "smartquiz:questions:junk"); ok {
		t.Error("expected corrupt entry to be treated as miss")
	}
}
