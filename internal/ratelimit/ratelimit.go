package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Operation names used as rate-limit key segments.
const (
	OpRegister          = "register"
	OpGenerateQuestions = "generate_questions"
	OpFeedback          = "feedback"
)

// Per-operation budgets. Each operation is windowed independently.
const (
	RegisterLimit = 10
	GenerateLimit = 20
	FeedbackLimit = 20
	Window        = time.Hour
)

const opTimeout = 2 * time.Second

// Limiter counts requests per identity+operation in fixed windows backed by
// Redis. The store is a soft dependency: if it is unreachable the limiter
// fails open and allows the request.
type Limiter struct {
	rdb *redis.Client
}

func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

// Allow atomically increments the counter for (identity, operation) and
// reports whether the request fits within limit for the current window. The
// expiry is set only when the key is first created, so later increments do
// not extend the window. An over-limit request still counts: the window is
// not rolled back, which admits up to limit requests twice across a window
// boundary (accepted fixed-window behavior).
func (l *Limiter) Allow(ctx context.Context, identity, operation string, limit int, window time.Duration) bool {
	if l.rdb == nil {
		return true
	}

	key := fmt.Sprintf("smartquiz:ratelimit:%s:%s", identity, operation)

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("WARN: rate limit check failed for %s, allowing request: %v", key, err)
		return true
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			log.Printf("WARN: rate limit expire failed for %s: %v", key, err)
		}
	}

	return count <= int64(limit)
}
