package cache

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smartquiz/backend/internal/models"
)

// QuestionTTL bounds how long a generated question set is served from cache.
const QuestionTTL = 30 * time.Minute

// opTimeout keeps store round trips short; on timeout the caller sees a miss.
const opTimeout = 2 * time.Second

// NewRedisClient builds the shared Redis client for the cache and rate-limit
// stores from REDIS_* env vars.
func NewRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})
}

// ResultCache stores validated question sets in Redis with a TTL. It is a
// soft dependency: when the store is unreachable every Get is a miss and
// every Set is a no-op; callers never observe store errors.
type ResultCache struct {
	rdb *redis.Client
}

func NewResultCache(rdb *redis.Client) *ResultCache {
	return &ResultCache{rdb: rdb}
}

func (c *ResultCache) GetQuestions(ctx context.Context, key string) ([]models.GeneratedQuestion, bool) {
	if c.rdb == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("WARN: cache get failed for key %s: %v", key, err)
		return nil, false
	}

	var questions []models.GeneratedQuestion
	if err := json.Unmarshal([]byte(val), &questions); err != nil {
		log.Printf("WARN: cache entry %s is not valid JSON, treating as miss: %v", key, err)
		return nil, false
	}

	return questions, true
}

func (c *ResultCache) SetQuestions(ctx context.Context, key string, questions []models.GeneratedQuestion, ttl time.Duration) {
	if c.rdb == nil {
		return
	}

	data, err := json.Marshal(questions)
	if err != nil {
		log.Printf("WARN: cache marshal failed for key %s: %v", key, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("WARN: cache set failed for key %s: %v", key, err)
	}
}

// Ping reports whether the backing store is reachable (used by /health).
func (c *ResultCache) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return redis.ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
