package database

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "smartquiz_user")
	password := getEnv("DB_PASSWORD", "smartquiz_password")
	dbname := getEnv("DB_NAME", "smartquiz_db")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id             BIGSERIAL PRIMARY KEY,
		email          VARCHAR(255) UNIQUE NOT NULL,
		name           VARCHAR(255) NOT NULL,
		username       VARCHAR(50) UNIQUE,
		password       VARCHAR(255) NOT NULL,
		level          INT NOT NULL DEFAULT 1,
		total_xp       INT NOT NULL DEFAULT 0,
		current_streak INT NOT NULL DEFAULT 0,
		created_at     TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at     TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	-- Generated questions are retained append-only for analytics; there is
	-- no update or delete path.
	CREATE TABLE IF NOT EXISTS questions (
		id                   UUID PRIMARY KEY,
		subject              VARCHAR(50) NOT NULL,
		difficulty           VARCHAR(20) NOT NULL,
		question_text        TEXT NOT NULL,
		options              JSONB NOT NULL,
		correct_answer_index INT NOT NULL,
		explanation          TEXT NOT NULL DEFAULT '',
		hints                JSONB NOT NULL DEFAULT '[]',
		tags                 JSONB NOT NULL DEFAULT '[]',
		points               INT NOT NULL DEFAULT 1,
		created_by           VARCHAR(20) NOT NULL DEFAULT 'ai',
		source               VARCHAR(50) NOT NULL DEFAULT 'ai_generated',
		created_at           TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_questions_subject ON questions(subject, difficulty);
	CREATE INDEX IF NOT EXISTS idx_questions_created ON questions(created_at);

	CREATE TABLE IF NOT EXISTS quizzes (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		subject         VARCHAR(50) NOT NULL,
		difficulty      VARCHAR(20) NOT NULL,
		total_questions INT NOT NULL,
		correct_answers INT NOT NULL DEFAULT 0,
		time_spent_ms   BIGINT NOT NULL DEFAULT 0,
		ai_feedback     JSONB,
		created_at      TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_quizzes_user ON quizzes(user_id, created_at DESC);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// generateUsernameBase creates a lowercase alphanumeric base from a user's name.
func generateUsernameBase(name string) string {
	var result []byte
	for _, c := range strings.ToLower(name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			result = append(result, byte(c))
		}
	}
	if len(result) == 0 {
		return "user"
	}
	if len(result) > 12 {
		result = result[:12]
	}
	return string(result)
}

// rng is a seeded random source for username generation.
var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

func randomInt(max int) int {
	return rng.Intn(max)
}

// GenerateUsername creates a unique username from a name by appending random digits.
// Caller should handle the unique constraint and retry.
func GenerateUsername(name string) string {
	base := generateUsernameBase(name)
	return fmt.Sprintf("%s%04d", base, randomInt(10000))
}
