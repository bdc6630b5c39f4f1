package generator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/smartquiz/backend/internal/models"
)

// LLMClient is the interface all provider implementations satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// ErrProviderUnavailable means no generation credential is configured.
// Operator-fixable; surfaced to clients as 503.
var ErrProviderUnavailable = errors.New("no AI provider configured")

// ProviderError wraps a transport or API failure from the upstream model
// provider (timeout, non-success status, malformed transport response).
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Generator wraps an LLMClient and adds quiz-specific generation methods.
// A Generator with no usable client still constructs; its methods return
// ErrProviderUnavailable so the server can start without credentials.
type Generator struct {
	llm   LLMClient
	model string
}

// New builds a Generator around an explicit client, mainly for tests.
func New(llm LLMClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

// NewFromEnv selects a provider from the environment: mock mode first, then
// OpenAI, then Anthropic. With no credential configured the generator is
// constructed unavailable.
func NewFromEnv() *Generator {
	if os.Getenv("MOCK_GENERATOR") == "true" {
		log.Println("Generator using mock data")
		return &Generator{llm: NewMockClient(), model: "mock"}
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = "gpt-4o"
		}
		log.Println("Generator using OpenAI API:", model)
		return &Generator{llm: NewOpenAIClient(key, model), model: model}
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		model := os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		log.Println("Generator using Anthropic API:", model)
		return &Generator{llm: NewAnthropicClient(key, model), model: model}
	}

	log.Println("WARN: no AI provider configured, generation endpoints will return 503")
	return &Generator{llm: nil, model: "none"}
}

func (g *Generator) ModelName() string {
	return g.model
}

// Available reports whether a provider client is configured (used by /health).
func (g *Generator) Available() bool {
	return g.llm != nil
}

// GenerateQuestions renders the question prompt, invokes the provider, and
// parses the response into a validated question set.
func (g *Generator) GenerateQuestions(ctx context.Context, req models.GenerateQuestionsRequest, userLevel int) ([]models.GeneratedQuestion, *LLMResponse, error) {
	if g.llm == nil {
		return nil, nil, ErrProviderUnavailable
	}

	systemPrompt := QuestionSystemPrompt()
	userPrompt := BuildQuestionPrompt(req, userLevel)

	resp, err := g.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, nil, fmt.Errorf("generate questions: %w", err)
	}

	questions, err := ParseQuestions(resp.Content, req.Count)
	if err != nil {
		return nil, resp, fmt.Errorf("parse question response: %w", err)
	}

	return questions, resp, nil
}

// GenerateFeedback renders the feedback prompt, invokes the provider, and
// leniently parses the response.
func (g *Generator) GenerateFeedback(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResult, *LLMResponse, error) {
	if g.llm == nil {
		return nil, nil, ErrProviderUnavailable
	}

	systemPrompt := FeedbackSystemPrompt()
	userPrompt := BuildFeedbackPrompt(req)

	resp, err := g.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, nil, fmt.Errorf("generate feedback: %w", err)
	}

	feedback, err := ParseFeedback(resp.Content)
	if err != nil {
		return nil, resp, fmt.Errorf("parse feedback response: %w", err)
	}

	return feedback, resp, nil
}
