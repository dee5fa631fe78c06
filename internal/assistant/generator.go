package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/smartcat-ai/askcat/internal/log"
)

// ErrGeneration indicates the generation provider failed after retries.
var ErrGeneration = errors.New("generation service failure")

const (
	generateAttempts  = 3
	generateBaseDelay = time.Second
)

// GeneratorConfig contains the required parameters for a Generator.
type GeneratorConfig struct {
	Genkit    *genkit.Genkit
	ModelName string // Provider-qualified, e.g. "googleai/gemini-2.5-flash"
	MaxTokens int    // Response token budget
	Logger    log.Logger

	// Optional proactive rate limiting (nil = default 5 req/s, burst 10)
	RateLimiter *rate.Limiter
}

// Generator produces model responses for the chat and analysis flows.
// Safe for concurrent use; all configuration is captured immutably at
// construction time.
type Generator struct {
	g         *genkit.Genkit
	modelName string
	maxTokens int
	limiter   *rate.Limiter
	logger    log.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Genkit == nil {
		return nil, errors.New("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return nil, errors.New("model name is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(5, 10)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	return &Generator{
		g:         cfg.Genkit,
		modelName: cfg.ModelName,
		maxTokens: maxTokens,
		limiter:   limiter,
		logger:    logger,
	}, nil
}

// Chat generates a grounded answer for a conversation. The context block is
// injected into the system instruction; the history is passed as-is, newest
// turn last. Returns the model's raw annotated text.
func (g *Generator) Chat(ctx context.Context, history []Message, contextBlock string) (string, error) {
	system := chatSystemPrompt + "\n\n---\nCONTEXT FROM KNOWLEDGE BASE:\n" + contextBlock + "\n---"

	messages := make([]*ai.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(m.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(m.Content)))
		}
	}

	return g.generate(ctx,
		ai.WithSystem(system),
		ai.WithMessages(messages...),
	)
}

// Complete generates a response for a single standalone prompt. Used by the
// analysis and outreach steps, which are one-shot rather than conversational.
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, ai.WithPrompt(prompt))
}

func (g *Generator) generate(ctx context.Context, opts ...ai.GenerateOption) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", ErrGeneration, err)
	}

	opts = append(opts,
		ai.WithModelName(g.modelName),
		ai.WithConfig(&genai.GenerateContentConfig{
			MaxOutputTokens: int32(g.maxTokens),
		}),
	)

	resp, err := retry.DoWithData(
		func() (*ai.ModelResponse, error) {
			return genkit.Generate(ctx, g.g, opts...)
		},
		retry.Context(ctx),
		retry.Attempts(generateAttempts),
		retry.Delay(generateBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(attempt uint, err error) {
			g.logger.Warn("generation attempt failed, retrying",
				"attempt", attempt+1,
				"error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return resp.Text(), nil
}

// transientPatterns match provider errors worth retrying. Auth and request
// shape errors fail fast.
var transientPatterns = []string{
	"rate limit",
	"quota",
	"resource exhausted",
	"429",
	"500",
	"502",
	"503",
	"504",
	"timeout",
	"deadline exceeded",
	"connection reset",
	"unavailable",
	"overloaded",
	"try again",
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
