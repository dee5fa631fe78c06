package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"

	"github.com/smartcat-ai/askcat/internal/log"
)

// ErrEmbedding indicates the embedding provider failed after retries.
// Callers can check with errors.Is() and degrade or surface a 502.
var ErrEmbedding = errors.New("embedding service failure")

const (
	// maxEmbedRunes caps input length per text. Provider token limits sit
	// well above this; truncating here keeps the failure mode local and
	// predictable instead of a provider-side 400.
	maxEmbedRunes = 8000

	embedAttempts  = 3
	embedBaseDelay = 500 * time.Millisecond
)

// Embedder converts text into fixed-length vectors through a Genkit
// ai.Embedder. All texts for a deployment go through the same model and
// output dimensionality, so vectors are mutually comparable. Safe for
// concurrent use.
type Embedder struct {
	embedder ai.Embedder
	dim      int32
	logger   log.Logger
}

// NewEmbedder creates an Embedder on the given Genkit embedder handle.
// dimension is the required vector width; it is requested from the provider
// and enforced on every response, because the embedding column is fixed at
// schema time and a stray width only fails later, deep inside pgvector.
func NewEmbedder(embedder ai.Embedder, dimension int, logger log.Logger) *Embedder {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Embedder{
		embedder: embedder,
		dim:      int32(dimension),
		logger:   logger,
	}
}

// Embed returns the embedding vector for a single text.
// Empty or whitespace-only input is rejected: it has no meaningful
// embedding and hides bugs upstream.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input text, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}

	docs := make([]*ai.Document, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("text at index %d is empty", i)
		}
		docs = append(docs, ai.DocumentFromText(truncateRunes(text, maxEmbedRunes), nil))
	}

	req := &ai.EmbedRequest{Input: docs}
	if e.dim > 0 {
		dim := e.dim
		req.Options = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	resp, err := retry.DoWithData(
		func() (*ai.EmbedResponse, error) {
			return e.embedder.Embed(ctx, req)
		},
		retry.Context(ctx),
		retry.Attempts(embedAttempts),
		retry.Delay(embedBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(attempt uint, err error) {
			e.logger.Warn("embedding attempt failed, retrying",
				"attempt", attempt+1,
				"error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding %d texts: %v", ErrEmbedding, len(texts), err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			ErrEmbedding, len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", ErrEmbedding, i)
		}
		if e.dim > 0 && len(emb.Embedding) != int(e.dim) {
			return nil, fmt.Errorf("%w: embedding at index %d has %d dimensions, want %d",
				ErrEmbedding, i, len(emb.Embedding), e.dim)
		}
		vectors[i] = emb.Embedding
	}
	return vectors, nil
}

// truncateRunes truncates s to at most n runes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// transientPatterns match provider errors that are worth retrying:
// rate limits, timeouts, and upstream 5xx blips. Everything else
// (auth, invalid request) fails fast.
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
