// Package rag implements the retrieval half of askcat's
// retrieval-augmented generation pipeline: embedding the user's query,
// finding the nearest knowledge entities, and formatting them into the
// citation-tagged context block the generator grounds its answers on.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartcat-ai/askcat/internal/entity"
	"github.com/smartcat-ai/askcat/internal/knowledge"
	"github.com/smartcat-ai/askcat/internal/log"
)

// EmbeddingProvider converts query text into an embedding vector.
// Satisfied by *knowledge.Embedder.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher finds the nearest stored items to a query embedding.
// Satisfied by *knowledge.Store.
type VectorSearcher interface {
	Search(ctx context.Context, embedding []float32, opts ...knowledge.SearchOption) ([]knowledge.Match, error)
}

// SearchResult is one retrieved entity with its typed kind and similarity.
type SearchResult struct {
	ID         string
	Kind       entity.Kind
	Name       string
	Content    string
	Similarity float32
}

// Retriever embeds queries and searches the knowledge store.
// Safe for concurrent use.
type Retriever struct {
	embedder EmbeddingProvider
	searcher VectorSearcher
	topK     int
	logger   log.Logger
}

// NewRetriever creates a Retriever. topK is the default result count when a
// call does not override it.
func NewRetriever(embedder EmbeddingProvider, searcher VectorSearcher, topK int, logger log.Logger) *Retriever {
	if logger == nil {
		logger = log.NewNop()
	}
	if topK < 1 {
		topK = 5
	}
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve returns the entities most similar to the query, best first.
// An empty store or missing schema yields an empty slice, not an error;
// chat still works, it just answers without grounding.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	searchOpts := append([]knowledge.SearchOption{knowledge.WithTopK(r.topK)}, opts...)
	matches, err := r.searcher.Search(ctx, embedding, searchOpts...)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge store: %w", err)
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		kind, err := entity.ParseKind(m.Kind)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", m.ID, err)
		}
		results = append(results, SearchResult{
			ID:         m.ID,
			Kind:       kind,
			Name:       m.Name,
			Content:    m.Content,
			Similarity: m.Similarity,
		})
	}

	r.logger.Debug("retrieved knowledge entities",
		"query_len", len(query),
		"results", len(results))

	return results, nil
}
