package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/smartcat-ai/askcat/internal/log"
)

// ErrStoreUnavailable indicates the knowledge store schema is missing,
// usually because migrations have not run yet.
var ErrStoreUnavailable = errors.New("knowledge store unavailable")

const (
	searchTimeout  = 10 * time.Second
	upsertTimeout  = 10 * time.Second
	replaceTimeout = 2 * time.Minute
)

// Store provides similarity search and indexing over the knowledge table.
// It is vector-only: callers bring their own query embeddings, which keeps
// the embedding client swappable and the store testable without a provider.
// Safe for concurrent use.
type Store struct {
	queries Querier
	logger  log.Logger
}

// NewStore creates a Store on the given Querier.
func NewStore(queries Querier, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		queries: queries,
		logger:  logger,
	}
}

// Search returns the items nearest to the query embedding, most similar
// first. Similarity is 1 - cosine distance, in [-1, 1] and ~1 for near
// duplicates. A missing schema degrades to an empty result with a warning
// rather than failing the caller's request.
func (s *Store) Search(ctx context.Context, embedding []float32, opts ...SearchOption) ([]Match, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding must not be empty")
	}

	cfg := buildSearchConfig(opts)

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	rows, err := s.queries.SearchItems(ctx, SearchItemsParams{
		QueryEmbedding: pgvector.NewVector(embedding),
		ResultLimit:    cfg.topK,
	})
	if err != nil {
		if isUndefinedTable(err) {
			s.logger.Warn("knowledge table missing, returning no results; run migrations",
				"error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("searching knowledge store: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		metadata, err := decodeMetadata(row.Metadata)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", row.ID, err)
		}
		matches = append(matches, Match{
			Item: Item{
				ID:       row.ID,
				Kind:     row.Kind,
				Name:     row.Name,
				Content:  row.Content,
				Metadata: metadata,
			},
			Similarity: float32(row.Similarity),
		})
	}
	return matches, nil
}

// Upsert inserts or replaces a single item.
func (s *Store) Upsert(ctx context.Context, item Item) error {
	params, err := upsertParams(item)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, upsertTimeout)
	defer cancel()

	if err := s.queries.UpsertItem(ctx, params); err != nil {
		return fmt.Errorf("upserting %q: %w", item.ID, err)
	}
	return nil
}

// ReplaceAll atomically replaces the entire item set. Used by the batch
// indexer; concurrent searches see the old set until the swap commits.
func (s *Store) ReplaceAll(ctx context.Context, items []Item) error {
	params := make([]UpsertItemParams, 0, len(items))
	for _, item := range items {
		p, err := upsertParams(item)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	ctx, cancel := context.WithTimeout(ctx, replaceTimeout)
	defer cancel()

	if err := s.queries.ReplaceItems(ctx, params); err != nil {
		return fmt.Errorf("replacing %d items: %w", len(items), err)
	}

	s.logger.Info("knowledge store replaced", "items", len(items))
	return nil
}

// Count returns the number of indexed items. A missing schema maps to
// ErrStoreUnavailable so readiness checks can report it distinctly.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.queries.CountItems(ctx)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, fmt.Errorf("%w: schema missing, run migrations", ErrStoreUnavailable)
		}
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return int(count), nil
}

func upsertParams(item Item) (UpsertItemParams, error) {
	if item.ID == "" {
		return UpsertItemParams{}, fmt.Errorf("item ID must not be empty")
	}
	if len(item.Embedding) == 0 {
		return UpsertItemParams{}, fmt.Errorf("item %q has no embedding", item.ID)
	}
	metadata, err := encodeMetadata(item.Metadata)
	if err != nil {
		return UpsertItemParams{}, fmt.Errorf("item %q: %w", item.ID, err)
	}
	return UpsertItemParams{
		ID:        item.ID,
		Kind:      item.Kind,
		Name:      item.Name,
		Content:   item.Content,
		Embedding: pgvector.NewVector(item.Embedding),
		Metadata:  metadata,
	}, nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
