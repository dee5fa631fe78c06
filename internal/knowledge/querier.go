package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Querier defines the database operations the store needs. Defined here, on
// the consumer side, so tests can provide a mock implementation.
type Querier interface {
	UpsertItem(ctx context.Context, arg UpsertItemParams) error
	SearchItems(ctx context.Context, arg SearchItemsParams) ([]SearchItemsRow, error)
	CountItems(ctx context.Context) (int64, error)
	ReplaceItems(ctx context.Context, items []UpsertItemParams) error
}

// UpsertItemParams carries one item row for insert-or-update.
type UpsertItemParams struct {
	ID        string
	Kind      string
	Name      string
	Content   string
	Embedding pgvector.Vector
	Metadata  []byte
}

// SearchItemsParams carries a similarity search request.
type SearchItemsParams struct {
	QueryEmbedding pgvector.Vector
	ResultLimit    int32
}

// SearchItemsRow is one similarity search hit as returned by the database.
type SearchItemsRow struct {
	ID         string
	Kind       string
	Name       string
	Content    string
	Metadata   []byte
	Similarity float64
}

// PGQuerier implements Querier on a pgx connection pool. The pool must have
// pgvector types registered (see app.Setup).
type PGQuerier struct {
	pool *pgxpool.Pool
}

// NewPGQuerier creates a PGQuerier backed by the given pool.
func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

const upsertItemSQL = `
INSERT INTO entities (id, kind, name, content, embedding, metadata)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	kind = EXCLUDED.kind,
	name = EXCLUDED.name,
	content = EXCLUDED.content,
	embedding = EXCLUDED.embedding,
	metadata = EXCLUDED.metadata`

// UpsertItem inserts an item row, replacing any existing row with the same ID.
func (q *PGQuerier) UpsertItem(ctx context.Context, arg UpsertItemParams) error {
	_, err := q.pool.Exec(ctx, upsertItemSQL,
		arg.ID, arg.Kind, arg.Name, arg.Content, arg.Embedding, arg.Metadata)
	if err != nil {
		return fmt.Errorf("upserting item %q: %w", arg.ID, err)
	}
	return nil
}

// searchItemsSQL orders by cosine distance ascending (nearest first).
// The secondary sort on position makes equal-distance ties deterministic:
// position is assigned in insertion order at index time.
const searchItemsSQL = `
SELECT id, kind, name, content, metadata, 1 - (embedding <=> $1) AS similarity
FROM entities
ORDER BY embedding <=> $1, position
LIMIT $2`

// SearchItems returns the nearest items to the query embedding by cosine
// distance, most similar first.
func (q *PGQuerier) SearchItems(ctx context.Context, arg SearchItemsParams) ([]SearchItemsRow, error) {
	rows, err := q.pool.Query(ctx, searchItemsSQL, arg.QueryEmbedding, arg.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	var results []SearchItemsRow
	for rows.Next() {
		var r SearchItemsRow
		if err := rows.Scan(&r.ID, &r.Kind, &r.Name, &r.Content, &r.Metadata, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}
	return results, nil
}

// CountItems returns the total number of indexed items.
func (q *PGQuerier) CountItems(ctx context.Context) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, "SELECT count(*) FROM entities").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// ReplaceItems atomically swaps the whole item set: delete everything, insert
// the new rows, commit. Readers on other connections see either the old set
// or the new one, never a partial mix.
func (q *PGQuerier) ReplaceItems(ctx context.Context, items []UpsertItemParams) error {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer func() {
		// No-op after commit.
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "DELETE FROM entities"); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(upsertItemSQL,
			item.ID, item.Kind, item.Name, item.Content, item.Embedding, item.Metadata)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting %d items: %w", len(items), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing replace transaction: %w", err)
	}
	return nil
}

// encodeMetadata serializes item metadata for the jsonb column.
// Nil maps become SQL NULL rather than the JSON string "null".
func encodeMetadata(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return data, nil
}

// decodeMetadata deserializes the jsonb column back into a map.
func decodeMetadata(data []byte) (map[string]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return m, nil
}
