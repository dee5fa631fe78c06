// Package knowledge implements the knowledge store and embedding client for
// askcat's retrieval pipeline.
//
// The store holds indexed items: one row per entity (employee, repository,
// project), carrying the entity's denormalized text, its embedding vector,
// and filterable metadata. Similarity search runs on PostgreSQL with the
// pgvector extension using cosine distance, so scores are invariant to
// vector magnitude and embeddings from a fixed-dimensionality model compare
// fairly.
//
// Architecture:
//
//	Embedder (ai.Embedder bridge)     Store (search / upsert / swap)
//	        │                                 │
//	        └── used by rag.Retriever ────────┘
//	                        │
//	              Querier interface ── PGQuerier (pgx + pgvector)
//
// The Querier interface is defined here, by its consumer, so tests can
// substitute a mock without a database. PGQuerier is the single production
// implementation; the retrieval contract does not depend on it.
//
// Concurrency: Store and Embedder are safe for concurrent use. The batch
// indexer is the only writer and swaps the whole item set inside one
// transaction, so readers never observe a partially rebuilt store.
package knowledge
