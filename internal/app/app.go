// Package app wires the application together: config, database, Genkit,
// knowledge store, retriever, generator, assistant, and indexer.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcat-ai/askcat/internal/assistant"
	"github.com/smartcat-ai/askcat/internal/config"
	"github.com/smartcat-ai/askcat/internal/indexer"
	"github.com/smartcat-ai/askcat/internal/knowledge"
	"github.com/smartcat-ai/askcat/internal/log"
	"github.com/smartcat-ai/askcat/internal/rag"
)

// App holds all initialized components. Construct with Setup, release with
// Close.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit *genkit.Genkit
	DBPool *pgxpool.Pool

	Embedder  *knowledge.Embedder
	Store     *knowledge.Store
	Retriever *rag.Retriever
	Assistant *assistant.Assistant
	Indexer   *indexer.Indexer

	dbCleanup func()
}

// Close releases application resources. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	return nil
}
