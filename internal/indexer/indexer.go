// Package indexer implements the batch reindex job: read entity source
// records, compute their denormalized text, embed, and atomically replace
// the knowledge store's contents.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smartcat-ai/askcat/internal/entity"
	"github.com/smartcat-ai/askcat/internal/knowledge"
	"github.com/smartcat-ai/askcat/internal/log"
)

// ErrReindexRunning indicates a reindex was requested while another is in
// progress. The swap protocol is single-writer; overlapping runs would race
// on the final replace.
var ErrReindexRunning = errors.New("reindex already running")

// embedBatchSize bounds texts per embedding request, keeping each request
// well under provider payload limits.
const embedBatchSize = 16

// BatchEmbedder embeds a batch of texts, order-preserving.
// Satisfied by *knowledge.Embedder.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Replacer atomically swaps the knowledge store's item set.
// Satisfied by *knowledge.Store.
type Replacer interface {
	ReplaceAll(ctx context.Context, items []knowledge.Item) error
}

// Indexer rebuilds the knowledge store from the entity source files.
type Indexer struct {
	embedder BatchEmbedder
	store    Replacer
	dataDir  string
	logger   log.Logger

	mu sync.Mutex // Held for the duration of a reindex run
}

// New creates an Indexer reading source records from dataDir.
func New(embedder BatchEmbedder, store Replacer, dataDir string, logger log.Logger) *Indexer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		dataDir:  dataDir,
		logger:   logger,
	}
}

// Reindex rebuilds the whole store: load every source record, denormalize,
// embed, and replace the item set in one transaction. Returns the number of
// indexed items. Concurrent calls are rejected with ErrReindexRunning rather
// than queued; the job is idempotent, so the caller can simply retry later.
func (ix *Indexer) Reindex(ctx context.Context) (int, error) {
	if !ix.mu.TryLock() {
		return 0, ErrReindexRunning
	}
	defer ix.mu.Unlock()

	items, err := ix.loadItems()
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("no entities found in %s", ix.dataDir)
	}

	ix.logger.Info("reindex started", "entities", len(items), "data_dir", ix.dataDir)

	if err := ix.embedAll(ctx, items); err != nil {
		return 0, err
	}

	if err := ix.store.ReplaceAll(ctx, items); err != nil {
		return 0, fmt.Errorf("replacing store contents: %w", err)
	}

	ix.logger.Info("reindex finished", "items", len(items))
	return len(items), nil
}

// loadItems reads the three source files and builds items in a fixed order
// (employees, repositories, projects). Insertion order is the similarity
// tie-break, so it must be deterministic run to run.
func (ix *Indexer) loadItems() ([]knowledge.Item, error) {
	employees, err := loadRecords[entity.Employee](filepath.Join(ix.dataDir, "employees.json"))
	if err != nil {
		return nil, err
	}
	repositories, err := loadRecords[entity.Repository](filepath.Join(ix.dataDir, "repositories.json"))
	if err != nil {
		return nil, err
	}
	projects, err := loadRecords[entity.Project](filepath.Join(ix.dataDir, "projects.json"))
	if err != nil {
		return nil, err
	}

	items := make([]knowledge.Item, 0, len(employees)+len(repositories)+len(projects))

	for _, e := range employees {
		if err := validateRecord(e.ID, e.Name); err != nil {
			return nil, fmt.Errorf("employees.json: %w", err)
		}
		items = append(items, knowledge.Item{
			ID:      e.ID,
			Kind:    string(entity.KindEmployee),
			Name:    e.Name,
			Content: e.Denormalize(),
			Metadata: map[string]string{
				"role":       e.Role,
				"department": e.Department,
				"skills":     strings.Join(e.Skills, ", "),
			},
		})
	}

	for _, r := range repositories {
		if err := validateRecord(r.ID, r.Name); err != nil {
			return nil, fmt.Errorf("repositories.json: %w", err)
		}
		items = append(items, knowledge.Item{
			ID:      r.ID,
			Kind:    string(entity.KindRepository),
			Name:    r.Name,
			Content: r.Denormalize(),
			Metadata: map[string]string{
				"language":     r.Language,
				"technologies": strings.Join(r.Technologies, ", "),
				"cloud":        r.Cloud,
			},
		})
	}

	for _, p := range projects {
		if err := validateRecord(p.ID, p.Name); err != nil {
			return nil, fmt.Errorf("projects.json: %w", err)
		}
		items = append(items, knowledge.Item{
			ID:      p.ID,
			Kind:    string(entity.KindProject),
			Name:    p.Name,
			Content: p.Denormalize(),
			Metadata: map[string]string{
				"client":       p.Client,
				"industry":     p.Industry,
				"technologies": strings.Join(p.Technologies, ", "),
				"capabilities": strings.Join(p.Capabilities, ", "),
			},
		})
	}

	return items, nil
}

// embedAll fills in item embeddings in bounded batches.
func (ix *Indexer) embedAll(ctx context.Context, items []knowledge.Item) error {
	for start := 0; start < len(items); start += embedBatchSize {
		end := min(start+embedBatchSize, len(items))

		texts := make([]string, 0, end-start)
		for _, item := range items[start:end] {
			texts = append(texts, item.Content)
		}

		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding items %d-%d: %w", start, end-1, err)
		}

		for i, vec := range vectors {
			items[start+i].Embedding = vec
		}

		ix.logger.Debug("embedded batch", "from", start, "to", end-1)
	}
	return nil
}

func loadRecords[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

func validateRecord(id, name string) error {
	if id == "" {
		return fmt.Errorf("record %q has no id", name)
	}
	if name == "" {
		return fmt.Errorf("record %q has no name", id)
	}
	return nil
}
