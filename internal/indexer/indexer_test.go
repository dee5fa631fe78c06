package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/smartcat-ai/askcat/internal/knowledge"
)

// fakeBatchEmbedder implements BatchEmbedder for testing
type fakeBatchEmbedder struct {
	err     error
	block   chan struct{} // When set, EmbedBatch waits until closed
	calls   int
	batches [][]string

	mu sync.Mutex
}

func (f *fakeBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.batches = append(f.batches, texts)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 0.5}
	}
	return vectors, nil
}

// fakeReplacer implements Replacer for testing
type fakeReplacer struct {
	err   error
	calls int
	items []knowledge.Item
}

func (f *fakeReplacer) ReplaceAll(ctx context.Context, items []knowledge.Item) error {
	f.calls++
	f.items = items
	return f.err
}

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"employees.json": `[
			{"id":"emp-1","name":"Milan Petrović","role":"Senior ML Engineer","department":"Engineering",
			 "skills":["Kafka","ML"],"experience_years":8,"certifications":["AWS ML"],
			 "languages":["English","Serbian"],"bio":"Led fraud detection processing 10M+ transactions/day"}
		]`,
		"repositories.json": `[
			{"id":"repo-1","name":"fraud-detection","description":"Real-time fraud scoring",
			 "language":"Python","technologies":["Kafka","TensorFlow"],"cloud":"AWS",
			 "features":["real-time scoring"],"metrics":"<50ms latency","status":"production"}
		]`,
		"projects.json": `[
			{"id":"proj-1","name":"FraudShield","client":"NeoBank","industry":"fintech",
			 "duration":"9 months","value":"$1.8M","status":"delivered",
			 "description":"Fraud detection platform","technologies":["Kafka"],
			 "capabilities":["fraud detection"],"outcomes":["$50M+ fraud prevented annually"],
			 "team_size":6,"key_people":["Milan Petrović"]}
		]`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func TestIndexer_Reindex_Success(t *testing.T) {
	embedder := &fakeBatchEmbedder{}
	store := &fakeReplacer{}
	ix := New(embedder, store, writeDataDir(t), nil)

	count, err := ix.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}

	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if store.calls != 1 {
		t.Fatalf("expected 1 ReplaceAll call, got %d", store.calls)
	}

	items := store.items
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	// Fixed insertion order: employees, repositories, projects
	if items[0].Kind != "employee" || items[1].Kind != "repository" || items[2].Kind != "project" {
		t.Errorf("kind order = %q, %q, %q", items[0].Kind, items[1].Kind, items[2].Kind)
	}

	// Denormalized text, not raw JSON, is what gets embedded
	if !strings.HasPrefix(items[0].Content, "Milan Petrović - Senior ML Engineer in Engineering\n") {
		t.Errorf("employee content = %q", items[0].Content)
	}
	if !strings.Contains(items[0].Content, "fraud detection") {
		t.Errorf("employee bio missing from content: %q", items[0].Content)
	}
	if !strings.Contains(items[2].Content, "Outcomes: $50M+ fraud prevented annually") {
		t.Errorf("project outcomes missing: %q", items[2].Content)
	}

	// Every item carries its embedding and filterable metadata
	for _, item := range items {
		if len(item.Embedding) == 0 {
			t.Errorf("item %s has no embedding", item.ID)
		}
	}
	if items[0].Metadata["department"] != "Engineering" {
		t.Errorf("employee metadata = %v", items[0].Metadata)
	}
	if items[1].Metadata["language"] != "Python" {
		t.Errorf("repository metadata = %v", items[1].Metadata)
	}
	if items[2].Metadata["industry"] != "fintech" {
		t.Errorf("project metadata = %v", items[2].Metadata)
	}
}

func TestIndexer_Reindex_MissingFile(t *testing.T) {
	dir := t.TempDir() // No source files at all
	ix := New(&fakeBatchEmbedder{}, &fakeReplacer{}, dir, nil)

	_, err := ix.Reindex(context.Background())
	if err == nil {
		t.Fatal("expected error for missing source files")
	}
}

func TestIndexer_Reindex_InvalidRecord(t *testing.T) {
	dir := writeDataDir(t)
	bad := `[{"id":"","name":"No ID"}]`
	if err := os.WriteFile(filepath.Join(dir, "employees.json"), []byte(bad), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	store := &fakeReplacer{}
	ix := New(&fakeBatchEmbedder{}, store, dir, nil)

	_, err := ix.Reindex(context.Background())
	if err == nil {
		t.Fatal("expected error for record without id")
	}
	if store.calls > 0 {
		t.Error("store must not be touched when validation fails")
	}
}

func TestIndexer_Reindex_EmbeddingError(t *testing.T) {
	embedErr := errors.New("provider down")
	store := &fakeReplacer{}
	ix := New(&fakeBatchEmbedder{err: embedErr}, store, writeDataDir(t), nil)

	_, err := ix.Reindex(context.Background())
	if !errors.Is(err, embedErr) {
		t.Fatalf("expected embedding error, got %v", err)
	}
	if store.calls > 0 {
		t.Error("store must not be replaced when embedding fails")
	}
}

func TestIndexer_Reindex_ConcurrentRunRejected(t *testing.T) {
	block := make(chan struct{})
	embedder := &fakeBatchEmbedder{block: block}
	ix := New(embedder, &fakeReplacer{}, writeDataDir(t), nil)

	done := make(chan error, 1)
	go func() {
		_, err := ix.Reindex(context.Background())
		done <- err
	}()

	// Wait until the first run is inside the embedding step
	for {
		embedder.mu.Lock()
		started := embedder.calls > 0
		embedder.mu.Unlock()
		if started {
			break
		}
	}

	if _, err := ix.Reindex(context.Background()); !errors.Is(err, ErrReindexRunning) {
		t.Errorf("expected ErrReindexRunning, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first reindex failed: %v", err)
	}

	// Lock released; a new run goes through
	if _, err := ix.Reindex(context.Background()); err != nil {
		t.Errorf("reindex after completion failed: %v", err)
	}
}
