package knowledge

// Item is one indexed knowledge entry: an entity's denormalized text plus
// its embedding and filterable metadata. Items are immutable between reindex
// runs; a reindex replaces the whole set.
type Item struct {
	ID        string            // Globally unique entity ID
	Kind      string            // Entity kind ("employee", "repository", "project")
	Name      string            // Stable human-readable name, used as citation key
	Content   string            // Denormalized text (the unit embedded and retrieved)
	Embedding []float32         // Fixed-length embedding vector
	Metadata  map[string]string // Auxiliary filterable fields (department, industry, ...)
}

// Match is a single similarity search hit.
type Match struct {
	Item
	Similarity float32 // Cosine similarity, higher is more similar
}

// SearchOption configures search behavior using the functional options
// pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK int32
}

// WithTopK sets the maximum number of results to return.
// Default is 5 if not specified; values are clamped to [1, 20].
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		switch {
		case k < 1:
			c.topK = 1
		case k > 20:
			c.topK = 20
		default:
			c.topK = int32(k)
		}
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK: 5, // Default
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
