// Package rag retrieves GST characteristics relevant to a scenario so
// prompts can be grounded in the slice template instead of the model's
// memory. The retriever is an opaque collaborator from the pipeline's
// point of view: given a query it returns ranked candidates.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
)

// Config selects and configures the retrieval backend and the optional
// cache layer in front of it.
type Config struct {
	// Backend is "lexical" or "weaviate"; empty selects lexical.
	Backend      string         `yaml:"backend"`
	TopK         int            `yaml:"top_k"`
	Weaviate     WeaviateConfig `yaml:"weaviate"`
	CacheEnabled bool           `yaml:"cache_enabled"`
	Cache        CacheConfig    `yaml:"cache"`
}

// NewRetriever assembles the configured backend, wrapped in the Redis
// cache when enabled. The returned cleanup closes the cache connection
// when one was opened.
func NewRetriever(cfg Config, registry *gst.Registry, logger *slog.Logger) (Retriever, func(), error) {
	var base Retriever
	switch cfg.Backend {
	case "weaviate":
		wr, err := NewWeaviateRetriever(cfg.Weaviate, logger)
		if err != nil {
			return nil, nil, err
		}
		base = wr
	case "", "lexical":
		base = NewLexicalRetriever(registry)
	default:
		return nil, nil, fmt.Errorf("unknown retriever backend %q", cfg.Backend)
	}

	if !cfg.CacheEnabled {
		return base, func() {}, nil
	}
	cached := NewCachingRetriever(base, cfg.Cache, logger)
	return cached, func() { _ = cached.Close() }, nil
}

// Candidate is one retrieved characteristic descriptor with its
// relevance score.
type Candidate struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ValueType   gst.ValueType `json:"valueType"`
	Similarity  float64       `json:"similarity"`
}

// Retriever returns the k characteristics most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Candidate, error)
}

// LexicalRetriever ranks registry characteristics by token overlap with
// the query. It is the in-process fallback when no vector store is
// configured; scoring is deterministic, ties resolve to registry order.
type LexicalRetriever struct {
	registry *gst.Registry
}

// NewLexicalRetriever builds a lexical retriever over the registry.
func NewLexicalRetriever(registry *gst.Registry) *LexicalRetriever {
	return &LexicalRetriever{registry: registry}
}

// Retrieve implements Retriever.
func (lr *LexicalRetriever) Retrieve(ctx context.Context, query string, k int) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 5
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var ranked []scored
	for i, spec := range lr.registry.AllSpecifications() {
		docTokens := tokenize(spec.Name + " " + spec.Description)
		score := overlap(queryTokens, docTokens)
		if score > 0 {
			ranked = append(ranked, scored{idx: i, score: score})
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	specs := lr.registry.AllSpecifications()
	out := make([]Candidate, 0, len(ranked))
	for _, s := range ranked {
		spec := specs[s.idx]
		out = append(out, Candidate{
			Name:        spec.Name,
			Description: spec.Description,
			ValueType:   spec.ValueType,
			Similarity:  s.score,
		})
	}
	return out, nil
}

func tokenize(s string) map[string]bool {
	tokens := map[string]bool{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(tok) > 2 {
			tokens[tok] = true
		}
	}
	return tokens
}

// overlap is the fraction of query tokens present in the document.
func overlap(query, doc map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for tok := range query {
		if doc[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

// Specs resolves candidates back to registry specifications, dropping
// candidates the registry does not know.
func Specs(registry *gst.Registry, candidates []Candidate) []*gst.CharacteristicSpec {
	out := make([]*gst.CharacteristicSpec, 0, len(candidates))
	for _, c := range candidates {
		if spec, ok := registry.Lookup(c.Name); ok {
			out = append(out, spec)
		}
	}
	return out
}
