package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
)

func TestLexicalRetrieverRanksOverlap(t *testing.T) {
	lr := NewLexicalRetriever(gst.Default())

	candidates, err := lr.Retrieve(context.Background(), "guaranteed downlink throughput per slice", 3)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.LessOrEqual(t, len(candidates), 3)

	// Throughput characteristics should dominate a throughput query.
	assert.Contains(t, candidates[0].Name, "throughput")

	// Scores are sorted descending.
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Similarity, candidates[i].Similarity)
	}
}

func TestLexicalRetrieverEmptyQuery(t *testing.T) {
	lr := NewLexicalRetriever(gst.Default())

	candidates, err := lr.Retrieve(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestLexicalRetrieverDefaultLimit(t *testing.T) {
	lr := NewLexicalRetriever(gst.Default())

	candidates, err := lr.Retrieve(context.Background(), "network slice availability latency throughput", 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(candidates), 5)
}

func TestLexicalRetrieverCancelledContext(t *testing.T) {
	lr := NewLexicalRetriever(gst.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lr.Retrieve(ctx, "latency", 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSpecsDropsUnknownCandidates(t *testing.T) {
	registry := gst.Default()
	candidates := []Candidate{
		{Name: "Availability"},
		{Name: "Not a characteristic"},
		{Name: "Delay tolerance"},
	}

	specs := Specs(registry, candidates)
	require.Len(t, specs, 2)
	assert.Equal(t, "Availability", specs[0].Name)
	assert.Equal(t, "Delay tolerance", specs[1].Name)
}

func TestParseCandidate(t *testing.T) {
	item := map[string]interface{}{
		"name":        "Delay tolerance",
		"description": "Maximum tolerated packet delay",
		"valueType":   "INTEGER",
		"_additional": map[string]interface{}{
			"certainty": 0.91,
		},
	}

	c := parseCandidate(item)
	assert.Equal(t, "Delay tolerance", c.Name)
	assert.Equal(t, gst.ValueTypeInteger, c.ValueType)
	assert.InDelta(t, 0.91, c.Similarity, 1e-9)
}

func TestNewRetrieverLexicalDefault(t *testing.T) {
	for _, backend := range []string{"", "lexical"} {
		r, cleanup, err := NewRetriever(Config{Backend: backend}, gst.Default(), nil)
		require.NoError(t, err, backend)
		defer cleanup()
		assert.IsType(t, &LexicalRetriever{}, r)
	}
}

func TestNewRetrieverUnknownBackend(t *testing.T) {
	_, _, err := NewRetriever(Config{Backend: "pinecone"}, gst.Default(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown retriever backend")
}

func TestNewRetrieverCacheEnabledWraps(t *testing.T) {
	cfg := Config{
		Backend:      "lexical",
		CacheEnabled: true,
		Cache:        CacheConfig{Address: "127.0.0.1:1"},
	}
	r, cleanup, err := NewRetriever(cfg, gst.Default(), nil)
	require.NoError(t, err)
	defer cleanup()

	cached, ok := r.(*CachingRetriever)
	require.True(t, ok, "cache_enabled must wrap the backend")
	assert.IsType(t, &LexicalRetriever{}, cached.inner)

	// The unreachable cache address still serves lookups through the
	// inner retriever.
	candidates, err := cached.Retrieve(context.Background(), "availability uptime", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, candidates)
}

func TestParseCandidateMissingFields(t *testing.T) {
	c := parseCandidate(map[string]interface{}{"name": "Availability"})
	assert.Equal(t, "Availability", c.Name)
	assert.Zero(t, c.Similarity)
}
