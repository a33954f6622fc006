package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
)

const characteristicClass = "SliceCharacteristic"

// WeaviateRetriever performs semantic retrieval over GST characteristics
// stored in a Weaviate vector index.
type WeaviateRetriever struct {
	client       *weaviate.Client
	logger       *slog.Logger
	minCertainty float32
}

// WeaviateConfig carries the connection settings for the vector store.
type WeaviateConfig struct {
	Host         string  `yaml:"host"`
	Scheme       string  `yaml:"scheme"`
	MinCertainty float32 `yaml:"min_certainty"`
}

// NewWeaviateRetriever connects to Weaviate. It does not create the
// schema; call EnsureClass before indexing.
func NewWeaviateRetriever(cfg WeaviateConfig, logger *slog.Logger) (*WeaviateRetriever, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost:8080"
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WeaviateRetriever{
		client:       client,
		logger:       logger,
		minCertainty: cfg.MinCertainty,
	}, nil
}

// EnsureClass creates the SliceCharacteristic class if it does not
// already exist.
func (wr *WeaviateRetriever) EnsureClass(ctx context.Context) error {
	class := &models.Class{
		Class:       characteristicClass,
		Description: "GST slice characteristic descriptors for prompt grounding",
		Properties: []*models.Property{
			{Name: "name", DataType: []string{"text"}},
			{Name: "description", DataType: []string{"text"}},
			{Name: "valueType", DataType: []string{"text"}},
		},
	}
	err := wr.client.Schema().ClassCreator().WithClass(class).Do(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create %s class: %w", characteristicClass, err)
	}
	wr.logger.Info("created weaviate class", "class", characteristicClass)
	return nil
}

// Index uploads every registry characteristic as one object. Object IDs
// are derived from the characteristic name so re-indexing is idempotent.
func (wr *WeaviateRetriever) Index(ctx context.Context, registry *gst.Registry) error {
	for _, spec := range registry.AllSpecifications() {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(spec.Name)).String()
		_, err := wr.client.Data().Creator().
			WithClassName(characteristicClass).
			WithID(id).
			WithProperties(map[string]interface{}{
				"name":        spec.Name,
				"description": spec.Description,
				"valueType":   string(spec.ValueType),
			}).
			Do(ctx)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("failed to index characteristic %q: %w", spec.Name, err)
		}
	}
	wr.logger.Info("indexed characteristics", "count", registry.Len())
	return nil
}

// Retrieve implements Retriever via a nearText query.
func (wr *WeaviateRetriever) Retrieve(ctx context.Context, query string, k int) ([]Candidate, error) {
	if k <= 0 {
		k = 5
	}

	nearText := (&graphql.NearTextArgumentBuilder{}).
		WithConcepts([]string{query})
	if wr.minCertainty > 0 {
		nearText = nearText.WithCertainty(wr.minCertainty)
	}

	result, err := wr.client.GraphQL().Get().
		WithClassName(characteristicClass).
		WithNearText(nearText).
		WithFields(
			graphql.Field{Name: "name"},
			graphql.Field{Name: "description"},
			graphql.Field{Name: "valueType"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{
				{Name: "certainty"},
			}},
		).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search failed: %s", result.Errors[0].Message)
	}

	var candidates []Candidate
	if result.Data != nil {
		if data, ok := result.Data["Get"].(map[string]interface{}); ok {
			if items, ok := data[characteristicClass].([]interface{}); ok {
				for _, item := range items {
					itemMap, ok := item.(map[string]interface{})
					if !ok {
						continue
					}
					candidates = append(candidates, parseCandidate(itemMap))
				}
			}
		}
	}

	wr.logger.Debug("weaviate retrieval completed",
		"query", query,
		"results", len(candidates),
	)
	return candidates, nil
}

func parseCandidate(item map[string]interface{}) Candidate {
	var c Candidate
	if val, ok := item["name"].(string); ok {
		c.Name = val
	}
	if val, ok := item["description"].(string); ok {
		c.Description = val
	}
	if val, ok := item["valueType"].(string); ok {
		c.ValueType = gst.ValueType(val)
	}
	if additional, ok := item["_additional"].(map[string]interface{}); ok {
		if val, ok := additional["certainty"].(float64); ok {
			c.Similarity = val
		}
	}
	return c
}
