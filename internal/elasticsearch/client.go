// Package elasticsearch indexes normalized products for full-text search.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/mfenderov/shelf/internal/catalog"
	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/pkg/models"
)

// Config holds Elasticsearch client configuration.
type Config struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
}

// Client wraps the Elasticsearch client with product operations.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// New creates a new Elasticsearch client.
func New(config Config) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &Client{
		es:    es,
		index: config.Index,
	}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// indexMapping defines the ES index mapping for products. The derived
// sections are stored alongside the raw leftover text so category can be
// filtered exactly.
var indexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"url": { "type": "keyword" },
			"name": {
				"type": "text",
				"fields": { "raw": { "type": "keyword" } }
			},
			"options": {
				"properties": {
					"size": { "type": "keyword" },
					"price": { "type": "keyword" }
				}
			},
			"ingredients": { "type": "text" },
			"other": { "type": "text", "index": false },
			"category": { "type": "keyword" },
			"description": { "type": "text", "analyzer": "english" },
			"details": { "type": "text", "analyzer": "english" },
			"price": { "type": "float" }
		}
	}
}`

// document is the indexed form of a product.
type document struct {
	models.Product
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Details     string  `json:"details"`
	Price       float64 `json:"price"`
}

func newDocument(p models.Product) document {
	sections := normalizer.SectionsOf(p)
	return document{
		Product:     p,
		Category:    sections.Category,
		Description: sections.Description,
		Details:     sections.Details,
		Price:       catalog.ParsePrice(p.FirstPrice()),
	}
}

// CreateIndex creates the index with proper mapping.
func (c *Client) CreateIndex(ctx context.Context) error {
	// Check if index exists
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		// Index already exists
		return nil
	}

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// DeleteIndex removes the index (for testing/cleanup).
func (c *Client) DeleteIndex(ctx context.Context) error {
	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// IndexProduct indexes a single product under its ID.
func (c *Client) IndexProduct(ctx context.Context, product models.Product) error {
	data, err := json.Marshal(newDocument(product))
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(data),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(product.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index product: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing product %s (status %d): %s", product.ID, res.StatusCode, res.String())
	}

	return nil
}

// Refresh forces an index refresh.
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.index),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// searchResponse represents ES search response structure.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// searchQuery builds a BM25 query over name, ingredients and the derived
// text sections. An empty query matches everything; a category restricts
// results to that exact derived category.
func searchQuery(query, category string, limit int) map[string]any {
	var must map[string]any
	if query == "" {
		must = map[string]any{"match_all": map[string]any{}}
	} else {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"name^3", "ingredients", "description", "details"},
			},
		}
	}

	boolQuery := map[string]any{"must": must}
	if category != "" {
		boolQuery["filter"] = []map[string]any{
			{"term": map[string]any{"category": category}},
		}
	}

	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"size":  limit,
	}
}

// Search performs a text search over products.
func (c *Client) Search(ctx context.Context, query, category string, limit int) ([]models.Product, error) {
	data, err := json.Marshal(searchQuery(query, category, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	products := make([]models.Product, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		products[i] = hit.Source.Product
	}

	return products, nil
}

// getResponse represents ES get response structure.
type getResponse struct {
	Found  bool     `json:"found"`
	Source document `json:"_source"`
}

// GetProduct retrieves a product by ID. It returns nil when the product
// is not indexed.
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	res, err := c.es.Get(
		c.index,
		id,
		c.es.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !gr.Found {
		return nil, nil
	}

	return &gr.Source.Product, nil
}
