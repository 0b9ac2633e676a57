package cmd

import (
	"context"
	"fmt"

	"github.com/mfenderov/shelf/internal/catalog"
	"github.com/mfenderov/shelf/internal/config"
	"github.com/mfenderov/shelf/internal/elasticsearch"
	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/internal/pipeline"
	"github.com/mfenderov/shelf/internal/scraper"
	"github.com/mfenderov/shelf/internal/storage"
)

func newScraper(cfg *config.Config) *scraper.Scraper {
	return scraper.New(scraper.Config{
		Delay:              cfg.Scraper.Delay,
		MaxDepth:           cfg.Scraper.MaxDepth,
		FollowLinks:        cfg.Scraper.FollowLinks,
		Timeout:            cfg.Scraper.Timeout,
		UserAgent:          cfg.Scraper.UserAgent,
		NameSelector:       cfg.Scraper.NameSelector,
		ContainerSelectors: cfg.Scraper.ContainerSelectors,
	})
}

func newStorageClient(cfg *config.Config) (*storage.Client, error) {
	client, err := storage.New(storage.Config{
		Endpoint:        cfg.Storage.Endpoint,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UseSSL:          cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

func newESClient(cfg *config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.New(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Index:     cfg.Elasticsearch.Index,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}
	return client, nil
}

// newPipeline builds the normalization pipeline, indexing into
// Elasticsearch when withIndex is set.
func newPipeline(ctx context.Context, cfg *config.Config, withIndex bool) (*pipeline.Pipeline, error) {
	pipelineConfig := pipeline.Config{
		Workers: cfg.Catalog.Workers,
		Normalizer: normalizer.Config{
			SizeSelector:        cfg.Normalizer.SizeSelector,
			PriceSelector:       cfg.Normalizer.PriceSelector,
			IngredientsKeyword:  cfg.Normalizer.IngredientsKeyword,
			IngredientDelimiter: cfg.Normalizer.IngredientDelimiter,
			FallbackSize:        cfg.Normalizer.FallbackSize,
		},
	}

	if withIndex {
		esClient, err := newESClient(cfg)
		if err != nil {
			return nil, err
		}
		if !esClient.Ping(ctx) {
			return nil, fmt.Errorf("elasticsearch not reachable at %v", cfg.Elasticsearch.Addresses)
		}
		pipelineConfig.Indexer = esClient
	}

	p, err := pipeline.New(pipelineConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return p, nil
}

// loadCatalog reads the catalog from a storage prefix when one is given,
// otherwise from the local catalog file.
func loadCatalog(ctx context.Context, cfg *config.Config, prefix string) (*catalog.Catalog, error) {
	if prefix == "" {
		return catalog.Load(cfg.Catalog.Path)
	}

	if cfg.Storage.Endpoint == "" {
		return nil, fmt.Errorf("storage not configured - cannot load prefix %s", prefix)
	}
	storageClient, err := newStorageClient(cfg)
	if err != nil {
		return nil, err
	}

	products, err := storageClient.GetCatalog(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return catalog.New(products), nil
}
