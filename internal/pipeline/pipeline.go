// Package pipeline runs the batch normalization of raw records into the
// product catalog and optionally pushes the products into a search index.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/internal/store"
	"github.com/mfenderov/shelf/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Indexer receives normalized products. *elasticsearch.Client satisfies it.
type Indexer interface {
	CreateIndex(ctx context.Context) error
	IndexProduct(ctx context.Context, product models.Product) error
	Refresh(ctx context.Context) error
}

// Config holds pipeline configuration.
type Config struct {
	Workers    int               // records normalized in parallel; <= 1 runs sequentially
	Normalizer normalizer.Config // extraction rules
	Indexer    Indexer           // nil disables indexing
}

// Result is the per-run summary. Products are in input order.
type Result struct {
	Products         []models.Product
	Total            int
	Normalized       int
	Skipped          int
	SkipReasons      map[normalizer.SkipReason]int
	MalformedOptions int
	EmptyIngredients int
	DocsIndexed      int
	IndexOverwrites  int // documents that replaced one indexed earlier in the run
	Duration         time.Duration
	Errors           []error // non-fatal: index failures
}

// Pipeline normalizes batches of raw records.
type Pipeline struct {
	config     Config
	normalizer *normalizer.Normalizer
}

// New creates a new Pipeline with the given configuration.
func New(config Config) (*Pipeline, error) {
	n, err := normalizer.New(config.Normalizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create normalizer: %w", err)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Pipeline{config: config, normalizer: n}, nil
}

// outcome is the result of normalizing one record.
type outcome struct {
	product models.Product
	report  normalizer.Report
	err     error
}

// Run normalizes every record. Per-record failures are counted and never
// abort the batch; only context cancellation does.
func (p *Pipeline) Run(ctx context.Context, records []models.RawRecord) (*Result, error) {
	start := time.Now()

	outcomes := make([]outcome, len(records))
	g := new(errgroup.Group)
	g.SetLimit(p.config.Workers)
	for i, raw := range records {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			product, report, err := p.normalizer.NormalizeWithReport(raw)
			outcomes[i] = outcome{product: product, report: report, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Products:    make([]models.Product, 0, len(records)),
		Total:       len(records),
		SkipReasons: make(map[normalizer.SkipReason]int),
	}
	for i, o := range outcomes {
		result.MalformedOptions += o.report.MalformedOptions
		result.EmptyIngredients += o.report.EmptyIngredients

		if o.err != nil {
			result.Skipped++
			var skip *normalizer.SkipError
			if errors.As(o.err, &skip) {
				result.SkipReasons[skip.Reason]++
			}
			slog.Debug("record skipped", "index", i, "url", records[i].URL, "error", o.err)
			continue
		}
		result.Products = append(result.Products, o.product)
		result.Normalized++
	}

	if p.config.Indexer != nil {
		if err := p.index(ctx, result); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	slog.Info("normalization complete",
		"total", result.Total,
		"normalized", result.Normalized,
		"skipped", result.Skipped,
		"indexed", result.DocsIndexed,
		"overwrites", result.IndexOverwrites,
		"duration", result.Duration,
	)
	return result, nil
}

// index pushes the products into the configured index. A product that
// fails to index is recorded in result.Errors. Documents are keyed by
// product ID, so a repeated URL replaces the earlier document and is
// counted in result.IndexOverwrites.
func (p *Pipeline) index(ctx context.Context, result *Result) error {
	if err := p.config.Indexer.CreateIndex(ctx); err != nil {
		return fmt.Errorf("failed to prepare index: %w", err)
	}

	indexed := make(map[string]bool, len(result.Products))
	for _, product := range result.Products {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.config.Indexer.IndexProduct(ctx, product); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.DocsIndexed++
		if indexed[product.ID] {
			result.IndexOverwrites++
			slog.Warn("indexed document replaced", "id", product.ID, "url", product.URL)
		}
		indexed[product.ID] = true
	}

	// Refresh index to make products searchable immediately
	if err := p.config.Indexer.Refresh(ctx); err != nil {
		result.Errors = append(result.Errors, err)
	}
	return nil
}

// RunFile reads raw records from a JSON Lines file, normalizes them and
// writes the catalog to out. Read and write failures are fatal.
func (p *Pipeline) RunFile(ctx context.Context, in, out string) (*Result, error) {
	records, err := store.ReadRawFile(in)
	if err != nil {
		return nil, err
	}

	result, err := p.Run(ctx, records)
	if err != nil {
		return nil, err
	}

	if err := store.WriteCatalogFile(out, result.Products); err != nil {
		return nil, err
	}
	return result, nil
}
