// Package ingestion turns stored scrapes into stored catalogs: it reads
// raw records for a prefix, normalizes them and writes the catalog back.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfenderov/shelf/internal/events"
	"github.com/mfenderov/shelf/internal/pipeline"
	"github.com/mfenderov/shelf/pkg/models"
)

// Store is the object storage the engine reads from and writes to.
// *storage.Client satisfies it.
type Store interface {
	GetRawRecords(ctx context.Context, prefix string) ([]models.RawRecord, error)
	PutCatalog(ctx context.Context, prefix string, products []models.Product) error
}

// Result holds ingestion execution results.
type Result struct {
	Prefix      string
	Summary     *pipeline.Result
	DocsIndexed int
	Duration    time.Duration
	Errors      []string
}

// Event converts the result into the completion event for consumers.
func (r *Result) Event() events.NormalizeCompleteEvent {
	event := events.NormalizeCompleteEvent{
		Prefix:      r.Prefix,
		DocsIndexed: r.DocsIndexed,
		Duration:    r.Duration,
		Errors:      r.Errors,
		SkipReasons: make(map[string]int),
	}
	if r.Summary != nil {
		event.Total = r.Summary.Total
		event.Normalized = r.Summary.Normalized
		event.Skipped = r.Summary.Skipped
		for reason, count := range r.Summary.SkipReasons {
			event.SkipReasons[string(reason)] = count
		}
	}
	return event
}

// Engine reads raw records from storage, normalizes them and stores the
// resulting catalog. Indexing happens when the pipeline has an indexer.
type Engine struct {
	storage  Store
	pipeline *pipeline.Pipeline
}

// New creates a new ingestion engine.
func New(storage Store, p *pipeline.Pipeline) *Engine {
	return &Engine{
		storage:  storage,
		pipeline: p,
	}
}

// Ingest normalizes the raw records stored under prefix and writes the
// catalog next to them.
func (e *Engine) Ingest(ctx context.Context, prefix string) (*Result, error) {
	start := time.Now()
	result := &Result{Prefix: prefix}

	slog.Info("starting ingestion", "prefix", prefix)

	records, err := e.storage.GetRawRecords(ctx, prefix)
	if err != nil {
		return nil, err
	}

	slog.Info("found records to normalize", "count", len(records))

	summary, err := e.pipeline.Run(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", prefix, err)
	}
	result.Summary = summary
	result.DocsIndexed = summary.DocsIndexed
	for _, indexErr := range summary.Errors {
		result.Errors = append(result.Errors, indexErr.Error())
	}

	if err := e.storage.PutCatalog(ctx, prefix, summary.Products); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	slog.Info("ingestion complete",
		"prefix", prefix,
		"normalized", summary.Normalized,
		"skipped", summary.Skipped,
		"docs_indexed", result.DocsIndexed,
		"duration", result.Duration,
		"errors", len(result.Errors))

	return result, nil
}

// Consume ingests every scrape announced on in and reports each outcome
// on the returned channel, which is closed once in is drained. A failed
// prefix is reported with Err set and does not stop the consumer.
func (e *Engine) Consume(ctx context.Context, in <-chan events.ScrapeCompleteEvent) <-chan events.NormalizeCompleteEvent {
	out := make(chan events.NormalizeCompleteEvent)

	go func() {
		defer close(out)
		for event := range in {
			slog.Debug("received scrape event", "prefix", event.Prefix, "records", event.RecordCount)

			var done events.NormalizeCompleteEvent
			result, err := e.Ingest(ctx, event.Prefix)
			if err != nil {
				done = events.NormalizeCompleteEvent{Prefix: event.Prefix, Err: err}
			} else {
				done = result.Event()
			}

			select {
			case out <- done:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
