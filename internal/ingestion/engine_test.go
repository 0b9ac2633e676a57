package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mfenderov/shelf/internal/events"
	"github.com/mfenderov/shelf/internal/pipeline"
	"github.com/mfenderov/shelf/pkg/models"
)

type memoryStore struct {
	mu       sync.Mutex
	raw      map[string][]models.RawRecord
	catalogs map[string][]models.Product
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		raw:      make(map[string][]models.RawRecord),
		catalogs: make(map[string][]models.Product),
	}
}

func (m *memoryStore) GetRawRecords(_ context.Context, prefix string) ([]models.RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records, ok := m.raw[prefix]
	if !ok {
		return nil, errors.New("no such prefix")
	}
	return records, nil
}

func (m *memoryStore) PutCatalog(_ context.Context, prefix string, products []models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogs[prefix] = products
	return nil
}

func newEngine(t *testing.T, store Store) *Engine {
	t.Helper()
	p, err := pipeline.New(pipeline.Config{})
	if err != nil {
		t.Fatalf("pipeline.New() error = %v", err)
	}
	return New(store, p)
}

const prefix = "scrapes/example.com/2024-12-04T17-30-00-abc12345"

func seededStore() *memoryStore {
	store := newMemoryStore()
	store.raw[prefix] = []models.RawRecord{
		{URL: "https://example.com/product/1/shampoo", Name: " Shampoo ", HTMLFragment: "<size>8oz</size><price>$12</price>"},
		{URL: "https://example.com/product/2/blank", Name: ""},
	}
	return store
}

func TestEngine_Ingest(t *testing.T) {
	store := seededStore()

	result, err := newEngine(t, store).Ingest(context.Background(), prefix)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.Summary.Normalized != 1 || result.Summary.Skipped != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}

	catalog := store.catalogs[prefix]
	if len(catalog) != 1 || catalog[0].Name != "Shampoo" {
		t.Fatalf("stored catalog = %+v", catalog)
	}

	event := result.Event()
	if event.Prefix != prefix || event.Total != 2 || event.SkipReasons["missing_name"] != 1 {
		t.Errorf("Event() = %+v", event)
	}
}

func TestEngine_IngestMissingPrefix(t *testing.T) {
	if _, err := newEngine(t, newMemoryStore()).Ingest(context.Background(), "scrapes/none"); err == nil {
		t.Error("expected error for missing prefix")
	}
}

func TestEngine_Consume(t *testing.T) {
	store := seededStore()
	engine := newEngine(t, store)

	in := make(chan events.ScrapeCompleteEvent)
	out := engine.Consume(context.Background(), in)

	go func() {
		in <- events.ScrapeCompleteEvent{Prefix: prefix, RecordCount: 2, Timestamp: time.Now()}
		in <- events.ScrapeCompleteEvent{Prefix: "scrapes/missing", Timestamp: time.Now()}
		close(in)
	}()

	var got []events.NormalizeCompleteEvent
	for event := range out {
		got = append(got, event)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 completion events, got %d", len(got))
	}
	if got[0].Err != nil || got[0].Normalized != 1 {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].Err == nil || got[1].Prefix != "scrapes/missing" {
		t.Errorf("second event should carry the failure, got %+v", got[1])
	}
}
