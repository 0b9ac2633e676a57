package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/internal/store"
	"github.com/mfenderov/shelf/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T, config Config) *Pipeline {
	t.Helper()
	p, err := New(config)
	require.NoError(t, err)
	return p
}

func rawRecord(i int, name string) models.RawRecord {
	return models.RawRecord{
		URL:          fmt.Sprintf("https://example.com/product/%d/item", i),
		Name:         name,
		HTMLFragment: fmt.Sprintf("<size>%doz</size><price>$%d</price>", i, i),
	}
}

func TestRun_ShampooScenario(t *testing.T) {
	p := newPipeline(t, Config{})

	result, err := p.Run(context.Background(), []models.RawRecord{{
		URL:          "https://example.com/product/1/shampoo",
		Name:         "  Shampoo  ",
		HTMLFragment: "<size>8oz</size><price>$12</price> CATEGORY\nShampoo\nFORMULATED FOR damaged hair...",
	}})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)

	product := result.Products[0]
	assert.Equal(t, "Shampoo", product.Name)
	assert.Equal(t, []models.Option{{Size: "8oz", Price: "$12"}}, product.Options)
	assert.Equal(t, "Shampoo", normalizer.CategoryOf(product))
}

func TestRun_EmptyNameIncrementsSkipCount(t *testing.T) {
	p := newPipeline(t, Config{})

	records := []models.RawRecord{rawRecord(1, "Conditioner"), rawRecord(2, "Oil")}
	before, err := p.Run(context.Background(), records)
	require.NoError(t, err)

	after, err := p.Run(context.Background(), append(records, rawRecord(3, "")))
	require.NoError(t, err)

	assert.Equal(t, before.Skipped+1, after.Skipped)
	assert.Equal(t, 1, after.SkipReasons[normalizer.MissingName])
	assert.Equal(t, before.Products, after.Products)
	assert.Equal(t, 3, after.Total)
	assert.Equal(t, 2, after.Normalized)
}

func TestRun_Summary(t *testing.T) {
	p := newPipeline(t, Config{})

	records := []models.RawRecord{
		rawRecord(1, "A"),
		rawRecord(2, "   "),
		{
			URL:          "https://example.com/product/3/c",
			Name:         "C",
			HTMLFragment: `<size>8oz</size><size>16oz</size><price>$5</price><h4>Ingredients</h4><p>Water,,Aloe</p>`,
		},
		rawRecord(4, ""),
	}

	result, err := p.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Normalized)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, map[normalizer.SkipReason]int{normalizer.MissingName: 2}, result.SkipReasons)
	assert.Equal(t, 1, result.MalformedOptions)
	assert.Equal(t, 1, result.EmptyIngredients)
	assert.Equal(t, []string{"Water", "Aloe"}, result.Products[1].Ingredients)
	assert.Equal(t, result.Total, result.Normalized+result.Skipped)
}

func TestRun_ParallelPreservesOrder(t *testing.T) {
	p := newPipeline(t, Config{Workers: 8})

	records := make([]models.RawRecord, 200)
	for i := range records {
		name := fmt.Sprintf("Product %03d", i)
		if i%7 == 0 {
			name = ""
		}
		records[i] = rawRecord(i, name)
	}

	result, err := p.Run(context.Background(), records)
	require.NoError(t, err)

	sequential, err := newPipeline(t, Config{}).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, sequential.Products, result.Products)
	assert.Equal(t, sequential.Skipped, result.Skipped)

	prev := ""
	for _, product := range result.Products {
		assert.Greater(t, product.Name, prev)
		prev = product.Name
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	result, err := newPipeline(t, Config{}).Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
}

func TestRun_Cancelled(t *testing.T) {
	p := newPipeline(t, Config{Workers: 4})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, []models.RawRecord{rawRecord(1, "A")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidSelector(t *testing.T) {
	_, err := New(Config{Normalizer: normalizer.Config{SizeSelector: "[["}})
	assert.Error(t, err)
}

type fakeIndexer struct {
	mu        sync.Mutex
	created   bool
	refreshed bool
	indexed   []string
	failOn    string
}

func (f *fakeIndexer) CreateIndex(context.Context) error {
	f.created = true
	return nil
}

func (f *fakeIndexer) IndexProduct(_ context.Context, product models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if product.Name == f.failOn {
		return errors.New("index rejected document")
	}
	f.indexed = append(f.indexed, product.Name)
	return nil
}

func (f *fakeIndexer) Refresh(context.Context) error {
	f.refreshed = true
	return nil
}

func TestRun_Indexing(t *testing.T) {
	indexer := &fakeIndexer{failOn: "B"}
	p := newPipeline(t, Config{Indexer: indexer})

	result, err := p.Run(context.Background(), []models.RawRecord{
		rawRecord(1, "A"), rawRecord(2, "B"), rawRecord(3, "C"),
	})
	require.NoError(t, err)

	assert.True(t, indexer.created)
	assert.True(t, indexer.refreshed)
	assert.Equal(t, []string{"A", "C"}, indexer.indexed)
	assert.Equal(t, 2, result.DocsIndexed)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, result.Products, 3)
}

func TestRun_IndexingCountsOverwrites(t *testing.T) {
	indexer := &fakeIndexer{}
	p := newPipeline(t, Config{Indexer: indexer})

	first := rawRecord(1, "A")
	second := rawRecord(1, "A v2")
	result, err := p.Run(context.Background(), []models.RawRecord{first, rawRecord(2, "B"), second})
	require.NoError(t, err)

	require.Len(t, result.Products, 3)
	assert.Equal(t, result.Products[0].ID, result.Products[2].ID)
	assert.Equal(t, []string{"A", "B", "A v2"}, indexer.indexed)
	assert.Equal(t, 3, result.DocsIndexed)
	assert.Equal(t, 1, result.IndexOverwrites)
	assert.Empty(t, result.Errors)
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "products_raw.jsonl")
	out := filepath.Join(dir, "out", "products.json")

	records := []models.RawRecord{rawRecord(1, " A "), rawRecord(2, ""), rawRecord(3, "C")}
	require.NoError(t, store.WriteRawFile(in, records))

	result, err := newPipeline(t, Config{}).RunFile(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)

	products, err := store.ReadCatalogFile(out)
	require.NoError(t, err)
	assert.Equal(t, result.Products, products)
	assert.Equal(t, "A", products[0].Name)
}

func TestRunFile_MissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := newPipeline(t, Config{}).RunFile(context.Background(),
		filepath.Join(dir, "missing.jsonl"), filepath.Join(dir, "products.json"))
	assert.Error(t, err)
}
