package catalog

import (
	"testing"

	"github.com/mfenderov/shelf/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(name, category, price string) models.Product {
	p := models.Product{
		ID:          models.GenerateProductID("https://example.com/" + name),
		URL:         "https://example.com/" + name,
		Name:        name,
		Options:     []models.Option{},
		Ingredients: []string{},
	}
	if category != "" {
		p.Other = "CATEGORY\n" + category + "\n\nDESCRIPTION\nAbout " + name
	}
	if price != "" {
		p.Options = append(p.Options, models.Option{Size: "8oz", Price: price})
	}
	return p
}

func names(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func sampleProducts() []models.Product {
	return []models.Product{
		product("Thickening Shampoo", "Shampoo", "$34.00"),
		product("Daily Conditioner", "Conditioner", "$1,200.00"),
		product("Hair Oil", "Styling", "$9.50"),
		product("Scalp Tonic", "", ""),
	}
}

func TestApply_CategoryFilterScenario(t *testing.T) {
	products := []models.Product{
		product("Thickening Shampoo", "Shampoo", "$34"),
		product("Daily Conditioner", "Conditioner", "$28"),
		product("Hair Oil", "Styling", "$9"),
	}

	got := Apply(products, Query{Category: "Shampoo"})

	require.Len(t, got, 1)
	assert.Equal(t, "Thickening Shampoo", got[0].Name)
}

func TestApply_Search(t *testing.T) {
	products := append(sampleProducts(), product("STRASSE Öl", "", ""))

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"empty matches all", "", names(products)},
		{"case insensitive", "SHAMPOO", []string{"Thickening Shampoo"}},
		{"substring", "oil", []string{"Hair Oil"}},
		{"unicode folding", "öl", []string{"STRASSE Öl"}},
		{"no match", "mousse", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(products, Query{Search: tt.search})
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestApply_SearchAndCategoryCombine(t *testing.T) {
	got := Apply(sampleProducts(), Query{Search: "hair", Category: "Shampoo"})
	assert.Empty(t, got)

	got = Apply(sampleProducts(), Query{Search: "hair", Category: "Styling"})
	assert.Equal(t, []string{"Hair Oil"}, names(got))
}

func TestApply_Sort(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "unsorted keeps collection order",
			query: Query{},
			want:  []string{"Thickening Shampoo", "Daily Conditioner", "Hair Oil", "Scalp Tonic"},
		},
		{
			name:  "name asc",
			query: Query{SortBy: SortName, Order: Asc},
			want:  []string{"Daily Conditioner", "Hair Oil", "Scalp Tonic", "Thickening Shampoo"},
		},
		{
			name:  "name desc",
			query: Query{SortBy: SortName, Order: Desc},
			want:  []string{"Thickening Shampoo", "Scalp Tonic", "Hair Oil", "Daily Conditioner"},
		},
		{
			name:  "category asc puts missing category first",
			query: Query{SortBy: SortCategory},
			want:  []string{"Scalp Tonic", "Daily Conditioner", "Thickening Shampoo", "Hair Oil"},
		},
		{
			name:  "price asc treats missing price as zero",
			query: Query{SortBy: SortPrice, Order: Asc},
			want:  []string{"Scalp Tonic", "Hair Oil", "Thickening Shampoo", "Daily Conditioner"},
		},
		{
			name:  "price desc",
			query: Query{SortBy: SortPrice, Order: Desc},
			want:  []string{"Daily Conditioner", "Thickening Shampoo", "Hair Oil", "Scalp Tonic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(sampleProducts(), tt.query)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestApply_StableForEqualKeys(t *testing.T) {
	products := []models.Product{
		product("B", "Shampoo", "$10"),
		product("A", "Shampoo", "$10"),
		product("C", "Shampoo", "$10"),
	}

	for _, order := range []Order{Asc, Desc} {
		got := Apply(products, Query{SortBy: SortPrice, Order: order})
		assert.Equal(t, []string{"B", "A", "C"}, names(got), "order %s", order)
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	products := sampleProducts()
	before := names(products)

	got := Apply(products, Query{SortBy: SortName, Order: Desc})
	require.NotEmpty(t, got)
	got[0].Name = "changed"

	assert.Equal(t, before, names(products))
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(" oil ", "Styling", "PRICE", "")
	require.NoError(t, err)
	assert.Equal(t, Query{Search: "oil", Category: "Styling", SortBy: SortPrice, Order: Asc}, q)

	q, err = ParseQuery("", "", "", "desc")
	require.NoError(t, err)
	assert.Equal(t, SortNone, q.SortBy)
	assert.Equal(t, Desc, q.Order)

	_, err = ParseQuery("", "", "rating", "")
	assert.ErrorIs(t, err, ErrInvalidSort)

	_, err = ParseQuery("", "", "name", "up")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$12", 12},
		{"$48.00", 48},
		{"$1,234.50", 1234.5},
		{"USD 9.99", 9.99},
		{"£ 7", 7},
		{"$.99", 0.99},
		{"$12 - $15", 12},
		{"", 0},
		{"Sold out", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParsePrice(tt.in), 1e-9)
		})
	}
}

func TestCategories(t *testing.T) {
	products := append(sampleProducts(), product("Volumizing Shampoo", "Shampoo", "$20"))

	assert.Equal(t, []string{"Conditioner", "Shampoo", "Styling"}, Categories(products))
	assert.Equal(t, []string{}, Categories(nil))
}
