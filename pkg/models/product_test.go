package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestProduct_JSONRoundTrip(t *testing.T) {
	products := []Product{
		{
			ID:   GenerateProductID("https://example.com/product/1/shampoo"),
			URL:  "https://example.com/product/1/shampoo",
			Name: "Shampoo",
			Options: []Option{
				{Size: "8oz", Price: "$12"},
				{Size: "33.8oz", Price: "$48.00"},
			},
			Ingredients: []string{"Water", "Glycerin", "Water"},
			Other:       "CATEGORY\nShampoo\n\nDETAILS\nLather and rinse.",
		},
		{
			ID:          GenerateProductID("https://example.com/product/2/oil"),
			URL:         "https://example.com/product/2/oil",
			Name:        "Hair Oil",
			Options:     []Option{},
			Ingredients: []string{},
		},
	}

	data, err := json.Marshal(products)
	if err != nil {
		t.Fatalf("failed to marshal products: %v", err)
	}

	var decoded []Product
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal products: %v", err)
	}

	if diff := cmp.Diff(products, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProduct_JSONFieldNames(t *testing.T) {
	p := Product{
		ID:          "abc",
		URL:         "https://example.com",
		Name:        "Test",
		Options:     []Option{},
		Ingredients: []string{},
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	jsonStr := string(data)
	for _, field := range []string{`"id"`, `"url"`, `"name"`, `"options":[]`, `"ingredients":[]`} {
		if !strings.Contains(jsonStr, field) {
			t.Errorf("JSON should contain %s, got: %s", field, jsonStr)
		}
	}
	if strings.Contains(jsonStr, `"other"`) {
		t.Errorf("empty other should be omitted, got: %s", jsonStr)
	}
}

func TestRawRecord_JSONRoundTrip(t *testing.T) {
	raw := RawRecord{
		URL:             "https://example.com/product/1/shampoo",
		Name:            "  Shampoo  ",
		HTMLFragment:    "<size>8oz</size><price>$12</price>",
		MetaDescription: "A gentle shampoo",
		CategoryHint:    "Hair Care",
		ScrapedAt:       time.Date(2025, 12, 4, 10, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded RawRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if diff := cmp.Diff(raw, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProduct_FirstPrice(t *testing.T) {
	if got := (Product{}).FirstPrice(); got != "" {
		t.Errorf("FirstPrice() = %q, want empty", got)
	}

	p := Product{Options: []Option{{Size: "8oz", Price: "$12"}, {Size: "16oz", Price: "$20"}}}
	if got := p.FirstPrice(); got != "$12" {
		t.Errorf("FirstPrice() = %q, want %q", got, "$12")
	}
}

func TestGenerateProductID(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"simple URL", "https://example.com/product/1"},
		{"URL with path", "https://example.com/product/1/2/shampoo"},
		{"URL with query", "https://example.com/product/1?size=8oz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := GenerateProductID(tt.url)

			if id == "" {
				t.Error("ID should not be empty")
			}
			if id2 := GenerateProductID(tt.url); id != id2 {
				t.Errorf("ID should be deterministic: got %q and %q", id, id2)
			}
			if len(id) != 16 {
				t.Errorf("ID length should be 16, got %d", len(id))
			}
		})
	}
}

func TestGenerateProductID_UniqueForDifferentURLs(t *testing.T) {
	id1 := GenerateProductID("https://example.com/product/1")
	id2 := GenerateProductID("https://example.com/product/2")

	if id1 == id2 {
		t.Errorf("Different URLs should generate different IDs: %q", id1)
	}
}
