package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mfenderov/shelf/internal/catalog"
	"github.com/mfenderov/shelf/pkg/models"
)

func testCatalog() *catalog.Catalog {
	products := []models.Product{
		{
			ID:          "shampoo1",
			URL:         "https://example.com/product/1/thickening-shampoo",
			Name:        "Thickening Shampoo",
			Options:     []models.Option{{Size: "8.5 fl oz", Price: "$34.00"}},
			Ingredients: []string{"Water", "Glycerin"},
			Other:       "CATEGORY\nShampoo\n\nDESCRIPTION\nBuilds body.",
		},
		{
			ID:          "oil1",
			URL:         "https://example.com/product/2/hair-oil",
			Name:        "Hair Oil",
			Options:     []models.Option{{Size: "3.4 fl oz", Price: "$40.00"}},
			Ingredients: []string{"Argan Oil"},
			Other:       "CATEGORY\nStyling",
		},
		{
			ID:          "cond1",
			URL:         "https://example.com/product/3/daily-conditioner",
			Name:        "Daily Conditioner",
			Options:     []models.Option{},
			Ingredients: []string{},
			Other:       "CATEGORY\nConditioner",
		},
	}
	return catalog.New(products)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(Config{Name: "shelf", Version: "1.0.0"}, testCatalog())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestServer_Creation(t *testing.T) {
	s := newTestServer(t)
	if s.mcpServer == nil {
		t.Error("mcpServer should not be nil")
	}

	if _, err := NewServer(Config{Name: "shelf"}, nil); err == nil {
		t.Error("expected error without a catalog")
	}
}

func TestServer_SearchTool(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"all", map[string]any{}, []string{"shampoo1", "oil1", "cond1"}},
		{"query", map[string]any{"query": "oil"}, []string{"oil1"}},
		{"category", map[string]any{"category": "Shampoo"}, []string{"shampoo1"}},
		{"sorted with limit", map[string]any{"sort": "price", "order": "desc", "limit": 2}, []string{"oil1", "shampoo1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.searchHandler(context.Background(), callRequest("search_products", tt.args))
			if err != nil {
				t.Fatalf("searchHandler() error = %v", err)
			}
			if result.IsError {
				t.Fatalf("searchHandler() returned tool error: %s", resultText(t, result))
			}

			var got []searchResult
			if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
				t.Fatalf("invalid JSON result: %v", err)
			}

			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.ID
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestServer_SearchToolRejectsInvalidSort(t *testing.T) {
	s := newTestServer(t)

	result, err := s.searchHandler(context.Background(), callRequest("search_products", map[string]any{"sort": "rating"}))
	if err != nil {
		t.Fatalf("searchHandler() error = %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for invalid sort field")
	}
}

func TestServer_GetProductTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.getProductHandler(context.Background(), callRequest("get_product", map[string]any{"id": "shampoo1"}))
	if err != nil {
		t.Fatalf("getProductHandler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("getProductHandler() returned tool error: %s", resultText(t, result))
	}

	markdown := resultText(t, result)
	for _, want := range []string{"Thickening Shampoo", "Category: Shampoo", "Glycerin", "$34.00"} {
		if !strings.Contains(markdown, want) {
			t.Errorf("markdown missing %q:\n%s", want, markdown)
		}
	}
}

func TestServer_GetProductToolErrors(t *testing.T) {
	s := newTestServer(t)

	result, err := s.getProductHandler(context.Background(), callRequest("get_product", map[string]any{"id": "missing"}))
	if err != nil {
		t.Fatalf("getProductHandler() error = %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for unknown product")
	}

	result, err = s.getProductHandler(context.Background(), callRequest("get_product", map[string]any{}))
	if err != nil {
		t.Fatalf("getProductHandler() error = %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing id")
	}
}

func TestServer_CategoriesTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.categoriesHandler(context.Background(), callRequest("list_categories", nil))
	if err != nil {
		t.Fatalf("categoriesHandler() error = %v", err)
	}

	var got []string
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if strings.Join(got, ",") != "Conditioner,Shampoo,Styling" {
		t.Errorf("categories = %v", got)
	}
}
