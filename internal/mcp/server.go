// Package mcp exposes the product catalog as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mfenderov/shelf/internal/catalog"
	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/internal/render"
	"github.com/mfenderov/shelf/pkg/models"
)

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

const defaultLimit = 10

// Server wraps the MCP server with catalog integration.
type Server struct {
	mcpServer *server.MCPServer
	catalog   *catalog.Catalog
}

// NewServer creates a new MCP server with product tools.
func NewServer(config Config, c *catalog.Catalog) (*Server, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		catalog:   c,
	}

	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search the product catalog. Matches the query against product names (case-insensitive) and returns a JSON list of matching products with their category and options."),
		mcp.WithString("query",
			mcp.Description("Text to look for in product names; empty returns all products"),
		),
		mcp.WithString("category",
			mcp.Description("Exact category to filter by"),
		),
		mcp.WithString("sort",
			mcp.Description("Sort field"),
			mcp.Enum("name", "category", "price"),
		),
		mcp.WithString("order",
			mcp.Description("Sort direction"),
			mcp.Enum("asc", "desc"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	)
	mcpServer.AddTool(searchTool, s.searchHandler)

	getProductTool := mcp.NewTool("get_product",
		mcp.WithDescription("Get a product by ID. Returns the full product card in markdown: options, ingredients, description and details."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Product ID to retrieve"),
		),
	)
	mcpServer.AddTool(getProductTool, s.getProductHandler)

	categoriesTool := mcp.NewTool("list_categories",
		mcp.WithDescription("List the product categories available for filtering"),
	)
	mcpServer.AddTool(categoriesTool, s.categoriesHandler)

	return s, nil
}

// searchResult is the compact form of a product in search results.
type searchResult struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	URL      string          `json:"url"`
	Category string          `json:"category,omitempty"`
	Options  []models.Option `json:"options"`
}

// searchHandler handles the search_products tool call.
func (s *Server) searchHandler(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := catalog.ParseQuery(
		req.GetString("query", ""),
		req.GetString("category", ""),
		req.GetString("sort", ""),
		req.GetString("order", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := req.GetInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}

	results := s.handleSearch(query, limit)

	data, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

// getProductHandler handles the get_product tool call.
func (s *Server) getProductHandler(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	product, ok := s.catalog.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("product not found: %s", id)), nil
	}

	markdown, err := render.ProductMarkdown(product)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render product: %v", err)), nil
	}

	return mcp.NewToolResultText(markdown), nil
}

// categoriesHandler handles the list_categories tool call.
func (s *Server) categoriesHandler(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(s.catalog.Categories())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal categories: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleSearch runs the query and keeps the first limit results.
func (s *Server) handleSearch(query catalog.Query, limit int) []searchResult {
	products := s.catalog.Query(query)
	if len(products) > limit {
		products = products[:limit]
	}

	results := make([]searchResult, len(products))
	for i, p := range products {
		results[i] = searchResult{
			ID:       p.ID,
			Name:     p.Name,
			URL:      p.URL,
			Category: normalizer.CategoryOf(p),
			Options:  p.Options,
		}
	}
	return results
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
