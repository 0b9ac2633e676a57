package cmd

import (
	"fmt"

	"github.com/mfenderov/shelf/internal/mcp"
	"github.com/spf13/cobra"
)

var (
	mcpCatalog string
	mcpPrefix  string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the MCP server for catalog lookup.

The server communicates via stdio and provides three tools:
  - search_products: Query products by name, category and sort order
  - get_product: Get a product card by ID as markdown
  - list_categories: List the categories available for filtering

Example:
  shelf mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringVar(&mcpCatalog, "catalog", "", "Catalog file (default from config)")
	mcpCmd.Flags().StringVar(&mcpPrefix, "prefix", "", "Use the catalog stored under this storage prefix instead")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if mcpCatalog != "" {
		cfg.Catalog.Path = mcpCatalog
	}

	c, err := loadCatalog(cmd.Context(), &cfg, mcpPrefix)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(mcp.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	}, c)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")

	return server.ServeStdio()
}
