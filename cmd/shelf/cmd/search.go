package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mfenderov/shelf/internal/catalog"
	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	searchCategory string
	searchSort     string
	searchOrder    string
	searchLimit    int
	searchFormat   string
	searchCatalog  string
	searchIndex    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search the product catalog",
	Long: `Search products by name, optionally filtered by category and sorted.

Without a term every product matches. With --index the query runs
against Elasticsearch instead of the catalog file; sorting is then by
relevance.

Examples:
  # Name search
  shelf search shampoo

  # Cheapest styling products first
  shelf search --category Styling --sort price

  # JSON output for scripting
  shelf search oil --format json --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Exact category to filter by")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "Sort field: name, category or price")
	searchCmd.Flags().StringVar(&searchOrder, "order", "asc", "Sort order: asc or desc")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results (0 for all)")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format: text or json")
	searchCmd.Flags().StringVar(&searchCatalog, "catalog", "", "Catalog file (default from config)")
	searchCmd.Flags().BoolVar(&searchIndex, "index", false, "Search Elasticsearch instead of the catalog file")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	term := ""
	if len(args) > 0 {
		term = args[0]
	}

	query, err := catalog.ParseQuery(term, searchCategory, searchSort, searchOrder)
	if err != nil {
		return err
	}

	cfg := GetConfig()
	if searchCatalog != "" {
		cfg.Catalog.Path = searchCatalog
	}

	var products []models.Product
	if searchIndex {
		esClient, err := newESClient(&cfg)
		if err != nil {
			return err
		}
		limit := searchLimit
		if limit <= 0 {
			limit = 100
		}
		products, err = esClient.Search(ctx, query.Search, query.Category, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	} else {
		c, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		products = c.Query(query)
	}

	if searchLimit > 0 && len(products) > searchLimit {
		products = products[:searchLimit]
	}

	w := cmd.OutOrStdout()
	if len(products) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	if searchFormat == "json" {
		output, err := json.MarshalIndent(products, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	printProducts(w, products)
	return nil
}

func printProducts(w io.Writer, products []models.Product) {
	fmt.Fprintf(w, "Found %d results:\n\n", len(products))
	for i, p := range products {
		fmt.Fprintf(w, "─── Result %d ───\n", i+1)
		fmt.Fprintf(w, "Name:     %s\n", p.Name)
		if category := normalizer.CategoryOf(p); category != "" {
			fmt.Fprintf(w, "Category: %s\n", category)
		}
		fmt.Fprintf(w, "URL:      %s\n", p.URL)
		fmt.Fprintf(w, "ID:       %s\n", p.ID)

		if len(p.Options) > 0 {
			options := make([]string, len(p.Options))
			for j, o := range p.Options {
				options[j] = o.Size + " " + o.Price
			}
			fmt.Fprintf(w, "Options:  %s\n", strings.Join(options, ", "))
		}
		fmt.Fprintln(w)
	}
}
