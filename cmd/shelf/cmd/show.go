package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/shelf/internal/render"
	"github.com/mfenderov/shelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	showFormat  string
	showCatalog string
	showIndex   bool
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a single product",
	Long: `Print one product card by ID.

Examples:
  # Markdown card from the catalog file
  shelf show 3f2a9c1d4b5e6f70

  # Raw JSON from Elasticsearch
  shelf show 3f2a9c1d4b5e6f70 --index --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVar(&showFormat, "format", "markdown", "Output format: markdown, html or json")
	showCmd.Flags().StringVar(&showCatalog, "catalog", "", "Catalog file (default from config)")
	showCmd.Flags().BoolVar(&showIndex, "index", false, "Read the product from Elasticsearch instead of the catalog file")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id := args[0]
	cfg := GetConfig()
	if showCatalog != "" {
		cfg.Catalog.Path = showCatalog
	}

	var product *models.Product
	if showIndex {
		esClient, err := newESClient(&cfg)
		if err != nil {
			return err
		}
		product, err = esClient.GetProduct(ctx, id)
		if err != nil {
			return err
		}
	} else {
		c, err := loadCatalog(ctx, &cfg, "")
		if err != nil {
			return err
		}
		if p, ok := c.Get(id); ok {
			product = &p
		}
	}

	if product == nil {
		return fmt.Errorf("product not found: %s", id)
	}

	var output string
	switch showFormat {
	case "json":
		data, err := json.MarshalIndent(product, "", "  ")
		if err != nil {
			return err
		}
		output = string(data)
	case "html":
		html, err := render.ProductHTML(*product)
		if err != nil {
			return err
		}
		output = html
	default:
		markdown, err := render.ProductMarkdown(*product)
		if err != nil {
			return err
		}
		output = markdown
	}

	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
