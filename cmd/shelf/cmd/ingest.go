package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/mfenderov/shelf/internal/ingestion"
	"github.com/mfenderov/shelf/internal/store"
	"github.com/spf13/cobra"
)

var (
	ingestPrefix string
	ingestIndex  bool
	ingestOut    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Normalize a stored scrape into a catalog",
	Long: `Normalize previously scraped raw records held in object storage and
write the catalog next to them.

Use this command to re-run normalization on existing scrapes, or to
process scrapes that were created with --no-normalize. Without --prefix
the most recent scrape is used.

Examples:
  # Normalize the latest scrape
  shelf ingest

  # Normalize a specific scrape and index it into Elasticsearch
  shelf ingest --prefix scrapes/example.com/2024-12-04T17-30-00-abc12345 --index

  # Also keep a local copy for 'shelf serve'
  shelf ingest --out data/products.json`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestPrefix, "prefix", "", "Storage prefix to ingest (default: latest scrape)")
	ingestCmd.Flags().BoolVar(&ingestIndex, "index", false, "Index normalized products into Elasticsearch")
	ingestCmd.Flags().StringVar(&ingestOut, "out", "", "Also write the catalog to this local file")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("ingest command starting", "prefix", ingestPrefix, "index", ingestIndex)

	if cfg.Storage.Endpoint == "" {
		return fmt.Errorf("storage not configured - set storage.endpoint or use 'shelf normalize'")
	}

	storageClient, err := newStorageClient(&cfg)
	if err != nil {
		return err
	}

	prefix := ingestPrefix
	if prefix == "" {
		prefixes, err := storageClient.ListScrapes(ctx)
		if err != nil {
			return err
		}
		if len(prefixes) == 0 {
			return fmt.Errorf("no scrapes found in bucket %s", storageClient.Bucket())
		}
		prefix = latestPrefix(prefixes)
	}

	p, err := newPipeline(ctx, &cfg, ingestIndex)
	if err != nil {
		return err
	}
	engine := ingestion.New(storageClient, p)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Ingesting: %s\n", prefix)
	if meta, err := storageClient.GetMetadata(ctx, prefix); err != nil {
		slog.Warn("scrape metadata unavailable", "prefix", prefix, "error", err)
	} else {
		fmt.Fprintf(w, "  Scraped %s from %s (%d records)\n",
			meta.Timestamp, strings.Join(meta.SourceURLs, ", "), meta.RecordCount)
	}

	result, err := engine.Ingest(ctx, prefix)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if ingestOut != "" {
		if err := store.WriteCatalogFile(ingestOut, result.Summary.Products); err != nil {
			return err
		}
		fmt.Fprintf(w, "Catalog written to %s\n", ingestOut)
	}

	fmt.Fprintf(w, "\nIngestion complete:\n")
	printSummary(w, result.Summary)

	return nil
}

// latestPrefix picks the most recent scrape across hosts. The last path
// segment starts with the scrape timestamp.
func latestPrefix(prefixes []string) string {
	latest := prefixes[0]
	for _, p := range prefixes[1:] {
		if path.Base(p) > path.Base(latest) {
			latest = p
		}
	}
	return latest
}
