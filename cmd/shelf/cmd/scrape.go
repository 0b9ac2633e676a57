package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfenderov/shelf/internal/config"
	"github.com/mfenderov/shelf/internal/events"
	"github.com/mfenderov/shelf/internal/ingestion"
	"github.com/mfenderov/shelf/internal/scraper"
	"github.com/mfenderov/shelf/internal/storage"
	"github.com/mfenderov/shelf/internal/store"
	"github.com/mfenderov/shelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	scrapeURL    string
	scrapeSource string
	scrapeOut    string
	noNormalize  bool
	scrapeIndex  bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape product pages",
	Long: `Scrape product pages from configured sources or a specific URL.

Without object storage the raw records go to a JSON Lines file and are
normalized into the catalog file. With storage configured each source
becomes its own scrape prefix, normalized as soon as it is written.

Examples:
  # Scrape all configured sources (scrape + normalize)
  shelf scrape

  # Scrape a specific source by name
  shelf scrape --source shampoo

  # Scrape a specific URL directly into a custom file
  shelf scrape --url https://example.com/collections/hair --out raw.jsonl

  # Scrape only, normalize later with 'shelf normalize' or 'shelf ingest'
  shelf scrape --no-normalize`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "URL to scrape directly")
	scrapeCmd.Flags().StringVar(&scrapeSource, "source", "", "Source name from config to scrape")
	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "", "Raw JSONL output file (default from config, file mode only)")
	scrapeCmd.Flags().BoolVar(&noNormalize, "no-normalize", false, "Write raw records only, skip normalization")
	scrapeCmd.Flags().BoolVar(&scrapeIndex, "index", false, "Index normalized products into Elasticsearch")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("scrape command starting", "verbose", verbose, "no_normalize", noNormalize)

	urls, err := sourceURLs(&cfg)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	s := newScraper(&cfg)

	if cfg.Storage.Endpoint != "" {
		return runStorageScrape(ctx, w, &cfg, s, urls)
	}
	return runFileScrape(ctx, w, &cfg, s, urls)
}

// sourceURLs resolves the listing URLs to crawl from flags and config.
func sourceURLs(cfg *config.Config) ([]string, error) {
	if scrapeURL != "" {
		return []string{scrapeURL}, nil
	}

	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("no sources configured and no --url provided")
	}

	var urls []string
	for _, source := range cfg.Sources {
		if scrapeSource != "" && source.Name != scrapeSource {
			continue
		}
		if source.URL != "" {
			urls = append(urls, source.URL)
		}
	}

	if len(urls) == 0 {
		if scrapeSource != "" {
			return nil, fmt.Errorf("source %q not found in config", scrapeSource)
		}
		return nil, fmt.Errorf("no valid sources found in config")
	}
	return urls, nil
}

// runFileScrape crawls every source into one raw file and, unless
// disabled, normalizes it into the catalog file.
func runFileScrape(ctx context.Context, w io.Writer, cfg *config.Config, s *scraper.Scraper, urls []string) error {
	out := scrapeOut
	if out == "" {
		out = cfg.Catalog.RawPath
	}

	var records []models.RawRecord
	seen := make(map[string]bool)

	for _, url := range urls {
		fmt.Fprintf(w, "Scraping: %s\n", url)

		scraped, err := s.Scrape(ctx, url)
		if err != nil {
			fmt.Fprintf(w, "  Error: %v\n", err)
		}

		added := 0
		for _, record := range scraped {
			// Sources may share products
			if seen[record.URL] {
				continue
			}
			seen[record.URL] = true
			records = append(records, record)
			added++
		}
		fmt.Fprintf(w, "  Records: %d\n", added)

		if ctx.Err() != nil {
			break
		}
	}

	if err := store.WriteRawFile(out, records); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %d records written to %s\n", len(records), out)

	if noNormalize {
		fmt.Fprintln(w, "Run 'shelf normalize' to build the catalog")
		return nil
	}

	p, err := newPipeline(ctx, cfg, scrapeIndex)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("normalization failed: %w", err)
	}
	if err := store.WriteCatalogFile(cfg.Catalog.Path, result.Products); err != nil {
		return err
	}

	fmt.Fprintf(w, "Catalog written to %s\n", cfg.Catalog.Path)
	printSummary(w, result)
	return nil
}

// runStorageScrape writes each source to its own storage prefix. Unless
// disabled, an ingestion consumer normalizes prefixes as they arrive.
func runStorageScrape(ctx context.Context, w io.Writer, cfg *config.Config, s *scraper.Scraper, urls []string) error {
	storageClient, err := newStorageClient(cfg)
	if err != nil {
		return err
	}

	if err := storageClient.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	if noNormalize {
		return runScrapeOnly(ctx, w, s, storageClient, urls)
	}

	p, err := newPipeline(ctx, cfg, scrapeIndex)
	if err != nil {
		return err
	}
	engine := ingestion.New(storageClient, p)

	scrapeEvents := make(chan events.ScrapeCompleteEvent)
	results := engine.Consume(ctx, scrapeEvents)
	done := make(chan struct{})

	var totalNormalized, totalSkipped int
	var totalDuration time.Duration

	go func() {
		defer close(done)
		for event := range results {
			if event.Err != nil {
				fmt.Fprintf(w, "  Error normalizing %s: %v\n", event.Prefix, event.Err)
				continue
			}

			totalNormalized += event.Normalized
			totalSkipped += event.Skipped
			totalDuration += event.Duration

			fmt.Fprintf(w, "  Normalized %s: %d products, %d skipped in %v\n",
				event.Prefix, event.Normalized, event.Skipped, event.Duration)
			for _, e := range event.Errors {
				fmt.Fprintf(w, "  Warning: %s\n", e)
			}
		}
	}()

	totalRecords := 0
	for _, url := range urls {
		fmt.Fprintf(w, "Scraping: %s\n", url)

		result, err := s.ScrapeToStorage(ctx, url, storageClient)
		if err != nil {
			fmt.Fprintf(w, "  Error: %v\n", err)
			continue
		}

		totalRecords += result.RecordCount
		fmt.Fprintf(w, "  Records: %d, Prefix: %s\n", result.RecordCount, result.Prefix)

		event := events.ScrapeCompleteEvent{
			Bucket:      storageClient.Bucket(),
			Prefix:      result.Prefix,
			SourceURL:   result.SourceURL,
			RecordCount: result.RecordCount,
			Timestamp:   time.Now(),
		}
		select {
		case scrapeEvents <- event:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	close(scrapeEvents)
	<-done

	fmt.Fprintf(w, "\nTotal: %d records scraped, %d products normalized, %d skipped in %v\n",
		totalRecords, totalNormalized, totalSkipped, totalDuration)

	return nil
}

// runScrapeOnly writes raw records to storage without normalizing.
func runScrapeOnly(ctx context.Context, w io.Writer, s *scraper.Scraper, storageClient *storage.Client, urls []string) error {
	totalRecords := 0

	for _, url := range urls {
		fmt.Fprintf(w, "Scraping to storage: %s\n", url)

		result, err := s.ScrapeToStorage(ctx, url, storageClient)
		if err != nil {
			fmt.Fprintf(w, "  Error: %v\n", err)
			continue
		}

		totalRecords += result.RecordCount
		fmt.Fprintf(w, "  Records: %d, Prefix: %s\n", result.RecordCount, result.Prefix)
	}

	fmt.Fprintf(w, "\nTotal: %d records written to storage\n", totalRecords)
	fmt.Fprintln(w, "Run 'shelf ingest --prefix <prefix>' to normalize them")
	return nil
}
