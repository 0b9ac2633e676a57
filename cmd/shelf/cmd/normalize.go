package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"slices"
	"syscall"

	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	normalizeWorkers int
	normalizeIndex   bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [in.jsonl] [out.json]",
	Short: "Normalize raw product records into a catalog",
	Long: `Read raw product records from a JSON Lines file, normalize them and
write the catalog as a JSON array.

Records without a name are skipped and counted in the summary. Only
read and write failures make the command fail.

Paths default to catalog.raw_path and catalog.path from the config.

Examples:
  # Use the configured paths
  shelf normalize

  # Explicit files with 8 workers
  shelf normalize data/products_raw.jsonl data/products.json --workers 8

  # Also index the products into Elasticsearch
  shelf normalize --index`,
	Args: cobra.MaximumNArgs(2),
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().IntVar(&normalizeWorkers, "workers", 0, "Records normalized in parallel (default from config)")
	normalizeCmd.Flags().BoolVar(&normalizeIndex, "index", false, "Index normalized products into Elasticsearch")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	if normalizeWorkers > 0 {
		cfg.Catalog.Workers = normalizeWorkers
	}

	in, out := cfg.Catalog.RawPath, cfg.Catalog.Path
	if len(args) > 0 {
		in = args[0]
	}
	if len(args) > 1 {
		out = args[1]
	}

	slog.Debug("normalize command starting", "in", in, "out", out, "workers", cfg.Catalog.Workers)

	p, err := newPipeline(ctx, &cfg, normalizeIndex)
	if err != nil {
		return err
	}

	result, err := p.RunFile(ctx, in, out)
	if err != nil {
		return fmt.Errorf("normalization failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Catalog written to %s\n", out)
	printSummary(cmd.OutOrStdout(), result)
	return nil
}

// printSummary writes the batch counts and skip reasons.
func printSummary(w io.Writer, result *pipeline.Result) {
	fmt.Fprintf(w, "  Total: %d, Normalized: %d, Skipped: %d\n",
		result.Total, result.Normalized, result.Skipped)

	reasons := make([]normalizer.SkipReason, 0, len(result.SkipReasons))
	for reason := range result.SkipReasons {
		reasons = append(reasons, reason)
	}
	slices.Sort(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "    %s: %d\n", reason, result.SkipReasons[reason])
	}

	if result.MalformedOptions > 0 || result.EmptyIngredients > 0 {
		fmt.Fprintf(w, "  Dropped options: %d, Empty ingredient entries: %d\n",
			result.MalformedOptions, result.EmptyIngredients)
	}
	if result.DocsIndexed > 0 {
		fmt.Fprintf(w, "  Docs indexed: %d\n", result.DocsIndexed)
	}
	if result.IndexOverwrites > 0 {
		fmt.Fprintf(w, "  Docs replaced by duplicate URLs: %d\n", result.IndexOverwrites)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  Warning: %v\n", e)
	}
	fmt.Fprintf(w, "  Duration: %v\n", result.Duration)
}
