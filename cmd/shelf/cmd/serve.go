package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfenderov/shelf/internal/httpapi"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveCatalog string
	servePrefix  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP browsing UI and API",
	Long: `Start the HTTP server over the catalog file.

Routes:
  GET /                       browse page (q, category, sort, order, view=grid|table)
  GET /api/v1/products        query products as JSON
  GET /api/v1/products/:id    a single product
  GET /api/v1/categories      categories for filtering
  GET /health                 liveness check

Example:
  shelf serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveCatalog, "catalog", "", "Catalog file (default from config)")
	serveCmd.Flags().StringVar(&servePrefix, "prefix", "", "Serve the catalog stored under this storage prefix instead")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveCatalog != "" {
		cfg.Catalog.Path = serveCatalog
	}

	c, err := loadCatalog(ctx, &cfg, servePrefix)
	if err != nil {
		return err
	}

	router := httpapi.SetupRouter(httpapi.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		Release:        cfg.Server.Release,
	}, httpapi.NewHandler(c, cfg.Server.Title))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Serving %d products on %s\n", c.Len(), cfg.Server.Addr)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
