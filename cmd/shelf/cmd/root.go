package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mfenderov/shelf/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "shelf: a product catalog scraper and browser",
	Long: `shelf scrapes product listings from a retail site, normalizes the raw
HTML into structured products and serves the resulting catalog.

Commands:
  scrape     Fetch product pages from configured sources
  normalize  Turn a raw JSONL file into a catalog
  ingest     Normalize a scrape held in object storage
  search     Query the catalog from the command line
  show       Print a single product card
  serve      Start the HTTP browsing UI and API
  mcp        Start the MCP server for catalog lookup`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/shelf")
		viper.AddConfigPath(".")
	}

	// SHELF_CATALOG_PATH -> catalog.path
	viper.SetEnvPrefix("SHELF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// AutomaticEnv only covers keys viper already knows about
	viper.BindEnv("scraper.delay", "SHELF_SCRAPER_DELAY")
	viper.BindEnv("scraper.max_depth", "SHELF_SCRAPER_MAX_DEPTH")
	viper.BindEnv("scraper.user_agent", "SHELF_SCRAPER_USER_AGENT")
	viper.BindEnv("normalizer.fallback_size", "SHELF_NORMALIZER_FALLBACK_SIZE")
	viper.BindEnv("catalog.raw_path", "SHELF_CATALOG_RAW_PATH")
	viper.BindEnv("catalog.path", "SHELF_CATALOG_PATH")
	viper.BindEnv("catalog.workers", "SHELF_CATALOG_WORKERS")
	viper.BindEnv("storage.endpoint", "SHELF_STORAGE_ENDPOINT")
	viper.BindEnv("storage.bucket", "SHELF_STORAGE_BUCKET")
	viper.BindEnv("storage.access_key_id", "SHELF_STORAGE_ACCESS_KEY_ID")
	viper.BindEnv("storage.secret_access_key", "SHELF_STORAGE_SECRET_ACCESS_KEY")
	viper.BindEnv("storage.use_ssl", "SHELF_STORAGE_USE_SSL")
	viper.BindEnv("elasticsearch.addresses", "SHELF_ELASTICSEARCH_ADDRESSES")
	viper.BindEnv("elasticsearch.index", "SHELF_ELASTICSEARCH_INDEX")
	viper.BindEnv("elasticsearch.username", "SHELF_ELASTICSEARCH_USERNAME")
	viper.BindEnv("elasticsearch.password", "SHELF_ELASTICSEARCH_PASSWORD")
	viper.BindEnv("server.addr", "SHELF_SERVER_ADDR")
	viper.BindEnv("server.rate_limit", "SHELF_SERVER_RATE_LIMIT")
	viper.BindEnv("server.release", "SHELF_SERVER_RELEASE")
	viper.BindEnv("mcp.name", "SHELF_MCP_NAME")
	viper.BindEnv("mcp.version", "SHELF_MCP_VERSION")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
	}

	// Unmarshal into struct (merges config file with defaults)
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Comma-separated lists from env
	if addrs := os.Getenv("SHELF_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
	if origins := os.Getenv("SHELF_SERVER_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}
}
