package config

import "time"

// Config holds all application configuration.
type Config struct {
	Scraper       Scraper       `mapstructure:"scraper"`
	Normalizer    Normalizer    `mapstructure:"normalizer"`
	Catalog       Catalog       `mapstructure:"catalog"`
	Storage       Storage       `mapstructure:"storage"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Server        Server        `mapstructure:"server"`
	MCP           MCP           `mapstructure:"mcp"`
	Sources       []Source      `mapstructure:"sources"`
}

// Scraper holds web scraping configuration.
type Scraper struct {
	Delay              time.Duration `mapstructure:"delay"`
	MaxDepth           int           `mapstructure:"max_depth"`
	FollowLinks        bool          `mapstructure:"follow_links"`
	Timeout            time.Duration `mapstructure:"timeout"`
	UserAgent          string        `mapstructure:"user_agent"`
	NameSelector       string        `mapstructure:"name_selector"`
	ContainerSelectors []string      `mapstructure:"container_selectors"`
}

// Normalizer holds the extraction rules applied to raw product HTML.
// Empty fields use the built-in rules for the supported markup.
type Normalizer struct {
	SizeSelector        string `mapstructure:"size_selector"`
	PriceSelector       string `mapstructure:"price_selector"`
	IngredientsKeyword  string `mapstructure:"ingredients_keyword"`
	IngredientDelimiter string `mapstructure:"ingredient_delimiter"`
	FallbackSize        string `mapstructure:"fallback_size"`
}

// Catalog holds the local file locations and batch settings.
type Catalog struct {
	RawPath string `mapstructure:"raw_path"` // JSONL written by scrape
	Path    string `mapstructure:"path"`     // JSON array read by serve, search and mcp
	Workers int    `mapstructure:"workers"`
}

// Storage holds S3/MinIO storage configuration. An empty endpoint keeps
// everything on the local filesystem.
type Storage struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Elasticsearch holds ES connection configuration.
type Elasticsearch struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// Server holds HTTP browsing API configuration.
type Server struct {
	Addr           string   `mapstructure:"addr"`
	Title          string   `mapstructure:"title"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimit      float64  `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst      int      `mapstructure:"rate_burst"`
	Release        bool     `mapstructure:"release"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Source defines a product listing to scrape.
type Source struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Scraper: Scraper{
			Delay:              1 * time.Second,
			MaxDepth:           3,
			FollowLinks:        true,
			Timeout:            30 * time.Second,
			UserAgent:          "shelf/1.0",
			NameSelector:       "h1.product-full__name",
			ContainerSelectors: []string{"div.product-full", "main", "body"},
		},
		Catalog: Catalog{
			RawPath: "data/products_raw.jsonl",
			Path:    "data/products.json",
			Workers: 4,
		},
		Storage: Storage{
			Endpoint:        "", // file mode unless configured
			Bucket:          "shelf",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		Elasticsearch: Elasticsearch{
			Addresses: []string{"http://localhost:9200"},
			Index:     "shelf-products",
		},
		Server: Server{
			Addr:           ":8080",
			Title:          "Products",
			AllowedOrigins: []string{"http://localhost:8080"},
			RateLimit:      20,
			RateBurst:      40,
		},
		MCP: MCP{
			Name:    "shelf",
			Version: "1.0.0",
		},
	}
}
