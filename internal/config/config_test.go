package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Storage.Endpoint != "" {
		t.Errorf("Storage.Endpoint = %q, want empty (file mode)", cfg.Storage.Endpoint)
	}
	if cfg.Catalog.Path != "data/products.json" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
	if cfg.Catalog.RawPath != "data/products_raw.jsonl" {
		t.Errorf("Catalog.RawPath = %q", cfg.Catalog.RawPath)
	}
	if cfg.Catalog.Workers < 1 {
		t.Errorf("Catalog.Workers = %d, want at least 1", cfg.Catalog.Workers)
	}
	if cfg.Scraper.Delay != time.Second {
		t.Errorf("Scraper.Delay = %v, want 1s", cfg.Scraper.Delay)
	}
	if cfg.Normalizer.FallbackSize != "" {
		t.Errorf("Normalizer.FallbackSize = %q, want empty", cfg.Normalizer.FallbackSize)
	}
}

func TestUnmarshalOverDefaults(t *testing.T) {
	const yaml = `
scraper:
  delay: 250ms
  max_depth: 5
catalog:
  path: /var/lib/shelf/products.json
normalizer:
  fallback_size: "One Size"
server:
  addr: ":9090"
  rate_limit: 0
sources:
  - name: shampoo
    url: https://example.com/collections/shampoo
  - name: styling
    url: https://example.com/collections/styling
`

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if cfg.Scraper.Delay != 250*time.Millisecond {
		t.Errorf("Scraper.Delay = %v, want 250ms", cfg.Scraper.Delay)
	}
	if cfg.Scraper.MaxDepth != 5 {
		t.Errorf("Scraper.MaxDepth = %d, want 5", cfg.Scraper.MaxDepth)
	}
	if cfg.Scraper.UserAgent != "shelf/1.0" {
		t.Errorf("Scraper.UserAgent = %q, default should survive", cfg.Scraper.UserAgent)
	}
	if cfg.Catalog.Path != "/var/lib/shelf/products.json" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
	if cfg.Catalog.RawPath != "data/products_raw.jsonl" {
		t.Errorf("Catalog.RawPath = %q, default should survive", cfg.Catalog.RawPath)
	}
	if cfg.Normalizer.FallbackSize != "One Size" {
		t.Errorf("Normalizer.FallbackSize = %q", cfg.Normalizer.FallbackSize)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.RateLimit != 0 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[1].Name != "styling" {
		t.Errorf("Sources = %+v", cfg.Sources)
	}
}
