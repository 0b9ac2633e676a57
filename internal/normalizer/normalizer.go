// Package normalizer turns raw scraped product pages into validated
// product records and splits their leftover text into derived sections.
package normalizer

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/mfenderov/shelf/pkg/models"
)

// Config holds the extraction rules. Zero fields fall back to DefaultConfig.
type Config struct {
	SizeSelector        string // CSS selector group for option sizes
	PriceSelector       string // CSS selector group for option prices
	IngredientsKeyword  string // text identifying the ingredients section
	IngredientDelimiter string // separator between ingredient entries
	FallbackSize        string // when set, a lone "$d.dd" price becomes {FallbackSize, price}
}

// DefaultConfig returns the extraction rules for the supported retail markup.
func DefaultConfig() Config {
	return Config{
		SizeSelector:        "size, li.product-full__size-selector-item, [data-size]",
		PriceSelector:       "price, .product-full__price, [data-price]",
		IngredientsKeyword:  "ingredients",
		IngredientDelimiter: ",",
	}
}

// Normalizer converts RawRecords into Products. It holds no per-record
// state and is safe for concurrent use.
type Normalizer struct {
	config    Config
	sizes     cascadia.Selector
	prices    cascadia.Selector
	keyword   *regexp.Regexp // keyword with an optional colon
	label     *regexp.Regexp // element text that is only the keyword
	inlineKey *regexp.Regexp // "keyword: list" on one line
}

// New creates a Normalizer, compiling the configured selectors.
func New(config Config) (*Normalizer, error) {
	defaults := DefaultConfig()
	if config.SizeSelector == "" {
		config.SizeSelector = defaults.SizeSelector
	}
	if config.PriceSelector == "" {
		config.PriceSelector = defaults.PriceSelector
	}
	if config.IngredientsKeyword == "" {
		config.IngredientsKeyword = defaults.IngredientsKeyword
	}
	if config.IngredientDelimiter == "" {
		config.IngredientDelimiter = defaults.IngredientDelimiter
	}

	sizes, err := cascadia.Compile(config.SizeSelector)
	if err != nil {
		return nil, fmt.Errorf("invalid size selector %q: %w", config.SizeSelector, err)
	}
	prices, err := cascadia.Compile(config.PriceSelector)
	if err != nil {
		return nil, fmt.Errorf("invalid price selector %q: %w", config.PriceSelector, err)
	}

	quoted := regexp.QuoteMeta(config.IngredientsKeyword)
	return &Normalizer{
		config:    config,
		sizes:     sizes,
		prices:    prices,
		keyword:   regexp.MustCompile(`(?i)` + quoted + `\s*:?\s*`),
		label:     regexp.MustCompile(`(?i)^\s*` + quoted + `\s*:?\s*$`),
		inlineKey: regexp.MustCompile(`(?i)` + quoted + `\s*:\s*([^\n]+)`),
	}, nil
}

// Normalize converts one raw record. A record whose trimmed name is empty
// is skipped with a *SkipError.
func (n *Normalizer) Normalize(raw models.RawRecord) (models.Product, error) {
	product, _, err := n.NormalizeWithReport(raw)
	return product, err
}

// NormalizeWithReport is Normalize plus the per-record issue counts.
//
// Option, ingredient and leftover-text extraction run independently: a
// section that cannot be found only leaves its field empty.
func (n *Normalizer) NormalizeWithReport(raw models.RawRecord) (models.Product, Report, error) {
	var report Report

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return models.Product{}, report, &SkipError{URL: raw.URL, Reason: MissingName}
	}

	product := models.Product{
		ID:          models.GenerateProductID(raw.URL),
		URL:         raw.URL,
		Name:        name,
		Options:     []models.Option{},
		Ingredients: []string{},
	}

	if strings.TrimSpace(raw.HTMLFragment) == "" {
		product.Other = composeOther("", raw.CategoryHint)
		return product, report, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw.HTMLFragment))
	if err != nil {
		slog.Debug("fragment is not parseable HTML, keeping it as text", "url", raw.URL, "error", err)
		product.Other = composeOther(tidyText(raw.HTMLFragment), raw.CategoryHint)
		return product, report, nil
	}

	product.Options, report.MalformedOptions = n.extractOptions(doc)
	product.Ingredients, report.EmptyIngredients = n.extractIngredients(doc)
	product.Other = composeOther(extractText(doc.Get(0)), raw.CategoryHint)

	if report.MalformedOptions > 0 {
		slog.Debug("dropped malformed options", "url", raw.URL, "count", report.MalformedOptions)
	}

	return product, report, nil
}

// composeOther prepends the scraper's category hint in the
// "CATEGORY\n<value>" layout unless the text already carries the marker.
func composeOther(text, categoryHint string) string {
	hint := strings.TrimSpace(categoryHint)
	if hint == "" || strings.Contains(text, CategoryMarker) {
		return text
	}
	if text == "" {
		return CategoryMarker + "\n" + hint
	}
	return CategoryMarker + "\n" + hint + "\n\n" + text
}
