// Package scraper crawls a retail site with colly and captures one raw
// record per product page for the normalizer.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/mfenderov/shelf/internal/storage"
	"github.com/mfenderov/shelf/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Config holds scraper configuration.
type Config struct {
	Delay       time.Duration
	MaxDepth    int
	FollowLinks bool // follow pagination and category links
	UserAgent   string
	Timeout     time.Duration

	ProductPath          string // path segment identifying product pages
	ProductLinkSelector  string
	PaginationSelector   string
	CategoryLinkSelector string
	NameSelector         string
	ContainerSelectors   []string // first match becomes the HTML fragment
}

// DefaultConfig returns the crawl rules for the supported retail markup.
func DefaultConfig() Config {
	return Config{
		Delay:                time.Second,
		MaxDepth:             3,
		FollowLinks:          true,
		UserAgent:            "shelf/1.0",
		Timeout:              30 * time.Second,
		ProductPath:          "/product/",
		ProductLinkSelector:  `a[href*="/product/"]`,
		PaginationSelector:   `a.pagination__next, a[rel="next"]`,
		CategoryLinkSelector: `a[href^="/shop-by-concern/"], a[href^="/collections/"]`,
		NameSelector:         "h1.product-full__name",
		ContainerSelectors:   []string{"div.product-full", "main", "body"},
	}
}

// Scraper fetches product pages and returns their raw records.
type Scraper struct {
	config Config
}

// New creates a new Scraper. Empty fields fall back to DefaultConfig.
func New(config Config) *Scraper {
	defaults := DefaultConfig()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.ProductPath == "" {
		config.ProductPath = defaults.ProductPath
	}
	if config.ProductLinkSelector == "" {
		config.ProductLinkSelector = defaults.ProductLinkSelector
	}
	if config.PaginationSelector == "" {
		config.PaginationSelector = defaults.PaginationSelector
	}
	if config.CategoryLinkSelector == "" {
		config.CategoryLinkSelector = defaults.CategoryLinkSelector
	}
	if config.NameSelector == "" {
		config.NameSelector = defaults.NameSelector
	}
	if len(config.ContainerSelectors) == 0 {
		config.ContainerSelectors = defaults.ContainerSelectors
	}
	return &Scraper{config: config}
}

// Scrape crawls from startURL and returns one record per distinct product
// page, in visit order. Pages answering with an error status are skipped.
// The context can be used to cancel the crawl; records gathered so far
// are returned together with ctx.Err().
func (s *Scraper) Scrape(ctx context.Context, startURL string) ([]models.RawRecord, error) {
	var records []models.RawRecord
	var mu sync.Mutex
	var cancelled atomic.Bool
	seen := make(map[string]bool)

	slog.Debug("starting scrape", "url", startURL, "max_depth", s.config.MaxDepth)

	parsedURL, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	c := colly.NewCollector(
		colly.MaxDepth(s.config.MaxDepth),
		colly.UserAgent(s.config.UserAgent),
	)

	// Set rate limiting
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       s.config.Delay,
		Parallelism: 1,
	}); err != nil {
		return nil, fmt.Errorf("failed to set rate limit: %w", err)
	}
	c.SetRequestTimeout(s.config.Timeout)

	// Check for cancellation before each request
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			slog.Debug("scrape cancelled", "url", r.URL.String())
			r.Abort()
			cancelled.Store(true)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		slog.Debug("skipping page", "url", r.Request.URL.String(), "status", r.StatusCode, "error", err)
	})

	visit := func(e *colly.HTMLElement) {
		link := stripFragment(e.Request.AbsoluteURL(e.Attr("href")))
		if link == "" {
			return
		}
		linkURL, err := url.Parse(link)
		if err != nil || linkURL.Host != parsedURL.Host {
			return
		}
		// already-visited and depth errors are expected
		_ = e.Request.Visit(link)
	}

	c.OnHTML(s.config.ProductLinkSelector, visit)
	if s.config.FollowLinks {
		c.OnHTML(s.config.PaginationSelector, visit)
		c.OnHTML(s.config.CategoryLinkSelector, visit)
	}

	c.OnHTML("html", func(e *colly.HTMLElement) {
		if !strings.Contains(e.Request.URL.Path, s.config.ProductPath) {
			return
		}

		canonical := canonicalURL(e)
		mu.Lock()
		duplicate := seen[canonical]
		seen[canonical] = true
		mu.Unlock()
		if duplicate {
			slog.Debug("skipping duplicate product page", "url", e.Request.URL.String(), "canonical", canonical)
			return
		}

		record := s.extractRecord(e)
		slog.Debug("scraped product", "url", record.URL, "name", record.Name, "size", len(record.HTMLFragment))

		mu.Lock()
		records = append(records, record)
		mu.Unlock()
	})

	if err := c.Visit(startURL); err != nil {
		slog.Debug("visit error (continuing)", "url", startURL, "error", err)
		return records, nil
	}

	// Wait for all requests to finish
	c.Wait()

	if cancelled.Load() {
		slog.Info("scrape cancelled by context", "records", len(records))
		return records, ctx.Err()
	}

	slog.Debug("scrape complete", "url", startURL, "records", len(records))
	return records, nil
}

// extractRecord captures the raw fields of a product page.
func (s *Scraper) extractRecord(e *colly.HTMLElement) models.RawRecord {
	doc := e.DOM
	pageURL := e.Request.URL.String()

	return models.RawRecord{
		URL:             pageURL,
		Name:            s.productName(doc, e.Request.URL),
		HTMLFragment:    s.fragment(doc),
		MetaDescription: metaDescription(doc),
		CategoryHint:    CategoryHint(e.Request.URL.Path),
		ScrapedAt:       time.Now().UTC(),
	}
}

var siteSuffixPattern = regexp.MustCompile(`\s*\|[^|]*$`)

// productName reads the product heading, then og:title, then the URL slug.
func (s *Scraper) productName(doc *goquery.Selection, pageURL *url.URL) string {
	name := strings.TrimSpace(doc.Find(s.config.NameSelector).First().Text())
	if name == "" || strings.EqualFold(name, "Sign in") {
		name, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}
	if strings.TrimSpace(name) == "" {
		name = slugName(pageURL.Path)
	}

	name = siteSuffixPattern.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// fragment returns the outer HTML of the first configured container.
func (s *Scraper) fragment(doc *goquery.Selection) string {
	for _, selector := range s.config.ContainerSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		html, err := goquery.OuterHtml(container)
		if err != nil {
			slog.Debug("failed to render product container", "selector", selector, "error", err)
			continue
		}
		return html
	}
	return ""
}

func metaDescription(doc *goquery.Selection) string {
	for _, selector := range []string{`meta[property="og:description"]`, `meta[name="description"]`} {
		if content, ok := doc.Find(selector).Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

// canonicalURL returns the page's declared canonical URL, or the request
// URL when the page has none.
func canonicalURL(e *colly.HTMLElement) string {
	if href := e.ChildAttr(`link[rel="canonical"]`, "href"); href != "" {
		if abs := stripFragment(e.Request.AbsoluteURL(href)); abs != "" {
			return abs
		}
	}
	return stripFragment(e.Request.URL.String())
}

func stripFragment(link string) string {
	link, _, _ = strings.Cut(link, "#")
	return link
}

// humanize turns a URL slug like "thickening-shampoo" into "Thickening Shampoo".
func humanize(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// pathSegments splits a URL path into its non-empty segments.
func pathSegments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

// slugName derives a name from the last path segment of a product URL.
func slugName(path string) string {
	segments := pathSegments(path)
	if len(segments) < 2 {
		return ""
	}
	return humanize(segments[len(segments)-1])
}

// CategoryHint derives a category from the URL path segment before the
// product slug. Numeric IDs and the product path segment itself are
// skipped, so "/hair-care/product/123/shampoo" yields "Hair Care".
func CategoryHint(path string) string {
	segments := pathSegments(path)
	if len(segments) < 2 {
		return ""
	}
	for i := len(segments) - 2; i >= 0; i-- {
		segment := segments[i]
		if isNumeric(segment) || segment == "product" || segment == "products" {
			continue
		}
		return humanize(segment)
	}
	return ""
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// RawWriter stores scraped records. *storage.Client satisfies it.
type RawWriter interface {
	PutRawRecords(ctx context.Context, prefix string, records []models.RawRecord) error
	PutMetadata(ctx context.Context, prefix string, meta storage.ScrapeMetadata) error
}

// ScrapeResult holds the result of a ScrapeToStorage operation.
type ScrapeResult struct {
	Prefix      string // storage prefix where the records were written
	RecordCount int
	SourceURL   string
}

// storeTimeout bounds the storage writes that follow a scrape.
const storeTimeout = 30 * time.Second

// ScrapeToStorage scrapes startURL and writes the raw records plus scrape
// metadata under a new prefix: scrapes/{host}/{timestamp}-{shortid}.
func (s *Scraper) ScrapeToStorage(ctx context.Context, startURL string, w RawWriter) (*ScrapeResult, error) {
	parsedURL, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	now := time.Now().UTC()
	shortID := models.GenerateProductID(fmt.Sprintf("%s-%d", startURL, now.UnixNano()))[:8]
	prefix := fmt.Sprintf("scrapes/%s/%s-%s", parsedURL.Host, now.Format("2006-01-02T15-04-05"), shortID)

	slog.Info("starting scrape to storage", "url", startURL, "prefix", prefix)

	records, err := s.Scrape(ctx, startURL)
	if err != nil && len(records) == 0 {
		return nil, fmt.Errorf("scrape failed: %w", err)
	}
	if err != nil {
		slog.Warn("storing partial scrape", "url", startURL, "records", len(records), "error", err)
	}

	// Partial results are still written after cancellation.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	if err := w.PutRawRecords(writeCtx, prefix, records); err != nil {
		return nil, fmt.Errorf("failed to write raw records: %w", err)
	}

	meta := storage.ScrapeMetadata{
		SourceURLs:  []string{startURL},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		RecordCount: len(records),
	}
	if err := w.PutMetadata(writeCtx, prefix, meta); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	slog.Info("scrape to storage complete", "url", startURL, "prefix", prefix, "records", len(records))

	return &ScrapeResult{
		Prefix:      prefix,
		RecordCount: len(records),
		SourceURL:   startURL,
	}, nil
}
