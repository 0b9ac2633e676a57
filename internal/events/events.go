// Package events defines the messages passed between the scrape producer
// and the normalization consumer.
package events

import "time"

// ScrapeCompleteEvent is sent when the scraper finishes writing raw
// records to storage.
type ScrapeCompleteEvent struct {
	Bucket      string    // storage bucket name (e.g., "shelf")
	Prefix      string    // storage prefix (e.g., "scrapes/example.com/2024-12-04T17-30-00-abc12345")
	SourceURL   string    // listing URL the crawl started from
	RecordCount int       // number of raw records written
	Timestamp   time.Time // when the scrape completed
}

// NormalizeCompleteEvent is sent when a scrape prefix has been normalized
// into a catalog.
type NormalizeCompleteEvent struct {
	Prefix      string // storage prefix that was normalized
	Total       int    // raw records seen
	Normalized  int    // products written to the catalog
	Skipped     int    // records dropped (see SkipReasons)
	SkipReasons map[string]int
	DocsIndexed int           // products pushed to the search index
	Duration    time.Duration // how long normalization took
	Errors      []string      // non-fatal errors encountered
	Err         error         // set when the prefix could not be processed
}
