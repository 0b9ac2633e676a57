package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RawRecord is one fetched product page before field extraction.
type RawRecord struct {
	URL             string    `json:"url"`
	Name            string    `json:"name"`
	HTMLFragment    string    `json:"html_fragment,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"` // og:description of the page
	CategoryHint    string    `json:"category_hint,omitempty"`    // derived from the URL path by the scraper
	ScrapedAt       time.Time `json:"scraped_at,omitzero"`
}

// Option is a purchasable size/price pair. Price keeps the scraped
// literal, currency symbol included.
type Option struct {
	Size  string `json:"size"`
	Price string `json:"price"`
}

// Product is the normalized record produced from a RawRecord.
//
// Other holds the leftover free text (category, description, details)
// exactly as extracted. The derived sections are recomputed from it on
// every access and are never stored on the product.
type Product struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Name        string   `json:"name"`
	Options     []Option `json:"options"`
	Ingredients []string `json:"ingredients"`
	Other       string   `json:"other,omitempty"`
}

// Sections are the fields derived from Product.Other.
type Sections struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Details     string `json:"details"`
}

// FirstPrice returns the price of the first option, or "" when the
// product has no options.
func (p Product) FirstPrice() string {
	if len(p.Options) == 0 {
		return ""
	}
	return p.Options[0].Price
}

// GenerateProductID creates a deterministic ID from URL.
// The ID is a SHA-256 hash (first 16 chars) of the URL.
func GenerateProductID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}
