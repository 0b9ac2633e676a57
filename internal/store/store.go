// Package store reads and writes the flat files exchanged between the
// scraper, the normalizer and the catalog consumers.
//
// Raw records are stored as JSON Lines, one record per line, in scrape
// order. The normalized catalog is a single indented JSON array.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mfenderov/shelf/pkg/models"
)

// MaxLineSize bounds a single JSONL line. Raw records embed whole page
// fragments, so lines can be large.
const MaxLineSize = 32 << 20

// ReadRaw decodes JSONL raw records in order. Blank lines are skipped.
// A malformed line fails the whole read.
func ReadRaw(r io.Reader) ([]models.RawRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	var records []models.RawRecord
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec models.RawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode raw record on line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raw records: %w", err)
	}

	return records, nil
}

// WriteRaw encodes records as JSON Lines.
func WriteRaw(w io.Writer, records []models.RawRecord) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode raw record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadCatalog decodes the product catalog document.
func ReadCatalog(r io.Reader) ([]models.Product, error) {
	var products []models.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return products, nil
}

// WriteCatalog encodes products as one indented JSON array.
func WriteCatalog(w io.Writer, products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return nil
}

// ReadRawFile reads a JSONL file of raw records.
func ReadRawFile(path string) ([]models.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw records: %w", err)
	}
	defer f.Close()

	return ReadRaw(f)
}

// WriteRawFile writes raw records to path, creating parent directories.
func WriteRawFile(path string, records []models.RawRecord) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteRaw(w, records)
	})
}

// ReadCatalogFile reads a catalog written by WriteCatalogFile.
func ReadCatalogFile(path string) ([]models.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return ReadCatalog(f)
}

// WriteCatalogFile writes the catalog to path, creating parent directories.
func WriteCatalogFile(path string, products []models.Product) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteCatalog(w, products)
	})
}

// writeFile writes through a temp file in the target directory and renames
// it into place, so readers never observe a half-written file.
func writeFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
