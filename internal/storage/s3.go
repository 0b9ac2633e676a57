// Package storage keeps scrape output and catalogs in S3-compatible
// object storage (MinIO).
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/mfenderov/shelf/internal/store"
	"github.com/mfenderov/shelf/pkg/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object names under a scrape prefix.
const (
	RawRecordsObject = "raw.jsonl"
	CatalogObject    = "products.json"
	MetadataObject   = "metadata.json"

	// ScrapesRoot is the common root of all scrape prefixes.
	ScrapesRoot = "scrapes/"
)

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string // "shelf"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client wraps the MinIO/S3 client for shelf operations.
type Client struct {
	minioClient *minio.Client
	bucket      string
}

// New creates a new S3/MinIO client.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{
		minioClient: minioClient,
		bucket:      config.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minioClient.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	err = c.minioClient.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ScrapeMetadata holds information about a scrape operation.
type ScrapeMetadata struct {
	SourceURLs  []string `json:"source_urls"`
	Timestamp   string   `json:"timestamp"`
	RecordCount int      `json:"record_count"`
}

// PutRawRecords writes the scraped records as JSON Lines.
func (c *Client) PutRawRecords(ctx context.Context, prefix string, records []models.RawRecord) error {
	var buf bytes.Buffer
	if err := store.WriteRaw(&buf, records); err != nil {
		return err
	}
	if err := c.put(ctx, path.Join(prefix, RawRecordsObject), buf.Bytes(), "application/x-ndjson"); err != nil {
		return fmt.Errorf("failed to put raw records: %w", err)
	}
	return nil
}

// GetRawRecords reads the records written by PutRawRecords.
func (c *Client) GetRawRecords(ctx context.Context, prefix string) ([]models.RawRecord, error) {
	data, err := c.get(ctx, path.Join(prefix, RawRecordsObject))
	if err != nil {
		return nil, fmt.Errorf("failed to get raw records: %w", err)
	}
	return store.ReadRaw(bytes.NewReader(data))
}

// PutCatalog writes the normalized products next to the raw records.
func (c *Client) PutCatalog(ctx context.Context, prefix string, products []models.Product) error {
	var buf bytes.Buffer
	if err := store.WriteCatalog(&buf, products); err != nil {
		return err
	}
	if err := c.put(ctx, path.Join(prefix, CatalogObject), buf.Bytes(), "application/json"); err != nil {
		return fmt.Errorf("failed to put catalog: %w", err)
	}
	return nil
}

// GetCatalog reads the products written by PutCatalog.
func (c *Client) GetCatalog(ctx context.Context, prefix string) ([]models.Product, error) {
	data, err := c.get(ctx, path.Join(prefix, CatalogObject))
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	return store.ReadCatalog(bytes.NewReader(data))
}

// PutMetadata writes the scrape metadata JSON to S3.
func (c *Client) PutMetadata(ctx context.Context, prefix string, meta ScrapeMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := c.put(ctx, path.Join(prefix, MetadataObject), data, "application/json"); err != nil {
		return fmt.Errorf("failed to put metadata: %w", err)
	}
	return nil
}

// GetMetadata reads the scrape metadata from S3.
func (c *Client) GetMetadata(ctx context.Context, prefix string) (*ScrapeMetadata, error) {
	data, err := c.get(ctx, path.Join(prefix, MetadataObject))
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	var meta ScrapeMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// ListScrapes returns every scrape prefix that has metadata, oldest
// first. Prefixes embed their timestamp, so lexical order is time order
// per host.
func (c *Client) ListScrapes(ctx context.Context) ([]string, error) {
	var prefixes []string

	objectCh := c.minioClient.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    ScrapesRoot,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if path.Base(object.Key) == MetadataObject {
			prefixes = append(prefixes, strings.TrimSuffix(object.Key, "/"+MetadataObject))
		}
	}

	slices.Sort(prefixes)
	return prefixes, nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := c.minioClient.PutObject(ctx, c.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (c *Client) get(ctx context.Context, objectName string) ([]byte, error) {
	object, err := c.minioClient.GetObject(ctx, c.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	return io.ReadAll(object)
}
