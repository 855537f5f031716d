// Package storage keeps uploaded claim documents until an audit has read
// them. Keys are slash-separated relative paths such as "audits/AUD-1/bill.pdf".
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("document not found")

// Store persists documents by key.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the objects. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Backend  Backend
	Dir      string // local
	Bucket   string // s3
	Region   string
	Endpoint string // optional, for MinIO/LocalStack
	Prefix   string
}

// New builds the configured Store.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		dir := cfg.Dir
		if dir == "" {
			dir = "data/uploads"
		}
		return NewLocalStore(dir)
	case BackendS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket")
		}
		region := cfg.Region
		if region == "" {
			region = "us-east-1"
		}
		return NewS3Store(ctx, S3Config{
			Bucket:   cfg.Bucket,
			Region:   region,
			Endpoint: cfg.Endpoint,
			Prefix:   cfg.Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// DocumentKey is the key an uploaded document is stored under.
func DocumentKey(auditID, kind, ext string) string {
	return path.Join("audits", auditID, kind+strings.ToLower(ext))
}

// UploadKey returns a key no other upload uses, e.g.
// "audits/AUD-1/bill-<uuid>.pdf". Deleting it never affects another upload
// of the same document.
func UploadKey(auditID, kind, ext string) string {
	return DocumentKey(auditID, kind+"-"+uuid.NewString(), ext)
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return c, nil
}
