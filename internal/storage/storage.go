// Package storage is the blob store adapter: streaming object storage keyed by
// opaque object identifiers. Implementations never touch local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docvault/internal/config"
)

// KeyPrefix is the namespace every attachment blob lives under.
const KeyPrefix = "blobs/"

// ErrObjectNotFound is returned by every backend when a key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known, or -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object storage client.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns an object's info without its content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// NewObjectKey mints a fresh object identifier.
func NewObjectKey() string {
	return KeyPrefix + uuid.NewString()
}

// IsObjectKey reports whether key has the shape NewObjectKey produces.
func IsObjectKey(key string) bool {
	id, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Backend names accepted by New.
const (
	BackendMinIO = "minio"
	BackendS3    = "s3"
)

// New builds the backend selected by cfg.Backend. An empty backend means MinIO.
func New(ctx context.Context, cfg config.BlobConfig) (Storage, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMinIO:
		return NewMinIO(ctx, cfg)
	case BackendS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
