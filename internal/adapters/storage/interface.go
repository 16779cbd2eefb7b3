package storage

import (
	"context"
	"time"
)

// FileMetadata describes a stored artifact.
type FileMetadata struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ListOptions filters a List call. Marker resumes after the named key.
type ListOptions struct {
	Prefix     string `json:"prefix,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
	Marker     string `json:"marker,omitempty"`
}

// ListResult is one page of stored artifacts.
type ListResult struct {
	Files       []FileMetadata `json:"files"`
	NextMarker  string         `json:"next_marker,omitempty"`
	IsTruncated bool           `json:"is_truncated"`
}

// StoreOptions controls a Store call. Without Overwrite, storing over an
// existing key fails with ErrFileAlreadyExists.
type StoreOptions struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Overwrite   bool              `json:"overwrite,omitempty"`
}

// FileStorage persists generated artifacts, such as CSV exports, under
// slash-separated keys.
type FileStorage interface {
	Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error

	Retrieve(ctx context.Context, key string) ([]byte, error)

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	GetMetadata(ctx context.Context, key string) (*FileMetadata, error)

	List(ctx context.Context, opts *ListOptions) (*ListResult, error)

	// GenerateURL returns an address a client can fetch the artifact from.
	// The expiry is advisory; backends without signed URLs ignore it.
	GenerateURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	Close() error
}
