// Package qart turns an artifacts directory into object-store uploads: a
// pure Plan of records, then a dispatch of those records to a Sink.
package qart

import (
	"context"
	"io"
	"time"
)

// Object represents a stored object with metadata.
type Object struct {
	Key          string            `json:"key"`           // object key, e.g. "assets/app.js"
	Bucket       string            `json:"bucket"`        // Bucket name
	Size         int64             `json:"size"`          // Size in bytes
	ContentType  string            `json:"content_type"`  // MIME type
	LastModified time.Time         `json:"last_modified"` // Last modification time
	Metadata     map[string]string `json:"metadata"`      // Custom metadata
}

// Store defines the object storage operations a direct sync needs.
type Store interface {
	// Upload creates or replaces the object at key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (*Object, error)

	// List lists all objects with the given prefix.
	List(ctx context.Context, prefix string) ([]*Object, error)

	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error

	// EnsureBucket ensures the bucket exists, creating it if necessary.
	EnsureBucket(ctx context.Context) error
}
