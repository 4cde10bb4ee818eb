package blob

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no blob exists under the requested name.
	ErrNotFound = errors.New("blob not found")

	// ErrInvalidName rejects names that are empty or try to escape the
	// store (path separators, dot segments).
	ErrInvalidName = errors.New("invalid blob name")
)

// Store holds the raw bytes of accepted uploads, keyed by stored name.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Get(ctx context.Context, name string) ([]byte, string, error)
	Remove(ctx context.Context, name string) error
}
