package store

import (
	"context"
	"fmt"
	"time"
)

// TagCount is one entry of the popularity ranking.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// RecordStore is the durable home of image records and their tag
// associations. Every operation is atomic on its own; no cross-call
// transaction is exposed.
//
// Range bounds are inclusive on both ends. A window whose end precedes
// its start simply matches nothing; validating user input is the
// caller's job.
type RecordStore interface {
	// CreateImage inserts a new image record stamped with the current
	// time at second precision and returns the assigned id.
	CreateImage(ctx context.Context, storedName string) (int64, error)

	// AddTags attaches tags to an existing image as one atomic batch.
	// An empty batch is a no-op.
	AddTags(ctx context.Context, imageID int64, tags []string) error

	// TagsInRange returns the distinct tags attached to any image whose
	// timestamp falls within [from, to].
	TagsInRange(ctx context.Context, from, to time.Time) ([]string, error)

	// HasTagInRange reports whether at least one image in the window
	// carries the tag, compared case-insensitively.
	HasTagInRange(ctx context.Context, tag string, from, to time.Time) (bool, error)

	// PopularTags returns up to limit tags ranked by total occurrence
	// count, descending, ties broken by tag name ascending.
	PopularTags(ctx context.Context, limit int) ([]TagCount, error)

	Ping(ctx context.Context) error
	Close() error
}

// StoreError wraps any underlying storage failure with the operation
// that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
