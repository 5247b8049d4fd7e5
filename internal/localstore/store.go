// Package localstore is the durable fallback record set used when the
// remote service is unreachable. Records are opaque JSON documents grouped
// by collection (one per entity type) and listed in insertion order.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrNotFound = errors.New("local record not found")

type Store interface {
	// All returns every document of collection in insertion order.
	All(ctx context.Context, collection string) ([]json.RawMessage, error)
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	// Put inserts or replaces a document. Replacing keeps the original
	// insertion position.
	Put(ctx context.Context, collection, id string, doc json.RawMessage) error
	// Delete removes a document. Deleting a missing id is not an error.
	Delete(ctx context.Context, collection, id string) error
	Count(ctx context.Context, collection string) (int, error)
	Close() error
}
