// Package configsource provides the ConfigSource variants the resolver
// walks: a store-backed source over a key/value backend, a read-only file,
// the bundled default document and the empty document.
package configsource

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a KV when the key has never been written.
	ErrNotFound = errors.New("config key not found")
	// ErrSaveUnsupported is returned by sources that cannot persist.
	ErrSaveUnsupported = errors.New("config source does not support saving")
)

// KV is a string key/value backend.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
