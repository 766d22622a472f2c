package configsource

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// StoreOptions selects and configures a KV backend.
type StoreOptions struct {
	// Backend is one of "file", "postgres", "s3", "memory" or "none".
	Backend     string
	FilePath    string
	PostgresDSN string
	S3          S3Config
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenKV opens the configured backend. It returns a nil KV for "none". The
// returned closer is never nil.
func OpenKV(ctx context.Context, opts StoreOptions) (KV, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "file":
		kv, err := NewFileKV(opts.FilePath)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return kv, nopCloser{}, nil
	case "postgres":
		kv, err := NewPostgresKV(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("open postgres store: %w", err)
		}
		return kv, kv, nil
	case "s3":
		kv, err := NewS3KV(opts.S3)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("open s3 store: %w", err)
		}
		return kv, nopCloser{}, nil
	case "memory":
		return NewMemoryKV(), nopCloser{}, nil
	case "none":
		return nil, nopCloser{}, nil
	default:
		return nil, nopCloser{}, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
