package configsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/r9s-ai/dkn/pkg/defaults"
	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

// DefaultKey is the key the rule document is stored under.
const DefaultKey = "config"

// StoreSource loads and saves the document under one key of a KV backend.
type StoreSource struct {
	kv   KV
	key  string
	name string
}

func NewStoreSource(kv KV, key string, name string) *StoreSource {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	if strings.TrimSpace(name) == "" {
		name = "store"
	}
	return &StoreSource{kv: kv, key: key, name: name}
}

func (s *StoreSource) Name() string { return s.name }

func (s *StoreSource) LoadConfigString(ctx context.Context) (string, error) {
	text, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("no config available in store: %w", err)
		}
		return "", err
	}
	return text, nil
}

func (s *StoreSource) SaveConfigString(ctx context.Context, text string) error {
	return s.kv.Set(ctx, s.key, text)
}

// FileSource reads the document from a file on disk. It cannot save.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: strings.TrimSpace(path)}
}

func (f *FileSource) Name() string { return "file:" + f.path }

func (f *FileSource) LoadConfigString(context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *FileSource) SaveConfigString(context.Context, string) error {
	return ErrSaveUnsupported
}

// BundledSource serves the default document compiled into the binary.
type BundledSource struct{}

func (BundledSource) Name() string { return "bundled" }

func (BundledSource) LoadConfigString(context.Context) (string, error) {
	return defaults.ConfigString(), nil
}

func (BundledSource) SaveConfigString(context.Context, string) error {
	return ErrSaveUnsupported
}

// EmptySource always loads the empty document.
type EmptySource struct{}

func (EmptySource) Name() string { return "empty" }

func (EmptySource) LoadConfigString(context.Context) (string, error) {
	return ruleconfig.EmptyConfigString, nil
}

func (EmptySource) SaveConfigString(context.Context, string) error {
	return ErrSaveUnsupported
}

var (
	_ ruleconfig.ConfigSource = (*StoreSource)(nil)
	_ ruleconfig.ConfigSource = (*FileSource)(nil)
	_ ruleconfig.ConfigSource = BundledSource{}
	_ ruleconfig.ConfigSource = EmptySource{}
)
