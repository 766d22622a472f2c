// Package wiring turns the application config into a style-name set, an
// ordered config source chain and a Resolver over it.
package wiring

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/r9s-ai/dkn/pkg/config"
	"github.com/r9s-ai/dkn/pkg/configsource"
	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

type Runtime struct {
	Config   *config.Config
	Styles   ruleconfig.StyleNames
	Sources  []ruleconfig.ConfigSource
	Resolver *ruleconfig.Resolver
	// WatchPaths are the files whose changes should trigger a reload.
	WatchPaths []string

	closer io.Closer
}

func (r *Runtime) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// StyleNames collects static names from styles.dir, styles.manifest and
// styles.static, in that order and without duplicates.
func StyleNames(cfg *config.Config) (ruleconfig.StyleNames, error) {
	var static []string
	if dir := strings.TrimSpace(cfg.Styles.Dir); dir != "" {
		names, err := ruleconfig.StaticStylesFromDir(dir)
		if err != nil {
			return ruleconfig.StyleNames{}, err
		}
		static = append(static, names...)
	}
	if manifest := strings.TrimSpace(cfg.Styles.Manifest); manifest != "" {
		names, err := ruleconfig.StaticStylesFromManifest(manifest)
		if err != nil {
			return ruleconfig.StyleNames{}, err
		}
		static = append(static, names...)
	}
	static = append(static, cfg.Styles.Static...)

	dynamic := cfg.Styles.Dynamic
	if len(dynamic) == 0 {
		dynamic = ruleconfig.DefaultDynamicStyles
	}
	return ruleconfig.StyleNames{Static: dedupe(static), Dynamic: dedupe(dynamic)}, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// StoreOptions maps the store section onto configsource options.
func StoreOptions(cfg *config.Config) configsource.StoreOptions {
	s3 := cfg.Store.S3
	return configsource.StoreOptions{
		Backend:     cfg.Store.Backend,
		FilePath:    cfg.Store.File.Path,
		PostgresDSN: cfg.Store.Postgres.DSN,
		S3: configsource.S3Config{
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			UseSSL:    s3.UseSSL,
			Prefix:    s3.Prefix,
		},
	}
}

// Open builds the runtime: store first, then sources.file, the bundled
// document and the empty document, each when enabled.
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	styles, err := StyleNames(cfg)
	if err != nil {
		return nil, fmt.Errorf("load style names: %w", err)
	}
	kv, closer, err := configsource.OpenKV(ctx, StoreOptions(cfg))
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Styles: styles, closer: closer}
	if kv != nil {
		name := "store:" + cfg.Store.Backend
		rt.Sources = append(rt.Sources, configsource.NewStoreSource(kv, cfg.Store.Key, name))
		if fkv, ok := kv.(*configsource.FileKV); ok {
			rt.WatchPaths = append(rt.WatchPaths, fkv.Path())
		}
	}
	if path := strings.TrimSpace(cfg.Sources.File); path != "" {
		rt.Sources = append(rt.Sources, configsource.NewFileSource(path))
		rt.WatchPaths = append(rt.WatchPaths, path)
	}
	if cfg.BundledEnabled() {
		rt.Sources = append(rt.Sources, configsource.BundledSource{})
	}
	if cfg.EmptyEnabled() {
		rt.Sources = append(rt.Sources, configsource.EmptySource{})
	}
	rt.Resolver = ruleconfig.NewResolver(styles, rt.Sources...)
	return rt, nil
}
