package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/r9s-ai/dkn/internal/wiring"
	"github.com/r9s-ai/dkn/pkg/config"
)

const checkTimeout = 15 * time.Second

// checkConfig loads the app config, reads the rule document through the
// same source chain the server uses and compiles it. Sources skipped on the
// way are reported so a fallback to the bundled or empty document is visible.
func checkConfig(ctx context.Context, cfgPath string, out io.Writer) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %q: %w", cfgPath, err)
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	rt, err := wiring.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	text, err := rt.Resolver.GetConfigString(ctx)
	if err != nil {
		return err
	}
	last := rt.Resolver.LastLoad()
	for _, skipped := range last.Skipped {
		_, _ = fmt.Fprintf(out, "dkn: source %s skipped: %v\n", skipped.Source, skipped.Err)
	}
	root, err := rt.Resolver.Validate(text)
	if err != nil {
		return fmt.Errorf("source %s: %w", last.Source, err)
	}
	_, err = fmt.Fprintf(out, "dkn: configuration %s test is successful (source=%s, %d top-level rules, %d static styles, %d dynamic styles)\n",
		cfgPath, last.Source, len(root.Rules), len(rt.Styles.Static), len(rt.Styles.Dynamic))
	return err
}
