// Package server exposes the rule resolver over HTTP and keeps it fresh
// through signal, admin and file-watch reloads.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/r9s-ai/dkn/internal/logx"
	"github.com/r9s-ai/dkn/pkg/config"
	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

// Server owns the resolver together with the caches and subscribers that
// must follow each config replacement.
type Server struct {
	cfg      *config.Config
	resolver *ruleconfig.Resolver
	cache    *ruleCache
	hub      *eventHub

	// reloadMu orders replacements with the notifications they trigger.
	reloadMu sync.Mutex
}

func New(cfg *config.Config, resolver *ruleconfig.Resolver) (*Server, error) {
	if cfg == nil || resolver == nil {
		return nil, fmt.Errorf("server: nil config or resolver")
	}
	cache, err := newRuleCache(cfg.Cache.RulesSize)
	if err != nil {
		return nil, fmt.Errorf("init rule cache: %w", err)
	}
	return &Server{
		cfg:      cfg,
		resolver: resolver,
		cache:    cache,
		hub:      newEventHub(),
	}, nil
}

func (s *Server) Close() error {
	return s.hub.Close()
}

// Warm loads and compiles the config once so startup problems are logged
// before the first request.
func (s *Server) Warm(ctx context.Context) {
	root, err := s.resolver.GetCompiledConfig(ctx)
	last := s.resolver.LastLoad()
	logSkippedSources(last.Skipped, false)
	if err != nil {
		log.Printf("config compile failed: source=%q err=%v", last.Source, err)
		return
	}
	log.Printf("config loaded: source=%q top_level_rules=%d generation=%d", last.Source, len(root.Rules), s.resolver.Generation())
}

// Reload re-reads the source chain. On failure the active config is kept.
func (s *Server) Reload(ctx context.Context, trigger string) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	res, err := s.resolver.Reload(ctx)
	logSkippedSources(res.Skipped, true)
	if err != nil {
		log.Printf("reload failed (%s): %v", trigger, err)
		return err
	}
	gen := s.configReplaced(res.Source)
	log.Printf("reload ok (%s): source=%q generation=%d", trigger, res.Source, gen)
	return nil
}

// SetConfig validates, saves and activates text.
func (s *Server) SetConfig(ctx context.Context, text string) (*ruleconfig.Rule, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	root, err := s.resolver.SetConfigString(ctx, text)
	if err != nil {
		return nil, err
	}
	gen := s.configReplaced(s.resolver.LastLoad().Source)
	log.Printf("config saved: source=%q generation=%d", s.resolver.LastLoad().Source, gen)
	return root, nil
}

func (s *Server) configReplaced(source string) uint64 {
	gen := s.resolver.Generation()
	s.cache.purge()
	s.hub.publish(configEvent{Type: "config_updated", Generation: gen, Source: source})
	return gen
}

// EffectiveRule resolves url through the rule cache.
func (s *Server) EffectiveRule(ctx context.Context, url string) (rule ruleconfig.EffectiveRule, cached bool, err error) {
	gen := s.resolver.Generation()
	if rule, ok := s.cache.get(url, gen); ok {
		return rule, true, nil
	}
	rule, err = s.resolver.GetEffectiveRule(ctx, url)
	if err != nil {
		return rule, false, err
	}
	// Only cache when no replacement happened while resolving.
	if s.resolver.Generation() == gen {
		s.cache.add(url, gen, rule)
	}
	return rule, false, nil
}

func logSkippedSources(skipped []ruleconfig.SourceFailure, reloading bool) {
	if len(skipped) == 0 {
		return
	}
	phase := "load"
	if reloading {
		phase = "reload"
	}
	warn := "WARNING"
	if logx.ColorEnabled() {
		warn = "\x1b[1;33mWARNING\x1b[0m"
	}
	parts := make([]string, 0, len(skipped))
	for _, f := range skipped {
		parts = append(parts, fmt.Sprintf("%s (%v)", f.Source, f.Err))
	}
	log.Printf("[DKN] %s [sources/%s] skipped_sources=%s", warn, phase, strings.Join(parts, "; "))
}
