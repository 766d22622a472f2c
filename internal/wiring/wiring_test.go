package wiring

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/r9s-ai/dkn/pkg/config"
	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dkn.yaml")
	if err := os.WriteFile(p, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestStyleNames_MergesSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"dark.css", "invert.css"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	cfg := loadConfig(t, "styles:\n  dir: "+dir+"\n  static: [sepia, dark]\n")
	names, err := StyleNames(cfg)
	if err != nil {
		t.Fatalf("StyleNames: %v", err)
	}
	if got := strings.Join(names.Static, ","); got != "dark,invert,sepia" {
		t.Fatalf("static=%q", got)
	}
	if got := strings.Join(names.Dynamic, ","); got != "blackBg,brightText" {
		t.Fatalf("dynamic=%q", got)
	}
}

func TestStyleNames_MissingDir(t *testing.T) {
	cfg := loadConfig(t, "styles:\n  dir: "+filepath.Join(t.TempDir(), "nope")+"\n")
	if _, err := StyleNames(cfg); err == nil {
		t.Fatalf("expected error for missing styles dir")
	}
}

func TestOpen_SourceChainOrder(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(rules, []byte(`{"rules":[{"regex":"example","level":2}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	store := filepath.Join(dir, "storage.json")
	cfg := loadConfig(t, "store:\n  file:\n    path: "+store+"\nsources:\n  file: "+rules+"\n")

	rt, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = rt.Close() }()

	var names []string
	for i, src := range rt.Sources {
		names = append(names, ruleconfig.SourceName(src, i))
	}
	want := "store:file,file:" + rules + ",bundled,empty"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("sources=%q want %q", got, want)
	}
	if len(rt.WatchPaths) != 2 || rt.WatchPaths[0] != store || rt.WatchPaths[1] != rules {
		t.Fatalf("watch paths=%v", rt.WatchPaths)
	}

	rule, err := rt.Resolver.GetEffectiveRule(context.Background(), "https://example.com/")
	if err != nil || rule.Level != 2 {
		t.Fatalf("rule=%+v err=%v (empty store should fall through to sources.file)", rule, err)
	}
}

func TestOpen_NoStore(t *testing.T) {
	cfg := loadConfig(t, "store:\n  backend: none\nsources:\n  bundled: false\n")
	rt, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(rt.Sources) != 1 {
		t.Fatalf("expected only the empty source, got %d", len(rt.Sources))
	}
	if _, err := rt.Resolver.SetConfigString(context.Background(), "{}"); err == nil {
		t.Fatalf("set without a writable source should fail")
	}
}
