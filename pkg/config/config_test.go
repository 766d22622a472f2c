package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dkn.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  api_key: "k"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Server.Listen != ":3400" {
		t.Fatalf("default listen=%q", cfg.Server.Listen)
	}
	if cfg.Server.ReadTimeoutMs != 60000 || cfg.Server.WriteTimeoutMs != 60000 {
		t.Fatalf("default timeouts read=%d write=%d", cfg.Server.ReadTimeoutMs, cfg.Server.WriteTimeoutMs)
	}
	if !cfg.H2CEnabled() {
		t.Fatalf("server.h2c default should be true")
	}
	if cfg.Store.Backend != "file" || cfg.Store.Key != "config" || cfg.Store.File.Path != "./data/storage.json" {
		t.Fatalf("store defaults=%+v", cfg.Store)
	}
	if !cfg.BundledEnabled() || !cfg.EmptyEnabled() {
		t.Fatalf("bundled and empty sources default should be true")
	}
	if strings.Join(cfg.Styles.Dynamic, ",") != "blackBg,brightText" {
		t.Fatalf("styles.dynamic default=%v", cfg.Styles.Dynamic)
	}
	if cfg.AutoReload.Enabled {
		t.Fatalf("auto_reload.enabled default should be false")
	}
	if cfg.AutoReload.DebounceMs != 300 {
		t.Fatalf("auto_reload.debounce_ms default=%d", cfg.AutoReload.DebounceMs)
	}
	if cfg.Cache.RulesSize != 1024 {
		t.Fatalf("cache.rules_size default=%d", cfg.Cache.RulesSize)
	}
	if !cfg.Logging.AccessLog {
		t.Fatalf("access_log default should be true")
	}
}

func TestLoad_ExplicitFalseFlags(t *testing.T) {
	path := writeConfigFile(t, `
server:
  h2c: false
sources:
  bundled: false
  empty: false
  file: ./rules.json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.H2CEnabled() || cfg.BundledEnabled() || cfg.EmptyEnabled() {
		t.Fatalf("explicit false should stick: h2c=%v bundled=%v empty=%v", cfg.H2CEnabled(), cfg.BundledEnabled(), cfg.EmptyEnabled())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  api_key: "k"
store:
  backend: file
`)
	t.Setenv("DKN_API_KEY", "k2")
	t.Setenv("DKN_LISTEN", ":9999")
	t.Setenv("DKN_H2C", "off")
	t.Setenv("DKN_STORE_BACKEND", "Postgres")
	t.Setenv("DKN_STORE_PG_DSN", "postgres://u:p@localhost/dkn")
	t.Setenv("DKN_AUTO_RELOAD_ENABLED", "1")
	t.Setenv("DKN_AUTO_RELOAD_DEBOUNCE_MS", "50")
	t.Setenv("DKN_CACHE_RULES_SIZE", "16")
	t.Setenv("DKN_ACCESS_LOG", "false")
	t.Setenv("DKN_ACCESS_LOG_FORMAT_PRESET", "dkn_minimal")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Auth.APIKey != "k2" || cfg.Server.Listen != ":9999" {
		t.Fatalf("auth/listen overrides not applied: %q %q", cfg.Auth.APIKey, cfg.Server.Listen)
	}
	if cfg.H2CEnabled() {
		t.Fatalf("DKN_H2C=off should disable h2c")
	}
	if cfg.Store.Backend != "postgres" || cfg.Store.Postgres.DSN == "" {
		t.Fatalf("store overrides=%+v", cfg.Store)
	}
	if !cfg.AutoReload.Enabled || cfg.AutoReload.DebounceMs != 50 {
		t.Fatalf("auto_reload overrides=%+v", cfg.AutoReload)
	}
	if cfg.Cache.RulesSize != 16 {
		t.Fatalf("cache.rules_size=%d", cfg.Cache.RulesSize)
	}
	if cfg.Logging.AccessLog || cfg.Logging.AccessLogFormatPreset != "dkn_minimal" {
		t.Fatalf("logging overrides=%+v", cfg.Logging)
	}
}

func TestLoad_DotEnvBesideConfig(t *testing.T) {
	path := writeConfigFile(t, "{}\n")
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(envPath, []byte("DKN_STORE_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("DKN_STORE_KEY", "")
	os.Unsetenv("DKN_STORE_KEY")
	t.Cleanup(func() { os.Unsetenv("DKN_STORE_KEY") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Store.Key != "from-dotenv" {
		t.Fatalf("store.key=%q want value from .env", cfg.Store.Key)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown backend", "store:\n  backend: redis\n", "store.backend must be one of"},
		{"postgres without dsn", "store:\n  backend: postgres\n", "store.postgres.dsn is required"},
		{"s3 without bucket", "store:\n  backend: s3\n  s3:\n    endpoint: localhost:9000\n", "store.s3.endpoint and store.s3.bucket are required"},
		{"s3 without keys", "store:\n  backend: s3\n  s3:\n    endpoint: localhost:9000\n    bucket: b\n", "store.s3.access_key and store.s3.secret_key"},
		{"no sources", "store:\n  backend: none\nsources:\n  bundled: false\n  empty: false\n", "at least one config source"},
		{"bad preset", "logging:\n  access_log_format_preset: fancy\n", "logging.access_log_format_preset"},
		{"negative cache", "cache:\n  rules_size: -1\n", "cache.rules_size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v want containing %q", err, tc.want)
			}
		})
	}
}

func TestLoadIfExists_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DKN_STORE_BACKEND", "memory")
	cfg, err := LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if cfg.Server.Listen != ":3400" || cfg.Store.Backend != "memory" {
		t.Fatalf("unexpected cfg listen=%q backend=%q", cfg.Server.Listen, cfg.Store.Backend)
	}
}

func TestLoadIfExists_ExistingFile(t *testing.T) {
	path := writeConfigFile(t, "server:\n  listen: \":9999\"\n")
	cfg, err := LoadIfExists(path)
	if err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if cfg.Server.Listen != ":9999" {
		t.Fatalf("listen=%q", cfg.Server.Listen)
	}
}
