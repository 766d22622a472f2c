package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type LoggingConfig struct {
	AccessLog             bool   `yaml:"access_log"`
	AccessLogPath         string `yaml:"access_log_path"`
	AccessLogFormat       string `yaml:"access_log_format"`
	AccessLogFormatPreset string `yaml:"access_log_format_preset"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

type Config struct {
	Server struct {
		Listen         string `yaml:"listen"`
		ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
		WriteTimeoutMs int    `yaml:"write_timeout_ms"`
		PidFile        string `yaml:"pid_file"`
		// H2C serves HTTP/2 without TLS next to HTTP/1.1. Default true.
		H2C *bool `yaml:"h2c"`
	} `yaml:"server"`

	Auth struct {
		// APIKey guards the mutating endpoints when set.
		APIKey string `yaml:"api_key"`
	} `yaml:"auth"`

	// Store is the writable, highest priority config source.
	Store struct {
		Backend string `yaml:"backend"`
		Key     string `yaml:"key"`
		File    struct {
			Path string `yaml:"path"`
		} `yaml:"file"`
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
		S3 S3Config `yaml:"s3"`
	} `yaml:"store"`

	// Sources lists the read-only fallbacks tried after the store, in order.
	Sources struct {
		File    string `yaml:"file"`
		Bundled *bool  `yaml:"bundled"`
		Empty   *bool  `yaml:"empty"`
	} `yaml:"sources"`

	Styles struct {
		Dir      string   `yaml:"dir"`
		Manifest string   `yaml:"manifest"`
		Static   []string `yaml:"static"`
		Dynamic  []string `yaml:"dynamic"`
	} `yaml:"styles"`

	// AutoReload watches the store file and sources.file and reloads on change.
	AutoReload struct {
		Enabled    bool `yaml:"enabled"`
		DebounceMs int  `yaml:"debounce_ms"`
	} `yaml:"auto_reload"`

	Cache struct {
		RulesSize int `yaml:"rules_size"`
	} `yaml:"cache"`

	Logging LoggingConfig `yaml:"logging"`
}

// H2CEnabled reports server.h2c with its default applied.
func (c *Config) H2CEnabled() bool {
	return c.Server.H2C == nil || *c.Server.H2C
}

func (c *Config) BundledEnabled() bool {
	return c.Sources.Bundled == nil || *c.Sources.Bundled
}

func (c *Config) EmptyEnabled() bool {
	return c.Sources.Empty == nil || *c.Sources.Empty
}

// Load reads the yaml file at path. A .env file next to it, or in the
// working directory, is loaded into the environment first without
// overriding variables that are already set.
func Load(path string) (*Config, error) {
	loadDotEnv(path)
	// #nosec G304 -- path is provided by trusted config/flag.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadIfExists is Load, except that a missing file yields the defaults
// with environment overrides applied.
func LoadIfExists(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil && errors.Is(err, fs.ErrNotExist) {
		loadDotEnv(path)
		var cfg Config
		applyDefaults(&cfg)
		applyEnvOverrides(&cfg)
		if err := validate(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return Load(path)
}

func loadDotEnv(cfgPath string) {
	candidates := []string{filepath.Join(filepath.Dir(cfgPath), ".env"), ".env"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = ":3400"
	}
	if cfg.Server.ReadTimeoutMs <= 0 {
		cfg.Server.ReadTimeoutMs = 60000
	}
	if cfg.Server.WriteTimeoutMs <= 0 {
		cfg.Server.WriteTimeoutMs = 60000
	}
	if strings.TrimSpace(cfg.Server.PidFile) == "" {
		cfg.Server.PidFile = "/var/run/dkn.pid"
	}
	if strings.TrimSpace(cfg.Store.Backend) == "" {
		cfg.Store.Backend = "file"
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if strings.TrimSpace(cfg.Store.Key) == "" {
		cfg.Store.Key = "config"
	}
	if strings.TrimSpace(cfg.Store.File.Path) == "" {
		cfg.Store.File.Path = "./data/storage.json"
	}
	if len(cfg.Styles.Dynamic) == 0 {
		cfg.Styles.Dynamic = []string{"blackBg", "brightText"}
	}
	if cfg.AutoReload.DebounceMs <= 0 {
		cfg.AutoReload.DebounceMs = 300
	}
	if cfg.Cache.RulesSize == 0 {
		cfg.Cache.RulesSize = 1024
	}
	// default true for local debugging
	if !cfg.Logging.AccessLog {
		cfg.Logging.AccessLog = true
	}
}

func applyEnvOverrides(cfg *Config) {
	applyEnvServerAuthOverrides(cfg)
	applyEnvStoreOverrides(cfg)
	applyEnvSourceOverrides(cfg)
	applyEnvLoggingOverrides(cfg)
}

func applyEnvServerAuthOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DKN_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_API_KEY")); v != "" {
		cfg.Auth.APIKey = v
	}
	if n, ok := envInt("DKN_READ_TIMEOUT_MS"); ok && n > 0 {
		cfg.Server.ReadTimeoutMs = n
	}
	if n, ok := envInt("DKN_WRITE_TIMEOUT_MS"); ok && n > 0 {
		cfg.Server.WriteTimeoutMs = n
	}
	if v := strings.TrimSpace(os.Getenv("DKN_PID_FILE")); v != "" {
		cfg.Server.PidFile = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_H2C")); v != "" {
		h2c := envBool("DKN_H2C", cfg.H2CEnabled())
		cfg.Server.H2C = &h2c
	}
}

func applyEnvStoreOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DKN_STORE_BACKEND")); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("DKN_STORE_KEY")); v != "" {
		cfg.Store.Key = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_STORE_FILE")); v != "" {
		cfg.Store.File.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_STORE_PG_DSN")); v != "" {
		cfg.Store.Postgres.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_S3_ENDPOINT")); v != "" {
		cfg.Store.S3.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_S3_REGION")); v != "" {
		cfg.Store.S3.Region = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_S3_ACCESS_KEY")); v != "" {
		cfg.Store.S3.AccessKey = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_S3_SECRET_KEY")); v != "" {
		cfg.Store.S3.SecretKey = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_S3_BUCKET")); v != "" {
		cfg.Store.S3.Bucket = v
	}
	cfg.Store.S3.UseSSL = envBool("DKN_S3_USE_SSL", cfg.Store.S3.UseSSL)
	if v := strings.TrimSpace(os.Getenv("DKN_S3_PREFIX")); v != "" {
		cfg.Store.S3.Prefix = v
	}
}

func applyEnvSourceOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DKN_RULES_FILE")); v != "" {
		cfg.Sources.File = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_STYLES_DIR")); v != "" {
		cfg.Styles.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_STYLES_MANIFEST")); v != "" {
		cfg.Styles.Manifest = v
	}
	cfg.AutoReload.Enabled = envBool("DKN_AUTO_RELOAD_ENABLED", cfg.AutoReload.Enabled)
	if n, ok := envInt("DKN_AUTO_RELOAD_DEBOUNCE_MS"); ok {
		cfg.AutoReload.DebounceMs = n
	}
	if n, ok := envInt("DKN_CACHE_RULES_SIZE"); ok {
		cfg.Cache.RulesSize = n
	}
}

func applyEnvLoggingOverrides(cfg *Config) {
	cfg.Logging.AccessLog = envBool("DKN_ACCESS_LOG", cfg.Logging.AccessLog)
	if v := strings.TrimSpace(os.Getenv("DKN_ACCESS_LOG_PATH")); v != "" {
		cfg.Logging.AccessLogPath = v
	}
	if v := os.Getenv("DKN_ACCESS_LOG_FORMAT"); strings.TrimSpace(v) != "" {
		cfg.Logging.AccessLogFormat = v
	}
	if v := strings.TrimSpace(os.Getenv("DKN_ACCESS_LOG_FORMAT_PRESET")); v != "" {
		cfg.Logging.AccessLogFormatPreset = v
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "file":
		if strings.TrimSpace(cfg.Store.File.Path) == "" {
			return errors.New("store.file.path is required when store.backend=file")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Store.Postgres.DSN) == "" {
			return errors.New("store.postgres.dsn is required when store.backend=postgres")
		}
	case "s3":
		s3 := cfg.Store.S3
		if strings.TrimSpace(s3.Endpoint) == "" || strings.TrimSpace(s3.Bucket) == "" {
			return errors.New("store.s3.endpoint and store.s3.bucket are required when store.backend=s3")
		}
		if strings.TrimSpace(s3.AccessKey) == "" || strings.TrimSpace(s3.SecretKey) == "" {
			return errors.New("store.s3.access_key and store.s3.secret_key are required when store.backend=s3")
		}
	case "memory", "none":
	default:
		return errors.New("store.backend must be one of file, postgres, s3, memory, none")
	}
	if cfg.Store.Backend == "none" && strings.TrimSpace(cfg.Sources.File) == "" && !cfg.BundledEnabled() && !cfg.EmptyEnabled() {
		return errors.New("at least one config source is required (store, sources.file, sources.bundled or sources.empty)")
	}
	if cfg.AutoReload.Enabled && cfg.AutoReload.DebounceMs <= 0 {
		return errors.New("auto_reload.debounce_ms must be > 0 when auto_reload.enabled=true")
	}
	if cfg.Cache.RulesSize < 0 {
		return errors.New("cache.rules_size must be >= 0")
	}
	switch strings.TrimSpace(cfg.Logging.AccessLogFormatPreset) {
	case "", "dkn_combined", "dkn_minimal":
	default:
		return errors.New("logging.access_log_format_preset must be one of dkn_combined, dkn_minimal")
	}
	return nil
}
