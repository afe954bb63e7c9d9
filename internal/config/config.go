package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the flare configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig holds search-orchestration settings.
type EngineConfig struct {
	DebounceMs    int `yaml:"debounce_ms"`     // Async search debounce window
	FastTimeoutMs int `yaml:"fast_timeout_ms"` // Per-provider budget on the fast path
	SlowTimeoutMs int `yaml:"slow_timeout_ms"` // Per-provider budget for slow providers
	MaxResults    int `yaml:"max_results"`     // Result list cap after merge
	PoolSize      int `yaml:"pool_size"`       // Worker pool size for provider fan-out
}

// CacheConfig holds result-cache settings.
type CacheConfig struct {
	Capacity int `yaml:"cache_capacity"` // Max cached query results
	TTLMs    int `yaml:"cache_ttl_ms"`   // Cache entry time-to-live
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // SQLite database path (empty = default)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"log_level"`  // debug, info, warn, error
	Format string `yaml:"log_format"` // json or text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DebounceMs:    50,
			FastTimeoutMs: 30,
			SlowTimeoutMs: 400,
			MaxResults:    10,
			PoolSize:      8,
		},
		Cache: CacheConfig{
			Capacity: 256,
			TTLMs:    2000,
		},
		Storage: StorageConfig{
			DBPath: "",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write config file")
	}

	return nil
}

// ApplyEnvOverrides applies FLARE_* environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FLARE_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("FLARE_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("FLARE_LOG_FORMAT"); v != "" {
		if isValidLogFormat(v) {
			c.Log.Format = v
		}
	}
	if v := os.Getenv("FLARE_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("FLARE_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.MaxResults = n
		}
	}
}

// Get retrieves a configuration value by dot-separated key, for example
// "engine.max_results" or "log.log_level".
func (c *Config) Get(key string) (string, error) {
	section, field, ok := strings.Cut(key, ".")
	if !ok {
		return "", errors.New("key must be in format 'section.key'")
	}

	switch section {
	case "engine":
		return c.getEngineField(field)
	case "cache":
		return c.getCacheField(field)
	case "storage":
		return c.getStorageField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", errors.Newf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, ok := strings.Cut(key, ".")
	if !ok {
		return errors.New("key must be in format 'section.key'")
	}

	switch section {
	case "engine":
		return c.setEngineField(field, value)
	case "cache":
		return c.setCacheField(field, value)
	case "storage":
		return c.setStorageField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return errors.Newf("unknown section: %s", section)
	}
}

func (c *Config) getEngineField(field string) (string, error) {
	switch field {
	case "debounce_ms":
		return strconv.Itoa(c.Engine.DebounceMs), nil
	case "fast_timeout_ms":
		return strconv.Itoa(c.Engine.FastTimeoutMs), nil
	case "slow_timeout_ms":
		return strconv.Itoa(c.Engine.SlowTimeoutMs), nil
	case "max_results":
		return strconv.Itoa(c.Engine.MaxResults), nil
	case "pool_size":
		return strconv.Itoa(c.Engine.PoolSize), nil
	default:
		return "", errors.Newf("unknown engine field: %s", field)
	}
}

func (c *Config) setEngineField(field, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return errors.Newf("engine.%s must be an integer (got: %s)", field, value)
	}
	switch field {
	case "debounce_ms":
		c.Engine.DebounceMs = n
	case "fast_timeout_ms":
		c.Engine.FastTimeoutMs = n
	case "slow_timeout_ms":
		c.Engine.SlowTimeoutMs = n
	case "max_results":
		c.Engine.MaxResults = n
	case "pool_size":
		c.Engine.PoolSize = n
	default:
		return errors.Newf("unknown engine field: %s", field)
	}
	return nil
}

func (c *Config) getCacheField(field string) (string, error) {
	switch field {
	case "cache_capacity":
		return strconv.Itoa(c.Cache.Capacity), nil
	case "cache_ttl_ms":
		return strconv.Itoa(c.Cache.TTLMs), nil
	default:
		return "", errors.Newf("unknown cache field: %s", field)
	}
}

func (c *Config) setCacheField(field, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return errors.Newf("cache.%s must be an integer (got: %s)", field, value)
	}
	switch field {
	case "cache_capacity":
		c.Cache.Capacity = n
	case "cache_ttl_ms":
		c.Cache.TTLMs = n
	default:
		return errors.Newf("unknown cache field: %s", field)
	}
	return nil
}

func (c *Config) getStorageField(field string) (string, error) {
	switch field {
	case "db_path":
		return c.Storage.DBPath, nil
	default:
		return "", errors.Newf("unknown storage field: %s", field)
	}
}

func (c *Config) setStorageField(field, value string) error {
	switch field {
	case "db_path":
		c.Storage.DBPath = value
	default:
		return errors.Newf("unknown storage field: %s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "log_level":
		return c.Log.Level, nil
	case "log_format":
		return c.Log.Format, nil
	default:
		return "", errors.Newf("unknown log field: %s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "log_level":
		if !isValidLogLevel(value) {
			return errors.Newf("log.log_level must be debug, info, warn, or error (got: %s)", value)
		}
		c.Log.Level = value
	case "log_format":
		if !isValidLogFormat(value) {
			return errors.Newf("log.log_format must be json or text (got: %s)", value)
		}
		c.Log.Format = value
	default:
		return errors.Newf("unknown log field: %s", field)
	}
	return nil
}

// ListKeys returns the user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"engine.debounce_ms",
		"engine.fast_timeout_ms",
		"engine.slow_timeout_ms",
		"engine.max_results",
		"engine.pool_size",
		"cache.cache_capacity",
		"cache.cache_ttl_ms",
		"storage.db_path",
		"log.log_level",
		"log.log_format",
	}
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidLogFormat(format string) bool {
	switch format {
	case "json", "text":
		return true
	default:
		return false
	}
}

// ValidationWarning represents a config validation warning.
type ValidationWarning struct {
	Field   string
	Message string
}

// ValidateAndFix checks config values and repairs invalid ones in place,
// falling back to defaults or clamping. Returns warnings for diagnostics.
// Validation never prevents startup.
func (c *Config) ValidateAndFix() []ValidationWarning {
	defaults := DefaultConfig()
	var warnings []ValidationWarning

	warn := func(field, msg string) {
		warnings = append(warnings, ValidationWarning{Field: field, Message: msg})
	}

	positives := []struct {
		name string
		val  *int
		def  int
	}{
		{"engine.debounce_ms", &c.Engine.DebounceMs, defaults.Engine.DebounceMs},
		{"engine.fast_timeout_ms", &c.Engine.FastTimeoutMs, defaults.Engine.FastTimeoutMs},
		{"engine.slow_timeout_ms", &c.Engine.SlowTimeoutMs, defaults.Engine.SlowTimeoutMs},
		{"engine.max_results", &c.Engine.MaxResults, defaults.Engine.MaxResults},
		{"engine.pool_size", &c.Engine.PoolSize, defaults.Engine.PoolSize},
		{"cache.cache_capacity", &c.Cache.Capacity, defaults.Cache.Capacity},
		{"cache.cache_ttl_ms", &c.Cache.TTLMs, defaults.Cache.TTLMs},
	}
	for _, p := range positives {
		if *p.val < 1 {
			warn(p.name, fmt.Sprintf("must be >= 1, got %d; falling back to default %d", *p.val, p.def))
			*p.val = p.def
		}
	}

	// The slow budget must cover at least the fast one.
	if c.Engine.SlowTimeoutMs < c.Engine.FastTimeoutMs {
		warn("engine.slow_timeout_ms", fmt.Sprintf(
			"must be >= fast_timeout_ms (%d), got %d; clamping",
			c.Engine.FastTimeoutMs, c.Engine.SlowTimeoutMs))
		c.Engine.SlowTimeoutMs = c.Engine.FastTimeoutMs
	}

	if !isValidLogLevel(c.Log.Level) {
		warn("log.log_level", fmt.Sprintf("must be debug, info, warn, or error, got %q; falling back to %q",
			c.Log.Level, defaults.Log.Level))
		c.Log.Level = defaults.Log.Level
	}

	if !isValidLogFormat(c.Log.Format) {
		warn("log.log_format", fmt.Sprintf("must be json or text, got %q; falling back to %q",
			c.Log.Format, defaults.Log.Format))
		c.Log.Format = defaults.Log.Format
	}

	return warnings
}

// DatabasePath resolves the SQLite path, falling back to the default
// data-dir location when unset.
func (c *Config) DatabasePath() string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return DefaultPaths().DatabaseFile()
}
