package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
)

// Config holds the trailsearch configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Dataset DatasetConfig `yaml:"dataset"`
	LLM     LLMConfig     `yaml:"llm"`
	Search  SearchConfig  `yaml:"search"`
	Geo     GeoConfig     `yaml:"geo"`
	Cache   CacheConfig   `yaml:"cache"`
	NATS    NATSConfig    `yaml:"nats"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"` // covers a whole SSE stream
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// DatasetConfig holds SQLite trail store settings.
type DatasetConfig struct {
	Path             string `yaml:"path"`
	PoolSize         int    `yaml:"pool_size"`
	AcquireTimeoutMs int    `yaml:"acquire_timeout_ms"`
	BusyTimeoutMs    int    `yaml:"busy_timeout_ms"`
	SeedOnStart      bool   `yaml:"seed_on_start"`
}

// LLMConfig holds chat provider and strategy settings.
type LLMConfig struct {
	APIKey         string      `yaml:"api_key"`
	BaseURL        string      `yaml:"base_url"`
	Model          string      `yaml:"model"`
	Provider       string      `yaml:"provider"`
	CallTimeoutSec int         `yaml:"call_timeout_sec"`
	MaxToolRounds  int         `yaml:"max_tool_rounds"`
	MaxTokens      int         `yaml:"max_tokens"`
	Temperature    float32     `yaml:"temperature"`
	Retry          RetryConfig `yaml:"retry"`
}

// RetryConfig holds the backoff for transient provider failures.
type RetryConfig struct {
	MaxTries          uint    `yaml:"max_tries"`
	InitialIntervalMs int     `yaml:"initial_interval_ms"`
	MaxIntervalMs     int     `yaml:"max_interval_ms"`
	Multiplier        float64 `yaml:"multiplier"`
}

// SearchConfig holds search engine settings.
type SearchConfig struct {
	DefaultStrategy   string  `yaml:"default_strategy"`
	ResultLimit       int     `yaml:"result_limit"`
	NearRadiusMiles   float64 `yaml:"near_radius_miles"`
	EasyElevationCapM float64 `yaml:"easy_elevation_cap_m"`
}

// GeoConfig holds locality reference points. Empty uses the built-in set.
type GeoConfig struct {
	ReferencePoints []ReferencePointConfig `yaml:"reference_points"`
}

// ReferencePointConfig is one named locality.
type ReferencePointConfig struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Lat         float64  `yaml:"lat"`
	Lng         float64  `yaml:"lng"`
	RadiusMiles float64  `yaml:"radius_miles"`
}

// CacheConfig holds the Redis/Valkey query cache settings.
type CacheConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`
	TTLSec    int      `yaml:"ttl_sec"`
}

// NATSConfig holds the NATS transport settings.
type NATSConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	Subject     string `yaml:"subject"`
	Queue       string `yaml:"queue"`
	Concurrency int    `yaml:"concurrency"`

	// RequestTimeoutSec bounds one search, including searches still in
	// flight at shutdown. Zero uses the transport default.
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expanding ${VAR} references, then applies defaults
// and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 180
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1024
	}

	// Unset ${VAR} references expand to empty keys.
	keys := c.Auth.APIKeys[:0]
	for _, k := range c.Auth.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	c.Auth.APIKeys = keys

	if c.Dataset.Path == "" {
		c.Dataset.Path = "data/trails.db"
	}
	if c.Dataset.PoolSize <= 0 {
		c.Dataset.PoolSize = 4
	}
	if c.Dataset.AcquireTimeoutMs <= 0 {
		c.Dataset.AcquireTimeoutMs = 2000
	}
	if c.Dataset.BusyTimeoutMs <= 0 {
		c.Dataset.BusyTimeoutMs = 5000
	}

	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.CallTimeoutSec <= 0 {
		c.LLM.CallTimeoutSec = 30
	}
	if c.LLM.Retry.MaxTries == 0 {
		c.LLM.Retry.MaxTries = 3
	}
	if c.LLM.Retry.InitialIntervalMs <= 0 {
		c.LLM.Retry.InitialIntervalMs = 500
	}
	if c.LLM.Retry.MaxIntervalMs <= 0 {
		c.LLM.Retry.MaxIntervalMs = 4000
	}
	if c.LLM.Retry.Multiplier <= 0 {
		c.LLM.Retry.Multiplier = 2
	}

	if c.Search.DefaultStrategy == "" {
		c.Search.DefaultStrategy = string(mode.Default)
	}
	if c.Search.ResultLimit <= 0 {
		c.Search.ResultLimit = 10
	}

	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "trailsearch:"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 600
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if _, ok := mode.Parse(c.Search.DefaultStrategy); !ok {
		errs = append(errs, fmt.Errorf("search.default_strategy %q is not a known strategy", c.Search.DefaultStrategy))
	}
	if c.Search.ResultLimit > 20 {
		errs = append(errs, fmt.Errorf("search.result_limit must be at most 20, got %d", c.Search.ResultLimit))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be between 0 and 2, got %g", c.LLM.Temperature))
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		errs = append(errs, errors.New("cache.addrs is required when cache is enabled"))
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, errors.New("nats.url is required when nats is enabled"))
	}
	for i, rp := range c.Geo.ReferencePoints {
		switch {
		case rp.Name == "":
			errs = append(errs, fmt.Errorf("geo.reference_points[%d].name is required", i))
		case len(rp.Keywords) == 0:
			errs = append(errs, fmt.Errorf("geo.reference_points[%d].keywords is required", i))
		case !geo.ValidateCoordinates(rp.Lat, rp.Lng):
			errs = append(errs, fmt.Errorf("geo.reference_points[%d] has invalid coordinates", i))
		case rp.RadiusMiles <= 0:
			errs = append(errs, fmt.Errorf("geo.reference_points[%d].radius_miles must be positive", i))
		}
	}
	return errors.Join(errs...)
}

// ReferencePoints returns the configured localities or the built-in set.
func (c *Config) ReferencePoints() []geo.ReferencePoint {
	if len(c.Geo.ReferencePoints) == 0 {
		return geo.DefaultReferencePoints()
	}
	out := make([]geo.ReferencePoint, 0, len(c.Geo.ReferencePoints))
	for _, rp := range c.Geo.ReferencePoints {
		kw := make([]string, len(rp.Keywords))
		for i, k := range rp.Keywords {
			kw[i] = strings.ToLower(k)
		}
		out = append(out, geo.ReferencePoint{
			Name:        rp.Name,
			Keywords:    kw,
			Center:      geo.Point{Lat: rp.Lat, Lng: rp.Lng},
			RadiusMiles: rp.RadiusMiles,
		})
	}
	return out
}

// CallTimeout returns the per-completion timeout.
func (c LLMConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSec) * time.Second
}

// InitialInterval returns the first retry delay.
func (c RetryConfig) InitialInterval() time.Duration {
	return time.Duration(c.InitialIntervalMs) * time.Millisecond
}

// MaxInterval returns the retry delay ceiling.
func (c RetryConfig) MaxInterval() time.Duration {
	return time.Duration(c.MaxIntervalMs) * time.Millisecond
}

// AcquireTimeout returns how long an operation waits for a connection.
func (c DatasetConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutMs) * time.Millisecond
}

// BusyTimeout returns the SQLite busy timeout.
func (c DatasetConfig) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMs) * time.Millisecond
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// RequestTimeout returns the per-request timeout.
func (c NATSConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
