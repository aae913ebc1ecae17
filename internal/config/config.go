package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Embedding provider variants.
const (
	VariantHighAccuracy = "high_accuracy"
	VariantFast         = "fast"
	VariantDisabled     = "disabled"
)

// Canonical models per variant. Overridable per deployment.
const (
	DefaultHighAccuracyModel = "BAAI/bge-large-en-v1.5"
	DefaultHighAccuracyDim   = 1024
	DefaultFastModel         = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultFastDim           = 384
)

// Config holds the segmatch API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Logging     LoggingConfig     `yaml:"logging"`
	Auth        AuthConfig        `yaml:"auth"`
	Cache       CacheConfig       `yaml:"cache"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Index       IndexConfig       `yaml:"index"`
	Heuristics  HeuristicsConfig  `yaml:"heuristics"`
	ResultCache ResultCacheConfig `yaml:"result_cache"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: env-determined)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CacheConfig holds the redis embedding-cache connection settings. Empty
// addrs disable the persistent embedding cache.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLHours         int      `yaml:"ttl_hours"` // 0 = no expiry
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Variant    string `yaml:"variant"` // high_accuracy, fast, disabled
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`      // default: canonical model for the variant
	Dimensions int    `yaml:"dimensions"` // default: canonical dimension for the variant
	TimeoutSec int    `yaml:"timeout_sec"`
}

// IndexConfig holds vector index (Pinecone) settings.
type IndexConfig struct {
	Host       string `yaml:"host"`
	APIKey     string `yaml:"api_key"`
	Name       string `yaml:"name"`
	Dimensions int    `yaml:"dimensions"`
	MaxTopK    int    `yaml:"max_top_k"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// HeuristicsConfig holds the instant-match pattern table. An empty Patterns
// list falls back to the built-in table.
type HeuristicsConfig struct {
	Enabled  *bool            `yaml:"enabled"` // default true
	Patterns []HeuristicEntry `yaml:"patterns"`
}

// HeuristicEntry is one ordered pattern -> topics mapping.
type HeuristicEntry struct {
	Pattern string   `yaml:"pattern"`
	Topics  []string `yaml:"topics"`
}

// ResultCacheConfig holds the in-process resolved-result cache settings.
type ResultCacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev,
// prod), expanding ${VAR} references from the process environment.
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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

// GetEnv returns the current environment from the ENV variable, defaulting
// to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// HeuristicsEnabled reports whether the instant-match path is on.
func (c *Config) HeuristicsEnabled() bool {
	return c.Heuristics.Enabled == nil || *c.Heuristics.Enabled
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "segmatch:"
	}
	if c.Embedding.Variant == "" {
		c.Embedding.Variant = VariantHighAccuracy
	}
	switch c.Embedding.Variant {
	case VariantHighAccuracy:
		if c.Embedding.Model == "" {
			c.Embedding.Model = DefaultHighAccuracyModel
		}
		if c.Embedding.Dimensions <= 0 {
			c.Embedding.Dimensions = DefaultHighAccuracyDim
		}
	case VariantFast:
		if c.Embedding.Model == "" {
			c.Embedding.Model = DefaultFastModel
		}
		if c.Embedding.Dimensions <= 0 {
			c.Embedding.Dimensions = DefaultFastDim
		}
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Index.Name == "" {
		c.Index.Name = "audiencelab-embeddings-1024"
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = 1024
	}
	if c.Index.MaxTopK <= 0 {
		c.Index.MaxTopK = 100
	}
	if c.Index.TimeoutSec <= 0 {
		c.Index.TimeoutSec = 10
	}
	if c.ResultCache.Size <= 0 {
		c.ResultCache.Size = 1024
	}
	if c.ResultCache.TTLSec <= 0 {
		c.ResultCache.TTLSec = 300
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Embedding.Variant {
	case VariantHighAccuracy, VariantFast:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for variant %q", c.Embedding.Variant)
		}
		if c.Embedding.Dimensions != c.Index.Dimensions {
			return fmt.Errorf(
				"embedding.dimensions (%d) must match index.dimensions (%d)",
				c.Embedding.Dimensions, c.Index.Dimensions,
			)
		}
	case VariantDisabled:
		// keyword-only deployment, index may still serve stats
	default:
		return fmt.Errorf("embedding.variant must be one of %s, %s, %s; got %q",
			VariantHighAccuracy, VariantFast, VariantDisabled, c.Embedding.Variant)
	}
	if c.Index.Host == "" {
		return fmt.Errorf("index.host is required")
	}
	for i, e := range c.Heuristics.Patterns {
		if strings.TrimSpace(e.Pattern) == "" {
			return fmt.Errorf("heuristics.patterns[%d].pattern is empty", i)
		}
		if len(e.Topics) == 0 {
			return fmt.Errorf("heuristics.patterns[%d] (%q) has no topics", i, e.Pattern)
		}
	}
	return nil
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

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment
// variable values.
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
