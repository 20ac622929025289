package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/propmatch/internal/domain"
)

// Config holds the propmatch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty list disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatasetConfig describes the listings CSV source.
type DatasetConfig struct {
	Path      string `yaml:"path"`
	Separator string `yaml:"separator"` // default ";"
	Encoding  string `yaml:"encoding"`  // "latin-1" (default) or "utf-8"
	MaxRows   int    `yaml:"max_rows"`  // 0 = unlimited
}

// EmbeddingConfig holds embedding provider and model settings.
type EmbeddingConfig struct {
	Provider            ProviderConfig `yaml:"provider"`
	Model               string         `yaml:"model"`
	Dimensions          int            `yaml:"dimensions"`
	DocumentInstruction string         `yaml:"document_instruction"`
	QueryInstruction    string         `yaml:"query_instruction"`
}

// ProviderConfig holds OpenAI-compatible provider connection settings.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// CacheConfig holds the optional Redis embedding cache settings.
// Empty addrs disable the cache.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RankingConfig holds score fusion weights and boundary defaults.
// Threshold and limit are applied at the HTTP/CLI boundary, never inside
// the ranking engine.
type RankingConfig struct {
	Weights          domain.Weights `yaml:"weights"`
	DefaultThreshold float64        `yaml:"default_threshold"`
	DefaultLimit     int            `yaml:"default_limit"`
}

// IngestConfig holds corpus build settings.
type IngestConfig struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Dataset.Separator == "" {
		c.Dataset.Separator = ";"
	}
	if c.Dataset.Encoding == "" {
		c.Dataset.Encoding = "latin-1"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Ranking.Weights.Hard == 0 && c.Ranking.Weights.Semantic == 0 {
		c.Ranking.Weights = domain.Weights{Hard: 0.5, Semantic: 0.5}
	}
	if c.Ranking.DefaultThreshold == 0 {
		c.Ranking.DefaultThreshold = 0.7
	}
	if c.Ranking.DefaultLimit <= 0 {
		c.Ranking.DefaultLimit = 10
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 4
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if len([]rune(c.Dataset.Separator)) != 1 {
		return fmt.Errorf("dataset.separator must be a single character, got %q", c.Dataset.Separator)
	}
	switch c.Dataset.Encoding {
	case "latin-1", "utf-8":
		// ok
	default:
		return fmt.Errorf("dataset.encoding must be \"latin-1\" or \"utf-8\", got %q", c.Dataset.Encoding)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Ranking.Weights.Hard < 0 || c.Ranking.Weights.Semantic < 0 {
		return fmt.Errorf("ranking.weights must be non-negative, got hard=%v semantic=%v",
			c.Ranking.Weights.Hard, c.Ranking.Weights.Semantic)
	}
	if c.Ranking.DefaultThreshold < 0 || c.Ranking.DefaultThreshold > 1 {
		return fmt.Errorf("ranking.default_threshold must be in [0,1], got %v", c.Ranking.DefaultThreshold)
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
