// Package config loads the pipeline settings from defaults, an optional
// YAML file, a .env file and the process environment, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/docpipeline/internal/logging"
	"github.com/Lllllllleong/docpipeline/internal/normalizer"
	"github.com/Lllllllleong/docpipeline/internal/tokenizer"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure of Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete runtime configuration.
type Config struct {
	Tokenizer  TokenizerConfig  `yaml:"tokenizer"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

type TokenizerConfig struct {
	ModelName  string        `yaml:"modelName"`
	ServiceURL string        `yaml:"serviceUrl"`
	APIKey     string        `yaml:"apiKey"`
	Timeout    time.Duration `yaml:"timeout"`
	Enabled    bool          `yaml:"enabled"`
}

// Client returns the settings the tokenizer client is created with.
func (c TokenizerConfig) Client() tokenizer.Config {
	return tokenizer.Config{ModelName: c.ModelName, ServiceURL: c.ServiceURL, APIKey: c.APIKey}
}

type NormalizerConfig struct {
	Variant         normalizer.Variant `yaml:"variant"`
	Options         normalizer.Options `yaml:",inline"`
	SectionKeywords []string           `yaml:"sectionKeywords"`
}

type ServerConfig struct {
	Port          string `yaml:"port"`
	MaxBatchFiles int    `yaml:"maxBatchFiles"`
	MaxFileBytes  int64  `yaml:"maxFileBytes"`
}

// StorageConfig addresses Cloud Storage. An empty Endpoint means the
// production API.
type StorageConfig struct {
	Endpoint         string `yaml:"endpoint"`
	FetchConcurrency int    `yaml:"fetchConcurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tokenizer: TokenizerConfig{
			ModelName: tokenizer.DefaultModelName,
			Timeout:   tokenizer.DefaultTimeout,
			Enabled:   true,
		},
		Normalizer: NormalizerConfig{
			Variant: normalizer.VariantGeneric,
			Options: normalizer.DefaultOptions(),
		},
		Server: ServerConfig{
			Port:          "8080",
			MaxBatchFiles: 5,
			MaxFileBytes:  50 << 20,
		},
		Storage: StorageConfig{FetchConcurrency: 4},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Load builds the configuration. envFiles are passed to godotenv; with none
// given, ./.env is read if present. Variables already set in the process
// environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := Default()
	if path := GetEnv("DOCPIPE_CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: config file %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	envString("TOKENIZER_MODEL_NAME", &c.Tokenizer.ModelName)
	envString("TOKENIZER_SERVICE_URL", &c.Tokenizer.ServiceURL)
	envString("TOKENIZER_API_KEY", &c.Tokenizer.APIKey)
	envString("PORT", &c.Server.Port)
	envString("STORAGE_ENDPOINT", &c.Storage.Endpoint)
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)
	if v, ok := os.LookupEnv("NORMALIZER_VARIANT"); ok {
		c.Normalizer.Variant = normalizer.Variant(strings.TrimSpace(v))
	}

	return errors.Join(
		envDuration("TOKENIZER_TIMEOUT", &c.Tokenizer.Timeout),
		envBool("TOKENIZE_ENABLED", &c.Tokenizer.Enabled),
		envBool("NORMALIZER_FIELD_MARKERS", &c.Normalizer.Options.AddFieldMarkers),
		envBool("NORMALIZER_HEADER_MARKERS", &c.Normalizer.Options.AddHeaderMarkers),
		envBool("NORMALIZER_WHITESPACE", &c.Normalizer.Options.NormalizeWhitespace),
		envBool("NORMALIZER_PRESERVE_STRUCTURE", &c.Normalizer.Options.PreserveOriginalStructure),
		envInt("MAX_BATCH_FILES", &c.Server.MaxBatchFiles),
		envInt64("MAX_FILE_BYTES", &c.Server.MaxFileBytes),
		envInt("GCS_FETCH_CONCURRENCY", &c.Storage.FetchConcurrency),
	)
}

// Validate checks values that cannot be used as is. An empty tokenizer
// service URL is valid.
func (c *Config) Validate() error {
	var errs []error
	variant, err := normalizer.ParseVariant(string(c.Normalizer.Variant))
	if err != nil {
		errs = append(errs, err)
	}
	c.Normalizer.Variant = variant
	if c.Tokenizer.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("tokenizer timeout must be positive, got %s", c.Tokenizer.Timeout))
	}
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("port must be set"))
	}
	if c.Server.MaxBatchFiles <= 0 {
		errs = append(errs, fmt.Errorf("max batch files must be positive, got %d", c.Server.MaxBatchFiles))
	}
	if c.Server.MaxFileBytes <= 0 {
		errs = append(errs, fmt.Errorf("max file bytes must be positive, got %d", c.Server.MaxFileBytes))
	}
	if c.Storage.FetchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("fetch concurrency must be positive, got %d", c.Storage.FetchConcurrency))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "" && f != "json" && f != "text" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func envBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s must be a boolean, got %q", ErrInvalidConfig, key, v)
	}
	*dst = b
	return nil
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfig, key, v)
	}
	*dst = n
	return nil
}

func envInt64(key string, dst *int64) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfig, key, v)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s must be a duration, got %q", ErrInvalidConfig, key, v)
	}
	*dst = d
	return nil
}
