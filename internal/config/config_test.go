package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lllllllleong/docpipeline/internal/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"DOCPIPE_CONFIG", "TOKENIZER_MODEL_NAME", "TOKENIZER_SERVICE_URL", "TOKENIZER_API_KEY",
	"TOKENIZER_TIMEOUT", "TOKENIZE_ENABLED", "NORMALIZER_VARIANT", "NORMALIZER_FIELD_MARKERS",
	"NORMALIZER_HEADER_MARKERS", "NORMALIZER_WHITESPACE", "NORMALIZER_PRESERVE_STRUCTURE",
	"PORT", "MAX_BATCH_FILES", "MAX_FILE_BYTES", "STORAGE_ENDPOINT", "GCS_FETCH_CONCURRENCY",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every key Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "gpt2", cfg.Tokenizer.ModelName)
	assert.Empty(t, cfg.Tokenizer.ServiceURL)
	assert.Equal(t, 30*time.Second, cfg.Tokenizer.Timeout)
	assert.True(t, cfg.Tokenizer.Enabled)
	assert.Equal(t, normalizer.DefaultOptions(), cfg.Normalizer.Options)
	assert.Equal(t, 5, cfg.Server.MaxBatchFiles)
	assert.Equal(t, int64(50<<20), cfg.Server.MaxFileBytes)
	assert.False(t, cfg.Tokenizer.Client().Configured())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKENIZER_SERVICE_URL", " http://tok.test/tokenize ")
	t.Setenv("TOKENIZER_API_KEY", "k")
	t.Setenv("TOKENIZER_TIMEOUT", "5s")
	t.Setenv("TOKENIZE_ENABLED", "false")
	t.Setenv("NORMALIZER_VARIANT", "form")
	t.Setenv("NORMALIZER_HEADER_MARKERS", "0")
	t.Setenv("MAX_FILE_BYTES", "1024")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "http://tok.test/tokenize", cfg.Tokenizer.ServiceURL)
	assert.Equal(t, "k", cfg.Tokenizer.Client().APIKey)
	assert.Equal(t, 5*time.Second, cfg.Tokenizer.Timeout)
	assert.False(t, cfg.Tokenizer.Enabled)
	assert.Equal(t, normalizer.VariantForm, cfg.Normalizer.Variant)
	assert.False(t, cfg.Normalizer.Options.AddHeaderMarkers)
	assert.True(t, cfg.Normalizer.Options.AddFieldMarkers)
	assert.Equal(t, int64(1024), cfg.Server.MaxFileBytes)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "docpipe.yaml", `
tokenizer:
  serviceUrl: http://yaml.test
  timeout: 10s
normalizer:
  variant: document
  addFieldMarkers: false
  sectionKeywords: [scope, deliverables]
server:
  maxBatchFiles: 3
storage:
  endpoint: http://localhost:4443/storage/v1/
`)
	t.Setenv("DOCPIPE_CONFIG", path)
	t.Setenv("MAX_BATCH_FILES", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "http://yaml.test", cfg.Tokenizer.ServiceURL)
	assert.Equal(t, 10*time.Second, cfg.Tokenizer.Timeout)
	assert.Equal(t, "gpt2", cfg.Tokenizer.ModelName)
	assert.Equal(t, normalizer.VariantDocument, cfg.Normalizer.Variant)
	assert.False(t, cfg.Normalizer.Options.AddFieldMarkers)
	assert.True(t, cfg.Normalizer.Options.NormalizeWhitespace)
	assert.Equal(t, []string{"scope", "deliverables"}, cfg.Normalizer.SectionKeywords)
	assert.Equal(t, 7, cfg.Server.MaxBatchFiles)
	assert.Equal(t, "http://localhost:4443/storage/v1/", cfg.Storage.Endpoint)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "TOKENIZER_MODEL_NAME=bert-base\nPORT=9090\n")
	t.Setenv("PORT", "7070")

	cfg, err := Load(envFile)

	require.NoError(t, err)
	assert.Equal(t, "bert-base", cfg.Tokenizer.ModelName)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TOKENIZE_ENABLED", "maybe"},
		{"TOKENIZER_TIMEOUT", "soon"},
		{"TOKENIZER_TIMEOUT", "-1s"},
		{"NORMALIZER_VARIANT", "poem"},
		{"MAX_BATCH_FILES", "0"},
		{"MAX_FILE_BYTES", "lots"},
		{"GCS_FETCH_CONCURRENCY", "-2"},
		{"LOG_LEVEL", "loud"},
		{"LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCPIPE_CONFIG", writeFile(t, "bad.yaml", "tokenizer: [unclosed"))

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGetEnv(t *testing.T) {
	clearEnv(t)
	assert.Equal(t, "fallback", GetEnv("PORT", "fallback"))
	t.Setenv("PORT", "")
	assert.Equal(t, "", GetEnv("PORT", "fallback"))
}
