package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cortex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
storage:
  root_dir: /tmp/cortex-test
llm:
  provider: mock
  model: mock-model
embedder:
  provider: hash
  model: hash
  dims: 64
coordinator:
  max_turns: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cortex-test", cfg.Storage.RootDir)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 64, cfg.Embedder.Dims)
	assert.Equal(t, 4, cfg.Coordinator.MaxTurns)

	// Omitted sections keep defaults.
	assert.Equal(t, "knowledge.db", cfg.Storage.KnowledgeDB)
	assert.Equal(t, 3, cfg.Specialist.MaxRetries)
	assert.Equal(t, 5, cfg.Coordinator.RetrievalLimit)
}

func TestLoad_EnvInterpolation(t *testing.T) {
	t.Setenv("CORTEX_TEST_KEY", "sk-test-value")

	path := writeConfig(t, `
llm:
  provider: openai
  model: gpt-4o
  api_key: ${CORTEX_TEST_KEY}
embedder:
  provider: hash
  dims: 32
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-value", cfg.LLM.APIKey)
}

func TestLoad_InvalidProvider(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: carrier-pigeon
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadWithDefaults_MissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty root dir", func(c *Config) { c.Storage.RootDir = "" }, true},
		{"zero dims", func(c *Config) { c.Embedder.Dims = 0 }, true},
		{"negative retries", func(c *Config) { c.Specialist.MaxRetries = -1 }, true},
		{"zero max turns", func(c *Config) { c.Coordinator.MaxTurns = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
