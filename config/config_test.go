package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_blog_tagger/generator"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, generator.DefaultCallTimeout, cfg.LLM.Timeout)
	assert.Equal(t, 5, cfg.Workflow.MaxTurns)
	assert.Equal(t, 25, cfg.Workflow.MaxSummaryWords)
	assert.Equal(t, "advisory", cfg.Workflow.SemanticCheck)
	assert.Equal(t, ":8080", cfg.ServerAddr)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
llm:
  provider: ollama
  model: llama3
  timeout: 90s
workflow:
  max_turns: 7
  finalize: true
  semantic_check: authoritative
server_addr: ":9090"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 7, cfg.Workflow.MaxTurns)
	assert.True(t, cfg.Workflow.Finalize)
	assert.Equal(t, ":9090", cfg.ServerAddr)

	o := cfg.Options(nil)
	assert.Equal(t, generator.SemanticAuthoritative, o.SemanticCheck)
	assert.Equal(t, 90*time.Second, o.CallTimeout)
	assert.True(t, o.Finalize)
	assert.Equal(t, "llama3", cfg.Settings().Model)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"llm": {"provider": "openai", "model": "gpt-4o-mini", "api_key": "sk-file"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-file", cfg.LLM.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TAGGER_LLM_API_KEY", "sk-env")
	t.Setenv("TAGGER_WORKFLOW_MAX_TURNS", "9")
	path := writeFile(t, "config.yaml", "llm:\n  provider: openai\n  model: m\n  api_key: sk-file\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, 9, cfg.Workflow.MaxTurns)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"provider":  "llm:\n  provider: carrier-pigeon\n",
		"max turns": "workflow:\n  max_turns: 0\n",
		"words":     "workflow:\n  max_summary_words: -1\n",
		"semantic":  "workflow:\n  semantic_check: sometimes\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "llm: [unclosed\n"))
	assert.ErrorContains(t, err, "read config")
}
