package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"auto_blog_tagger/config"
	"auto_blog_tagger/generator"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildLLM(t *testing.T) {
	tests := []struct {
		name    string
		llm     config.LLMConfig
		wantErr bool
	}{
		{name: "mock", llm: config.LLMConfig{Provider: "mock"}},
		{name: "openai", llm: config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk"}},
		{name: "openai without key", llm: config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"}, wantErr: true},
		{name: "ollama defaults", llm: config.LLMConfig{Provider: "ollama", Model: "llama3"}},
		{name: "deepseek without base url", llm: config.LLMConfig{Provider: "deepseek", Model: "deepseek-chat", APIKey: "sk"}, wantErr: true},
		{name: "deepseek", llm: config.LLMConfig{Provider: "deepseek", Model: "deepseek-chat", APIKey: "sk", BaseURL: "https://api.deepseek.com/v1"}},
		{name: "gemini without key", llm: config.LLMConfig{Provider: "gemini"}, wantErr: true},
		{name: "unknown", llm: config.LLMConfig{Provider: "carrier-pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, err := buildLLM(context.Background(), config.Config{LLM: tt.llm})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, llm)
		})
	}
}

func TestLoadBatch(t *testing.T) {
	path := writeTemp(t, "items.yaml", `
- title: Understanding Distributed Systems
  content: Raft and Paxos reach consensus.
- title: Practical Go Concurrency
  content: Channels and goroutines.
`)
	items, err := loadBatch(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, generator.WorkItem{Title: "Practical Go Concurrency", Content: "Channels and goroutines."}, items[1])
}

func TestLoadBatch_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":         "[]\n",
		"missing title": "- content: body\n",
		"not a list":    "title: x\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadBatch(writeTemp(t, "items.yaml", body))
			assert.Error(t, err)
		})
	}

	_, err := loadBatch(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestRunCommand_Mock(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "absent.yaml")
	out, err := execute(t, "--config", cfg, "run",
		"--title", "Understanding Distributed Systems",
		"--content", "Raft and Paxos reach consensus.",
		"--transcript")
	require.NoError(t, err, out)

	var rec generator.FinalRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "Understanding Distributed Systems", rec.Title)
	assert.Len(t, rec.Tags, generator.TagCount)
	assert.Equal(t, generator.StatusApproved, rec.ReviewStatus)
	assert.Equal(t, generator.OutcomeApproved, rec.Outcome)
	assert.Len(t, rec.Transcript, 2)
}

func TestRunCommand_ContentFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "absent.yaml")
	body := writeTemp(t, "post.md", "# Raft\n\nLeader election and log replication.")
	out, err := execute(t, "--config", cfg, "run",
		"--title", "Raft Consensus Explained", "--content-file", body, "--finalize")
	require.NoError(t, err, out)

	var rec generator.FinalRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, 4, rec.TotalTurns)
	assert.Empty(t, rec.Transcript)
}

func TestRunCommand_RequiresInput(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := execute(t, "--config", cfg, "run", "--title", "only a title")
	assert.ErrorContains(t, err, "--title")
}

func TestBatchCommand(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "absent.yaml")
	input := writeTemp(t, "items.yaml", `
- title: Understanding Distributed Systems
  content: Raft and Paxos reach consensus.
- title: Practical Go Concurrency
  content: Channels and goroutines.
`)
	out, err := execute(t, "--config", cfg, "batch", "--input", input)
	require.NoError(t, err, out)

	var recs []generator.FinalRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "Practical Go Concurrency", recs[1].Title)
	for _, r := range recs {
		assert.Equal(t, generator.StatusApproved, r.ReviewStatus)
	}
}

func TestCommands_LogUnderCLIName(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var out bytes.Buffer
	root := newRootCmdFor(&app{logger: zap.New(core)})
	root.SetOut(&out)
	input := writeTemp(t, "items.yaml", "- title: Practical Go Concurrency\n  content: Channels and goroutines.\n")
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "batch", "--input", input})
	require.NoError(t, root.ExecuteContext(context.Background()), out.String())

	entries := logs.FilterLoggerName("cli").FilterMessage("batch item").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Practical Go Concurrency", entries[0].ContextMap()["title"])
	for _, e := range logs.All() {
		assert.NotContains(t, e.Message, "[cli]")
	}
}
