package generator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_RecoversSameRecordFromEveryWrapping(t *testing.T) {
	payload, err := json.Marshal(map[string]any{
		"tags":    []string{"mlops", "model monitoring", "data drift"},
		"summary": "Continuous monitoring keeps production models accurate.",
	})
	require.NoError(t, err)
	want := Record{
		Tags:    []any{"mlops", "model monitoring", "data drift"},
		Summary: "Continuous monitoring keeps production models accurate.",
	}

	inputs := map[string]string{
		"strict":        string(payload),
		"fenced":        "```json\n" + string(payload) + "\n```",
		"fenced no tag": "```\n" + string(payload) + "\n```",
		"prose":         "Sure! Here is the JSON you asked for: " + string(payload) + " Let me know if you need more.",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := Extract(in)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_StrategyOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		strategy string
		tags     []any
		summary  string
	}{
		{
			name:     "fenced with language tag on its own line",
			input:    "Result:\n```\njson\n{\"tags\": [\"a\", \"b\", \"c\"], \"summary\": \"Fine.\"}\n```",
			strategy: "fenced",
			tags:     []any{"a", "b", "c"},
			summary:  "Fine.",
		},
		{
			name:     "single line fence",
			input:    "```json {\"tags\": [\"a\"], \"summary\": \"Inline.\"}```",
			strategy: "fenced",
			tags:     []any{"a"},
			summary:  "Inline.",
		},
		{
			name:     "object without tags or summary",
			input:    "```json\n{\"note\": 1}\n```",
			strategy: "",
		},
		{
			name:     "brace span with surrounding text",
			input:    "Prefix {\"tags\": [\"x\", 2, \"y\"], \"summary\": \"Value {1}\"} suffix",
			strategy: "brace",
			tags:     []any{"x", float64(2), "y"},
			summary:  "Value {1}",
		},
		{
			name:     "trailing commas and comments",
			input:    "{\n  // tags first\n  \"tags\": [\"go\", \"llm\", \"agents\",],\n  \"summary\": \"Agents loop.\",\n}",
			strategy: "relaxed",
			tags:     []any{"go", "llm", "agents"},
			summary:  "Agents loop.",
		},
		{
			name:     "loose fields",
			input:    "Tags: [alpha, \"beta\", 'gamma', delta]\nSummary: \"A short sentence, with a comma.\"",
			strategy: "regex",
			tags:     []any{"alpha", "beta", "gamma"},
			summary:  "A short sentence, with a comma.",
		},
		{
			name:     "loose unquoted summary",
			input:    "tags = [one, two]\nsummary: plain words here",
			strategy: "regex",
			tags:     []any{"one", "two"},
			summary:  "plain words here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, via, err := extractWith(tt.input)
			if tt.strategy == "" {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.strategy, via)
			assert.Equal(t, tt.tags, rec.Tags)
			assert.Equal(t, tt.summary, rec.Summary)
		})
	}
}

func TestExtract_FailureCarriesText(t *testing.T) {
	garbage := "I'm sorry, I cannot produce tags for this post."
	_, err := Extract(garbage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))

	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, garbage, ee.Text)
}

func TestExtract_RegexNeedsBothFields(t *testing.T) {
	_, err := Extract("tags: [a, b, c] and nothing else")
	assert.ErrorIs(t, err, ErrExtraction)

	_, err = Extract(`summary: "only a summary"`)
	assert.ErrorIs(t, err, ErrExtraction)
}
