package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"plain object",
			`{"entities": []}`,
			`{"entities": []}`,
		},
		{
			"fenced with language tag",
			"```json\n{\"entities\": []}\n```",
			`{"entities": []}`,
		},
		{
			"fenced without language tag",
			"```\n[1, 2]\n```",
			`[1, 2]`,
		},
		{
			"prose around object",
			"Here is the JSON you asked for:\n{\"ok\": true}\nLet me know!",
			`{"ok": true}`,
		},
		{
			"no json at all",
			"I cannot comply.",
			"",
		},
		{
			"empty",
			"",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.input))
		})
	}
}

func TestResultDecodeText(t *testing.T) {
	result := TextResult("```json\n{\"id\": \"rytir_jan\"}\n```", Usage{})

	var decoded struct {
		ID string `json:"id"`
	}
	require.NoError(t, result.Decode(&decoded))
	assert.Equal(t, "rytir_jan", decoded.ID)
}

func TestResultDecodeTextInvalid(t *testing.T) {
	var decoded map[string]any
	assert.Error(t, TextResult("not json", Usage{}).Decode(&decoded))
	assert.Error(t, TextResult("", Usage{}).Decode(&decoded))
}

func TestResultDecodeParsed(t *testing.T) {
	value := map[string]any{"id": "rytir_jan", "labels": []string{"Jan"}}
	result := ParsedResult(value, Usage{TotalTokens: 7})

	var decoded struct {
		ID     string   `json:"id"`
		Labels []string `json:"labels"`
	}
	require.NoError(t, result.Decode(&decoded))
	assert.Equal(t, "rytir_jan", decoded.ID)
	assert.Equal(t, []string{"Jan"}, decoded.Labels)
	assert.Equal(t, 7, result.Usage.TotalTokens)
}

func TestUsageAdd(t *testing.T) {
	var total Usage
	assert.True(t, total.IsZero())

	total.Add(Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	total.Add(Usage{PromptTokens: 2, CompletionTokens: 1, TotalTokens: 3})

	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 6, TotalTokens: 18}, total)
	assert.False(t, total.IsZero())
}
