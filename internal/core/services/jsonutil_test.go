package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bare object", input: `{"a": 1}`, expected: `{"a": 1}`},
		{name: "code fence", input: "Here you go:\n```json\n{\"a\": 1}\n```\nThanks", expected: `{"a": 1}`},
		{name: "unlabelled fence", input: "```\n{\"a\": 2}\n```", expected: `{"a": 2}`},
		{name: "prose around object", input: `Sure! {"a": 3} Hope this helps.`, expected: `{"a": 3}`},
		{name: "trailing comma", input: `{"a": [1, 2,], "b": 1,}`, expected: `{"a": [1, 2], "b": 1}`},
		{
			name:     "line comment stripped",
			input:    "{\n  \"a\": 1, // the answer\n  \"url\": \"http://x\"\n}",
			expected: "{\n  \"a\": 1,\n  \"url\": \"http://x\"\n}",
		},
		{name: "no object", input: "research_paper", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSON(tt.input))
		})
	}
}

func TestStripLineComment(t *testing.T) {
	assert.Equal(t, `"a": "http://example.com"`, stripLineComment(`"a": "http://example.com"`))
	assert.Equal(t, `"a": 1,`, stripLineComment(`"a": 1,   // note`))
	assert.Equal(t, `"a": "say \"//\""`, stripLineComment(`"a": "say \"//\""`))
}

func TestDecodeResponse(t *testing.T) {
	type payload struct {
		Type string `json:"type"`
	}

	got, err := decodeResponse[payload](domain.StageRelated, "```json\n{\"type\": \"support\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "support", got.Type)
}

func TestDecodeResponse_Errors(t *testing.T) {
	type payload struct {
		Score float64 `json:"score"`
	}

	for _, response := range []string{"no json here", `{"score": "high"}`, `{"score": }`} {
		_, err := decodeResponse[payload](domain.StageAnalyzed, response)
		require.Error(t, err, response)

		var parseErr *domain.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, domain.StageAnalyzed, parseErr.Stage)
		assert.Equal(t, response, parseErr.Raw)
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	}
}
