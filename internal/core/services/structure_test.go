package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

func TestStructureAnalyzer_Analyze_ParsesResponse(t *testing.T) {
	llm := newMockLLM()
	llm.responses[driven.PromptStructure] = "```json\n" + `{
		"title": "  Graphene Transport  ",
		"abstract": "We measure conductivity.",
		"methodology": "Four-probe measurements.",
		"sections": [{"title": "1. Introduction", "content": "Graphene is...", "level": 0}],
	}` + "\n```"

	analyzer := NewStructureAnalyzer(llm, testPipeline())
	structure, err := analyzer.Analyze(context.Background(), "Graphene Transport\n\nbody")

	require.NoError(t, err)
	assert.Equal(t, "Graphene Transport", structure.Title)
	assert.Equal(t, "We measure conductivity.", structure.Abstract)
	require.Len(t, structure.Sections, 1)
	assert.Equal(t, 1, structure.Sections[0].Level)
	assert.NotNil(t, structure.References)
	assert.NotNil(t, structure.Figures)
	assert.NotNil(t, structure.Tables)
	assert.Equal(t, driven.FormatJSON, llm.lastOpts.Format)
}

func TestStructureAnalyzer_Analyze_FallsBackToHeuristic(t *testing.T) {
	text := "Quarterly Notes\n\n1. Introduction\nSome text.\n\nRESULTS\nMore text."

	tests := []struct {
		name     string
		llm      driven.LLMService
		response string
		err      error
	}{
		{name: "nil service", llm: nil},
		{name: "service error", llm: newMockLLM(), err: errServiceDown},
		{name: "not json", llm: newMockLLM(), response: "I cannot help with that"},
		{name: "empty object", llm: newMockLLM(), response: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m, ok := tt.llm.(*mockLLM); ok {
				m.responses[driven.PromptStructure] = tt.response
				m.errs[driven.PromptStructure] = tt.err
			}

			analyzer := NewStructureAnalyzer(tt.llm, testPipeline())
			structure, err := analyzer.Analyze(context.Background(), text)

			require.Error(t, err)
			assert.Equal(t, HeuristicStructure(text), structure)
		})
	}
}

func TestStructureAnalyzer_Analyze_ParseErrorIsMalformed(t *testing.T) {
	llm := newMockLLM()
	llm.responses[driven.PromptStructure] = "{}"

	_, err := NewStructureAnalyzer(llm, testPipeline()).Analyze(context.Background(), "text")

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, domain.StageStructured, parseErr.Stage)
}

func TestStructureAnalyzer_UsesPromptStore(t *testing.T) {
	llm := newMockLLM()
	llm.responses["custom"] = `{"title": "From custom prompt"}`

	analyzer := NewStructureAnalyzer(llm, testPipeline())
	analyzer.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptStructure: "Give me JSON for: %s",
	}})

	structure, err := analyzer.Analyze(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, "From custom prompt", structure.Title)
}

func TestHeuristicStructure(t *testing.T) {
	t.Run("plain notes have a title and no sections", func(t *testing.T) {
		structure := HeuristicStructure("My Notes\nsome text here\nmore text.")

		assert.Equal(t, "My Notes", structure.Title)
		assert.Empty(t, structure.Sections)
		assert.NotNil(t, structure.Sections)
		assert.Empty(t, structure.Abstract)
	})

	t.Run("headings become sections", func(t *testing.T) {
		text := "\n\n  A Study of Things  \n" +
			"1. Introduction\n" +
			"text\n" +
			"2.1 Sample Preparation\n" +
			"12 samples were taken\n" +
			"IV. Discussion\n" +
			"Conclusions:\n" +
			"ACKNOWLEDGEMENTS\n" +
			"A B\n"

		structure := HeuristicStructure(text)

		assert.Equal(t, "A Study of Things", structure.Title)
		require.Len(t, structure.Sections, 5)
		assert.Equal(t, domain.Section{Title: "1. Introduction", Level: 1}, structure.Sections[0])
		assert.Equal(t, domain.Section{Title: "2.1 Sample Preparation", Level: 2}, structure.Sections[1])
		assert.Equal(t, "IV. Discussion", structure.Sections[2].Title)
		assert.Equal(t, "Conclusions:", structure.Sections[3].Title)
		assert.Equal(t, "ACKNOWLEDGEMENTS", structure.Sections[4].Title)
	})

	t.Run("empty text", func(t *testing.T) {
		structure := HeuristicStructure("   \n\n")
		assert.Empty(t, structure.Title)
		assert.Empty(t, structure.Sections)
	})
}
