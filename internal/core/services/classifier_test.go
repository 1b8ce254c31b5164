package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		answer   string
		expected domain.DocumentType
	}{
		{answer: "research_paper", expected: domain.DocumentTypeResearchPaper},
		{answer: "  Research Paper.\n", expected: domain.DocumentTypeResearchPaper},
		{answer: "\"experimental-data\"", expected: domain.DocumentTypeExperimentalData},
		{answer: "REVIEW", expected: domain.DocumentTypeReview},
		{answer: "protocol", expected: domain.DocumentTypeProtocol},
		{answer: "report", expected: domain.DocumentTypeReport},
		{answer: "This is a research paper", expected: domain.DocumentTypeOther},
		{answer: "", expected: domain.DocumentTypeOther},
		{answer: "invoice", expected: domain.DocumentTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			llm := newMockLLM()
			llm.responses[driven.PromptClassify] = tt.answer

			classifier := NewClassifier(llm, testPipeline())
			got, err := classifier.Classify(context.Background(), "some document")

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestClassifier_Classify_IsIdempotent(t *testing.T) {
	llm := newMockLLM()
	llm.responses[driven.PromptClassify] = "Experimental Data"
	classifier := NewClassifier(llm, testPipeline())

	first, err := classifier.Classify(context.Background(), "measurements")
	require.NoError(t, err)
	second, err := classifier.Classify(context.Background(), "measurements")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, llm.callCount(driven.PromptClassify))
}

func TestClassifier_Classify_ServiceFailure(t *testing.T) {
	t.Run("nil service", func(t *testing.T) {
		got, err := NewClassifier(nil, testPipeline()).Classify(context.Background(), "text")
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
		assert.Equal(t, domain.DocumentTypeOther, got)
	})

	t.Run("service error", func(t *testing.T) {
		llm := newMockLLM()
		llm.errs[driven.PromptClassify] = errServiceDown

		got, err := NewClassifier(llm, testPipeline()).Classify(context.Background(), "text")
		assert.ErrorIs(t, err, domain.ErrAnalysisService)
		assert.ErrorIs(t, err, errServiceDown)
		assert.Equal(t, domain.DocumentTypeOther, got)
	})
}

func TestClassifier_Classify_Options(t *testing.T) {
	llm := newMockLLM()
	llm.responses[driven.PromptClassify] = "report"

	_, err := NewClassifier(llm, testPipeline()).Classify(context.Background(), "text")
	require.NoError(t, err)

	assert.Equal(t, driven.FormatText, llm.lastOpts.Format)
	assert.Equal(t, classifyMaxTokens, llm.lastOpts.MaxTokens)
	assert.Equal(t, []string{"\n"}, llm.lastOpts.StopWords)
}
