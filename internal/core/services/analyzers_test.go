package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

const researchResponse = `Here is the analysis:
{
  "researchQuestions": ["Does doping raise mobility?"],
  "methodology": {"description": "Hall measurements", "strengths": ["large sample"]},
  "keyFindings": [{"finding": "Mobility doubles", "significance": "HIGH"}, {"finding": "Noise", "significance": "meh"}],
  "novelty": {"score": 14, "justification": "first of its kind"},
  "methodologyCritique": {"score": -2, "issues": ["no control"]}
}`

func TestResearchAnalyzer_Analyze(t *testing.T) {
	llm := newMockLLM()
	llm.responses[driven.PromptResearch] = researchResponse

	report, err := NewResearchAnalyzer(llm, testPipeline()).Analyze(context.Background(), "paper text")

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.False(t, report.IsFallback())
	assert.Equal(t, []string{"Does doping raise mobility?"}, report.ResearchQuestions)
	require.Len(t, report.KeyFindings, 2)
	assert.Equal(t, domain.SignificanceHigh, report.KeyFindings[0].Significance)
	assert.Equal(t, domain.SignificanceLow, report.KeyFindings[1].Significance)
	assert.InDelta(t, 10.0, report.Novelty.Score, 1e-9)
	assert.InDelta(t, 0.0, report.MethodologyCritique.Score, 1e-9)
	assert.NotNil(t, report.FutureWork)
	assert.NotNil(t, report.Methodology.Limitations)
	assert.Equal(t, driven.FormatJSON, llm.lastOpts.Format)
}

func TestResearchAnalyzer_Analyze_Fallback(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		delay    time.Duration
		wantErr  error
	}{
		{name: "service error", err: errServiceDown, wantErr: domain.ErrAnalysisService},
		{name: "timeout", delay: time.Second, wantErr: context.DeadlineExceeded},
		{name: "prose answer", response: "The paper is great.", wantErr: domain.ErrMalformedResponse},
		{name: "empty report", response: `{"futureWork": ["more"]}`, wantErr: domain.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := newMockLLM()
			llm.responses[driven.PromptResearch] = tt.response
			llm.errs[driven.PromptResearch] = tt.err
			llm.delay[driven.PromptResearch] = tt.delay

			report, err := NewResearchAnalyzer(llm, testPipeline()).Analyze(context.Background(), "paper")

			assert.ErrorIs(t, err, tt.wantErr)
			require.NotNil(t, report)
			assert.True(t, report.IsFallback())
			assert.Equal(t, domain.AnalysisUnavailable, report.Methodology.Description)
			assert.Empty(t, report.KeyFindings)
		})
	}

	t.Run("nil service", func(t *testing.T) {
		report, err := NewResearchAnalyzer(nil, testPipeline()).Analyze(context.Background(), "paper")
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
		assert.True(t, report.IsFallback())
	})
}

func TestExperimentalAnalyzer_Analyze(t *testing.T) {
	llm := newMockLLM()
	llm.responses[driven.PromptExperimental] = `{
		"dataQuality": {"score": 8},
		"statistics": {"tests": [{"name": "t-test", "pValue": 1.5, "significant": false}], "confidence": 2},
		"design": {"description": "randomised trial", "sampleSize": -4},
		"patterns": [{"pattern": "linear trend", "confidence": 0.6}],
		"hypotheses": [{"hypothesis": "dose matters", "testability": 11, "significance": 3}]
	}`

	report, err := NewExperimentalAnalyzer(llm, testPipeline()).Analyze(context.Background(), "data")

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.False(t, report.IsFallback())
	assert.Equal(t, "randomised trial", report.Design.Description)
	assert.Equal(t, 0, report.Design.SampleSize)
	assert.InDelta(t, 1.0, report.Statistics.Tests[0].PValue, 1e-9)
	assert.InDelta(t, 1.0, report.Statistics.Confidence, 1e-9)
	assert.InDelta(t, 10.0, report.Hypotheses[0].Testability, 1e-9)
	assert.NotNil(t, report.DataQuality.Issues)
}

func TestExperimentalAnalyzer_Analyze_Fallback(t *testing.T) {
	llm := newMockLLM()
	llm.responses[driven.PromptExperimental] = `{"dataQuality": {"score": 5}}`

	report, err := NewExperimentalAnalyzer(llm, testPipeline()).Analyze(context.Background(), "data")

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	require.NotNil(t, report)
	assert.True(t, report.IsFallback())
	assert.Equal(t, domain.AnalysisUnavailable, report.Statistics.OverallSignificance)
	assert.NotNil(t, report.Patterns)
}
