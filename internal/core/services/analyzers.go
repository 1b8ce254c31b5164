package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// errEmptyReport is the validation failure for reports with no content.
var errEmptyReport = errors.New("report has no content")

// ResearchAnalyzer produces the research paper report.
type ResearchAnalyzer struct {
	llmStage
	prefix int
}

// NewResearchAnalyzer creates a research analyzer.
func NewResearchAnalyzer(llm driven.LLMService, pipeline domain.PipelineSettings) *ResearchAnalyzer {
	return &ResearchAnalyzer{
		llmStage: llmStage{llm: llm, timeout: pipeline.ServiceTimeout},
		prefix:   pipeline.AnalysisPrefix,
	}
}

// Analyze returns the report. It never fails: on any service or parse
// error the fallback report is returned together with the cause.
func (a *ResearchAnalyzer) Analyze(ctx context.Context, text string) (*domain.ResearchAnalysis, error) {
	prompt := fmt.Sprintf(a.loadPrompt(driven.PromptResearch), truncateRunes(text, a.prefix))

	response, err := a.generate(ctx, prompt, driven.GenerateOptions{Format: driven.FormatJSON})
	if err != nil {
		return domain.FallbackResearchAnalysis(), err
	}

	report, err := decodeResponse[domain.ResearchAnalysis](domain.StageAnalyzed, response)
	if err != nil {
		return domain.FallbackResearchAnalysis(), err
	}
	if len(report.ResearchQuestions) == 0 && len(report.KeyFindings) == 0 && report.Methodology.Description == "" {
		return domain.FallbackResearchAnalysis(), &domain.ParseError{
			Stage: domain.StageAnalyzed, Raw: response, Err: errEmptyReport,
		}
	}

	report.Normalise()
	return &report, nil
}

// ExperimentalAnalyzer produces the experimental data report.
type ExperimentalAnalyzer struct {
	llmStage
	prefix int
}

// NewExperimentalAnalyzer creates an experimental data analyzer.
func NewExperimentalAnalyzer(llm driven.LLMService, pipeline domain.PipelineSettings) *ExperimentalAnalyzer {
	return &ExperimentalAnalyzer{
		llmStage: llmStage{llm: llm, timeout: pipeline.ServiceTimeout},
		prefix:   pipeline.AnalysisPrefix,
	}
}

// Analyze returns the report, or the fallback report and the cause.
func (a *ExperimentalAnalyzer) Analyze(ctx context.Context, text string) (*domain.ExperimentalAnalysis, error) {
	prompt := fmt.Sprintf(a.loadPrompt(driven.PromptExperimental), truncateRunes(text, a.prefix))

	response, err := a.generate(ctx, prompt, driven.GenerateOptions{Format: driven.FormatJSON})
	if err != nil {
		return domain.FallbackExperimentalAnalysis(), err
	}

	report, err := decodeResponse[domain.ExperimentalAnalysis](domain.StageAnalyzed, response)
	if err != nil {
		return domain.FallbackExperimentalAnalysis(), err
	}
	if report.Design.Description == "" && len(report.Statistics.Tests) == 0 && len(report.Patterns) == 0 {
		return domain.FallbackExperimentalAnalysis(), &domain.ParseError{
			Stage: domain.StageAnalyzed, Raw: response, Err: errEmptyReport,
		}
	}

	report.Normalise()
	return &report, nil
}
