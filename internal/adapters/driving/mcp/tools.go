package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsight/internal/connectors/filesystem"
	"github.com/custodia-labs/docsight/internal/core/domain"
)

// AnalyzeInput is the input schema for the analyze_document tool.
type AnalyzeInput struct {
	Path     string `json:"path" jsonschema:"path of a local PDF, image or text file"`
	MIMEType string `json:"mime_type,omitempty" jsonschema:"content type; detected from the file when omitted"`
}

// GetAnalysisInput is the input schema for the get_analysis tool.
type GetAnalysisInput struct {
	ID string `json:"id" jsonschema:"the analysis ID"`
}

// ListAnalysesInput is the input schema for the list_analyses tool.
type ListAnalysesInput struct{}

// AnalysisOutput is a stored analysis without its embedding vectors.
type AnalysisOutput struct {
	ID             string                        `json:"id"`
	Filename       string                        `json:"filename"`
	FileType       string                        `json:"file_type"`
	Status         string                        `json:"status"`
	Stage          string                        `json:"stage"`
	Classification string                        `json:"classification,omitempty"`
	Title          string                        `json:"title,omitempty"`
	Abstract       string                        `json:"abstract,omitempty"`
	Language       string                        `json:"language,omitempty"`
	PageCount      int                           `json:"page_count"`
	WordCount      int                           `json:"word_count"`
	UploadedAt     string                        `json:"uploaded_at"`
	ProcessedAt    string                        `json:"processed_at,omitempty"`
	Research       *domain.ResearchAnalysis      `json:"research,omitempty"`
	Experimental   *domain.ExperimentalAnalysis  `json:"experimental,omitempty"`
	Relationships  []domain.DocumentRelationship `json:"relationships"`
	Degraded       []DegradationOutput           `json:"degraded,omitempty"`
	Error          string                        `json:"error,omitempty"`
}

// DegradationOutput names a stage that fell back.
type DegradationOutput struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// AnalysisSummary is one row of list_analyses.
type AnalysisSummary struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	Stage          string `json:"stage"`
	Classification string `json:"classification,omitempty"`
	Title          string `json:"title,omitempty"`
	UploadedAt     string `json:"uploaded_at"`
	Degraded       bool   `json:"degraded"`
}

// ListAnalysesOutput is the output schema for list_analyses.
type ListAnalysesOutput struct {
	Analyses []AnalysisSummary `json:"analyses"`
	Count    int               `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_document",
		Description: "Analyse a local document and return its report",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_analysis",
		Description: "Get a stored document analysis by ID",
	}, s.handleGetAnalysis)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_analyses",
		Description: "List stored document analyses, newest first",
	}, s.handleListAnalyses)
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalysisOutput, error) {
	if input.Path == "" {
		return nil, AnalysisOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	path, err := filepath.Abs(input.Path)
	if err != nil {
		return nil, AnalysisOutput{}, err
	}

	raw, err := filesystem.Load(path, input.MIMEType)
	if err != nil {
		return nil, AnalysisOutput{}, fmt.Errorf("loading %s: %w", path, err)
	}

	analysis, err := s.ports.Analysis.Analyze(ctx, raw)
	if err != nil {
		return nil, AnalysisOutput{}, err
	}
	return nil, toAnalysisOutput(analysis), nil
}

func (s *Server) handleGetAnalysis(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetAnalysisInput,
) (*mcp.CallToolResult, AnalysisOutput, error) {
	analysis, err := s.ports.Analysis.Get(ctx, input.ID)
	if err != nil {
		return nil, AnalysisOutput{}, err
	}
	return nil, toAnalysisOutput(analysis), nil
}

func (s *Server) handleListAnalyses(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListAnalysesInput,
) (*mcp.CallToolResult, ListAnalysesOutput, error) {
	summaries, err := s.summaries(ctx)
	if err != nil {
		return nil, ListAnalysesOutput{}, err
	}
	return nil, ListAnalysesOutput{Analyses: summaries, Count: len(summaries)}, nil
}

// summaries lists stored analyses, newest upload first.
func (s *Server) summaries(ctx context.Context) ([]AnalysisSummary, error) {
	analyses, err := s.ports.Analysis.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].UploadedAt.After(analyses[j].UploadedAt)
	})

	out := make([]AnalysisSummary, len(analyses))
	for i := range analyses {
		a := &analyses[i]
		out[i] = AnalysisSummary{
			ID:             a.ID,
			Filename:       a.Filename,
			Status:         a.Status.String(),
			Stage:          a.Stage.String(),
			Classification: a.Classification.String(),
			Title:          a.Content.Structure.Title,
			UploadedAt:     a.UploadedAt.Format(time.RFC3339),
			Degraded:       a.IsDegraded(),
		}
	}
	return out, nil
}

func toAnalysisOutput(a *domain.DocumentAnalysis) AnalysisOutput {
	out := AnalysisOutput{
		ID:             a.ID,
		Filename:       a.Filename,
		FileType:       a.FileType,
		Status:         a.Status.String(),
		Stage:          a.Stage.String(),
		Classification: a.Classification.String(),
		Title:          a.Content.Structure.Title,
		Abstract:       a.Content.Structure.Abstract,
		Language:       a.Content.Metadata.Language,
		PageCount:      a.Content.Metadata.PageCount,
		WordCount:      a.Content.Metadata.WordCount,
		UploadedAt:     a.UploadedAt.Format(time.RFC3339),
		Research:       a.Research,
		Experimental:   a.Experimental,
		Relationships:  a.Relationships,
		Error:          a.Error,
	}
	if a.ProcessedAt != nil {
		out.ProcessedAt = a.ProcessedAt.Format(time.RFC3339)
	}
	if out.Relationships == nil {
		out.Relationships = []domain.DocumentRelationship{}
	}
	for _, d := range a.Degraded {
		out.Degraded = append(out.Degraded, DegradationOutput{Stage: d.Stage.String(), Reason: d.Reason})
	}
	return out
}
