package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

func TestExtractAnalysisID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid analysis URI", uri: "docsight://analyses/abc-123", expected: "abc-123"},
		{name: "invalid prefix", uri: "file://analyses/abc-123", expected: ""},
		{name: "nested path", uri: "docsight://analyses/abc/extra", expected: ""},
		{name: "list URI", uri: "docsight://analyses", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractAnalysisID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleAnalysesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns summaries", func(t *testing.T) {
		a := completedAnalysis("doc-1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		server := newTestServer(t, &mockAnalysisService{analyses: []domain.DocumentAnalysis{a}})

		result, err := server.handleAnalysesResource(ctx, makeReadResourceRequest("docsight://analyses"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var summaries []AnalysisSummary
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, "doc-1", summaries[0].ID)
		assert.Equal(t, "Attention Is All You Need", summaries[0].Title)
	})

	t.Run("empty list", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{})
		result, err := server.handleAnalysesResource(ctx, makeReadResourceRequest("docsight://analyses"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{err: errors.New("database error")})
		_, err := server.handleAnalysesResource(ctx, makeReadResourceRequest("docsight://analyses"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing analyses")
	})
}

func TestServer_handleAnalysisResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns report", func(t *testing.T) {
		a := completedAnalysis("doc-1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		server := newTestServer(t, &mockAnalysisService{analysis: &a})

		result, err := server.handleAnalysisResource(ctx, makeReadResourceRequest("docsight://analyses/doc-1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"classification": "research_paper"`)
		assert.Contains(t, result.Contents[0].Text, `"builds_upon"`)
		assert.NotContains(t, result.Contents[0].Text, "embeddings")
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{})
		_, err := server.handleAnalysisResource(ctx, makeReadResourceRequest("docsight://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("unknown ID returns not found", func(t *testing.T) {
		svc := &mockAnalysisService{}
		server := newTestServer(t, svc)
		_, err := server.handleAnalysisResource(ctx, makeReadResourceRequest("docsight://analyses/missing"))
		require.Error(t, err)
		assert.Equal(t, "missing", svc.lastID)
	})

	t.Run("store error", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{err: errors.New("database error")})
		_, err := server.handleAnalysisResource(ctx, makeReadResourceRequest("docsight://analyses/doc-1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting analysis")
	})
}
