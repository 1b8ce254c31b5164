// Package mcp provides an MCP (Model Context Protocol) server adapter for docsight.
// It lets AI assistants submit documents for analysis and read stored reports.
package mcp

import "errors"

// ErrMissingAnalysisService is returned when the analysis service is not provided.
var ErrMissingAnalysisService = errors.New("mcp: analysis service is required")
