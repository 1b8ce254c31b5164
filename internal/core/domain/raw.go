package domain

import (
	"mime"
	"strings"
)

// RawDocument represents an uploaded file before extraction.
// It is the inbound boundary of the analysis pipeline.
type RawDocument struct {
	// Filename is the original file name.
	Filename string

	// MIMEType is the declared content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-specific key-value pairs.
	Metadata map[string]any
}

// Size returns the byte size of the content.
func (r *RawDocument) Size() int64 {
	return int64(len(r.Content))
}

// BaseMIMEType returns the lowercased media type without parameters.
// "Text/Plain; charset=utf-8" becomes "text/plain".
func BaseMIMEType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
