package extractors

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects an extractor by MIME type. Exact matches are tried
// before family wildcards such as "image/*"; within each, the highest
// priority wins.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.TextExtractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	r := &Registry{}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor to the registry.
func (r *Registry) Register(extractor driven.TextExtractor) {
	if extractor == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, extractor)
}

// SupportedMIMETypes returns all MIME types that can be extracted, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, e := range r.extractors {
		for _, t := range e.SupportedMIMETypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

// Extract dispatches the document to the best extractor for its MIME type.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mimeType := domain.BaseMIMEType(raw.MIMEType)
	extractor := r.lookup(mimeType)
	if extractor == nil {
		return nil, domain.NewUnsupportedFormatError(raw.MIMEType)
	}
	return extractor.Extract(ctx, raw)
}

// lookup returns the highest-priority extractor for mimeType, or nil.
func (r *Registry) lookup(mimeType string) driven.TextExtractor {
	if mimeType == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var exact, wildcard driven.TextExtractor
	for _, e := range r.extractors {
		for _, t := range e.SupportedMIMETypes() {
			switch {
			case t == mimeType:
				if exact == nil || e.Priority() > exact.Priority() {
					exact = e
				}
			case matchesFamily(t, mimeType):
				if wildcard == nil || e.Priority() > wildcard.Priority() {
					wildcard = e
				}
			}
		}
	}
	if exact != nil {
		return exact
	}
	return wildcard
}

// matchesFamily reports whether pattern is "family/*" and mimeType belongs to it.
func matchesFamily(pattern, mimeType string) bool {
	family, ok := strings.CutSuffix(pattern, "/*")
	if !ok {
		return false
	}
	return strings.HasPrefix(mimeType, family+"/")
}
