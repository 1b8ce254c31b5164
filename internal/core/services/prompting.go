package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/prompts"
)

// llmStage holds what every LLM-backed stage needs: the service, the
// prompt store and the per-call timeout.
type llmStage struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	timeout     time.Duration
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the built-in templates are used.
func (s *llmStage) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// loadPrompt loads a prompt from the store, falling back to the built-in default.
func (s *llmStage) loadPrompt(name string) string {
	if s.promptStore == nil {
		return prompts.Default(name)
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil || prompt == "" {
		return prompts.Default(name)
	}
	return prompt
}

// generate runs one bounded LLM call. Errors wrap domain.ErrAnalysisService
// so callers can treat timeouts and transport failures alike.
func (s *llmStage) generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.llm.Generate(ctx, prompt, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAnalysisService, err)
	}
	return response, nil
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
