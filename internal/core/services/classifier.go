package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// classifyMaxTokens is enough for any label plus some chatter.
const classifyMaxTokens = 16

// Classifier assigns one DocumentType to a document.
type Classifier struct {
	llmStage
	prefix int
}

// NewClassifier creates a classifier. A nil llm classifies everything as other.
func NewClassifier(llm driven.LLMService, pipeline domain.PipelineSettings) *Classifier {
	return &Classifier{
		llmStage: llmStage{llm: llm, timeout: pipeline.ServiceTimeout},
		prefix:   pipeline.ClassifyPrefix,
	}
}

// Classify returns a label from the closed set. On service failure it
// returns other together with the cause. The same answer always maps to
// the same label.
func (c *Classifier) Classify(ctx context.Context, text string) (domain.DocumentType, error) {
	prompt := fmt.Sprintf(c.loadPrompt(driven.PromptClassify), truncateRunes(text, c.prefix))

	answer, err := c.generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   classifyMaxTokens,
		Temperature: 0,
		StopWords:   []string{"\n"},
	})
	if err != nil {
		return domain.DocumentTypeOther, err
	}

	return domain.ParseDocumentType(answer), nil
}
