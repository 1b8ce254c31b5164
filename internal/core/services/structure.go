package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// maxHeadingLength is the longest line the heuristic treats as a heading.
const maxHeadingLength = 100

// maxTitleLength bounds the heuristic title.
const maxTitleLength = 200

var (
	// numericHeadingPattern matches "1. Intro", "2.3 Results", "4) Setup".
	numericHeadingPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)[.)]?\s+\p{Lu}`)
	// romanHeadingPattern matches "IV. Discussion".
	romanHeadingPattern = regexp.MustCompile(`^[IVXLC]+\.\s+\p{Lu}`)
)

// canonicalHeadings are section names recognised without numbering.
var canonicalHeadings = map[string]bool{
	"abstract":              true,
	"introduction":          true,
	"background":            true,
	"related work":          true,
	"methods":               true,
	"methodology":           true,
	"materials and methods": true,
	"results":               true,
	"discussion":            true,
	"conclusion":            true,
	"conclusions":           true,
	"references":            true,
	"acknowledgements":      true,
	"acknowledgments":       true,
}

// errNoStructure is the validation failure for empty structure responses.
var errNoStructure = errors.New("response has no title, abstract or sections")

// StructureAnalyzer extracts the logical structure of a document.
type StructureAnalyzer struct {
	llmStage
	prefix int
}

// NewStructureAnalyzer creates a structure analyzer. A nil llm makes
// every call use the heuristic.
func NewStructureAnalyzer(llm driven.LLMService, pipeline domain.PipelineSettings) *StructureAnalyzer {
	return &StructureAnalyzer{
		llmStage: llmStage{llm: llm, timeout: pipeline.ServiceTimeout},
		prefix:   pipeline.StructurePrefix,
	}
}

// Analyze returns the document structure. It never fails: when the
// service is unavailable or answers badly the heuristic structure is
// returned together with the cause.
func (a *StructureAnalyzer) Analyze(ctx context.Context, text string) (domain.DocumentStructure, error) {
	structure, err := a.analyze(ctx, text)
	if err != nil {
		return HeuristicStructure(text), err
	}
	return structure, nil
}

func (a *StructureAnalyzer) analyze(ctx context.Context, text string) (domain.DocumentStructure, error) {
	prompt := fmt.Sprintf(a.loadPrompt(driven.PromptStructure), truncateRunes(text, a.prefix))

	response, err := a.generate(ctx, prompt, driven.GenerateOptions{
		Format:      driven.FormatJSON,
		Temperature: 0,
	})
	if err != nil {
		return domain.DocumentStructure{}, err
	}

	structure, err := decodeResponse[domain.DocumentStructure](domain.StageStructured, response)
	if err != nil {
		return domain.DocumentStructure{}, err
	}

	structure.Title = strings.TrimSpace(structure.Title)
	structure.Abstract = strings.TrimSpace(structure.Abstract)
	if structure.Title == "" && structure.Abstract == "" && len(structure.Sections) == 0 {
		return domain.DocumentStructure{}, &domain.ParseError{
			Stage: domain.StageStructured,
			Raw:   response,
			Err:   errNoStructure,
		}
	}

	for i := range structure.Sections {
		if structure.Sections[i].Level < 1 {
			structure.Sections[i].Level = 1
		}
	}
	structure.Normalise()
	return structure, nil
}

// HeuristicStructure derives a structure from the text alone. The first
// non-empty line is the title; later short lines that look like headings
// become sections with empty content.
func HeuristicStructure(text string) domain.DocumentStructure {
	structure := domain.DocumentStructure{}

	titleFound := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !titleFound {
			structure.Title = truncateRunes(line, maxTitleLength)
			titleFound = true
			continue
		}
		if level, ok := headingLevel(line); ok {
			structure.Sections = append(structure.Sections, domain.Section{
				Title: line,
				Level: level,
			})
		}
	}

	structure.Normalise()
	return structure
}

// headingLevel reports whether line looks like a heading and its depth.
func headingLevel(line string) (int, bool) {
	if len([]rune(line)) > maxHeadingLength {
		return 0, false
	}

	if m := numericHeadingPattern.FindStringSubmatch(line); m != nil {
		return strings.Count(m[1], ".") + 1, true
	}
	if romanHeadingPattern.MatchString(line) {
		return 1, true
	}
	if canonicalHeadings[strings.ToLower(strings.TrimRight(line, ":. "))] {
		return 1, true
	}
	if isAllCaps(line) {
		return 1, true
	}
	return 0, false
}

// isAllCaps reports whether line has at least three letters and no lowercase ones.
func isAllCaps(line string) bool {
	letters := 0
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 3
}
