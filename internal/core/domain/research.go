package domain

// AnalysisUnavailable is the placeholder text used by fallback reports.
const AnalysisUnavailable = "Analysis unavailable"

// Significance grades a finding.
type Significance string

// Finding significance levels.
const (
	SignificanceHigh   Significance = "high"
	SignificanceMedium Significance = "medium"
	SignificanceLow    Significance = "low"
)

// ParseSignificance maps an answer onto high/medium/low, defaulting to low.
func ParseSignificance(s string) Significance {
	switch Significance(normaliseLabel(s)) {
	case SignificanceHigh:
		return SignificanceHigh
	case SignificanceMedium:
		return SignificanceMedium
	default:
		return SignificanceLow
	}
}

// MethodologyAssessment describes how a study was conducted.
type MethodologyAssessment struct {
	Description string   `json:"description"`
	Strengths   []string `json:"strengths"`
	Limitations []string `json:"limitations"`
}

// KeyFinding is one result of a paper with its significance.
type KeyFinding struct {
	Finding      string       `json:"finding"`
	Significance Significance `json:"significance"`
}

// NoveltyAssessment scores the originality of a paper on a 0-10 scale.
type NoveltyAssessment struct {
	Score         float64  `json:"score"`
	Justification string   `json:"justification"`
	Gaps          []string `json:"gaps"`
}

// MethodologyCritique scores methodological rigour on a 0-10 scale.
type MethodologyCritique struct {
	Score       float64  `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// ResearchAnalysis is the Research-Paper Analyzer report.
type ResearchAnalysis struct {
	ResearchQuestions   []string              `json:"researchQuestions"`
	Methodology         MethodologyAssessment `json:"methodology"`
	KeyFindings         []KeyFinding          `json:"keyFindings"`
	Novelty             NoveltyAssessment     `json:"novelty"`
	MethodologyCritique MethodologyCritique   `json:"methodologyCritique"`
	LiteratureGaps      []string              `json:"literatureGaps"`
	FutureWork          []string              `json:"futureWork"`
}

// FallbackResearchAnalysis returns the report used when analysis could not run:
// placeholder strings, zero scores and empty lists.
func FallbackResearchAnalysis() *ResearchAnalysis {
	r := &ResearchAnalysis{
		Methodology: MethodologyAssessment{Description: AnalysisUnavailable},
		Novelty:     NoveltyAssessment{Justification: AnalysisUnavailable},
	}
	r.Normalise()
	return r
}

// IsFallback reports whether r is the placeholder report.
func (r *ResearchAnalysis) IsFallback() bool {
	return r != nil && r.Methodology.Description == AnalysisUnavailable &&
		r.Novelty.Justification == AnalysisUnavailable && r.Novelty.Score == 0
}

// Normalise clamps scores into range and replaces nil lists with empty ones.
func (r *ResearchAnalysis) Normalise() {
	r.Novelty.Score = clamp(r.Novelty.Score, 0, 10)
	r.MethodologyCritique.Score = clamp(r.MethodologyCritique.Score, 0, 10)
	r.ResearchQuestions = nonNil(r.ResearchQuestions)
	r.Methodology.Strengths = nonNil(r.Methodology.Strengths)
	r.Methodology.Limitations = nonNil(r.Methodology.Limitations)
	r.Novelty.Gaps = nonNil(r.Novelty.Gaps)
	r.MethodologyCritique.Issues = nonNil(r.MethodologyCritique.Issues)
	r.MethodologyCritique.Suggestions = nonNil(r.MethodologyCritique.Suggestions)
	r.LiteratureGaps = nonNil(r.LiteratureGaps)
	r.FutureWork = nonNil(r.FutureWork)
	if r.KeyFindings == nil {
		r.KeyFindings = []KeyFinding{}
	}
	for i := range r.KeyFindings {
		r.KeyFindings[i].Significance = ParseSignificance(string(r.KeyFindings[i].Significance))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
