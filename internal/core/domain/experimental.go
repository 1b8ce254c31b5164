package domain

// DataQuality scores a dataset on a 0-10 scale.
type DataQuality struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

// StatisticalTest is one test reported or inferred from the data.
type StatisticalTest struct {
	Name           string  `json:"name"`
	PValue         float64 `json:"pValue"`
	Significant    bool    `json:"significant"`
	Interpretation string  `json:"interpretation"`
}

// StatisticalSummary groups the tests with an overall verdict.
type StatisticalSummary struct {
	Tests               []StatisticalTest `json:"tests"`
	OverallSignificance string            `json:"overallSignificance"`
	Confidence          float64           `json:"confidence"`
}

// ExperimentalDesign describes the set-up of an experiment.
type ExperimentalDesign struct {
	Description string   `json:"description"`
	Controls    []string `json:"controls"`
	Variables   []string `json:"variables"`
	SampleSize  int      `json:"sampleSize"`
	Critique    string   `json:"critique"`
}

// DataPattern is a detected trend or anomaly.
type DataPattern struct {
	Pattern      string  `json:"pattern"`
	Confidence   float64 `json:"confidence"`
	Implications string  `json:"implications"`
}

// Hypothesis is a generated follow-up hypothesis with 0-10 scores.
type Hypothesis struct {
	Hypothesis   string  `json:"hypothesis"`
	Testability  float64 `json:"testability"`
	Significance float64 `json:"significance"`
}

// ExperimentalAnalysis is the Experimental-Data Analyzer report.
type ExperimentalAnalysis struct {
	DataQuality DataQuality        `json:"dataQuality"`
	Statistics  StatisticalSummary `json:"statistics"`
	Design      ExperimentalDesign `json:"design"`
	Patterns    []DataPattern      `json:"patterns"`
	Hypotheses  []Hypothesis       `json:"hypotheses"`
}

// FallbackExperimentalAnalysis returns the report used when analysis could not run.
func FallbackExperimentalAnalysis() *ExperimentalAnalysis {
	e := &ExperimentalAnalysis{
		Statistics: StatisticalSummary{OverallSignificance: AnalysisUnavailable},
		Design: ExperimentalDesign{
			Description: AnalysisUnavailable,
			Critique:    AnalysisUnavailable,
		},
	}
	e.Normalise()
	return e
}

// IsFallback reports whether e is the placeholder report.
func (e *ExperimentalAnalysis) IsFallback() bool {
	return e != nil && e.Design.Description == AnalysisUnavailable &&
		e.Statistics.OverallSignificance == AnalysisUnavailable && e.DataQuality.Score == 0
}

// Normalise clamps scores into range and replaces nil lists with empty ones.
func (e *ExperimentalAnalysis) Normalise() {
	e.DataQuality.Score = clamp(e.DataQuality.Score, 0, 10)
	e.DataQuality.Issues = nonNil(e.DataQuality.Issues)
	e.Statistics.Confidence = clamp(e.Statistics.Confidence, 0, 1)
	if e.Statistics.Tests == nil {
		e.Statistics.Tests = []StatisticalTest{}
	}
	for i := range e.Statistics.Tests {
		e.Statistics.Tests[i].PValue = clamp(e.Statistics.Tests[i].PValue, 0, 1)
	}
	e.Design.Controls = nonNil(e.Design.Controls)
	e.Design.Variables = nonNil(e.Design.Variables)
	if e.Design.SampleSize < 0 {
		e.Design.SampleSize = 0
	}
	if e.Patterns == nil {
		e.Patterns = []DataPattern{}
	}
	for i := range e.Patterns {
		e.Patterns[i].Confidence = clamp(e.Patterns[i].Confidence, 0, 1)
	}
	if e.Hypotheses == nil {
		e.Hypotheses = []Hypothesis{}
	}
	for i := range e.Hypotheses {
		e.Hypotheses[i].Testability = clamp(e.Hypotheses[i].Testability, 0, 10)
		e.Hypotheses[i].Significance = clamp(e.Hypotheses[i].Significance, 0, 10)
	}
}
