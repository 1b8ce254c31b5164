package domain

import "time"

// AnalysisStatus is the lifecycle state of a DocumentAnalysis.
type AnalysisStatus string

// Analysis lifecycle states. Completed and Failed are terminal.
const (
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// IsTerminal returns true for completed and failed.
func (s AnalysisStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid returns true if the status is recognised.
func (s AnalysisStatus) IsValid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s AnalysisStatus) String() string {
	return string(s)
}

// Stage identifies a pipeline step. A record's Stage is the last step
// whose output has been checkpointed.
type Stage string

// Pipeline stages in execution order.
const (
	StageUploaded   Stage = "uploaded"
	StageExtracted  Stage = "extracted"
	StageStructured Stage = "structured"
	StageClassified Stage = "classified"
	StageAnalyzed   Stage = "analyzed"
	StageEmbedded   Stage = "embedded"
	StageIndexed    Stage = "indexed"
	StageRelated    Stage = "related"
)

// stageOrder maps each stage to its position in the pipeline.
var stageOrder = map[Stage]int{
	StageUploaded:   0,
	StageExtracted:  1,
	StageStructured: 2,
	StageClassified: 3,
	StageAnalyzed:   4,
	StageEmbedded:   5,
	StageIndexed:    6,
	StageRelated:    7,
}

// AllStages returns the pipeline stages in execution order.
func AllStages() []Stage {
	return []Stage{
		StageUploaded,
		StageExtracted,
		StageStructured,
		StageClassified,
		StageAnalyzed,
		StageEmbedded,
		StageIndexed,
		StageRelated,
	}
}

// Reached reports whether s is at or beyond other in the pipeline.
func (s Stage) Reached(other Stage) bool {
	return stageOrder[s] >= stageOrder[other]
}

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// ContentMetadata describes the extracted text.
type ContentMetadata struct {
	// Language is the ISO 639-1 code of the detected language, empty if unknown.
	Language string `json:"language,omitempty"`

	// PageCount is the number of pages (PDF) or 1 for single-page inputs.
	PageCount int `json:"pageCount"`

	// WordCount is the number of whitespace-separated words.
	WordCount int `json:"wordCount"`

	// Extractor names the extractor that produced the text.
	Extractor string `json:"extractor,omitempty"`
}

// Content holds the extraction and structure-analysis output.
type Content struct {
	Text      string            `json:"text"`
	Structure DocumentStructure `json:"structure"`
	Metadata  ContentMetadata   `json:"metadata"`
}

// Embeddings holds the four fixed-dimension vectors of a document.
type Embeddings struct {
	Summary     []float32 `json:"summary"`
	Methodology []float32 `json:"methodology"`
	Conclusions []float32 `json:"conclusions"`
	FullText    []float32 `json:"fullText"`

	// Dimensions is the declared size shared by all four vectors.
	Dimensions int `json:"dimensions"`

	// Generated is false when the embedding service failed and the
	// vectors are zero-filled placeholders.
	Generated bool `json:"generated"`
}

// ZeroEmbeddings returns four zero vectors of the given dimensionality.
func ZeroEmbeddings(dimensions int) Embeddings {
	return Embeddings{
		Summary:     make([]float32, dimensions),
		Methodology: make([]float32, dimensions),
		Conclusions: make([]float32, dimensions),
		FullText:    make([]float32, dimensions),
		Dimensions:  dimensions,
	}
}

// Segment returns the vector for a named segment.
func (e Embeddings) Segment(segment Segment) []float32 {
	switch segment {
	case SegmentSummary:
		return e.Summary
	case SegmentMethodology:
		return e.Methodology
	case SegmentConclusions:
		return e.Conclusions
	case SegmentFullText:
		return e.FullText
	default:
		return nil
	}
}

// Comparable reports whether the summary vector can take part in similarity search.
func (e Embeddings) Comparable() bool {
	return e.Generated && !IsZeroVector(e.Summary)
}

// IsZeroVector returns true for empty or all-zero vectors.
func IsZeroVector(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

// Segment names an embedded text segment.
type Segment string

// Embedding segments.
const (
	SegmentSummary     Segment = "summary"
	SegmentMethodology Segment = "methodology"
	SegmentConclusions Segment = "conclusions"
	SegmentFullText    Segment = "fullText"
)

// Degradation records a stage that fell back instead of producing real output.
type Degradation struct {
	Stage  Stage     `json:"stage"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// DocumentAnalysis is the root record produced by the pipeline for one file.
// It is owned by a single orchestration for its lifetime.
type DocumentAnalysis struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	FileType    string         `json:"fileType"`
	Size        int64          `json:"size"`
	UploadedAt  time.Time      `json:"uploadedAt"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
	Status      AnalysisStatus `json:"status"`
	Stage       Stage          `json:"stage"`

	Content        Content      `json:"content"`
	Classification DocumentType `json:"classification,omitempty"`

	// Research and Experimental are mutually exclusive.
	Research     *ResearchAnalysis     `json:"research,omitempty"`
	Experimental *ExperimentalAnalysis `json:"experimental,omitempty"`

	Embeddings    Embeddings             `json:"embeddings"`
	Relationships []DocumentRelationship `json:"relationships"`

	// Degraded lists every stage that fell back, in order.
	Degraded []Degradation `json:"degraded,omitempty"`

	// Error is the fatal extraction error for failed records.
	Error string `json:"error,omitempty"`
}

// NewDocumentAnalysis creates a record in processing status for an upload.
func NewDocumentAnalysis(id string, raw *RawDocument, now time.Time) *DocumentAnalysis {
	return &DocumentAnalysis{
		ID:            id,
		Filename:      raw.Filename,
		FileType:      raw.MIMEType,
		Size:          raw.Size(),
		UploadedAt:    now,
		Status:        StatusProcessing,
		Stage:         StageUploaded,
		Relationships: []DocumentRelationship{},
	}
}

// Advance records that stage has been completed. Stages never move backwards.
func (a *DocumentAnalysis) Advance(stage Stage) {
	if stage.Reached(a.Stage) {
		a.Stage = stage
	}
}

// Degrade appends a degradation entry.
func (a *DocumentAnalysis) Degrade(stage Stage, reason string, at time.Time) {
	a.Degraded = append(a.Degraded, Degradation{Stage: stage, Reason: reason, At: at})
}

// DegradedAt reports whether stage fell back.
func (a *DocumentAnalysis) DegradedAt(stage Stage) bool {
	for _, d := range a.Degraded {
		if d.Stage == stage {
			return true
		}
	}
	return false
}

// IsDegraded reports whether any stage fell back.
func (a *DocumentAnalysis) IsDegraded() bool {
	return len(a.Degraded) > 0
}

// Complete moves a processing record to completed.
// It refuses records without extracted text.
func (a *DocumentAnalysis) Complete(at time.Time) error {
	if a.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	if a.Content.Text == "" {
		return ErrInvalidInput
	}
	a.Status = StatusCompleted
	a.ProcessedAt = &at
	return nil
}

// Fail moves a processing record to failed and clears any partial text.
func (a *DocumentAnalysis) Fail(cause error, at time.Time) error {
	if a.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	a.Status = StatusFailed
	a.Content.Text = ""
	if cause != nil {
		a.Error = cause.Error()
	}
	a.ProcessedAt = &at
	return nil
}
