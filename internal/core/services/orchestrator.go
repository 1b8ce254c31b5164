package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.AnalysisService = (*Orchestrator)(nil)

// Ensure Orchestrator accepts custom prompts.
var _ driven.PromptStoreAware = (*Orchestrator)(nil)

// Orchestrator runs documents through the analysis pipeline:
// extract, structure, classify, analyse, embed, index, relate.
// Progress is checkpointed to the analysis store after every stage.
type Orchestrator struct {
	extraction    *TextExtractionService
	structure     *StructureAnalyzer
	classifier    *Classifier
	research      *ResearchAnalyzer
	experimental  *ExperimentalAnalyzer
	embeddings    *EmbeddingGenerator
	indexer       *VectorIndexer
	relationships *RelationshipEngine

	store   driven.AnalysisStore
	metrics driven.PipelineMetrics

	now   func() time.Time
	newID func() string
}

// NewOrchestrator creates the pipeline.
// Every dependency except the registry is optional: a nil llm, embedder or
// vectorStore makes the matching stages fall back, a nil analysisStore
// disables checkpoints, and a nil promptStore uses the built-in prompts.
func NewOrchestrator(
	registry driven.ExtractorRegistry,
	llm driven.LLMService,
	embedder driven.EmbeddingService,
	vectorStore driven.VectorStore,
	analysisStore driven.AnalysisStore,
	promptStore driven.PromptStore,
	settings domain.AppSettings,
	metrics driven.PipelineMetrics,
) *Orchestrator {
	p := settings.Pipeline
	o := &Orchestrator{
		extraction:    NewTextExtractionService(registry),
		structure:     NewStructureAnalyzer(llm, p),
		classifier:    NewClassifier(llm, p),
		research:      NewResearchAnalyzer(llm, p),
		experimental:  NewExperimentalAnalyzer(llm, p),
		embeddings:    NewEmbeddingGenerator(embedder, settings.VectorStore.Dimensions, p),
		indexer:       NewVectorIndexer(vectorStore),
		relationships: NewRelationshipEngine(vectorStore, llm, p),
		store:         analysisStore,
		metrics:       metrics,
		now:           time.Now,
		newID:         func() string { return uuid.New().String() },
	}
	if o.metrics == nil {
		o.metrics = noopMetrics{}
	}
	o.SetPromptStore(promptStore)
	return o
}

// SetPromptStore sets the prompt store on every LLM-backed stage.
func (o *Orchestrator) SetPromptStore(store driven.PromptStore) {
	o.structure.SetPromptStore(store)
	o.classifier.SetPromptStore(store)
	o.research.SetPromptStore(store)
	o.experimental.SetPromptStore(store)
	o.relationships.SetPromptStore(store)
}

// Analyze ingests one document and returns its record. Extraction
// failures, empty files included, produce a failed record, not an error.
// An error is returned for a nil document, or with the still-processing
// record when ctx is cancelled.
func (o *Orchestrator) Analyze(ctx context.Context, raw *domain.RawDocument) (*domain.DocumentAnalysis, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rec := domain.NewDocumentAnalysis(o.newID(), raw, o.now())
	logger.Section("Analyze " + raw.Filename)
	logger.Debug("Analysis %s: %s (%s, %d bytes)", rec.ID, raw.Filename, raw.MIMEType, rec.Size)
	o.checkpoint(ctx, rec)

	if err := o.extract(ctx, rec, raw); err != nil {
		return rec, nil
	}
	return o.continueFrom(ctx, rec)
}

// Resume continues a checkpointed analysis after its last completed stage.
// Records that never got past upload cannot be resumed since the raw
// bytes are not stored.
func (o *Orchestrator) Resume(ctx context.Context, id string) (*domain.DocumentAnalysis, error) {
	if o.store == nil {
		return nil, domain.ErrNotFound
	}

	rec, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status.IsTerminal() {
		return rec, domain.ErrTerminalStatus
	}
	if !rec.Stage.Reached(domain.StageExtracted) || rec.Content.Text == "" {
		return rec, fmt.Errorf("%w: analysis %s has no extracted text", domain.ErrInvalidInput, id)
	}

	logger.Section("Resume " + rec.Filename)
	logger.Info("Resuming analysis %s after stage %s", rec.ID, rec.Stage)
	return o.continueFrom(ctx, rec)
}

// Get retrieves an analysis by ID.
func (o *Orchestrator) Get(ctx context.Context, id string) (*domain.DocumentAnalysis, error) {
	if o.store == nil {
		return nil, domain.ErrNotFound
	}
	return o.store.Get(ctx, id)
}

// List returns all stored analyses, newest first.
func (o *Orchestrator) List(ctx context.Context) ([]domain.DocumentAnalysis, error) {
	if o.store == nil {
		return []domain.DocumentAnalysis{}, nil
	}
	return o.store.List(ctx)
}

// stageFunc runs one stage against the record.
type stageFunc func(ctx context.Context, rec *domain.DocumentAnalysis)

// continueFrom runs every stage the record has not reached yet, then completes it.
func (o *Orchestrator) continueFrom(ctx context.Context, rec *domain.DocumentAnalysis) (*domain.DocumentAnalysis, error) {
	stages := []struct {
		stage domain.Stage
		run   stageFunc
	}{
		{domain.StageStructured, o.analyzeStructure},
		{domain.StageClassified, o.classify},
		{domain.StageAnalyzed, o.analyzeContent},
		{domain.StageEmbedded, o.embed},
		{domain.StageIndexed, o.index},
		{domain.StageRelated, o.relate},
	}

	for _, s := range stages {
		if rec.Stage.Reached(s.stage) {
			continue
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("Analysis %s interrupted before %s: %v", rec.ID, s.stage, err)
			return rec, err
		}

		before := *rec
		start := time.Now()
		s.run(ctx, rec)

		// A stage cut short by ctx is not done: its fallback output and
		// degradations are discarded so Resume runs it again.
		if err := ctx.Err(); err != nil {
			*rec = before
			logger.Warn("Analysis %s interrupted during %s: %v", rec.ID, s.stage, err)
			return rec, err
		}
		o.metrics.ObserveStage(s.stage, time.Since(start))
		for _, d := range rec.Degraded[len(before.Degraded):] {
			o.metrics.RecordDegradation(d.Stage)
		}

		rec.Advance(s.stage)
		o.checkpoint(ctx, rec)
	}

	o.finish(ctx, rec)
	return rec, nil
}

// extract fills the content or fails the record.
func (o *Orchestrator) extract(ctx context.Context, rec *domain.DocumentAnalysis, raw *domain.RawDocument) error {
	start := time.Now()
	content, err := o.extraction.Extract(ctx, raw)
	o.metrics.ObserveStage(domain.StageExtracted, time.Since(start))

	if err != nil {
		logger.With("id", rec.ID, "file", rec.Filename).Error("extraction failed", "err", err)
		_ = rec.Fail(err, o.now())
		o.checkpoint(ctx, rec)
		o.metrics.RecordDocument(rec.Status)
		return err
	}

	rec.Content = *content
	rec.Advance(domain.StageExtracted)
	logger.Debug("Extracted %d words, %d pages, language %q",
		content.Metadata.WordCount, content.Metadata.PageCount, content.Metadata.Language)
	o.checkpoint(ctx, rec)
	return nil
}

func (o *Orchestrator) analyzeStructure(ctx context.Context, rec *domain.DocumentAnalysis) {
	structure, err := o.structure.Analyze(ctx, rec.Content.Text)
	if err != nil {
		o.degrade(rec, domain.StageStructured, err)
	}
	rec.Content.Structure = structure
	logger.Debug("Structure: title %q, %d sections", structure.Title, len(structure.Sections))
}

func (o *Orchestrator) classify(ctx context.Context, rec *domain.DocumentAnalysis) {
	docType, err := o.classifier.Classify(ctx, rec.Content.Text)
	if err != nil {
		o.degrade(rec, domain.StageClassified, err)
	}
	rec.Classification = docType
	logger.Debug("Classified as %s", docType)
}

// analyzeContent runs the analyzer matching the classification, if any.
func (o *Orchestrator) analyzeContent(ctx context.Context, rec *domain.DocumentAnalysis) {
	rec.Research = nil
	rec.Experimental = nil

	switch rec.Classification {
	case domain.DocumentTypeResearchPaper:
		report, err := o.research.Analyze(ctx, rec.Content.Text)
		if err != nil {
			o.degrade(rec, domain.StageAnalyzed, err)
		}
		rec.Research = report
	case domain.DocumentTypeExperimentalData:
		report, err := o.experimental.Analyze(ctx, rec.Content.Text)
		if err != nil {
			o.degrade(rec, domain.StageAnalyzed, err)
		}
		rec.Experimental = report
	default:
		logger.Debug("No specialised analysis for %s", rec.Classification)
	}
}

func (o *Orchestrator) embed(ctx context.Context, rec *domain.DocumentAnalysis) {
	embeddings, err := o.embeddings.Generate(ctx, rec.Content.Structure, rec.Content.Text)
	if err != nil {
		o.degrade(rec, domain.StageEmbedded, err)
	}
	rec.Embeddings = embeddings
}

// index persists the vectors. Documents without generated embeddings are
// skipped; their embedding degradation already explains why.
func (o *Orchestrator) index(ctx context.Context, rec *domain.DocumentAnalysis) {
	if !rec.Embeddings.Generated {
		logger.Debug("Skipping indexing: no embeddings")
		return
	}
	n, err := o.indexer.Index(ctx, rec)
	if err != nil {
		o.degrade(rec, domain.StageIndexed, err)
		return
	}
	logger.Debug("Indexed %d vectors", n)
}

// relate runs relationship discovery, but only once the vectors are persisted.
func (o *Orchestrator) relate(ctx context.Context, rec *domain.DocumentAnalysis) {
	rec.Relationships = []domain.DocumentRelationship{}

	if !rec.Embeddings.Comparable() || rec.DegradedAt(domain.StageIndexed) {
		logger.Debug("Skipping relationship discovery")
		return
	}

	relationships, err := o.relationships.Discover(ctx, rec)
	if err != nil {
		o.degrade(rec, domain.StageRelated, err)
	}
	if !errors.Is(err, domain.ErrVectorStoreUnavailable) {
		rec.Relationships = relationships
	}
	logger.Debug("Found %d relationships", len(rec.Relationships))
}

// finish moves the record to its terminal status.
func (o *Orchestrator) finish(ctx context.Context, rec *domain.DocumentAnalysis) {
	if err := rec.Complete(o.now()); err != nil && !errors.Is(err, domain.ErrTerminalStatus) {
		_ = rec.Fail(err, o.now())
	}
	o.checkpoint(ctx, rec)
	o.metrics.RecordDocument(rec.Status)

	logger.Info("Analysis %s %s (%d degraded stages, %d relationships)",
		rec.ID, rec.Status, len(rec.Degraded), len(rec.Relationships))
}

// degrade records a fallback on the record and in the log. Metrics are
// recorded once the stage is committed.
func (o *Orchestrator) degrade(rec *domain.DocumentAnalysis, stage domain.Stage, cause error) {
	rec.Degrade(stage, cause.Error(), o.now())
	logger.With("id", rec.ID, "stage", stage).Warn("stage degraded", "reason", cause)
}

// checkpoint saves the record. Store failures are logged, never fatal.
func (o *Orchestrator) checkpoint(ctx context.Context, rec *domain.DocumentAnalysis) {
	if o.store == nil {
		return
	}
	if err := o.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		logger.With("id", rec.ID, "stage", rec.Stage).Warn("checkpoint failed", "err", err)
	}
}

// noopMetrics discards pipeline metrics.
type noopMetrics struct{}

func (noopMetrics) ObserveStage(domain.Stage, time.Duration) {}
func (noopMetrics) RecordDegradation(domain.Stage)          {}
func (noopMetrics) RecordDocument(domain.AnalysisStatus)     {}
