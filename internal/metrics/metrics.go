// Package metrics exposes Prometheus instrumentation for the analysis pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PipelineMetrics = (*Pipeline)(nil)

// Pipeline holds the pipeline collectors.
type Pipeline struct {
	documents    *prometheus.CounterVec
	degradations *prometheus.CounterVec
	stages       *prometheus.HistogramVec
}

// NewPipeline creates the collectors and registers them on reg.
func NewPipeline(reg prometheus.Registerer) (*Pipeline, error) {
	p := &Pipeline{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docsight",
			Name:      "documents_total",
			Help:      "Documents that reached a terminal status.",
		}, []string{"status"}),
		degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docsight",
			Name:      "degradations_total",
			Help:      "Pipeline stages that fell back to a default result.",
		}, []string{"stage"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docsight",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
	}

	for _, c := range []prometheus.Collector{p.documents, p.degradations, p.stages} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ObserveStage records how long a stage took.
func (p *Pipeline) ObserveStage(stage domain.Stage, d time.Duration) {
	p.stages.WithLabelValues(stage.String()).Observe(d.Seconds())
}

// RecordDegradation counts a stage that fell back.
func (p *Pipeline) RecordDegradation(stage domain.Stage) {
	p.degradations.WithLabelValues(stage.String()).Inc()
}

// RecordDocument counts a document reaching a terminal status.
func (p *Pipeline) RecordDocument(status domain.AnalysisStatus) {
	p.documents.WithLabelValues(status.String()).Inc()
}
