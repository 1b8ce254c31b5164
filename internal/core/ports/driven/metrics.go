package driven

import (
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// PipelineMetrics records pipeline activity. Optional - nil disables metrics.
type PipelineMetrics interface {
	// ObserveStage records how long a stage took.
	ObserveStage(stage domain.Stage, d time.Duration)

	// RecordDegradation counts a stage that fell back.
	RecordDegradation(stage domain.Stage)

	// RecordDocument counts a document reaching a terminal status.
	RecordDocument(status domain.AnalysisStatus)
}
