package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

func TestVectorRecordStore_SaveAndLoad(t *testing.T) {
	store := NewVectorRecordStore()
	ctx := context.Background()

	rec := driven.VectorRecord{
		ID:     driven.VectorRecordID("doc-1", domain.SegmentSummary),
		Vector: []float32{1, 2, 3},
		Metadata: driven.VectorMetadata{
			DocumentID: "doc-1",
			Segment:    domain.SegmentSummary,
		},
	}
	require.NoError(t, store.SaveVectors(ctx, []driven.VectorRecord{rec}))

	// Same ID replaces.
	rec.Vector = []float32{4, 5, 6}
	require.NoError(t, store.SaveVectors(ctx, []driven.VectorRecord{rec}))

	loaded, err := store.LoadVectors(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "doc-1#summary", loaded[0].ID)
	assert.Equal(t, []float32{4, 5, 6}, loaded[0].Vector)
}
