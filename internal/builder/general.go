package builder

import (
	"context"

	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/internal/selfrag"
)

type generalBuilder struct{ *Set }

// Build reuses the pipeline's retrieved documents without searching again.
// The web flag comes from the distance heuristic rather than from whether
// anything was found.
func (b generalBuilder) Build(ctx context.Context, req Request) models.ContextBundle {
	docs := req.Prefetched
	return models.ContextBundle{
		Text:            formatDocs(docs, generalMaxDocuments),
		HasLocalResults: len(docs) > 0,
		NeedsWebSearch:  selfrag.ShouldUseWebSearch(docs, b.webThreshold),
	}
}
