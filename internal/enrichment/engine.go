// Package enrichment derives descriptive "vibe" tags for a book from its
// free-text description, either heuristically or via a generative model.
package enrichment

import (
	"context"

	"github.com/driftbooks/driftbooks-api/internal/database/models"
)

// Input is the material available for analysis.
type Input struct {
	Title       string
	Author      string
	Description string
	Reviews     []string
}

// Engine produces a structured vibe record for a book. Implementations must
// be interchangeable: callers never depend on whether the analysis was
// heuristic or model-generated.
type Engine interface {
	Analyze(ctx context.Context, in Input) (*models.Vibe, error)
}
