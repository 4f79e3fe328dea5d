package enrichment

import (
	"context"

	"github.com/driftbooks/driftbooks-api/internal/database/models"
	"github.com/sirupsen/logrus"
)

// FallbackEngine tries the remote engine first and falls back to the
// heuristic engine on any failure. It never returns an error: enrichment is
// best-effort and must not be able to fail an ingestion.
type FallbackEngine struct {
	remote    Engine
	heuristic Engine
}

var _ Engine = (*FallbackEngine)(nil)

// NewFallbackEngine wires the two paths. remote may be nil (no API key
// configured), in which case the heuristic path is used directly.
func NewFallbackEngine(remote Engine, heuristic Engine) *FallbackEngine {
	return &FallbackEngine{remote: remote, heuristic: heuristic}
}

func (e *FallbackEngine) Analyze(ctx context.Context, in Input) (*models.Vibe, error) {
	if e.remote != nil {
		vibe, err := e.remote.Analyze(ctx, in)
		if err == nil {
			return vibe, nil
		}
		logrus.Warnf("[Enrichment] remote analysis failed, falling back to heuristics: %v", err)
	}
	return e.heuristic.Analyze(ctx, in)
}
