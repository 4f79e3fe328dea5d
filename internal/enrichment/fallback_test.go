package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftbooks/driftbooks-api/internal/database/models"
)

type flakyEngine struct {
	vibe *models.Vibe
	err  error
	hits int
}

func (f *flakyEngine) Analyze(ctx context.Context, in Input) (*models.Vibe, error) {
	f.hits++
	return f.vibe, f.err
}

func TestFallbackEngine_PrefersRemote(t *testing.T) {
	remote := &flakyEngine{vibe: &models.Vibe{Summary: "from remote"}}
	heuristic := &flakyEngine{vibe: &models.Vibe{Summary: "from heuristic"}}

	e := NewFallbackEngine(remote, heuristic)
	vibe, err := e.Analyze(context.Background(), Input{Description: "whatever"})
	require.NoError(t, err)

	assert.Equal(t, "from remote", vibe.Summary)
	assert.Equal(t, 1, remote.hits)
	assert.Zero(t, heuristic.hits)
}

func TestFallbackEngine_FallsBackOnRemoteError(t *testing.T) {
	remote := &flakyEngine{err: errors.New("quota exceeded")}
	heuristic := &flakyEngine{vibe: &models.Vibe{Summary: "from heuristic"}}

	e := NewFallbackEngine(remote, heuristic)
	vibe, err := e.Analyze(context.Background(), Input{Description: "whatever"})
	require.NoError(t, err)

	assert.Equal(t, "from heuristic", vibe.Summary)
	assert.Equal(t, 1, heuristic.hits)
}

func TestFallbackEngine_NilRemoteGoesStraightToHeuristic(t *testing.T) {
	e := NewFallbackEngine(nil, NewHeuristicEngine())
	vibe, err := e.Analyze(context.Background(), Input{Description: "a story of hope"})
	require.NoError(t, err)

	assert.Equal(t, []string{"uplifting"}, vibe.EmotionalTones)
}
