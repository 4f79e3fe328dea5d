package enrichment

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicEngine_Deterministic(t *testing.T) {
	e := NewHeuristicEngine()
	in := Input{Description: "A gripping tale of murder and betrayal in a dark, mysterious city."}

	first, err := e.Analyze(context.Background(), in)
	require.NoError(t, err)
	second, err := e.Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHeuristicEngine_Tones(t *testing.T) {
	e := NewHeuristicEngine()

	vibe, err := e.Analyze(context.Background(), Input{
		Description: "A brutal murder shatters a small town, but hope and triumph follow.",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dark", "uplifting"}, vibe.EmotionalTones)
}

func TestHeuristicEngine_NeutralWhenNoToneMatches(t *testing.T) {
	e := NewHeuristicEngine()

	vibe, err := e.Analyze(context.Background(), Input{
		Description: "A quiet walk through the countryside.",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"neutral"}, vibe.EmotionalTones)
}

func TestHeuristicEngine_IntensityAccumulatesAndClamps(t *testing.T) {
	e := NewHeuristicEngine()

	plain, err := e.Analyze(context.Background(), Input{Description: "A gentle story."})
	require.NoError(t, err)
	assert.Equal(t, 5, plain.IntensityScore)

	two, err := e.Analyze(context.Background(), Input{Description: "war and betrayal"})
	require.NoError(t, err)
	assert.Equal(t, 7, two.IntensityScore)

	// All eight shock keywords would give 13; the score caps at 10.
	all, err := e.Analyze(context.Background(), Input{
		Description: "murder death violence betrayal war abuse horror revenge",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, all.IntensityScore)
}

func TestHeuristicEngine_SlowCuesWinOverFast(t *testing.T) {
	e := NewHeuristicEngine()

	vibe, err := e.Analyze(context.Background(), Input{
		Description: "A quiet, meditative thriller.",
	})
	require.NoError(t, err)
	assert.Equal(t, "slow_burn", vibe.Pace)

	vibe, err = e.Analyze(context.Background(), Input{
		Description: "A breakneck action ride.",
	})
	require.NoError(t, err)
	assert.Equal(t, "fast_paced", vibe.Pace)

	vibe, err = e.Analyze(context.Background(), Input{Description: "A story."})
	require.NoError(t, err)
	assert.Equal(t, "moderate", vibe.Pace)
}

func TestHeuristicEngine_ThemesFollowVocabularyOrder(t *testing.T) {
	e := NewHeuristicEngine()

	// Mentioned in reverse order; output still follows the fixed vocabulary.
	vibe, err := e.Analyze(context.Background(), Input{
		Description: "revenge, then power, then loss, then love",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"love", "loss", "power", "revenge"}, vibe.Themes)
}

func TestHeuristicEngine_Atmosphere(t *testing.T) {
	e := NewHeuristicEngine()

	vibe, err := e.Analyze(context.Background(), Input{
		Description: "An immersive, bleak world full of secrets and romance.",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"atmospheric", "dark", "mysterious", "romantic"}, vibe.Atmosphere)
}

func TestHeuristicEngine_SummaryTruncates(t *testing.T) {
	e := NewHeuristicEngine()

	long := strings.Repeat("abcde ", 40)
	vibe, err := e.Analyze(context.Background(), Input{Description: long})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(vibe.Summary), 100)

	short, err := e.Analyze(context.Background(), Input{Description: "  Short one.  "})
	require.NoError(t, err)
	assert.Equal(t, "Short one.", short.Summary)
}

func TestHeuristicEngine_SummaryCountsRunesNotBytes(t *testing.T) {
	e := NewHeuristicEngine()

	accented, err := e.Analyze(context.Background(), Input{Description: strings.Repeat("é", 120)})
	require.NoError(t, err)
	assert.Equal(t, 100, utf8.RuneCountInString(accented.Summary))
	assert.True(t, utf8.ValidString(accented.Summary))

	// 60 three-byte runes exceed 100 bytes but fit within 100 characters.
	kana := strings.Repeat("あ", 60)
	wide, err := e.Analyze(context.Background(), Input{Description: kana})
	require.NoError(t, err)
	assert.Equal(t, kana, wide.Summary)
	assert.True(t, utf8.ValidString(wide.Summary))
}
