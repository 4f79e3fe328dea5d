package enrichment

import (
	"context"
	"strings"

	"github.com/driftbooks/driftbooks-api/internal/database/models"
)

// toneBuckets maps each emotional tone label to the keywords that imply it.
var toneBuckets = []struct {
	label    string
	keywords []string
}{
	{"dark", []string{"murder", "death", "darkness", "sinister", "brutal"}},
	{"uplifting", []string{"hope", "joy", "heartwarming", "triumph", "inspiring"}},
	{"melancholic", []string{"loss", "grief", "longing", "bittersweet", "regret"}},
	{"humorous", []string{"funny", "hilarious", "witty", "comic", "absurd"}},
	{"intense", []string{"gripping", "relentless", "harrowing", "visceral", "ruthless"}},
}

// shockKeywords each add one point of intensity when present.
var shockKeywords = []string{
	"murder", "death", "violence", "betrayal", "war", "abuse", "horror", "revenge",
}

var slowCues = []string{"slow", "meditative", "quiet", "contemplative", "lyrical"}

var fastCues = []string{"fast", "thriller", "action", "breakneck", "page-turner"}

var atmosphereBuckets = []struct {
	label    string
	keywords []string
}{
	{"atmospheric", []string{"atmospheric", "evocative", "immersive"}},
	{"dark", []string{"dark", "bleak", "grim"}},
	{"light", []string{"light", "charming", "warm"}},
	{"mysterious", []string{"mystery", "mysterious", "secret"}},
	{"romantic", []string{"romance", "romantic", "passion"}},
}

// themeVocabulary is matched in order; output order follows this list.
var themeVocabulary = []string{
	"love", "loss", "family", "friendship", "identity", "betrayal",
	"redemption", "survival", "power", "justice", "memory", "freedom",
	"faith", "revenge",
}

const (
	baseIntensity    = 5
	maxIntensity     = 10
	minIntensity     = 1
	summaryMaxLength = 100
)

// HeuristicEngine derives a vibe record from keyword matching alone. It is
// fully deterministic: identical input text always yields identical output.
type HeuristicEngine struct{}

var _ Engine = (*HeuristicEngine)(nil)

// NewHeuristicEngine returns the deterministic keyword engine.
func NewHeuristicEngine() *HeuristicEngine {
	return &HeuristicEngine{}
}

func (e *HeuristicEngine) Analyze(_ context.Context, in Input) (*models.Vibe, error) {
	desc := strings.ToLower(in.Description)

	vibe := &models.Vibe{
		EmotionalTones: matchTones(desc),
		IntensityScore: scoreIntensity(desc),
		Pace:           matchPace(desc),
		Atmosphere:     matchAtmosphere(desc),
		Themes:         matchThemes(desc),
		Summary:        summarize(in.Description),
	}
	return vibe, nil
}

func matchTones(desc string) []string {
	var tones []string
	for _, bucket := range toneBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(desc, kw) {
				tones = append(tones, bucket.label)
				break
			}
		}
	}
	if len(tones) == 0 {
		tones = []string{"neutral"}
	}
	return tones
}

func scoreIntensity(desc string) int {
	score := baseIntensity
	for _, kw := range shockKeywords {
		if strings.Contains(desc, kw) {
			score++
		}
	}
	if score > maxIntensity {
		score = maxIntensity
	}
	if score < minIntensity {
		score = minIntensity
	}
	return score
}

// matchPace checks the slow cues before the fast ones; the first matching
// rule wins.
func matchPace(desc string) string {
	for _, kw := range slowCues {
		if strings.Contains(desc, kw) {
			return "slow_burn"
		}
	}
	for _, kw := range fastCues {
		if strings.Contains(desc, kw) {
			return "fast_paced"
		}
	}
	return "moderate"
}

func matchAtmosphere(desc string) []string {
	var atmos []string
	for _, bucket := range atmosphereBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(desc, kw) {
				atmos = append(atmos, bucket.label)
				break
			}
		}
	}
	return atmos
}

func matchThemes(desc string) []string {
	var themes []string
	for _, theme := range themeVocabulary {
		if strings.Contains(desc, theme) {
			themes = append(themes, theme)
		}
	}
	return themes
}

// summarize keeps the first summaryMaxLength characters. Counted in runes,
// not bytes, so multi-byte text is never cut mid-character.
func summarize(description string) string {
	trimmed := strings.TrimSpace(description)
	runes := []rune(trimmed)
	if len(runes) <= summaryMaxLength {
		return trimmed
	}
	return strings.TrimSpace(string(runes[:summaryMaxLength]))
}
