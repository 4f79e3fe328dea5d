package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/driftbooks/driftbooks-api/internal/database/models"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-1.5-flash"

const vibePromptTemplate = `You are cataloguing a secondhand book. Analyze it and respond with
ONLY a JSON object, no prose, matching exactly this shape:
{
  "emotional_tones": ["..."],
  "intensity_score": 5,
  "pace": "slow_burn|moderate|fast_paced",
  "atmosphere": ["..."],
  "themes": ["..."],
  "similar_vibes": ["..."],
  "summary": "one sentence"
}
intensity_score is an integer from 1 to 10.

Title: %s
Author: %s
Description: %s
Sample reviews: %s`

// GeminiEngine delegates vibe analysis to the Gemini API with a fixed
// JSON-shaped prompt.
type GeminiEngine struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ Engine = (*GeminiEngine)(nil)

// NewGeminiEngine creates the remote engine. The API key must be non-empty.
func NewGeminiEngine(ctx context.Context, apiKey string) (*GeminiEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key must not be empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiEngine{
		client: client,
		model:  client.GenerativeModel(geminiModel),
	}, nil
}

func (e *GeminiEngine) Analyze(ctx context.Context, in Input) (*models.Vibe, error) {
	prompt := fmt.Sprintf(vibePromptTemplate,
		in.Title, in.Author, in.Description, strings.Join(in.Reviews, " | "))

	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}

	vibe := &models.Vibe{}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), vibe); err != nil {
		return nil, fmt.Errorf("gemini returned malformed vibe JSON: %w", err)
	}
	if vibe.IntensityScore < 1 {
		vibe.IntensityScore = 1
	}
	if vibe.IntensityScore > 10 {
		vibe.IntensityScore = 10
	}
	return vibe, nil
}

func (e *GeminiEngine) Close() error {
	return e.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned from gemini")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			return string(text), nil
		}
	}
	return "", fmt.Errorf("unexpected response format from gemini")
}

// stripCodeFence removes a markdown ```json fence if the model wrapped its
// reply in one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
