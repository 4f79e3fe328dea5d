package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/driftbooks/driftbooks-api/internal/ratelimit"
	"github.com/sony/gobreaker"
)

const defaultGoogleBooksBaseURL = "https://www.googleapis.com/books/v1"

// GoogleBooksProvider queries the Google Books volumes API by ISBN.
type GoogleBooksProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
}

var _ Provider = (*GoogleBooksProvider)(nil)

// NewGoogleBooksProvider creates a Google Books client. The API key is
// optional; unauthenticated requests work with tighter quotas. A
// non-positive timeout uses the default.
func NewGoogleBooksProvider(baseURL, apiKey string, timeout time.Duration) *GoogleBooksProvider {
	if baseURL == "" {
		baseURL = defaultGoogleBooksBaseURL
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &GoogleBooksProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		limiter: ratelimit.New("GoogleBooks", 2),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "googlebooks",
			Timeout: 30 * time.Second,
		}),
	}
}

func (p *GoogleBooksProvider) Name() string {
	return "google_books"
}

type googleBooksResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			Publisher     string   `json:"publisher"`
			PublishedDate string   `json:"publishedDate"`
			Description   string   `json:"description"`
			PageCount     int      `json:"pageCount"`
			Categories    []string `json:"categories"`
			Language      string   `json:"language"`
			AverageRating float64  `json:"averageRating"`
			RatingsCount  int      `json:"ratingsCount"`
			ImageLinks    struct {
				Thumbnail      string `json:"thumbnail"`
				SmallThumbnail string `json:"smallThumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (p *GoogleBooksProvider) Lookup(ctx context.Context, isbn string) (*Record, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := p.breaker.Execute(func() (any, error) {
		return p.fetch(ctx, isbn)
	})
	if err != nil {
		return nil, err
	}
	rec, _ := out.(*Record)
	return rec, nil
}

func (p *GoogleBooksProvider) fetch(ctx context.Context, isbn string) (*Record, error) {
	url := fmt.Sprintf("%s/volumes?q=isbn:%s", p.baseURL, isbn)
	if p.apiKey != "" {
		url = fmt.Sprintf("%s&key=%s", url, p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned status %d", resp.StatusCode)
	}

	var result googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding google books response: %w", err)
	}

	if result.TotalItems == 0 || len(result.Items) == 0 {
		return nil, nil
	}

	vol := result.Items[0].VolumeInfo
	rec := &Record{}

	if vol.Title != "" {
		rec.Title = strptr(vol.Title)
	}
	if len(vol.Authors) > 0 {
		rec.Authors = vol.Authors
	}
	if vol.Description != "" {
		rec.Description = strptr(vol.Description)
	}
	if vol.Publisher != "" {
		rec.Publisher = strptr(vol.Publisher)
	}
	if vol.PublishedDate != "" {
		rec.PublishDate = strptr(vol.PublishedDate)
	}
	if vol.PageCount > 0 {
		n := vol.PageCount
		rec.PageCount = &n
	}
	if len(vol.Categories) > 0 {
		rec.Categories = vol.Categories
	}
	if vol.Language != "" {
		rec.Language = strptr(vol.Language)
	}
	if vol.AverageRating > 0 {
		r := vol.AverageRating
		rec.AverageRating = &r
	}
	if vol.RatingsCount > 0 {
		n := vol.RatingsCount
		rec.RatingsCount = &n
	}

	cover := vol.ImageLinks.Thumbnail
	if cover == "" {
		cover = vol.ImageLinks.SmallThumbnail
	}
	if cover != "" {
		// zoom=0 serves the higher quality variant.
		cover = strings.Replace(cover, "zoom=1", "zoom=0", 1)
		rec.CoverURL = strptr(cover)
	}

	return rec, nil
}
