package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/driftbooks/driftbooks-api/internal/ratelimit"
	"github.com/sony/gobreaker"
)

const defaultOpenLibraryBaseURL = "https://openlibrary.org"

const defaultProviderTimeout = 10 * time.Second

// OpenLibraryProvider queries the OpenLibrary books API by ISBN.
type OpenLibraryProvider struct {
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
}

var _ Provider = (*OpenLibraryProvider)(nil)

// NewOpenLibraryProvider creates an OpenLibrary client. baseURL may be empty
// to use the public endpoint; a non-positive timeout uses the default.
func NewOpenLibraryProvider(baseURL string, timeout time.Duration) *OpenLibraryProvider {
	if baseURL == "" {
		baseURL = defaultOpenLibraryBaseURL
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &OpenLibraryProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: ratelimit.New("OpenLibrary", 2),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openlibrary",
			Timeout: 30 * time.Second,
		}),
	}
}

func (p *OpenLibraryProvider) Name() string {
	return "openlibrary"
}

// openLibraryBook matches the jscmd=data response shape.
type openLibraryBook struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Description any `json:"description"`
	Publishers  []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	Cover struct {
		Large  string `json:"large"`
		Medium string `json:"medium"`
	} `json:"cover"`
	Subjects []struct {
		Name string `json:"name"`
	} `json:"subjects"`
	NumberOfPages int    `json:"number_of_pages"`
	PublishDate   string `json:"publish_date"`
}

func (p *OpenLibraryProvider) Lookup(ctx context.Context, isbn string) (*Record, error) {
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

func (p *OpenLibraryProvider) fetch(ctx context.Context, isbn string) (*Record, error) {
	url := fmt.Sprintf("%s/api/books?bibkeys=ISBN:%s&format=json&jscmd=data", p.baseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openlibrary request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openlibrary returned status %d", resp.StatusCode)
	}

	var result map[string]openLibraryBook
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding openlibrary response: %w", err)
	}

	book, ok := result["ISBN:"+isbn]
	if !ok {
		return nil, nil
	}

	rec := &Record{}
	if book.Title != "" {
		rec.Title = strptr(book.Title)
	}
	for _, a := range book.Authors {
		if a.Name != "" {
			rec.Authors = append(rec.Authors, a.Name)
		}
	}
	if desc := extractDescription(book.Description); desc != "" {
		rec.Description = strptr(desc)
	}
	if len(book.Publishers) > 0 && book.Publishers[0].Name != "" {
		rec.Publisher = strptr(book.Publishers[0].Name)
	}
	cover := book.Cover.Large
	if cover == "" {
		cover = book.Cover.Medium
	}
	if cover != "" {
		rec.CoverURL = strptr(cover)
	}
	for _, s := range book.Subjects {
		if s.Name != "" {
			rec.Categories = append(rec.Categories, s.Name)
		}
	}
	if book.NumberOfPages > 0 {
		n := book.NumberOfPages
		rec.PageCount = &n
	}
	if book.PublishDate != "" {
		rec.PublishDate = strptr(book.PublishDate)
	}

	return rec, nil
}

// extractDescription handles the two forms OpenLibrary uses: a plain string
// or an object with a "value" key.
func extractDescription(desc any) string {
	switch v := desc.(type) {
	case string:
		return v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	}
	return ""
}

func strptr(s string) *string {
	return &s
}
