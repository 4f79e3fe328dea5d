package metadata

import (
	"strings"

	"github.com/driftbooks/driftbooks-api/internal/database/models"
)

const (
	unknownTitle    = "Unknown Title"
	unknownAuthor   = "Unknown Author"
	defaultLanguage = "en"
	maxCategories   = 5
)

// Merged is the consolidated bibliographic view handed to the orchestrator.
type Merged struct {
	Title       string
	Author      string
	Description string
	CoverURL    string
	Meta        models.BookMeta
}

// Merge consolidates the two provider records. Google Books (provider B,
// the richer commercial catalog) wins field-by-field over OpenLibrary;
// missing fields fall back to the other provider, then to placeholders.
// No cover URL is ever synthesized from the ISBN alone.
func Merge(fetched *Fetched) Merged {
	a, b := fetched.OpenLibrary, fetched.GoogleBooks

	m := Merged{
		Title:       pickString(b, a, func(r *Record) *string { return r.Title }, unknownTitle),
		Description: pickString(b, a, func(r *Record) *string { return r.Description }, ""),
		CoverURL:    pickString(b, a, func(r *Record) *string { return r.CoverURL }, ""),
	}

	authors := pickSlice(b, a, func(r *Record) []string { return r.Authors })
	if len(authors) > 0 {
		m.Author = strings.Join(authors, ", ")
	} else {
		m.Author = unknownAuthor
	}

	m.Meta = models.BookMeta{
		Publisher:   pickString(b, a, func(r *Record) *string { return r.Publisher }, ""),
		PublishDate: pickString(b, a, func(r *Record) *string { return r.PublishDate }, ""),
		Language:    pickString(b, a, func(r *Record) *string { return r.Language }, defaultLanguage),
	}
	if pages := pickInt(b, a, func(r *Record) *int { return r.PageCount }); pages != nil {
		m.Meta.PageCount = *pages
	}

	categories := pickSlice(b, a, func(r *Record) []string { return r.Categories })
	if len(categories) > maxCategories {
		categories = categories[:maxCategories]
	}
	m.Meta.Categories = categories

	if rating := pickFloat(b, a, func(r *Record) *float64 { return r.AverageRating }); rating != nil {
		m.Meta.AverageRating = *rating
	}
	if count := pickInt(b, a, func(r *Record) *int { return r.RatingsCount }); count != nil {
		m.Meta.RatingsCount = *count
	}

	return m
}

func pickString(first, second *Record, get func(*Record) *string, fallback string) string {
	for _, r := range []*Record{first, second} {
		if r == nil {
			continue
		}
		if v := get(r); v != nil && *v != "" {
			return *v
		}
	}
	return fallback
}

func pickSlice(first, second *Record, get func(*Record) []string) []string {
	for _, r := range []*Record{first, second} {
		if r == nil {
			continue
		}
		if v := get(r); len(v) > 0 {
			return v
		}
	}
	return nil
}

func pickInt(first, second *Record, get func(*Record) *int) *int {
	for _, r := range []*Record{first, second} {
		if r == nil {
			continue
		}
		if v := get(r); v != nil {
			return v
		}
	}
	return nil
}

func pickFloat(first, second *Record, get func(*Record) *float64) *float64 {
	for _, r := range []*Record{first, second} {
		if r == nil {
			continue
		}
		if v := get(r); v != nil {
			return v
		}
	}
	return nil
}
