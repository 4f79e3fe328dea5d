// Package metadata fetches bibliographic data from external providers and
// merges it under a fixed precedence policy.
package metadata

import (
	"context"
)

// Record is the bibliographic data extracted from a single provider.
// Pointer fields distinguish "not set" from "empty".
type Record struct {
	Title         *string  `json:"title,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Description   *string  `json:"description,omitempty"`
	CoverURL      *string  `json:"cover_url,omitempty"`
	Publisher     *string  `json:"publisher,omitempty"`
	PublishDate   *string  `json:"publish_date,omitempty"`
	PageCount     *int     `json:"page_count,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Language      *string  `json:"language,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	RatingsCount  *int     `json:"ratings_count,omitempty"`
}

// Provider looks up bibliographic data by normalized ISBN.
// Lookup returns (nil, nil) when the provider has no data for the
// identifier, so a miss in one provider never blocks the others.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, isbn string) (*Record, error)
}
