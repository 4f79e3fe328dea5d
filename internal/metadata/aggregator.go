package metadata

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrNoMetadata is returned when no provider has data for an identifier.
var ErrNoMetadata = errors.New("no metadata found for ISBN")

// Fetched carries the raw per-provider records so callers can expose them
// for admin inspection alongside the merged view.
type Fetched struct {
	OpenLibrary *Record `json:"openlibrary,omitempty"`
	GoogleBooks *Record `json:"google_books,omitempty"`
}

// Aggregator fans out to both providers concurrently and joins the results.
type Aggregator struct {
	openLibrary Provider
	googleBooks Provider
}

// NewAggregator wires the two providers. openLibrary is provider A,
// googleBooks is provider B in the merge precedence.
func NewAggregator(openLibrary, googleBooks Provider) *Aggregator {
	return &Aggregator{
		openLibrary: openLibrary,
		googleBooks: googleBooks,
	}
}

// Fetch issues both lookups concurrently. A failure in one provider is
// logged and treated as an absent result, never aborting the other leg.
// Only when both come back empty does Fetch fail, with ErrNoMetadata.
func (a *Aggregator) Fetch(ctx context.Context, isbn string) (*Fetched, error) {
	fetched := &Fetched{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rec, err := a.openLibrary.Lookup(ctx, isbn)
		if err != nil {
			logrus.Warnf("[Metadata] %s lookup failed for %s: %v", a.openLibrary.Name(), isbn, err)
			return nil
		}
		fetched.OpenLibrary = rec
		return nil
	})

	g.Go(func() error {
		rec, err := a.googleBooks.Lookup(ctx, isbn)
		if err != nil {
			logrus.Warnf("[Metadata] %s lookup failed for %s: %v", a.googleBooks.Name(), isbn, err)
			return nil
		}
		fetched.GoogleBooks = rec
		return nil
	})

	// Legs never return errors; Wait is just the join point.
	_ = g.Wait()

	if fetched.OpenLibrary == nil && fetched.GoogleBooks == nil {
		return nil, ErrNoMetadata
	}
	return fetched, nil
}
