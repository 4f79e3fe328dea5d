// Package ingest orchestrates the book registration pipeline and the
// approval workflow around it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/driftbooks/driftbooks-api/internal/assets"
	"github.com/driftbooks/driftbooks-api/internal/database"
	"github.com/driftbooks/driftbooks-api/internal/database/models"
	"github.com/driftbooks/driftbooks-api/internal/enrichment"
	"github.com/driftbooks/driftbooks-api/internal/isbn"
	"github.com/driftbooks/driftbooks-api/internal/metadata"
	"github.com/driftbooks/driftbooks-api/internal/pricing"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MetadataFetcher is the aggregator seam.
type MetadataFetcher interface {
	Fetch(ctx context.Context, isbn string) (*metadata.Fetched, error)
}

// CoverTransferrer is the best-effort asset seam.
type CoverTransferrer interface {
	Transfer(ctx context.Context, bookID, srcURL string) assets.Result
}

// Request is the operator's ingestion input. CostPrice is in major currency
// units at this boundary and converted to minor units before storage.
type Request struct {
	ISBN         string
	Condition    models.Condition
	CostPrice    float64
	CustomTitle  string
	CustomAuthor string
}

// Result bundles the created record, the raw provider records for admin
// inspection, the suggested price in major units for display, and any soft
// errors accumulated along the way.
type Result struct {
	Book           *models.Book      `json:"book"`
	Metadata       *metadata.Fetched `json:"metadata"`
	SuggestedPrice float64           `json:"suggested_price"`
	Errors         []string          `json:"errors,omitempty"`
}

// ApproveRequest carries the optional overrides applied while taking a book
// live. FinalPrice is in major units.
type ApproveRequest struct {
	FinalPrice  *float64
	Title       *string
	Author      *string
	Description *string
	VibeTags    *string
}

// SaleRequest records an external purchase event. AmountPaid is in major
// units; zero means "the listed sell price".
type SaleRequest struct {
	AmountPaid float64
	PaymentRef string
}

// Orchestrator drives the pipeline:
// validate → duplicate check → fetch → merge → enrich → price → persist →
// transfer cover. Enrichment and the cover transfer are best-effort; their
// failures surface as soft errors on an otherwise successful result.
type Orchestrator struct {
	books       database.BookRepository
	orders      database.OrderRepository
	fetcher     MetadataFetcher
	enricher    enrichment.Engine
	transferrer CoverTransferrer
}

// NewOrchestrator wires the pipeline's collaborators.
func NewOrchestrator(
	books database.BookRepository,
	orders database.OrderRepository,
	fetcher MetadataFetcher,
	enricher enrichment.Engine,
	transferrer CoverTransferrer,
) *Orchestrator {
	return &Orchestrator{
		books:       books,
		orders:      orders,
		fetcher:     fetcher,
		enricher:    enricher,
		transferrer: transferrer,
	}
}

// Ingest registers a book by ISBN. The returned Result is only non-nil on
// success; hard failures are ValidationError, ConflictError,
// metadata.ErrNoMetadata, or a wrapped persistence error.
func (o *Orchestrator) Ingest(ctx context.Context, req Request) (*Result, error) {
	normalized, err := isbn.Normalize(req.ISBN)
	if err != nil {
		return nil, &ValidationError{Reason: "isbn must normalize to 10 or 13 characters"}
	}
	if req.CostPrice <= 0 {
		return nil, &ValidationError{Reason: "cost_price must be positive"}
	}
	if !req.Condition.Valid() {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown condition %q", req.Condition)}
	}
	costMinor := int64(math.Round(req.CostPrice * 100))

	// Fast-path duplicate check; the unique index on isbn is the
	// authoritative guard for the check-then-write race.
	existing, err := o.books.GetByISBN(ctx, normalized)
	if err == nil {
		return nil, &ConflictError{ExistingID: existing.ID}
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}

	fetched, err := o.fetcher.Fetch(ctx, normalized)
	if err != nil {
		return nil, err
	}
	merged := metadata.Merge(fetched)

	// Caller-supplied values win over anything the providers said.
	if req.CustomTitle != "" {
		merged.Title = req.CustomTitle
	}
	if req.CustomAuthor != "" {
		merged.Author = req.CustomAuthor
	}

	var softErrors []string

	vibe, err := o.enricher.Analyze(ctx, enrichment.Input{
		Title:       merged.Title,
		Author:      merged.Author,
		Description: merged.Description,
	})
	if err != nil {
		logrus.Warnf("[Ingest] enrichment failed for %s: %v", normalized, err)
		softErrors = append(softErrors, fmt.Sprintf("enrichment failed: %v", err))
		vibe = &models.Vibe{}
	}

	sellMinor, err := pricing.Suggest(costMinor, req.Condition)
	if err != nil {
		return nil, fmt.Errorf("pricing failed: %w", err)
	}

	book := &models.Book{
		ID:           uuid.NewString(),
		ISBN:         normalized,
		Title:        merged.Title,
		Author:       merged.Author,
		Description:  merged.Description,
		CoverURL:     merged.CoverURL,
		Condition:    req.Condition,
		CostPrice:    costMinor,
		SellPrice:    sellMinor,
		InStock:      true,
		Metadata:     merged.Meta,
		VibeTags:     vibeTagString(vibe),
		AIEnrichment: *vibe,
		Status:       models.StatusPendingReview,
	}

	if err := o.books.Create(ctx, book); err != nil {
		if errors.Is(err, database.ErrDuplicateISBN) {
			// Lost the race to a concurrent ingestion of the same ISBN.
			if winner, lookupErr := o.books.GetByISBN(ctx, normalized); lookupErr == nil {
				return nil, &ConflictError{ExistingID: winner.ID}
			}
			return nil, &ConflictError{}
		}
		return nil, fmt.Errorf("failed to persist book: %w", err)
	}
	logrus.Infof("[Ingest] created book %s (%s) as %s", book.ID, normalized, book.Status)

	if book.CoverURL != "" {
		res := o.transferrer.Transfer(ctx, book.ID, book.CoverURL)
		if res.Degraded {
			logrus.Warnf("[Ingest] cover transfer degraded for %s: %v", book.ID, res.Cause)
			softErrors = append(softErrors, fmt.Sprintf("cover transfer failed: %v", res.Cause))
		} else if res.URL != book.CoverURL {
			updated, err := o.books.Update(ctx, book.ID, database.BookUpdate{CoverURL: &res.URL})
			if err != nil {
				softErrors = append(softErrors, fmt.Sprintf("cover reference update failed: %v", err))
			} else {
				book = updated
			}
		}
	}

	return &Result{
		Book:           book,
		Metadata:       fetched,
		SuggestedPrice: float64(sellMinor) / 100.0,
		Errors:         softErrors,
	}, nil
}

// Approve moves a pending book live, optionally overriding the sale price
// and descriptive fields. Approving an already-live book is an error, not a
// no-op.
func (o *Orchestrator) Approve(ctx context.Context, id string, req ApproveRequest) (*models.Book, error) {
	book, err := o.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.Status == models.StatusLive {
		return nil, ErrAlreadyLive
	}

	status := models.StatusLive
	upd := database.BookUpdate{
		Status:      &status,
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		VibeTags:    req.VibeTags,
	}
	if req.FinalPrice != nil {
		minor := int64(math.Round(*req.FinalPrice * 100))
		upd.SellPrice = &minor
	}

	updated, err := o.books.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	logrus.Infof("[Ingest] approved book %s", id)
	return updated, nil
}

// Reject removes a book from circulation. The status is set unconditionally,
// so rejecting an already-removed book is harmless.
func (o *Orchestrator) Reject(ctx context.Context, id string) (*models.Book, error) {
	if _, err := o.books.GetByID(ctx, id); err != nil {
		return nil, err
	}

	status := models.StatusRemoved
	updated, err := o.books.Update(ctx, id, database.BookUpdate{Status: &status})
	if err != nil {
		return nil, err
	}
	logrus.Infof("[Ingest] rejected book %s", id)
	return updated, nil
}

// RecordSale marks a book sold and writes the matching order with a
// year-month batch key. It records the external purchase event only;
// payment processing lives elsewhere.
func (o *Orchestrator) RecordSale(ctx context.Context, id string, req SaleRequest) (*models.Book, *models.Order, error) {
	book, err := o.books.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if book.Status == models.StatusSold || !book.InStock {
		return nil, nil, ErrAlreadySold
	}

	amountMinor := book.SellPrice
	if req.AmountPaid > 0 {
		amountMinor = int64(math.Round(req.AmountPaid * 100))
	}

	now := time.Now().UTC()
	sold, err := o.books.MarkSold(ctx, id, now)
	if err != nil {
		return nil, nil, err
	}

	order := &models.Order{
		ID:         uuid.NewString(),
		BookID:     id,
		AmountPaid: amountMinor,
		PaymentRef: req.PaymentRef,
		MonthKey:   now.Format("2006-01"),
	}
	if err := o.orders.CreateOrder(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("failed to record order: %w", err)
	}

	logrus.Infof("[Ingest] recorded sale of book %s (order %s)", id, order.ID)
	return sold, order, nil
}

// vibeTagString flattens the structured vibe into the short text tag column
// that feeds the keyword search index.
func vibeTagString(v *models.Vibe) string {
	var parts []string
	parts = append(parts, v.EmotionalTones...)
	parts = append(parts, v.Atmosphere...)
	parts = append(parts, v.Themes...)
	return strings.Join(parts, ", ")
}
