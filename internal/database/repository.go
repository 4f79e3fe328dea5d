package database

import (
	"context"
	"errors"
	"time"

	"github.com/driftbooks/driftbooks-api/internal/database/models"
)

var (
	// ErrNotFound is returned for point lookups with no matching row.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateISBN is returned when a create violates the unique ISBN
	// index. The index is the authoritative duplicate guard; the
	// application-level check in the orchestrator is a fast path only.
	ErrDuplicateISBN = errors.New("isbn already registered")
)

// BookUpdate is the explicit allowlist of mutable book fields. Nil pointers
// are left untouched; a fully nil update is a no-op that returns the current
// record.
type BookUpdate struct {
	Title         *string
	Author        *string
	Description   *string
	CoverURL      *string
	SellPrice     *int64
	InStock       *bool
	Metadata      *models.BookMeta
	VibeTags      *string
	AIEnrichment  *models.Vibe
	ReviewSummary *string
	VectorID      *string
	Status        *models.Status
}

// Empty reports whether the update carries no field changes.
func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.Description == nil &&
		u.CoverURL == nil && u.SellPrice == nil && u.InStock == nil &&
		u.Metadata == nil && u.VibeTags == nil && u.AIEnrichment == nil &&
		u.ReviewSummary == nil && u.VectorID == nil && u.Status == nil
}

// ListFilter narrows admin listings. Nil fields match everything.
type ListFilter struct {
	Status  *models.Status
	InStock *bool
	Limit   int
	Offset  int
}

// SearchHit pairs a book with its relevance score. Lower scores rank higher,
// following the store's native bm25 convention.
type SearchHit struct {
	Book  *models.Book `json:"book"`
	Score float64      `json:"score"`
}

// BookRepository persists book listings and keeps the keyword search index
// in lockstep with every write.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id string) (*models.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*models.Book, error)
	Update(ctx context.Context, id string, upd BookUpdate) (*models.Book, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Book, int, error)
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	MarkSold(ctx context.Context, id string, soldAt time.Time) (*models.Book, error)
	Ping(ctx context.Context) error
}

// OrderRepository persists purchase records.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	ListOrdersByMonth(ctx context.Context, monthKey string) ([]*models.Order, error)
}
