package bunstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/driftbooks/driftbooks-api/internal/database"
	"github.com/driftbooks/driftbooks-api/internal/database/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Store implements database.BookRepository and database.OrderRepository on
// top of bun over SQLite. The keyword index is an FTS5 table kept in
// lockstep with books by triggers, so every create/update/delete maintains
// it inside the same statement. Updates are indexed as delete-then-reinsert
// because the indexed text columns are derived, not primary.
type Store struct {
	db *bun.DB
}

var searchSchema = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS book_search USING fts5(
		book_id UNINDEXED, title, author, description, vibe_tags
	)`,
	`CREATE TRIGGER IF NOT EXISTS books_search_insert AFTER INSERT ON books BEGIN
		INSERT INTO book_search(book_id, title, author, description, vibe_tags)
		VALUES (new.id, new.title, new.author, coalesce(new.description, ''), coalesce(new.vibe_tags, ''));
	END`,
	`CREATE TRIGGER IF NOT EXISTS books_search_update AFTER UPDATE ON books BEGIN
		DELETE FROM book_search WHERE book_id = old.id;
		INSERT INTO book_search(book_id, title, author, description, vibe_tags)
		VALUES (new.id, new.title, new.author, coalesce(new.description, ''), coalesce(new.vibe_tags, ''));
	END`,
	`CREATE TRIGGER IF NOT EXISTS books_search_delete AFTER DELETE ON books BEGIN
		DELETE FROM book_search WHERE book_id = old.id;
	END`,
}

// New opens a Store over an existing sql.DB and initializes the schema.
func New(sqldb *sql.DB, dialect schema.Dialect) (*Store, error) {
	bunDB := bun.NewDB(sqldb, dialect)
	ctx := context.Background()

	// WAL keeps readers unblocked during ingestion writes.
	if _, err := bunDB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := bunDB.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := bunDB.NewCreateTable().Model((*models.Book)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create books table: %w", err)
	}
	if _, err := bunDB.NewCreateTable().Model((*models.Order)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create orders table: %w", err)
	}
	for _, stmt := range searchSchema {
		if _, err := bunDB.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create search schema: %w", err)
		}
	}

	return &Store{db: bunDB}, nil
}

func (s *Store) Create(ctx context.Context, book *models.Book) error {
	now := time.Now().UTC()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	if book.UpdatedAt.IsZero() {
		book.UpdatedAt = now
	}

	if _, err := s.db.NewInsert().Model(book).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return database.ErrDuplicateISBN
		}
		return err
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Book, error) {
	book := new(models.Book)
	if err := s.db.NewSelect().Model(book).Where("id = ?", id).Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return book, nil
}

func (s *Store) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	book := new(models.Book)
	if err := s.db.NewSelect().Model(book).Where("isbn = ?", isbn).Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return book, nil
}

// Update applies the allowlisted fields and refreshes updated_at. A fully
// empty update returns the current record unchanged.
func (s *Store) Update(ctx context.Context, id string, upd database.BookUpdate) (*models.Book, error) {
	if upd.Empty() {
		return s.GetByID(ctx, id)
	}

	q := s.db.NewUpdate().Model((*models.Book)(nil)).Where("id = ?", id)

	if upd.Title != nil {
		q = q.Set("title = ?", *upd.Title)
	}
	if upd.Author != nil {
		q = q.Set("author = ?", *upd.Author)
	}
	if upd.Description != nil {
		q = q.Set("description = ?", *upd.Description)
	}
	if upd.CoverURL != nil {
		q = q.Set("cover_url = ?", *upd.CoverURL)
	}
	if upd.SellPrice != nil {
		q = q.Set("sell_price = ?", *upd.SellPrice)
	}
	if upd.InStock != nil {
		q = q.Set("in_stock = ?", *upd.InStock)
	}
	if upd.Metadata != nil {
		q = q.Set("metadata = ?", *upd.Metadata)
	}
	if upd.VibeTags != nil {
		q = q.Set("vibe_tags = ?", *upd.VibeTags)
	}
	if upd.AIEnrichment != nil {
		q = q.Set("ai_enrichment = ?", *upd.AIEnrichment)
	}
	if upd.ReviewSummary != nil {
		q = q.Set("review_summary = ?", *upd.ReviewSummary)
	}
	if upd.VectorID != nil {
		q = q.Set("vector_id = ?", *upd.VectorID)
	}
	if upd.Status != nil {
		q = q.Set("status = ?", *upd.Status)
	}
	q = q.Set("updated_at = ?", time.Now().UTC())

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, database.ErrNotFound
	}

	return s.GetByID(ctx, id)
}

func (s *Store) List(ctx context.Context, filter database.ListFilter) ([]*models.Book, int, error) {
	var books []*models.Book
	q := s.db.NewSelect().Model(&books)

	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.InStock != nil {
		q = q.Where("in_stock = ?", *filter.InStock)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	q = q.Order("created_at DESC").Limit(limit).Offset(filter.Offset)

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// Search ranks live, in-stock books by bm25 over the combined
// title/author/description/vibe_tags index. SQLite's bm25 scores are lower
// for better matches, so ascending order is the correct ranking.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]database.SearchHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT book_search.book_id, bm25(book_search) AS score
		FROM book_search
		JOIN books b ON b.id = book_search.book_id
		WHERE book_search MATCH ? AND b.status = ? AND b.in_stock = 1
		ORDER BY score ASC
		LIMIT ?`, match, models.StatusLive, limit)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var (
		ids    []string
		scores = make(map[string]float64)
	)
	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}
		ids = append(ids, id)
		scores[id] = score
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var books []*models.Book
	if err := s.db.NewSelect().Model(&books).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	hits := make([]database.SearchHit, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			hits = append(hits, database.SearchHit{Book: b, Score: scores[id]})
		}
	}
	return hits, nil
}

func (s *Store) MarkSold(ctx context.Context, id string, soldAt time.Time) (*models.Book, error) {
	res, err := s.db.NewUpdate().Model((*models.Book)(nil)).
		Set("status = ?", models.StatusSold).
		Set("in_stock = ?", false).
		Set("sold_at = ?", soldAt).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, database.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NewInsert().Model(order).Exec(ctx)
	return err
}

func (s *Store) ListOrdersByMonth(ctx context.Context, monthKey string) ([]*models.Order, error) {
	var orders []*models.Order
	if err := s.db.NewSelect().Model(&orders).
		Where("month_key = ?", monthKey).
		Order("created_at ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	return orders, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ftsQuery turns free text into an FTS5 MATCH expression. Each term is
// quoted so user punctuation cannot change the query syntax.
func ftsQuery(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " ")
}
