package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftbooks/driftbooks-api/internal/database"
	"github.com/driftbooks/driftbooks-api/internal/database/models"
)

type stubRepo struct {
	hits []database.SearchHit
	err  error
}

func (s *stubRepo) Create(ctx context.Context, book *models.Book) error { return nil }
func (s *stubRepo) GetByID(ctx context.Context, id string) (*models.Book, error) {
	return nil, database.ErrNotFound
}
func (s *stubRepo) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	return nil, database.ErrNotFound
}
func (s *stubRepo) Update(ctx context.Context, id string, upd database.BookUpdate) (*models.Book, error) {
	return nil, database.ErrNotFound
}
func (s *stubRepo) List(ctx context.Context, filter database.ListFilter) ([]*models.Book, int, error) {
	return nil, 0, nil
}
func (s *stubRepo) Search(ctx context.Context, query string, limit int) ([]database.SearchHit, error) {
	return s.hits, s.err
}
func (s *stubRepo) MarkSold(ctx context.Context, id string, soldAt time.Time) (*models.Book, error) {
	return nil, database.ErrNotFound
}
func (s *stubRepo) Ping(ctx context.Context) error { return nil }

func hit(id string, score float64) database.SearchHit {
	return database.SearchHit{Book: &models.Book{ID: id}, Score: score}
}

func TestKeyword_PreservesStoreOrder(t *testing.T) {
	repo := &stubRepo{hits: []database.SearchHit{
		hit("a", -3.2), hit("b", -1.5), hit("c", -0.4),
	}}
	svc := NewService(repo)

	out, err := svc.Keyword(context.Background(), "sea voyages", 20)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Book.ID)
	assert.Equal(t, "b", out[1].Book.ID)
	assert.Equal(t, "c", out[2].Book.ID)
}

func TestKeyword_PropagatesError(t *testing.T) {
	repo := &stubRepo{err: errors.New("fts index gone")}
	svc := NewService(repo)

	_, err := svc.Keyword(context.Background(), "anything", 20)
	assert.Error(t, err)
}

func TestKeyword_EmptyResult(t *testing.T) {
	svc := NewService(&stubRepo{})

	out, err := svc.Keyword(context.Background(), "no matches", 20)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func scored(id string) Scored {
	return Scored{ID: id, Hit: hit(id, 0), Source: "test"}
}

func TestHybridMerge_SingleLegKeepsOrder(t *testing.T) {
	fused := HybridMerge([]Scored{scored("a"), scored("b"), scored("c")}, nil)

	require.Len(t, fused, 3)
	assert.Equal(t, "a", fused[0].ID)
	assert.Equal(t, "b", fused[1].ID)
	assert.Equal(t, "c", fused[2].ID)
}

func TestHybridMerge_BothLegsBoostSharedResults(t *testing.T) {
	keyword := []Scored{scored("a"), scored("shared")}
	semantic := []Scored{scored("b"), scored("shared")}

	fused := HybridMerge(keyword, semantic)

	require.Len(t, fused, 3)
	// "shared" is rank 2 in both legs: 2/(60+2) beats 1/(60+1).
	assert.Equal(t, "shared", fused[0].ID)
}

func TestHybridMerge_DeduplicatesByID(t *testing.T) {
	fused := HybridMerge([]Scored{scored("x")}, []Scored{scored("x")})
	require.Len(t, fused, 1)
	assert.Equal(t, "hybrid", fused[0].Source)
}

func TestHybridMerge_Empty(t *testing.T) {
	assert.Nil(t, HybridMerge(nil, nil))
}
