// Package search serves keyword queries over live stock and hosts the
// hybrid-score merge for the future semantic path.
package search

import (
	"context"
	"sort"

	"github.com/driftbooks/driftbooks-api/internal/database"
)

// Scored is a search hit in a source-neutral shape so keyword and semantic
// legs can be fused.
type Scored struct {
	ID     string
	Hit    database.SearchHit
	Score  float64
	Source string
}

// Service answers public search queries.
type Service struct {
	books database.BookRepository
}

// NewService creates the search service over the book store.
func NewService(books database.BookRepository) *Service {
	return &Service{books: books}
}

// Keyword runs a bm25-ranked query over live, in-stock books. The store
// returns hits ascending by score (lower = more relevant) and that order is
// preserved as-is.
func (s *Service) Keyword(ctx context.Context, query string, limit int) ([]database.SearchHit, error) {
	hits, err := s.books.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	// Fuse through the hybrid merge so the ranking path stays identical
	// once a semantic leg exists. With one leg the per-source order is
	// unchanged.
	keyword := make([]Scored, 0, len(hits))
	for _, h := range hits {
		keyword = append(keyword, Scored{ID: h.Book.ID, Hit: h, Score: h.Score, Source: "keyword"})
	}
	fused := HybridMerge(keyword, nil)

	out := make([]database.SearchHit, 0, len(fused))
	for _, f := range fused {
		out = append(out, f.Hit)
	}
	return out, nil
}

// rrfK dampens the rank contribution in reciprocal rank fusion.
const rrfK = 60.0

// HybridMerge ensembles keyword and semantic hits with reciprocal rank
// fusion: fused score = sum over legs of 1/(k + rank). Each input slice must
// already be ordered most-relevant-first. Results appearing in both legs are
// deduplicated by id and rank higher than single-leg results of equal rank.
func HybridMerge(keyword, semantic []Scored) []Scored {
	if len(keyword) == 0 && len(semantic) == 0 {
		return nil
	}

	fusedScores := make(map[string]float64)
	byID := make(map[string]Scored)
	var order []string

	for _, leg := range [][]Scored{keyword, semantic} {
		for rank, s := range leg {
			fusedScores[s.ID] += 1.0 / (rrfK + float64(rank+1))
			if _, seen := byID[s.ID]; !seen {
				byID[s.ID] = s
				order = append(order, s.ID)
			}
		}
	}

	fused := make([]Scored, 0, len(order))
	for _, id := range order {
		s := byID[id]
		s.Score = fusedScores[id]
		s.Source = "hybrid"
		fused = append(fused, s)
	}

	// RRF scores are "higher is better"; ties keep first-seen order.
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}
