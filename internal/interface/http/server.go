// Package http exposes the admin and public REST surface.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/driftbooks/driftbooks-api/internal/database"
	"github.com/driftbooks/driftbooks-api/internal/database/models"
	"github.com/driftbooks/driftbooks-api/internal/metadata"
	"github.com/driftbooks/driftbooks-api/internal/usecase/ingest"
	"github.com/driftbooks/driftbooks-api/internal/usecase/search"
)

const defaultSearchLimit = 20

// Server holds the dependencies for the HTTP API server.
type Server struct {
	ingestor *ingest.Orchestrator
	searcher *search.Service
	books    database.BookRepository
}

// NewServer initializes the API server with its use-case collaborators.
func NewServer(ingestor *ingest.Orchestrator, searcher *search.Service, books database.BookRepository) *Server {
	return &Server{
		ingestor: ingestor,
		searcher: searcher,
		books:    books,
	}
}

// RegisterRoutes builds the chi router with all API endpoints.
func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/admin/books", func(r chi.Router) {
			r.Post("/", s.handleIngest)
			r.Get("/", s.handleAdminList)
			r.Patch("/{id}/approve", s.handleApprove)
			r.Delete("/{id}", s.handleReject)
			r.Post("/{id}/sale", s.handleSale)
		})

		r.Get("/books", s.handlePublicList)
		r.Get("/books/{id}", s.handlePublicGet)
		r.Get("/search", s.handleSearch)
		r.Get("/health", s.handleHealth)
	})

	return r
}

type ingestRequest struct {
	ISBN         string  `json:"isbn"`
	Condition    string  `json:"condition"`
	CostPrice    float64 `json:"cost_price"`
	CustomTitle  string  `json:"custom_title,omitempty"`
	CustomAuthor string  `json:"custom_author,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	res, err := s.ingestor.Ingest(r.Context(), ingest.Request{
		ISBN:         req.ISBN,
		Condition:    models.Condition(req.Condition),
		CostPrice:    req.CostPrice,
		CustomTitle:  req.CustomTitle,
		CustomAuthor: req.CustomAuthor,
	})
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	writeData(w, http.StatusCreated, res)
}

type approveRequest struct {
	FinalPrice  *float64 `json:"final_price,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Author      *string  `json:"author,omitempty"`
	Description *string  `json:"description,omitempty"`
	VibeTags    *string  `json:"vibe_tags,omitempty"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
	}

	book, err := s.ingestor.Approve(r.Context(), chi.URLParam(r, "id"), ingest.ApproveRequest{
		FinalPrice:  req.FinalPrice,
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		VibeTags:    req.VibeTags,
	})
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	writeData(w, http.StatusOK, book)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	book, err := s.ingestor.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"book_id": book.ID,
		"status":  book.Status,
	})
}

type saleRequest struct {
	AmountPaid float64 `json:"amount_paid,omitempty"`
	PaymentRef string  `json:"payment_ref,omitempty"`
}

func (s *Server) handleSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
	}

	book, order, err := s.ingestor.RecordSale(r.Context(), chi.URLParam(r, "id"), ingest.SaleRequest{
		AmountPaid: req.AmountPaid,
		PaymentRef: req.PaymentRef,
	})
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"book":  book,
		"order": order,
	})
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	filter := database.ListFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.Status(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("in_stock"); raw != "" {
		inStock := raw == "true" || raw == "1"
		filter.InStock = &inStock
	}

	s.writeList(w, r, filter)
}

// handlePublicList forces the live, in-stock view regardless of query
// parameters; only the admin listing sees other states.
func (s *Server) handlePublicList(w http.ResponseWriter, r *http.Request) {
	live := models.StatusLive
	inStock := true
	filter := database.ListFilter{
		Status:  &live,
		InStock: &inStock,
		Limit:   queryInt(r, "limit", 50),
		Offset:  queryInt(r, "offset", 0),
	}

	s.writeList(w, r, filter)
}

func (s *Server) writeList(w http.ResponseWriter, r *http.Request, filter database.ListFilter) {
	books, total, err := s.books.List(r.Context(), filter)
	if err != nil {
		logrus.Errorf("[Server] list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"books":    books,
		"total":    total,
		"has_more": filter.Offset+len(books) < total,
	})
}

func (s *Server) handlePublicGet(w http.ResponseWriter, r *http.Request) {
	book, err := s.books.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}

	// Anything not live reads as absent to the public surface.
	if book.Status != models.StatusLive || !book.InStock {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	writeData(w, http.StatusOK, book)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	hits, err := s.searcher.Keyword(r.Context(), query, queryInt(r, "limit", defaultSearchLimit))
	if err != nil {
		logrus.Errorf("[Server] search failed for %q: %v", query, err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"results": hits,
		"total":   len(hits),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.books.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeWorkflowError maps use-case errors onto HTTP statuses.
func (s *Server) writeWorkflowError(w http.ResponseWriter, err error) {
	var vErr *ingest.ValidationError
	var cErr *ingest.ConflictError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Reason)
	case errors.As(err, &cErr):
		writeJSON(w, http.StatusConflict, envelope{
			Success: false,
			Error:   cErr.Error(),
			Data:    map[string]string{"existing_book_id": cErr.ExistingID},
		})
	case errors.Is(err, ingest.ErrAlreadyLive):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ingest.ErrAlreadySold):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, metadata.ErrNoMetadata):
		writeError(w, http.StatusNotFound, "no metadata found for isbn")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "book not found")
	default:
		logrus.Errorf("[Server] request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
