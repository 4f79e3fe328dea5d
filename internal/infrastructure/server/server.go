// Package server wires the application together and runs the HTTP API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/driftbooks/driftbooks-api/internal/assets"
	"github.com/driftbooks/driftbooks-api/internal/config"
	"github.com/driftbooks/driftbooks-api/internal/database/bunstore"
	"github.com/driftbooks/driftbooks-api/internal/enrichment"
	httpserver "github.com/driftbooks/driftbooks-api/internal/interface/http"
	"github.com/driftbooks/driftbooks-api/internal/metadata"
	"github.com/driftbooks/driftbooks-api/internal/usecase/ingest"
	"github.com/driftbooks/driftbooks-api/internal/usecase/search"
)

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	dbConn     *sql.DB
}

func New(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	ctx := context.Background()

	if level, err := logrus.ParseLevel(s.cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// ==========================================
	// Initialize Dependencies (Dependency Injection)
	// ==========================================

	var err error
	s.dbConn, err = sql.Open(sqliteshim.ShimName, s.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := s.dbConn.Close(); closeErr != nil {
			logrus.Warnf("[System] Failed to close database: %v", closeErr)
		}
	}()

	store, err := bunstore.New(s.dbConn, sqlitedialect.New())
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}

	// Metadata providers fan out concurrently inside the aggregator.
	openLibrary := metadata.NewOpenLibraryProvider(s.cfg.OpenLibraryBaseURL, s.cfg.ProviderTimeout)
	googleBooks := metadata.NewGoogleBooksProvider(s.cfg.GoogleBooksBaseURL, s.cfg.GoogleBooksAPIKey, s.cfg.ProviderTimeout)
	aggregator := metadata.NewAggregator(openLibrary, googleBooks)

	// The heuristic engine is always available; Gemini fronts it unless
	// heuristic-only mode is requested.
	heuristic := enrichment.NewHeuristicEngine()
	var remote enrichment.Engine
	if !s.cfg.UseHeuristicVibes {
		gemini, err := enrichment.NewGeminiEngine(ctx, s.cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("initializing gemini: %w", err)
		}
		defer func() { _ = gemini.Close() }()
		remote = gemini
		logrus.Info("[System] Vibe enrichment: gemini with heuristic fallback")
	} else {
		logrus.Info("[System] Vibe enrichment: heuristic only")
	}
	enricher := enrichment.NewFallbackEngine(remote, heuristic)

	// Without object storage, cover URLs stay pointed at the providers.
	var transferrer ingest.CoverTransferrer = externalCovers{}
	if s.cfg.MinioEndpoint != "" {
		objectStore, err := assets.NewMinioStore(ctx,
			s.cfg.MinioEndpoint, s.cfg.MinioAccessKey, s.cfg.MinioSecretKey,
			s.cfg.MinioBucket, s.cfg.MinioPublicURL, s.cfg.MinioUseSSL)
		if err != nil {
			return fmt.Errorf("initializing object store: %w", err)
		}
		transferrer = assets.NewTransferrer(objectStore)
		logrus.Infof("[System] Cover storage: minio bucket %q at %s", s.cfg.MinioBucket, s.cfg.MinioEndpoint)
	} else {
		logrus.Info("[System] Cover storage: disabled, keeping external URLs")
	}

	orchestrator := ingest.NewOrchestrator(store, store, aggregator, enricher, transferrer)
	searcher := search.NewService(store)

	// ==========================================
	// Initialize and Start HTTP Server
	// ==========================================

	apiServer := httpserver.NewServer(orchestrator, searcher, store)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.APIPort),
		Handler: apiServer.RegisterRoutes(),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		logrus.Infof("[System] Starting REST API Server on :%d", s.cfg.APIPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("[Error] HTTP server failed: %v", err)
		}
	}()

	<-stop
	logrus.Info("[System] Shutdown signal received. Draining connections...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("[Error] HTTP shutdown error: %v", err)
	}

	logrus.Info("[System] Server stopped gracefully.")
	return nil
}

// externalCovers satisfies the transfer seam when no object store is
// configured: the provider URL is kept as-is.
type externalCovers struct{}

func (externalCovers) Transfer(_ context.Context, _ string, srcURL string) assets.Result {
	return assets.Result{URL: srcURL}
}
