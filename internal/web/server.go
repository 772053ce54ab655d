// Package web provides the JSON HTTP API for tax appeals.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/tax-appeal/internal/evidence"
	"github.com/evcraddock/tax-appeal/internal/logging"
	"github.com/evcraddock/tax-appeal/internal/market"
	"github.com/evcraddock/tax-appeal/internal/narrative"
	"github.com/evcraddock/tax-appeal/internal/packet"
	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workup"
)

// Config holds server configuration.
type Config struct {
	Options        valuation.Options
	MarketURL      string
	MarketAPIKey   string
	AnthropicKey   string
	NarrativeModel string
}

// Server is the API HTTP server.
type Server struct {
	properties *property.Service
	workups    *workup.Service
	evidence   *evidence.Repository
	packets    *packet.Service
	market     *market.Client
	mux        *http.ServeMux
	handler    http.Handler
}

// NewServer creates an API server over the given database.
func NewServer(db *sql.DB, cfg Config) *Server {
	propRepo := property.NewRepository(db)
	workups := workup.NewService(workup.NewRepository(db), propRepo, cfg.Options)
	ev := evidence.NewRepository(db)
	narratives := narrative.NewGenerator(cfg.AnthropicKey, cfg.NarrativeModel, narrative.NewCache(db))

	s := &Server{
		properties: property.NewService(propRepo),
		workups:    workups,
		evidence:   ev,
		packets:    packet.NewService(propRepo, workups, ev, narratives),
		market:     market.NewClient(cfg.MarketURL, cfg.MarketAPIKey),
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/properties", s.handleAPIProperties)
	s.mux.HandleFunc("/api/properties/", s.handleAPIProperties)

	s.handler = logging.RequestLogger(s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	slog.Info("api stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleAPIProperties routes /api/properties and /api/properties/{id}/*.
func (s *Server) handleAPIProperties(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/properties")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListProperties(w, r)
		case http.MethodPost:
			s.apiAddProperty(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	parts := strings.Split(path, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		apiError(w, "invalid property ID", http.StatusBadRequest)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.apiGetProperty(w, r, id)
		case http.MethodPut:
			s.apiUpdateProperty(w, r, id)
		case http.MethodDelete:
			s.apiDeleteProperty(w, id)
		default:
			methodNotAllowed(w)
		}
		return
	}

	rest := parts[2:]
	switch parts[1] {
	case "workup":
		s.routeWorkup(w, r, id, rest)
	case "comparables":
		s.routeComparables(w, r, id, rest)
	case "cost":
		s.onlyMethod(w, r, http.MethodPut, rest, func() { s.apiSetCost(w, r, id) })
	case "income":
		s.onlyMethod(w, r, http.MethodPut, rest, func() { s.apiSetIncome(w, r, id) })
	case "weights":
		s.onlyMethod(w, r, http.MethodPut, rest, func() { s.apiSetWeight(w, r, id) })
	case "stage":
		s.onlyMethod(w, r, http.MethodPut, rest, func() { s.apiSetStage(w, r, id) })
	case "evidence":
		s.routeEvidence(w, r, id, rest)
	case "savings":
		s.onlyMethod(w, r, http.MethodGet, rest, func() { s.apiSavings(w, r, id) })
	case "packet":
		s.onlyMethod(w, r, http.MethodGet, rest, func() { s.apiPacket(w, r, id) })
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// onlyMethod runs fn for a leaf route that accepts a single method.
func (s *Server) onlyMethod(w http.ResponseWriter, r *http.Request, method string, rest []string, fn func()) {
	if len(rest) > 0 {
		apiError(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != method {
		methodNotAllowed(w)
		return
	}
	fn()
}
