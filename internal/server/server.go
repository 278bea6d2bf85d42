// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/assistant"
	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/claims"
	"github.com/jeranaias/artdrop/internal/config"
	"github.com/jeranaias/artdrop/internal/export"
	"github.com/jeranaias/artdrop/internal/logging"
	"github.com/jeranaias/artdrop/internal/model"
	"github.com/jeranaias/artdrop/internal/session"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize caps every request body (64 KiB).
	MaxRequestBodySize = 64 * 1024

	// MaxMessageRunes caps a submitted chat message.
	MaxMessageRunes = 4096

	// DefaultClaimsLimit is how many claims GET /v1/claims returns without
	// a limit parameter.
	DefaultClaimsLimit = 50

	shutdownTimeout = 10 * time.Second
)

// Version is reported by /health. The cli sets it at startup.
var Version = "dev"

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats counts replies by source.
type Stats struct {
	local       atomic.Int64
	fallback    atomic.Int64
	unavailable atomic.Int64
	failed      atomic.Int64
	claims      atomic.Int64
	startTime   time.Time
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	TotalReplies       int64 `json:"total_replies"`
	LocalReplies       int64 `json:"local_replies"`
	FallbackReplies    int64 `json:"fallback_replies"`
	UnavailableReplies int64 `json:"unavailable_replies"`
	FailedReplies      int64 `json:"failed_replies"`
	ClaimsRecorded     int64 `json:"claims_recorded"`
	ActiveSessions     int   `json:"active_sessions"`
	LedgerClaims       *int  `json:"ledger_claims,omitempty"`
	UptimeSeconds      int64 `json:"uptime_seconds"`
}

// NewStats creates a Stats starting now.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// RecordReply counts one reply.
func (s *Stats) RecordReply(src assistant.Source) {
	switch src {
	case assistant.SourceLocal:
		s.local.Add(1)
	case assistant.SourceFallback:
		s.fallback.Add(1)
	case assistant.SourceUnavailable:
		s.unavailable.Add(1)
	default:
		s.failed.Add(1)
	}
}

// RecordClaim counts one recorded claim.
func (s *Stats) RecordClaim() { s.claims.Add(1) }

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsResponse {
	r := StatsResponse{
		LocalReplies:       s.local.Load(),
		FallbackReplies:    s.fallback.Load(),
		UnavailableReplies: s.unavailable.Load(),
		FailedReplies:      s.failed.Load(),
		ClaimsRecorded:     s.claims.Load(),
		UptimeSeconds:      int64(time.Since(s.startTime).Seconds()),
	}
	r.TotalReplies = r.LocalReplies + r.FallbackReplies + r.UnavailableReplies + r.FailedReplies
	return r
}

// ============================================================================
// SERVER
// ============================================================================

// Catalog is the catalog view the server needs. *catalog.Source
// implements it.
type Catalog interface {
	Snapshot() *catalog.Store
	Version() uint64
}

// Server is the storefront HTTP API.
type Server struct {
	cfg       config.ServerConfig
	catalog   Catalog
	assistant *assistant.Assistant
	sessions  *session.Registry
	ledger    claims.Recorder
	chain     config.ChainConfig

	stats   *Stats
	limiter *RateLimiter
	logger  *zap.Logger
	router  *http.ServeMux
	server  *http.Server
}

// NewServer creates a server answering from asst over cat. A session
// registry with the default greeting is created; see WithSessions.
func NewServer(cfg config.ServerConfig, cat Catalog, asst *assistant.Assistant, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger).Named("server")
	s := &Server{
		cfg:       cfg,
		catalog:   cat,
		assistant: asst,
		sessions:  session.NewRegistry(session.DefaultGreeting, cfg.IdleTimeout(), logger),
		stats:     NewStats(),
		limiter:   NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:    logger,
		router:    http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// WithSessions replaces the session registry.
func (s *Server) WithSessions(reg *session.Registry) *Server {
	s.sessions = reg
	return s
}

// WithLedger enables the claim endpoints. chain supplies the chain name and
// the default wallet.
func (s *Server) WithLedger(rec claims.Recorder, chain config.ChainConfig) *Server {
	s.ledger = rec
	s.chain = chain
	return s
}

// Sessions returns the session registry so its janitor can be run.
func (s *Server) Sessions() *session.Registry { return s.sessions }

// Stats returns the reply counters.
func (s *Server) Stats() *Stats { return s.stats }

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)

	s.router.HandleFunc("GET /v1/catalog", s.handleCatalog)
	s.router.HandleFunc("GET /v1/catalog/{symbol}", s.handleCatalogItem)

	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("POST /v1/sessions/{id}/toggle", s.handleToggleSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	s.router.HandleFunc("POST /v1/sessions/{id}/messages", s.handleMessage)
	s.router.HandleFunc("GET /v1/sessions/{id}/transcript", s.handleTranscript)

	s.router.HandleFunc("POST /v1/claims", s.handleCreateClaim)
	s.router.HandleFunc("GET /v1/claims", s.handleListClaims)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		CORSMiddleware(NewCORSConfig(s.cfg.CORSOrigins)),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(s.limiter),
	)(s.router)
}

// ============================================================================
// HEALTH AND STATS
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	CatalogItems       int    `json:"catalog_items"`
	CatalogVersion     uint64 `json:"catalog_version"`
	FallbackConfigured bool   `json:"fallback_configured"`
	LedgerConfigured   bool   `json:"ledger_configured"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:             "ok",
		Version:            Version,
		CatalogItems:       s.catalog.Snapshot().Len(),
		CatalogVersion:     s.catalog.Version(),
		FallbackConfigured: s.assistant.FallbackConfigured(),
		LedgerConfigured:   s.ledger != nil,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.stats.Snapshot()
	stats.ActiveSessions = s.sessions.Len()
	if c, ok := s.ledger.(claimCounter); ok {
		n, err := c.Count(r.Context())
		if err != nil {
			s.logger.Warn("count claims", zap.Error(err))
		} else {
			stats.LedgerClaims = &n
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// claimCounter is implemented by ledgers that can count every stored claim,
// including those recorded before this process started.
type claimCounter interface {
	Count(ctx context.Context) (int, error)
}

// ============================================================================
// CATALOG HANDLERS
// ============================================================================

// CatalogResponse is the body of GET /v1/catalog.
type CatalogResponse struct {
	Version uint64         `json:"version"`
	Items   []catalog.Item `json:"items"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CatalogResponse{
		Version: s.catalog.Version(),
		Items:   s.catalog.Snapshot().Items(),
	})
}

func (s *Server) handleCatalogItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.catalog.Snapshot().BySymbol(r.PathValue("symbol"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found_error", "Unknown symbol")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ============================================================================
// SESSION HANDLERS
// ============================================================================

// MessageRequest is the body of POST /v1/sessions/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// MessageResponse is returned for every well-formed message submission.
type MessageResponse struct {
	Accepted bool             `json:"accepted"`
	Reply    *assistant.Reply `json:"reply,omitempty"`
	Messages []model.Message  `json:"messages"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, sess.GetStatus())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.GetStatus())
}

func (s *Server) handleToggleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.Toggle()
	writeJSON(w, http.StatusOK, sess.GetStatus())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, "not_found_error", "Unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if utf8.RuneCountInString(req.Text) > MaxMessageRunes {
		writeError(w, http.StatusRequestEntityTooLarge, "invalid_request_error",
			fmt.Sprintf("Message exceeds %d characters", MaxMessageRunes))
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusOK, MessageResponse{Accepted: false, Messages: sess.Messages()})
		return
	}

	pending, ok := sess.Submit(req.Text)
	if !ok {
		if !sess.IsOpen() {
			writeError(w, http.StatusConflict, "conflict_error", "Session is closed")
		} else {
			writeError(w, http.StatusConflict, "conflict_error", "A reply is already pending")
		}
		return
	}

	// The reply is delivered even if the client goes away, so the session
	// never stays stuck awaiting.
	reply := s.assistant.Reply(context.WithoutCancel(r.Context()), pending.Input, pending.History)
	sess.Deliver(pending, reply.Text)
	s.stats.RecordReply(reply.Source)

	writeJSON(w, http.StatusOK, MessageResponse{
		Accepted: true,
		Reply:    &reply,
		Messages: sess.Messages(),
	})
}

// handleTranscript exports the conversation. ?format= is md (default), json
// or html.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	exporter, err := export.ForFormat(r.URL.Query().Get("format"), export.DefaultOptions())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	body, err := exporter.Export(export.NewTranscript(sess.ID(), sess.Messages()))
	if errors.Is(err, export.ErrEmptyTranscript) {
		writeError(w, http.StatusConflict, "conflict_error", "Session has no messages")
		return
	}
	if err != nil {
		s.logger.Error("transcript export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "api_error", "Export failed")
		return
	}

	w.Header().Set("Content-Type", exporter.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "transcript"+exporter.FileExtension()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found_error", "Unknown session")
		return nil, false
	}
	return sess, true
}

// ============================================================================
// CLAIM HANDLERS
// ============================================================================

// ClaimRequest is the body of POST /v1/claims. Wallet defaults to the
// configured chain wallet.
type ClaimRequest struct {
	Symbol string `json:"symbol"`
	Wallet string `json:"wallet,omitempty"`
}

func (s *Server) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "server_error", "Claim ledger not configured")
		return
	}

	var body ClaimRequest
	if !decodeBody(w, r, &body) {
		return
	}

	item, err := s.catalog.Snapshot().BySymbol(body.Symbol)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found_error", "Unknown symbol")
		return
	}

	wallet := body.Wallet
	if wallet == "" {
		wallet = s.chain.Wallet
	}

	req, err := claims.NewRequest(item, wallet, s.chain.Name)
	switch {
	case errors.Is(err, claims.ErrNoContract):
		writeError(w, http.StatusUnprocessableEntity, "invalid_request_error", "Item cannot be claimed")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	if err := s.ledger.Record(r.Context(), req); err != nil {
		s.logger.Error("failed to record claim", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to record claim")
		return
	}
	s.stats.RecordClaim()
	s.logger.Info("claim recorded",
		zap.String("id", req.ID),
		zap.String("symbol", req.Symbol),
		zap.String("chain", req.Chain))

	writeJSON(w, http.StatusAccepted, req)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "server_error", "Claim ledger not configured")
		return
	}

	limit := DefaultClaimsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request_error", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	reqs, err := s.ledger.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list claims", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to list claims")
		return
	}
	if reqs == nil {
		reqs = []claims.Request{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"claims": reqs})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Fallback replies can take a while.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", zap.String("addr", ln.Addr().String()), zap.String("version", Version))
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes {"error":{"message","type","code"}}.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    errType,
			"code":    status,
		},
	})
}

// decodeBody reads a JSON body capped at MaxRequestBodySize. It writes the
// error response itself and reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request_error", "Invalid JSON body")
		return false
	}
	return true
}
