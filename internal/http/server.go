// Package http exposes the synced state and the write workflows over a
// JSON API. Read endpoints compute from the current mirror snapshot;
// the dashboard payload is cached per state revision so repeated polls
// between pushes reuse one computation.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"atlas/internal/cache"
	"atlas/internal/export"
	"atlas/internal/log"
	appsync "atlas/internal/sync"
	"atlas/internal/workflow"
)

type Server struct {
	http.Server

	sync     *appsync.Sync
	workflow *workflow.Workflow
	sheets   export.RowWriter
	logger   *log.Logger

	horizonDays int
	dashboards  *cache.LRU[dashboardView]
}

// Options carries the optional server dependencies. Sheets may be nil
// when no spreadsheet is configured; the export endpoint then reports
// the feature as unavailable.
type Options struct {
	Sheets            export.RowWriter
	HorizonDays       int
	DashboardCacheTTL time.Duration
	Logger            *log.Logger
}

func NewServer(addr string, sy *appsync.Sync, wf *workflow.Workflow, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 15
	}
	if opts.DashboardCacheTTL <= 0 {
		opts.DashboardCacheTTL = 30 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		Server:      http.Server{Addr: addr, Handler: mux},
		sync:        sy,
		workflow:    wf,
		sheets:      opts.Sheets,
		logger:      opts.Logger,
		horizonDays: opts.HorizonDays,
		dashboards:  cache.NewLRU[dashboardView](32, opts.DashboardCacheTTL),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard", s.withRequestLog(s.handleDashboard))
	mux.HandleFunc("GET /api/receivables", s.withRequestLog(s.handleReceivables))
	mux.HandleFunc("GET /api/notifications", s.withRequestLog(s.handleNotifications))
	mux.HandleFunc("GET /api/installments", s.withRequestLog(s.handleListInstallments))
	mux.HandleFunc("GET /api/quotes", s.withRequestLog(s.handleListQuotes))
	mux.HandleFunc("GET /api/clients", s.withRequestLog(s.handleListClients))
	mux.HandleFunc("GET /api/categories", s.withRequestLog(s.handleCategories))

	mux.HandleFunc("POST /api/clients", s.withRequestLog(s.handleCreateClient))
	mux.HandleFunc("POST /api/clients/{id}", s.withRequestLog(s.handleUpdateClient))
	mux.HandleFunc("POST /api/clients/delete", s.withRequestLog(s.handleDeleteClients))
	mux.HandleFunc("POST /api/expenses", s.withRequestLog(s.handleCreateExpense))
	mux.HandleFunc("POST /api/expenses/delete", s.withRequestLog(s.handleDeleteExpenses))
	mux.HandleFunc("POST /api/quotes", s.withRequestLog(s.handleSaveQuote))
	mux.HandleFunc("POST /api/quotes/{id}/convert", s.withRequestLog(s.handleConvertQuote))
	mux.HandleFunc("POST /api/quotes/{id}/status", s.withRequestLog(s.handleQuoteStatus))
	mux.HandleFunc("DELETE /api/quotes/{id}", s.withRequestLog(s.handleDeleteQuote))
	mux.HandleFunc("POST /api/sales", s.withRequestLog(s.handleCreateSale))
	mux.HandleFunc("POST /api/installments/mark-paid", s.withRequestLog(s.handleMarkPaid))
	mux.HandleFunc("POST /api/installments/delete", s.withRequestLog(s.handleDeleteInstallments))
	mux.HandleFunc("POST /api/onboarding/complete", s.withRequestLog(s.handleCompleteOnboarding))

	mux.HandleFunc("GET /api/export/receivables.csv", s.withRequestLog(s.handleExportReceivables))
	mux.HandleFunc("GET /api/export/clients.csv", s.withRequestLog(s.handleExportClients))
	mux.HandleFunc("POST /api/export/sheets", s.withRequestLog(s.handleExportSheets))

	return s
}

// withRequestLog logs start and completion of every API request and
// sets the usual hardening headers.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := newRequestID()

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		s.logger.Info("request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once every collection has delivered its
// first snapshot.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.sync.Loaded() {
		http.Error(w, "initial sync in progress", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", log.FieldError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}
