package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/arena-ai/arena/pkg/budget"
	"github.com/arena-ai/arena/pkg/compare"
	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/history"
	"github.com/arena-ai/arena/pkg/models"
)

// CacheStatter reports cache statistics. Both the memory and sqlite stores
// satisfy it. The server never reads cache entries itself; the aggregator is
// the only cache layer, so hit and miss counters stay accurate.
type CacheStatter interface {
	Stats() (models.CacheStats, error)
}

// Server exposes the comparison aggregator over HTTP.
type Server struct {
	cfg      *config.Config
	agg      *compare.Aggregator
	history  history.Store
	cache    CacheStatter
	enforcer *budget.Enforcer
	mux      *http.ServeMux
}

// New creates a Server wired with all dependencies. The cache and enforcer
// may be nil. A non-nil enforcer is installed as the aggregator's dispatch
// gate, so budgets are checked before backends are queried and cached
// results are never gated.
func New(cfg *config.Config, agg *compare.Aggregator, hist history.Store, c CacheStatter, e *budget.Enforcer) *Server {
	s := &Server{
		cfg:      cfg,
		agg:      agg,
		history:  hist,
		cache:    c,
		enforcer: e,
		mux:      http.NewServeMux(),
	}
	if e != nil {
		agg.SetDispatchGate(e.Check)
	}
	s.mux.HandleFunc("/v1/compare", s.handleCompare)
	s.mux.HandleFunc("/v1/cancel", s.handleCancel)
	s.mux.HandleFunc("/v1/stats", s.handleStats)
	s.mux.HandleFunc("/v1/recent", s.handleRecent)
	s.mux.HandleFunc("/v1/budget", s.handleBudget)
	s.mux.HandleFunc("/v1/cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("/v1/cache/clear", s.handleCacheClear)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("arena listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

type compareRequest struct {
	Prompt string `json:"prompt"`
	Seed   int64  `json:"seed"`
	Stream bool   `json:"stream,omitempty"`
}

type compareResponse struct {
	Prompt     string                  `json:"prompt"`
	Seed       int64                   `json:"seed"`
	Best       models.ModelID          `json:"best"`
	DurationMs int64                   `json:"duration_ms"`
	Results    models.ComparisonResult `json:"results"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	if req.Stream {
		s.handleCompareStream(w, r, req)
		return
	}

	start := time.Now()
	result, cached, err := s.agg.Compare(r.Context(), req.Prompt, req.Seed, nil)
	if err != nil {
		writeCompareError(w, err)
		return
	}
	duration := time.Since(start)

	best := compare.BestModel(result)
	cacheState := "miss"
	if cached {
		cacheState = "hit"
	} else {
		key := models.ComparisonKey{Prompt: req.Prompt, Seed: req.Seed}
		_ = s.history.Record(r.Context(), history.NewRecord(key, result, best, duration))
	}

	w.Header().Set("X-Arena-Cache", cacheState)
	writeJSON(w, http.StatusOK, compareResponse{
		Prompt:     req.Prompt,
		Seed:       req.Seed,
		Best:       best,
		DurationMs: duration.Milliseconds(),
		Results:    result,
	})
}

// handleCompareStream runs the comparison while relaying progress events to
// the client as SSE. The final event carries the full result or the error.
func (s *Server) handleCompareStream(w http.ResponseWriter, r *http.Request, req compareRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(event string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	start := time.Now()
	result, cached, err := s.agg.Compare(r.Context(), req.Prompt, req.Seed, func(ev models.ProgressEvent) {
		writeEvent("progress", ev)
	})
	if err != nil {
		writeEvent("error", map[string]string{"message": err.Error()})
		return
	}
	duration := time.Since(start)

	best := compare.BestModel(result)
	if !cached {
		key := models.ComparisonKey{Prompt: req.Prompt, Seed: req.Seed}
		_ = s.history.Record(r.Context(), history.NewRecord(key, result, best, duration))
	}

	writeEvent("result", compareResponse{
		Prompt:     req.Prompt,
		Seed:       req.Seed,
		Best:       best,
		DurationMs: duration.Milliseconds(),
		Results:    result,
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.agg.CancelRequests()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summaries, err := s.history.Summary(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "stats query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": summaries})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comparisons": records})
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.enforcer == nil {
		writeJSON(w, http.StatusOK, map[string]any{"budgets": []models.BudgetStatus{}})
		return
	}
	statuses, err := s.enforcer.Status(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "budget query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": statuses})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.cache == nil {
		writeJSON(w, http.StatusOK, models.CacheStats{})
		return
	}
	stats, err := s.cache.Stats()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "cache stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.agg.ClearCache(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "cache clear failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeCompareError maps aggregator errors onto HTTP status codes.
func writeCompareError(w http.ResponseWriter, err error) {
	var statusErr *compare.StatusError
	var transportErr *compare.TransportError
	switch {
	case errors.Is(err, budget.ErrBudgetExceeded):
		writeJSONError(w, http.StatusTooManyRequests, "budget exceeded")
	case errors.Is(err, compare.ErrCanceled):
		writeJSONError(w, http.StatusConflict, "comparison canceled")
	case errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, http.StatusGatewayTimeout, "backend timed out")
	case errors.As(err, &statusErr), errors.As(err, &transportErr):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"code":%d}}`, message, code)
}
