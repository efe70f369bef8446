// Package api serves the planning service over HTTP. Read endpoints
// are public; optimization and cancel endpoints require a bearer token
// when one is configured and are rate limited.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/cropplan/internal/export"
	"github.com/talgya/cropplan/internal/jobs"
	"github.com/talgya/cropplan/internal/metrics"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/planner"
	"github.com/talgya/cropplan/internal/store"
	"github.com/talgya/cropplan/internal/templates"
)

// Version is stamped at build time.
var Version = "dev"

// Server is the HTTP surface over the solver and job backend.
type Server struct {
	Solver  *planner.Solver
	Backend jobs.Backend
	Catalog *templates.Catalog

	// Blobs receives CSV exports; nil disables upload and exports are
	// returned inline only.
	Blobs store.BlobStore

	AuthToken    string
	MaxBodyBytes int64
	SyncEnabled  bool
	SyncTimeout  time.Duration
	CORSOrigins  []string

	RateLimit       int
	RateLimitWindow time.Duration
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	limiter := NewRateLimiter(s.rateLimit(), s.rateWindow())

	mux := http.NewServeMux()

	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/version", s.handleVersion)

	mux.HandleFunc("/v1/optimize", RateLimitMiddleware(limiter, s.authed(s.handleOptimize)))
	mux.HandleFunc("/v1/optimize/async", RateLimitMiddleware(limiter, s.authed(s.handleOptimizeAsync)))
	mux.HandleFunc("/v1/jobs/", s.handleJobRoutes)

	mux.HandleFunc("/v1/templates", s.handleTemplates)
	mux.HandleFunc("/v1/templates/", s.handleTemplateRoutes)

	mux.HandleFunc("/v1/exports", s.authed(s.handleExport))
	mux.HandleFunc("/v1/metrics/timeline", s.handleTimelineMetrics)

	return s.corsMiddleware(mux)
}

func (s *Server) rateLimit() int {
	if s.RateLimit > 0 {
		return s.RateLimit
	}
	return 120
}

func (s *Server) rateWindow() time.Duration {
	if s.RateLimitWindow > 0 {
		return s.RateLimitWindow
	}
	return time.Minute
}

// corsMiddleware allows the configured frontend origins; localhost dev
// servers are always allowed.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range s.CORSOrigins {
		allowed[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key, X-Idempotency-Key")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authed requires the bearer token on mutating methods when a token is
// configured.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AuthToken != "" && r.Method != http.MethodGet {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AuthToken {
				writeProblem(w, http.StatusUnauthorized, "unauthorized", "")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

// decodeRequest reads and validates an optimization request body,
// filling the idempotency key from headers when the body omits it.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*plan.OptimizationRequest, bool) {
	body := http.MaxBytesReader(w, r.Body, s.maxBody())
	defer body.Close()

	var req plan.OptimizationRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "request body too large",
				fmt.Sprintf("limit is %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeProblem(w, http.StatusBadRequest, "invalid json", err.Error())
		return nil, false
	}
	if req.Plan == nil {
		writeProblem(w, http.StatusBadRequest, "missing plan", "request body must carry a plan")
		return nil, false
	}

	if req.IdempotencyKey == "" {
		if key := r.Header.Get("Idempotency-Key"); key != "" {
			req.IdempotencyKey = key
		} else if key := r.Header.Get("X-Idempotency-Key"); key != "" {
			req.IdempotencyKey = key
		}
	}

	if err := plan.Validate(req.Plan); err != nil {
		var verr *plan.ValidationError
		if errors.As(err, &verr) {
			writeValidation(w, verr)
		} else {
			writeProblem(w, http.StatusUnprocessableEntity, "invalid plan", err.Error())
		}
		return nil, false
	}
	return &req, true
}

func (s *Server) maxBody() int64 {
	if s.MaxBodyBytes > 0 {
		return s.MaxBodyBytes
	}
	return 4 << 20
}

// handleOptimize runs a solve inline and returns the result. When the
// sync budget runs out the response is an in-band timeout; the solve
// goroutine unwinds on its own solver deadline shortly after.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if !s.SyncEnabled {
		writeProblem(w, http.StatusServiceUnavailable, "synchronous optimization disabled",
			"submit to /v1/optimize/async instead")
		return
	}
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	budget := s.SyncTimeout
	if budget <= 0 {
		budget = 30 * time.Second
	}

	done := make(chan *plan.OptimizationResult, 1)
	go func() {
		res, err := s.Solver.Solve(req, nil)
		if err != nil {
			slog.Error("sync solve failed", "error", err)
			res = &plan.OptimizationResult{
				Status:   plan.ResultError,
				Solution: map[string]any{},
				Stats:    map[string]any{},
				Warnings: []string{err.Error()},
			}
		}
		done <- res
	}()

	select {
	case res := <-done:
		writeJSON(w, http.StatusOK, res)
	case <-time.After(budget):
		writeJSON(w, http.StatusOK, &plan.OptimizationResult{
			Status:   plan.ResultTimeout,
			Solution: map[string]any{},
			Stats:    map[string]any{},
			Warnings: []string{"synchronous budget exhausted before the solve finished"},
		})
	}
}

func (s *Server) handleOptimizeAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	info, err := s.Backend.Enqueue(r.Context(), req)
	if err != nil {
		slog.Error("enqueue failed", "error", err)
		writeProblem(w, http.StatusInternalServerError, "enqueue failed", "")
		return
	}
	writeJSON(w, http.StatusAccepted, info)
}

// handleJobRoutes dispatches GET and DELETE on /v1/jobs/{id}.
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "not found", "")
		return
	}

	switch r.Method {
	case http.MethodGet:
		info, err := s.Backend.Get(r.Context(), id)
		if err != nil {
			s.jobError(w, id, err)
			return
		}
		writeJSON(w, http.StatusOK, info)

	case http.MethodDelete:
		s.authed(func(w http.ResponseWriter, r *http.Request) {
			info, err := s.Backend.Cancel(r.Context(), id)
			if err != nil {
				s.jobError(w, id, err)
				return
			}
			writeJSON(w, http.StatusAccepted, info)
		})(w, r)

	default:
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) jobError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "job not found", id)
		return
	}
	slog.Error("job lookup failed", "job_id", id, "error", err)
	writeProblem(w, http.StatusInternalServerError, "job lookup failed", "")
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.List())
}

// handleTemplateRoutes dispatches /v1/templates/{id} and
// /v1/templates/{id}/instantiate.
func (s *Server) handleTemplateRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/templates/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		t := s.Catalog.Get(parts[0])
		if t == nil {
			writeProblem(w, http.StatusNotFound, "template not found", parts[0])
			return
		}
		writeJSON(w, http.StatusOK, t)

	case len(parts) == 2 && parts[1] == "instantiate":
		if r.Method != http.MethodPost {
			writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
			return
		}
		var params templates.Params
		if err := json.NewDecoder(io.LimitReader(r.Body, s.maxBody())).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
			writeProblem(w, http.StatusBadRequest, "invalid json", err.Error())
			return
		}
		p, err := s.Catalog.Instantiate(parts[0], params)
		if err != nil {
			writeProblem(w, http.StatusNotFound, "template not found", parts[0])
			return
		}
		writeJSON(w, http.StatusOK, p)

	default:
		writeProblem(w, http.StatusNotFound, "not found", "")
	}
}

// handleExport renders a timeline to CSV. With a blob store attached
// the file is uploaded and its key returned; otherwise the CSV comes
// back inline.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var body struct {
		Timeline *plan.Timeline `json:"timeline"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, s.maxBody())).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}
	if body.Timeline == nil {
		writeProblem(w, http.StatusBadRequest, "missing timeline", "")
		return
	}

	data, err := export.TimelineCSV(body.Timeline)
	if err != nil {
		slog.Error("export failed", "error", err)
		writeProblem(w, http.StatusInternalServerError, "export failed", "")
		return
	}

	if s.Blobs != nil {
		key, err := export.Upload(r.Context(), s.Blobs, data)
		if err != nil {
			slog.Error("export upload failed", "error", err)
			writeProblem(w, http.StatusInternalServerError, "export upload failed", "")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleTimelineMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var body struct {
		Timeline *plan.Timeline `json:"timeline"`
		NumDays  int            `json:"num_days"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, s.maxBody())).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}
	if body.Timeline == nil || body.NumDays <= 0 {
		writeProblem(w, http.StatusBadRequest, "missing timeline or num_days", "")
		return
	}
	writeJSON(w, http.StatusOK, metrics.FromTimeline(body.Timeline, body.NumDays))
}
