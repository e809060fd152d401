package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"explorecore/internal/domain"
	"explorecore/internal/ports"
	"explorecore/internal/services/explorer"
	"explorecore/internal/workers/explorerunner"
)

const defaultWaitTimeout = 30

type Server struct {
	explorer  ports.Explorer
	validator ports.URLValidator
	jobs      ports.JobRepository
	processor explorerunner.JobProcessor
	log       *zap.Logger
}

func New(svc ports.Explorer, validator ports.URLValidator, jobs ports.JobRepository, processor explorerunner.JobProcessor, log *zap.Logger) *Server {
	if log == nil {
		log = zap.L()
	}
	return &Server{explorer: svc, validator: validator, jobs: jobs, processor: processor, log: log}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.getHealthz)
	r.Post("/explorations", s.postExploration)
	r.Get("/explorations/{id}", s.getExploration)
	r.Post("/url-checks", s.postURLCheck)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type explorationAccepted struct {
	RunID string `json:"runId"`
}

// postExploration queues a run. With wait=true it also processes the run
// inline, bounded by timeout seconds, and returns the resulting run.
func (s *Server) postExploration(w http.ResponseWriter, r *http.Request) {
	var job domain.JobData
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ctx := r.Context()
	id, err := s.explorer.Enqueue(ctx, job)
	if err != nil {
		if errors.Is(err, explorer.ErrInvalidJob) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("enqueue exploration", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not queue exploration")
		return
	}

	q := r.URL.Query()
	wait, _ := strconv.ParseBool(q.Get("wait"))
	if !wait {
		writeJSON(w, http.StatusAccepted, explorationAccepted{RunID: id})
		return
	}

	timeout := defaultWaitTimeout
	if t, err := strconv.Atoi(q.Get("timeout")); err == nil && t > 0 {
		timeout = t
	}
	ctx2, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()
	if _, err := explorerunner.ProcessInline(ctx2, s.jobs, s.processor, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			// A background worker claimed the job first.
			writeJSON(w, http.StatusAccepted, explorationAccepted{RunID: id})
			return
		}
		s.log.Warn("inline exploration failed", zap.String("run_id", id), zap.Error(err))
	}
	run, err := s.explorer.Get(ctx, id)
	if err != nil {
		s.log.Error("load exploration", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load exploration")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) getExploration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.explorer.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "exploration not found")
			return
		}
		s.log.Error("load exploration", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load exploration")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type urlCheckRequest struct {
	URL string `json:"url"`
}

func (s *Server) postURLCheck(w http.ResponseWriter, r *http.Request) {
	var req urlCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.validator.Validate(r.Context(), req.URL))
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, map[string]string{"error": msg})
}
