// Package httpadapter is the control surface: trigger and poll analysis runs,
// read finding statistics, expose health and metrics.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	api "tendersight/internal/api"
	"tendersight/internal/domain"
	"tendersight/internal/ports"
	"tendersight/internal/workers/analysisrunner"
)

const (
	defaultWaitSeconds = 30
	defaultStatsDays   = 7
)

// Server implements the generated StrictServerInterface.
type Server struct {
	runs     ports.RunRepository
	analyzer ports.Analyzer
	findings ports.FindingReader
	logger   zerolog.Logger
}

var _ api.StrictServerInterface = (*Server)(nil)

// New wires the handlers. findings may be nil, in which case the stats
// endpoint answers 501.
func New(runs ports.RunRepository, analyzer ports.Analyzer, findings ports.FindingReader, logger zerolog.Logger) *Server {
	return &Server{runs: runs, analyzer: analyzer, findings: findings, logger: logger}
}

// Routes returns a chi.Router mounting the generated handlers plus /metrics.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("took", d).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	handler := api.NewStrictHandlerWithOptions(s, nil, api.StrictHTTPServerOptions{
		RequestErrorHandlerFunc:  badRequest,
		ResponseErrorHandlerFunc: internalError,
	})
	api.HandlerWithOptions(handler, api.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: badRequest,
	})
	return r
}

func (s *Server) GetHealthz(context.Context, api.GetHealthzRequestObject) (api.GetHealthzResponseObject, error) {
	return api.GetHealthz200JSONResponse{Status: "ok"}, nil
}

// PostAnalyses queues a run. With wait=true the run is processed inline
// under an optional timeout (seconds) and the finished run is returned.
func (s *Server) PostAnalyses(ctx context.Context, req api.PostAnalysesRequestObject) (api.PostAnalysesResponseObject, error) {
	timeout := defaultWaitSeconds
	if req.Params.Timeout != nil {
		if *req.Params.Timeout <= 0 {
			return api.PostAnalyses400JSONResponse{Error: "timeout must be a positive number of seconds"}, nil
		}
		timeout = *req.Params.Timeout
	}

	id, err := s.runs.Create(ctx)
	if err != nil {
		return nil, err
	}
	if req.Params.Wait == nil || !*req.Params.Wait {
		return api.PostAnalyses202JSONResponse{RunId: id}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	_, err = analysisrunner.ProcessInline(runCtx, s.runs, s.analyzer, id)
	var partial *domain.PartialPersistenceError
	if err != nil && !errors.As(err, &partial) {
		body := api.Error{Error: err.Error()}
		switch {
		case errors.Is(err, domain.ErrAnalysisInProgress), errors.Is(err, domain.ErrRunNotQueued):
			return api.PostAnalyses409JSONResponse(body), nil
		case errors.Is(err, domain.ErrAnalysisTimedOut):
			zerolog.Ctx(ctx).Warn().Err(err).Str("run_id", id.String()).Msg("inline analysis timed out")
			return api.PostAnalyses504JSONResponse(body), nil
		case errors.Is(err, domain.ErrDataUnavailable):
			zerolog.Ctx(ctx).Error().Err(err).Str("run_id", id.String()).Msg("inline analysis failed")
			return api.PostAnalyses503JSONResponse(body), nil
		}
		return nil, err
	}
	st, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return api.PostAnalyses200JSONResponse(st), nil
}

func (s *Server) GetAnalysesId(ctx context.Context, req api.GetAnalysesIdRequestObject) (api.GetAnalysesIdResponseObject, error) {
	st, err := s.runs.Get(ctx, req.Id)
	if errors.Is(err, domain.ErrNotFound) {
		return api.GetAnalysesId404JSONResponse{Error: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	return api.GetAnalysesId200JSONResponse(st), nil
}

// GetFindingsStats summarizes stored findings; since_days bounds the recent
// count.
func (s *Server) GetFindingsStats(ctx context.Context, req api.GetFindingsStatsRequestObject) (api.GetFindingsStatsResponseObject, error) {
	if s.findings == nil {
		return api.GetFindingsStats501JSONResponse{Error: "finding store not configured"}, nil
	}
	days := defaultStatsDays
	if req.Params.SinceDays != nil {
		if *req.Params.SinceDays < 0 {
			return api.GetFindingsStats400JSONResponse{Error: "since_days must be a non-negative integer"}, nil
		}
		days = *req.Params.SinceDays
	}
	st, err := s.findings.Stats(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	return api.GetFindingsStats200JSONResponse(st), nil
}

// badRequest answers parameter binding failures with the API error body.
func badRequest(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(api.Error{Error: msg})
}
