// Package analysis runs scoring passes: load a record snapshot, fan it out to
// every detector, aggregate the findings and hand them to the persistence
// gateway.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"tendersight/internal/domain"
	"tendersight/internal/ports"
	"tendersight/internal/services/aggregator"
	"tendersight/internal/services/detectors"
)

// State is the engine lifecycle.
type State int32

const (
	Idle State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

const defaultTopN = 20

// Engine is the orchestrator. It is safe for concurrent use; overlapping
// passes are rejected with domain.ErrAnalysisInProgress.
type Engine struct {
	source    ports.RecordSource
	sink      ports.FindingSink
	detectors []detectors.Detector

	timeout time.Duration
	topN    int
	filter  domain.RecordFilter
	clock   func() time.Time
	logger  zerolog.Logger
	tracer  trace.Tracer

	running atomic.Bool
	mu      sync.Mutex
	state   State
}

type Option func(*Engine)

// WithTimeout bounds every pass. Zero leaves only the caller's deadline.
func WithTimeout(d time.Duration) Option { return func(e *Engine) { e.timeout = d } }

// WithTopN sets how many ranked findings the report carries.
func WithTopN(n int) Option { return func(e *Engine) { e.topN = n } }

func WithFilter(f domain.RecordFilter) Option { return func(e *Engine) { e.filter = f } }

func WithClock(c func() time.Time) Option { return func(e *Engine) { e.clock = c } }

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.logger = l } }

func New(source ports.RecordSource, sink ports.FindingSink, ds []detectors.Detector, opts ...Option) *Engine {
	e := &Engine{
		source:    source,
		sink:      sink,
		detectors: ds,
		topN:      defaultTopN,
		clock:     time.Now,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer("tendersight/analysis"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// State reports where the engine is in its lifecycle.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run performs one pass. On *domain.PartialPersistenceError the returned
// report is complete and reflects what was stored.
func (e *Engine) Run(ctx context.Context) (domain.AnalysisReport, error) {
	if !e.running.CompareAndSwap(false, true) {
		return domain.AnalysisReport{}, domain.ErrAnalysisInProgress
	}
	defer e.running.Store(false)
	e.setState(Running)

	report, err := e.run(ctx)
	outcome := "completed"
	var partial *domain.PartialPersistenceError
	switch {
	case err == nil:
	case errors.As(err, &partial):
		outcome = "partial"
	case errors.Is(err, domain.ErrAnalysisTimedOut):
		outcome = "timeout"
	default:
		outcome = "failed"
	}
	runsTotal.WithLabelValues(outcome).Inc()
	if err != nil && partial == nil {
		e.setState(Failed)
		return domain.AnalysisReport{}, err
	}
	e.setState(Completed)
	return report, err
}

func (e *Engine) run(ctx context.Context) (domain.AnalysisReport, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	runID, ok := ports.RunIDFrom(ctx)
	if !ok {
		runID = uuid.New()
	}
	logger := e.logger.With().Str("run_id", runID.String()).Logger()
	ctx = logger.WithContext(ctx)
	ctx, span := e.tracer.Start(ctx, "analysis.run", trace.WithAttributes(attribute.String("run_id", runID.String())))
	defer span.End()

	begin := time.Now()
	started := e.clock()
	filter := e.filter
	filter.Now = started

	records, err := e.source.Records(ctx, filter)
	if err != nil {
		if ctx.Err() != nil {
			return domain.AnalysisReport{}, e.abort(ctx, span, logger)
		}
		if !errors.Is(err, domain.ErrDataUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
		}
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Msg("record snapshot could not be loaded")
		return domain.AnalysisReport{}, err
	}
	recordsLoaded.Set(float64(len(records)))
	logger.Info().Int("records", len(records)).Int("detectors", len(e.detectors)).Msg("analysis started")

	results := make([][]domain.Finding, len(e.detectors))
	failures := make([]error, len(e.detectors))
	var g errgroup.Group
	for i, d := range e.detectors {
		g.Go(func() error {
			results[i], failures[i] = e.runDetector(ctx, d, records)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return domain.AnalysisReport{}, e.abort(ctx, span, logger)
	}

	degraded := make(map[domain.Kind]string)
	var all []domain.Finding
	for i, d := range e.detectors {
		if failures[i] != nil {
			degraded[d.Kind()] = failures[i].Error()
			detectorFailures.WithLabelValues(string(d.Kind())).Inc()
			logger.Warn().Err(failures[i]).Str("detector", string(d.Kind())).Msg("detector failed, pass continues without it")
			continue
		}
		all = append(all, results[i]...)
	}

	res := aggregator.Aggregate(aggregator.Dedupe(all))
	for kind, n := range res.ByKind {
		findingsTotal.WithLabelValues(string(kind)).Add(float64(n))
	}

	stored, err := e.sink.Upsert(ctx, res.Findings)
	var partial *domain.PartialPersistenceError
	if err != nil {
		switch {
		case errors.As(err, &partial):
			persistFailures.Add(float64(partial.Failed))
			logger.Warn().Err(err).Int("failed", partial.Failed).Int("stored", stored).Msg("some findings were not stored")
		case ctx.Err() != nil:
			return domain.AnalysisReport{}, e.abort(ctx, span, logger)
		default:
			span.SetStatus(codes.Error, err.Error())
			logger.Error().Err(err).Msg("findings could not be persisted")
			return domain.AnalysisReport{}, fmt.Errorf("persist findings: %w", err)
		}
	}

	report := domain.AnalysisReport{
		RunID:           runID,
		StartedAt:       started,
		DurationSeconds: time.Since(begin).Seconds(),
		RecordCount:     len(records),
		TotalFindings:   len(res.Findings),
		FindingsByKind:  res.ByKind,
		HighRiskCount:   res.HighRisk,
		StoredCount:     stored,
	}
	if len(degraded) > 0 {
		report.DegradedDetectors = degraded
	}
	for _, f := range res.Top(e.topN) {
		report.Top = append(report.Top, domain.Summarize(f))
	}

	span.SetAttributes(
		attribute.Int("records", report.RecordCount),
		attribute.Int("findings", report.TotalFindings),
		attribute.Int("stored", report.StoredCount),
	)
	logger.Info().
		Int("findings", report.TotalFindings).
		Int("high_risk", report.HighRiskCount).
		Int("stored", report.StoredCount).
		Float64("duration_s", report.DurationSeconds).
		Msg("analysis finished")

	if partial != nil {
		return report, partial
	}
	return report, nil
}

// runDetector isolates one detector: its error or panic is returned, never
// propagated to the other detectors.
func (e *Engine) runDetector(ctx context.Context, d detectors.Detector, records []domain.ProcurementRecord) (out []domain.Finding, err error) {
	kind := string(d.Kind())
	ctx, span := e.tracer.Start(ctx, "detector."+kind)
	defer span.End()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("detector panicked: %v", r)
		}
		detectorDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("findings", len(out)))
		}
	}()
	return d.Detect(ctx, records)
}

func (e *Engine) abort(ctx context.Context, span trace.Span, logger zerolog.Logger) error {
	cause := ctx.Err()
	err := fmt.Errorf("%w: %w", domain.ErrAnalysisTimedOut, cause)
	span.SetStatus(codes.Error, err.Error())
	logger.Warn().Err(cause).Msg("analysis aborted before persistence completed, nothing committed")
	return err
}
