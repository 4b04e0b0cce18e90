package ports

import (
	"context"

	"github.com/google/uuid"

	"tendersight/internal/domain"
)

// RunRepository supports queuing, claiming and completing analysis runs.
type RunRepository interface {
	Create(ctx context.Context) (runID uuid.UUID, err error)
	ClaimNext(ctx context.Context) (runID uuid.UUID, found bool, err error)
	StartRun(ctx context.Context, runID uuid.UUID) error
	MarkCompleted(ctx context.Context, runID uuid.UUID, report domain.AnalysisReport) error
	MarkFailed(ctx context.Context, runID uuid.UUID, reason string) error
	Get(ctx context.Context, runID uuid.UUID) (domain.RunStatus, error)
}

type runIDKey struct{}

// WithRunID attaches the queued run an Analyzer pass executes for. Analyzers
// log, trace and report under this ID instead of minting their own.
func WithRunID(ctx context.Context, runID uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run ID attached with WithRunID.
func RunIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(runIDKey{}).(uuid.UUID)
	return id, ok
}
