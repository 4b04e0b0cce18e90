// Package analysisrunner drains the analysis run queue.
package analysisrunner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tendersight/internal/domain"
	"tendersight/internal/ports"
)

// Run polls for queued runs and processes them one at a time until ctx ends.
// The engine is single flight, so there is exactly one consumer.
func Run(ctx context.Context, repo ports.RunRepository, analyzer ports.Analyzer, pollInterval time.Duration) {
	logger := zerolog.Ctx(ctx)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for ctx.Err() == nil {
				id, found, err := repo.ClaimNext(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("run claim failed")
					break
				}
				if !found {
					break
				}
				if _, err := process(ctx, repo, analyzer, id); err != nil {
					logger.Warn().Err(err).Str("run_id", id.String()).Msg("analysis run failed")
				}
			}
		}
	}
}

// ProcessInline starts a specific queued run and processes it synchronously
// with the same logic as the background worker.
func ProcessInline(ctx context.Context, repo ports.RunRepository, analyzer ports.Analyzer, runID uuid.UUID) (domain.AnalysisReport, error) {
	if err := repo.StartRun(ctx, runID); err != nil {
		return domain.AnalysisReport{}, err
	}
	return process(ctx, repo, analyzer, runID)
}

// process runs one pass for a claimed run and records the outcome. A pass
// with partially stored findings still completes the run.
func process(ctx context.Context, repo ports.RunRepository, analyzer ports.Analyzer, runID uuid.UUID) (domain.AnalysisReport, error) {
	report, err := analyzer.Run(ports.WithRunID(ctx, runID))
	var partial *domain.PartialPersistenceError
	if err != nil && !errors.As(err, &partial) {
		if markErr := repo.MarkFailed(ctx, runID, err.Error()); markErr != nil {
			zerolog.Ctx(ctx).Error().Err(markErr).Str("run_id", runID.String()).Msg("mark run failed")
		}
		return report, err
	}
	if markErr := repo.MarkCompleted(ctx, runID, report); markErr != nil {
		return report, errors.Join(err, markErr)
	}
	return report, err
}
