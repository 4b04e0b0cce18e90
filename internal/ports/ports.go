package ports

import (
	"context"

	"tendersight/internal/domain"
)

// Analyzer runs one scoring pass over the current record snapshot.
type Analyzer interface {
	Run(ctx context.Context) (domain.AnalysisReport, error)
}
