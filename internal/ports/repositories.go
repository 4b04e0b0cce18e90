package ports

import (
	"context"
	"time"

	"tendersight/internal/domain"
)

// RecordSource provides read-only access to the procurement record set.
// Read failures wrap domain.ErrDataUnavailable.
type RecordSource interface {
	Records(ctx context.Context, filter domain.RecordFilter) ([]domain.ProcurementRecord, error)
}

// FindingSink upserts findings keyed by their stable identity. Individual
// write failures are returned as *domain.PartialPersistenceError; stored is
// the number of findings written.
type FindingSink interface {
	Upsert(ctx context.Context, findings []domain.Finding) (stored int, err error)
}

// FindingReader provides aggregate views over stored findings.
type FindingReader interface {
	Stats(ctx context.Context, since time.Time) (domain.FindingStats, error)
	Count(ctx context.Context) (int, error)
}
