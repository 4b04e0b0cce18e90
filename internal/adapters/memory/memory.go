// Package memory holds in-process record sources and finding stores for dry
// runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tendersight/internal/domain"
)

// Records serves a fixed snapshot.
type Records struct {
	records []domain.ProcurementRecord
}

func NewRecords(records []domain.ProcurementRecord) *Records {
	return &Records{records: records}
}

func (s *Records) Records(ctx context.Context, filter domain.RecordFilter) ([]domain.ProcurementRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.ProcurementRecord, 0, len(s.records))
	for _, r := range s.records {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Findings is a mutex-guarded finding store keyed by finding ID.
type Findings struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Finding
}

func NewFindings() *Findings {
	return &Findings{byID: make(map[uuid.UUID]domain.Finding)}
}

func (s *Findings) Upsert(ctx context.Context, findings []domain.Finding) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range findings {
		s.byID[f.ID()] = f
	}
	return len(findings), nil
}

// All returns a copy of the stored findings in no particular order.
func (s *Findings) All() []domain.Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Finding, 0, len(s.byID))
	for _, f := range s.byID {
		out = append(out, f)
	}
	return out
}

func (s *Findings) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID), nil
}

func (s *Findings) Stats(ctx context.Context, since time.Time) (domain.FindingStats, error) {
	return domain.ComputeStats(s.All(), since), nil
}
