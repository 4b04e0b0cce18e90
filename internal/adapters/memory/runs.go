package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tendersight/internal/domain"
)

// Runs is an in-process run queue for deployments without Postgres.
type Runs struct {
	mu    sync.Mutex
	runs  map[uuid.UUID]*domain.RunStatus
	order []uuid.UUID
	now   func() time.Time
}

func NewRuns() *Runs {
	return &Runs{runs: make(map[uuid.UUID]*domain.RunStatus), now: time.Now}
}

func (r *Runs) Create(ctx context.Context) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.runs[id] = &domain.RunStatus{ID: id, Status: "queued", QueuedAt: r.now()}
	r.order = append(r.order, id)
	return id, nil
}

func (r *Runs) ClaimNext(ctx context.Context) (uuid.UUID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if st := r.runs[id]; st.Status == "queued" {
			r.start(st)
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (r *Runs) StartRun(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.runs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if st.Status != "queued" {
		return fmt.Errorf("run %s: %w", id, domain.ErrRunNotQueued)
	}
	r.start(st)
	return nil
}

func (r *Runs) start(st *domain.RunStatus) {
	now := r.now()
	st.Status = "running"
	st.StartedAt = &now
}

func (r *Runs) MarkCompleted(ctx context.Context, id uuid.UUID, report domain.AnalysisReport) error {
	return r.finish(id, "completed", "", &report)
}

func (r *Runs) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.finish(id, "failed", reason, nil)
}

func (r *Runs) finish(id uuid.UUID, status, reason string, report *domain.AnalysisReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.runs[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := r.now()
	st.Status = status
	st.FinishedAt = &now
	st.Error = reason
	st.Report = report
	return nil
}

func (r *Runs) Get(ctx context.Context, id uuid.UUID) (domain.RunStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.runs[id]
	if !ok {
		return domain.RunStatus{}, domain.ErrNotFound
	}
	return *st, nil
}
