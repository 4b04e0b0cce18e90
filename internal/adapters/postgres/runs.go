package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tendersight/internal/domain"
)

// Create queues a new analysis run.
func (db *DB) Create(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.Pool.Exec(ctx, `INSERT INTO analysis_runs (id) VALUES ($1)`, id)
	return id, err
}

// ClaimNext selects the oldest queued run using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (id uuid.UUID, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return id, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id FROM analysis_runs
        WHERE status = 'queued'
        ORDER BY queued_at
        FOR UPDATE SKIP LOCKED
        LIMIT 1
    `).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return id, false, nil
	}
	if err != nil {
		return id, false, err
	}
	if _, err = tx.Exec(ctx, `
        UPDATE analysis_runs SET status = 'running', started_at = now(), attempts = attempts + 1 WHERE id = $1
    `, id); err != nil {
		return id, false, err
	}
	return id, true, nil
}

// StartRun moves a specific queued run to running.
func (db *DB) StartRun(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `
        UPDATE analysis_runs SET status = 'running', started_at = now(), attempts = attempts + 1
        WHERE id = $1 AND status = 'queued'
    `, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := db.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("run %s: %w", id, domain.ErrRunNotQueued)
	}
	return nil
}

func (db *DB) MarkCompleted(ctx context.Context, id uuid.UUID, report domain.AnalysisReport) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
        UPDATE analysis_runs SET status = 'completed', finished_at = now(), report = $2 WHERE id = $1
    `, id, body)
	return err
}

func (db *DB) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_, err := db.Pool.Exec(ctx, `
        UPDATE analysis_runs SET status = 'failed', finished_at = now(), error = $2 WHERE id = $1
    `, id, reason)
	return err
}

func (db *DB) Get(ctx context.Context, id uuid.UUID) (domain.RunStatus, error) {
	var (
		st     domain.RunStatus
		reason *string
		report []byte
	)
	err := db.Pool.QueryRow(ctx, `
        SELECT id, status, queued_at, started_at, finished_at, error, report
        FROM analysis_runs WHERE id = $1
    `, id).Scan(&st.ID, &st.Status, &st.QueuedAt, &st.StartedAt, &st.FinishedAt, &reason, &report)
	if errors.Is(err, pgx.ErrNoRows) {
		return st, domain.ErrNotFound
	}
	if err != nil {
		return st, err
	}
	if reason != nil {
		st.Error = *reason
	}
	if report != nil {
		st.Report = &domain.AnalysisReport{}
		if err := json.Unmarshal(report, st.Report); err != nil {
			return st, fmt.Errorf("decode report: %w", err)
		}
	}
	return st, nil
}
