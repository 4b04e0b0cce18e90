package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"tendersight/internal/domain"
)

const upsertFinding = `
    INSERT INTO findings (id, subject_record_id, kind, discriminator, description,
                          raw_score, risk_score, evidence, detected_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    ON CONFLICT (id) DO UPDATE SET
        description = EXCLUDED.description,
        raw_score   = EXCLUDED.raw_score,
        risk_score  = EXCLUDED.risk_score,
        evidence    = EXCLUDED.evidence,
        detected_at = EXCLUDED.detected_at,
        updated_at  = now()
`

// Upsert writes the batch in one transaction with a savepoint per finding, so
// a rejected row does not abort the others. If ctx ends before commit the
// whole transaction is rolled back.
func (db *DB) Upsert(ctx context.Context, findings []domain.Finding) (int, error) {
	if len(findings) == 0 {
		return 0, nil
	}
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin findings tx: %w", err)
	}
	// No-op once committed.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	logger := zerolog.Ctx(ctx)
	stored := 0
	var causes []error
	for _, f := range findings {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := upsertOne(ctx, tx, f); err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			logger.Warn().Err(err).Str("finding", f.Key()).Msg("finding not stored")
			causes = append(causes, &domain.FindingWriteError{Key: f.Key(), Err: err})
			continue
		}
		stored++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit findings: %w", err)
	}
	if len(causes) > 0 {
		return stored, &domain.PartialPersistenceError{Failed: len(causes), Causes: causes}
	}
	return stored, nil
}

func upsertOne(ctx context.Context, tx pgx.Tx, f domain.Finding) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	evidence := f.Evidence
	if evidence == nil {
		evidence = map[string]any{}
	}
	if _, err := sp.Exec(ctx, upsertFinding, f.ID(), f.SubjectRecordID, string(f.Kind), f.Discriminator,
		f.Description, f.RawScore, f.RiskScore, evidence, f.DetectedAt); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

// Stats aggregates stored findings per kind.
func (db *DB) Stats(ctx context.Context, since time.Time) (domain.FindingStats, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT kind,
               count(*),
               avg(risk_score),
               count(*) FILTER (WHERE detected_at >= $1),
               count(*) FILTER (WHERE risk_score > $2)
        FROM findings
        GROUP BY kind
        ORDER BY kind
    `, since, domain.HighRiskThreshold)
	if err != nil {
		return domain.FindingStats{}, fmt.Errorf("query finding stats: %w", err)
	}
	defer rows.Close()

	st := domain.FindingStats{ByKind: make(map[domain.Kind]domain.KindStats)}
	for rows.Next() {
		var (
			kind          string
			count, recent int
			high          int
			avg           float64
		)
		if err := rows.Scan(&kind, &count, &avg, &recent, &high); err != nil {
			return domain.FindingStats{}, fmt.Errorf("scan finding stats: %w", err)
		}
		st.ByKind[domain.Kind(kind)] = domain.KindStats{Count: count, AverageRisk: math.Round(avg*100) / 100}
		st.Total += count
		st.Recent += recent
		st.HighRisk += high
	}
	return st, rows.Err()
}

func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM findings`).Scan(&n)
	return n, err
}
