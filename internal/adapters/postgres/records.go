package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"tendersight/internal/domain"
)

const selectRecords = `
    SELECT id, title, contracting_authority, winner_name, winner_org_id,
           value::text, category_codes, award_date, municipality
    FROM procurements
    WHERE ($1::date IS NULL OR award_date >= $1::date)
      AND ($2 = '' OR lower(municipality) = lower($2))
    ORDER BY id
`

// Records loads the snapshot in one query. Any failure wraps
// domain.ErrDataUnavailable.
func (db *DB) Records(ctx context.Context, filter domain.RecordFilter) ([]domain.ProcurementRecord, error) {
	rows, err := db.Pool.Query(ctx, selectRecords, filter.Since(), filter.Municipality)
	if err != nil {
		return nil, fmt.Errorf("%w: query procurements: %w", domain.ErrDataUnavailable, err)
	}
	defer rows.Close()

	var out []domain.ProcurementRecord
	for rows.Next() {
		var (
			r     domain.ProcurementRecord
			value string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.ContractingAuthority, &r.WinnerName, &r.WinnerOrgID,
			&value, &r.CategoryCodes, &r.AwardDate, &r.Municipality); err != nil {
			return nil, fmt.Errorf("%w: scan procurement: %w", domain.ErrDataUnavailable, err)
		}
		if r.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("%w: procurement %s value %q: %w", domain.ErrDataUnavailable, r.ID, value, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read procurements: %w", domain.ErrDataUnavailable, err)
	}
	return out, nil
}

// InsertRecords upserts procurement rows. Used by fixtures and imports.
func (db *DB) InsertRecords(ctx context.Context, records []domain.ProcurementRecord) error {
	for _, r := range records {
		_, err := db.Pool.Exec(ctx, `
            INSERT INTO procurements (id, title, contracting_authority, winner_name, winner_org_id,
                                      value, category_codes, award_date, municipality)
            VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9)
            ON CONFLICT (id) DO UPDATE SET
                title = EXCLUDED.title,
                contracting_authority = EXCLUDED.contracting_authority,
                winner_name = EXCLUDED.winner_name,
                winner_org_id = EXCLUDED.winner_org_id,
                value = EXCLUDED.value,
                category_codes = EXCLUDED.category_codes,
                award_date = EXCLUDED.award_date,
                municipality = EXCLUDED.municipality
        `, r.ID, r.Title, r.ContractingAuthority, r.WinnerName, r.WinnerOrgID,
			r.Value.String(), r.CategoryCodes, r.AwardDate, r.Municipality)
		if err != nil {
			return fmt.Errorf("insert procurement %s: %w", r.ID, err)
		}
	}
	return nil
}
