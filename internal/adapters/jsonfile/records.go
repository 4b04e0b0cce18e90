// Package jsonfile reads a procurement snapshot exported as a JSON array.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"tendersight/internal/domain"
)

// row is the export shape. award_date is a calendar date (YYYY-MM-DD) or an
// RFC 3339 timestamp; value may be a JSON number or string.
type row struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	ContractingAuthority string          `json:"contracting_authority"`
	WinnerName           string          `json:"winner_name"`
	WinnerOrgID          *string         `json:"winner_org_id"`
	Value                decimal.Decimal `json:"value"`
	CategoryCodes        string          `json:"category_codes"`
	AwardDate            *string         `json:"award_date"`
	Municipality         *string         `json:"municipality"`
}

// Records is a RecordSource over one file. The file is re-read on every
// call so a long-running process sees updated exports.
type Records struct {
	path string
}

func New(path string) *Records { return &Records{path: path} }

func (s *Records) Records(ctx context.Context, filter domain.RecordFilter) ([]domain.ProcurementRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
	}
	all, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDataUnavailable, s.path, err)
	}
	out := all[:0]
	for _, r := range all {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Decode parses an exported snapshot.
func Decode(data []byte) ([]domain.ProcurementRecord, error) {
	var rows []row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	out := make([]domain.ProcurementRecord, 0, len(rows))
	for i, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d: missing id", i)
		}
		if r.Value.IsNegative() {
			return nil, fmt.Errorf("record %s: negative value %s", r.ID, r.Value)
		}
		rec := domain.ProcurementRecord{
			ID:                   r.ID,
			Title:                r.Title,
			ContractingAuthority: r.ContractingAuthority,
			WinnerName:           r.WinnerName,
			WinnerOrgID:          r.WinnerOrgID,
			Value:                r.Value,
			CategoryCodes:        r.CategoryCodes,
			Municipality:         r.Municipality,
		}
		if r.AwardDate != nil && *r.AwardDate != "" {
			t, err := parseDate(*r.AwardDate)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", r.ID, err)
			}
			rec.AwardDate = &t
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("award_date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
