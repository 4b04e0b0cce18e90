package detectors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tendersight/internal/domain"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func day(offset int) *time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &t
}

type recOpt func(*domain.ProcurementRecord)

func withCategory(c string) recOpt {
	return func(r *domain.ProcurementRecord) { r.CategoryCodes = c }
}

func withParties(authority, winner string) recOpt {
	return func(r *domain.ProcurementRecord) {
		r.ContractingAuthority = authority
		r.WinnerName = winner
	}
}

func withDate(t *time.Time) recOpt {
	return func(r *domain.ProcurementRecord) { r.AwardDate = t }
}

func withMunicipality(m string) recOpt {
	return func(r *domain.ProcurementRecord) { r.Municipality = &m }
}

func withTitle(s string) recOpt {
	return func(r *domain.ProcurementRecord) { r.Title = s }
}

func rec(id string, value int64, opts ...recOpt) domain.ProcurementRecord {
	r := domain.ProcurementRecord{
		ID:                   id,
		Title:                "Contract " + id,
		ContractingAuthority: "Region Uppsala",
		WinnerName:           "Bygg AB",
		Value:                decimal.NewFromInt(value),
		CategoryCodes:        "45000000-7",
		AwardDate:            day(0),
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func repeat(n int, prefix string, value int64, opts ...recOpt) []domain.ProcurementRecord {
	out := make([]domain.ProcurementRecord, n)
	for i := range out {
		out[i] = rec(fmt.Sprintf("%s-%d", prefix, i), value, opts...)
	}
	return out
}

func subjects(fs []domain.Finding) []string {
	var out []string
	for _, f := range fs {
		if f.SubjectRecordID != nil {
			out = append(out, *f.SubjectRecordID)
		}
	}
	return out
}
