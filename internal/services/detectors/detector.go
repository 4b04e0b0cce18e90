// Package detectors holds the six independent scoring strategies. Every
// detector reads the shared record snapshot and returns its own findings; none
// keeps state between calls or touches another detector's output.
package detectors

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tendersight/internal/domain"
)

// Detector is one scoring strategy.
type Detector interface {
	Kind() domain.Kind
	Detect(ctx context.Context, records []domain.ProcurementRecord) ([]domain.Finding, error)
}

// Clock returns the pass timestamp used for DetectedAt and trailing windows.
type Clock func() time.Time

// All builds the six detectors with shared settings and clock.
func All(s Settings, clock Clock) []Detector {
	if clock == nil {
		clock = time.Now
	}
	return []Detector{
		&PriceOutlier{Settings: s, Clock: clock},
		&MarketConcentration{Settings: s, Clock: clock},
		&TimeClustering{Settings: s, Clock: clock},
		&GeographicMismatch{Settings: s, Clock: clock, Table: DefaultMunicipalityKeywords()},
		&NetworkAffinity{Settings: s, Clock: clock},
		&LearnedOutlier{Settings: s, Clock: clock},
	}
}

// skipGroup logs an undersized group. Insufficient samples are never errors.
func skipGroup(ctx context.Context, kind domain.Kind, group string, size, min int) {
	zerolog.Ctx(ctx).Debug().
		Str("detector", string(kind)).
		Str("group", group).
		Int("size", size).
		Int("min", min).
		Msg("insufficient sample, group skipped")
}

func strPtr(s string) *string { return &s }

func dateKey(t time.Time) string { return t.Format(time.DateOnly) }

// days between two calendar dates, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
