package detectors

import (
	"context"
	"errors"
	"math"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"tendersight/internal/domain"
)

// featureEpoch anchors the days-since feature.
var featureEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// LearnedOutlier fits an isolation forest on every pass over per-record
// features: value, days since epoch, title length, and the batch frequency
// of the record's authority and winner. Nothing is kept between passes.
type LearnedOutlier struct {
	Settings Settings
	Clock    Clock
}

func (d *LearnedOutlier) Kind() domain.Kind { return domain.KindLearnedOutlier }

func (d *LearnedOutlier) Detect(ctx context.Context, records []domain.ProcurementRecord) ([]domain.Finding, error) {
	batch := make([]domain.ProcurementRecord, 0, len(records))
	for _, r := range records {
		if r.Value.IsPositive() {
			batch = append(batch, r)
		}
	}
	if len(batch) < d.Settings.MLMinSamples {
		skipGroup(ctx, d.Kind(), "batch", len(batch), d.Settings.MLMinSamples)
		return nil, nil
	}

	X := features(batch)
	standardize(X)
	forest, err := fitIsolationForest(ctx, X, d.Settings.MLTrees, d.Settings.MLContamination, d.Settings.MLSeed)
	if errors.Is(err, domain.ErrModelFit) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("detector", string(d.Kind())).Int("samples", len(batch)).
			Msg("outlier model could not be fitted, detector skipped")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := d.Clock()
	var out []domain.Finding
	for i, r := range batch {
		score := forest.decision(X[i])
		if score >= 0 {
			continue
		}
		out = append(out, domain.Finding{
			SubjectRecordID: strPtr(r.ID),
			Kind:            d.Kind(),
			Description:     "Isolation forest flagged this contract as unusual given its value, timing and award frequencies",
			RawScore:        score,
			RiskScore:       domain.Clamp(math.Abs(score)*d.Settings.MLScoreScale, 1, domain.MaxRisk),
			DetectedAt:      now,
			Evidence: map[string]any{
				"ml_score":      round(score, 6),
				"anomaly_score": round(forest.anomalyScore(X[i]), 6),
				"value":         r.Value.InexactFloat64(),
				"authority":     r.ContractingAuthority,
				"winner":        r.WinnerName,
				"contamination": d.Settings.MLContamination,
			},
		})
	}
	return out, nil
}

func features(batch []domain.ProcurementRecord) [][]float64 {
	authorities := make(map[string]int)
	winners := make(map[string]int)
	for _, r := range batch {
		authorities[r.ContractingAuthority]++
		winners[r.WinnerName]++
	}

	X := make([][]float64, len(batch))
	for i, r := range batch {
		days := 0.0
		if r.AwardDate != nil {
			days = float64(daysBetween(featureEpoch, *r.AwardDate))
		}
		X[i] = []float64{
			r.Value.InexactFloat64(),
			days,
			float64(utf8.RuneCountInString(r.Title)),
			float64(authorities[r.ContractingAuthority]),
			float64(winners[r.WinnerName]),
		}
	}
	return X
}
