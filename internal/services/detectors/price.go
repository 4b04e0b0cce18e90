package detectors

import (
	"context"
	"fmt"
	"math"

	"tendersight/internal/domain"
)

// PriceOutlier flags contracts priced far above their category peers. Only
// the high side is reported; low bids are not treated as anomalies.
type PriceOutlier struct {
	Settings Settings
	Clock    Clock
}

func (d *PriceOutlier) Kind() domain.Kind { return domain.KindPriceOutlier }

func (d *PriceOutlier) Detect(ctx context.Context, records []domain.ProcurementRecord) ([]domain.Finding, error) {
	groups := make(map[string][]domain.ProcurementRecord)
	for _, r := range records {
		cat := r.PrimaryCategory()
		if cat == "" {
			continue
		}
		groups[cat] = append(groups[cat], r)
	}

	now := d.Clock()
	var out []domain.Finding
	for _, cat := range sortedKeys(groups) {
		group := groups[cat]
		if len(group) < d.Settings.PriceOutlierMinGroupSize {
			skipGroup(ctx, d.Kind(), cat, len(group), d.Settings.PriceOutlierMinGroupSize)
			continue
		}

		values := make([]float64, len(group))
		for i, r := range group {
			values[i] = r.Value.InexactFloat64()
		}
		mu, sigma := meanStdDev(values)
		sorted := sortedCopy(values)
		q1 := quantile(sorted, 0.25)
		q3 := quantile(sorted, 0.75)
		iqr := q3 - q1
		upper := q3 + 1.5*iqr
		lower := q1 - 1.5*iqr

		for i, r := range group {
			v := values[i]
			z := 0.0
			if sigma > 0 {
				z = math.Abs(v-mu) / sigma
			}
			outlier := v > upper || v < lower || z > d.Settings.ZScoreThreshold
			if !outlier || v <= 1.5*mu {
				continue
			}
			deviation := 0.0
			if mu > 0 {
				deviation = (v - mu) / mu * 100
			}
			out = append(out, domain.Finding{
				SubjectRecordID: strPtr(r.ID),
				Kind:            d.Kind(),
				Discriminator:   cat,
				Description: fmt.Sprintf("Contract value %.0f deviates %.0f%% from the category %s mean (%.0f)",
					v, deviation, cat, mu),
				RawScore:   z,
				RiskScore:  domain.Clamp(z, 1, domain.MaxRisk),
				DetectedAt: now,
				Evidence: map[string]any{
					"z_score":           round(z, 4),
					"category":          cat,
					"category_mean":     round(mu, 2),
					"category_std":      round(sigma, 2),
					"deviation_percent": round(deviation, 2),
					"q1":                q1,
					"q3":                q3,
					"iqr":               iqr,
					"group_size":        len(group),
				},
			})
		}
	}
	return out, nil
}
