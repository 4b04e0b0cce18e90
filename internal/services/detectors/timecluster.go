package detectors

import (
	"context"
	"fmt"
	"time"

	"tendersight/internal/domain"
)

// TimeClustering flags days on which one authority awarded an unusually
// large batch of contracts. A cluster must be a statistical outlier among all
// (date, authority) groups and also reach an absolute floor, since small
// counts make the z-test noisy.
type TimeClustering struct {
	Settings Settings
	Clock    Clock
}

func (d *TimeClustering) Kind() domain.Kind { return domain.KindTimeClustering }

type dayCluster struct {
	date      time.Time
	authority string
	winners   map[string]int
	size      int
	value     float64
}

func (d *TimeClustering) Detect(ctx context.Context, records []domain.ProcurementRecord) ([]domain.Finding, error) {
	clusters := make(map[string]*dayCluster)
	for _, r := range records {
		if r.AwardDate == nil {
			continue
		}
		key := domain.JoinKey(r.ContractingAuthority, dateKey(*r.AwardDate))
		c, ok := clusters[key]
		if !ok {
			c = &dayCluster{date: *r.AwardDate, authority: r.ContractingAuthority, winners: make(map[string]int)}
			clusters[key] = c
		}
		c.size++
		c.winners[r.WinnerName]++
		c.value += r.Value.InexactFloat64()
	}
	if len(clusters) == 0 {
		return nil, nil
	}

	sizes := make([]float64, 0, len(clusters))
	for _, c := range clusters {
		sizes = append(sizes, float64(c.size))
	}
	mu, sigma := meanStdDev(sizes)
	threshold := mu + d.Settings.ClusterStdDevMultiplier*sigma

	now := d.Clock()
	var out []domain.Finding
	for _, key := range sortedKeys(clusters) {
		c := clusters[key]
		if c.size < d.Settings.ClusterMinSize {
			continue
		}
		if float64(c.size) <= threshold || c.size < d.Settings.ClusterAbsoluteFloor {
			continue
		}
		unique := len(c.winners)
		concentration := float64(c.size-unique+1) / float64(c.size)
		raw := float64(c.size) / mu * 2
		if concentration > 0.5 {
			raw += 2
		}
		day := dateKey(c.date)
		out = append(out, domain.Finding{
			Kind:          d.Kind(),
			Discriminator: key,
			Description: fmt.Sprintf("%d contracts awarded on the same day (%s) by %s",
				c.size, day, c.authority),
			RawScore:   raw,
			RiskScore:  domain.ClampRisk(raw),
			DetectedAt: now,
			Evidence: map[string]any{
				"date":                 day,
				"authority":            c.authority,
				"contracts_count":      c.size,
				"unique_winners":       unique,
				"winner_concentration": round(concentration, 4),
				"total_value":          round(c.value, 2),
				"mean_cluster_size":    round(mu, 4),
				"cluster_size_std":     round(sigma, 4),
				"threshold":            round(threshold, 4),
			},
		})
	}
	return out, nil
}
