package detectors

import (
	"context"
	"fmt"
	"time"

	"tendersight/internal/domain"
)

// sameDayNetworkScore is the fixed raw score for a heavily repeated pair
// whose contracts all fall on one day.
const sameDayNetworkScore = 8.0

// NetworkAffinity flags (authority, winner) pairs with many contracts over
// all time, scored by their annualized contract rate.
type NetworkAffinity struct {
	Settings Settings
	Clock    Clock
}

func (d *NetworkAffinity) Kind() domain.Kind { return domain.KindNetworkAffinity }

type edge struct {
	authority string
	winner    string
	count     int
	value     float64
	first     *time.Time
	last      *time.Time
}

func (d *NetworkAffinity) Detect(ctx context.Context, records []domain.ProcurementRecord) ([]domain.Finding, error) {
	edges := make(map[string]*edge)
	for _, r := range records {
		key := domain.JoinKey(r.ContractingAuthority, r.WinnerName)
		e, ok := edges[key]
		if !ok {
			e = &edge{authority: r.ContractingAuthority, winner: r.WinnerName}
			edges[key] = e
		}
		e.count++
		e.value += r.Value.InexactFloat64()
		if r.AwardDate != nil {
			if e.first == nil || r.AwardDate.Before(*e.first) {
				t := *r.AwardDate
				e.first = &t
			}
			if e.last == nil || r.AwardDate.After(*e.last) {
				t := *r.AwardDate
				e.last = &t
			}
		}
	}

	now := d.Clock()
	var out []domain.Finding
	for _, key := range sortedKeys(edges) {
		e := edges[key]
		if e.count < d.Settings.NetworkMinContracts {
			skipGroup(ctx, d.Kind(), key, e.count, d.Settings.NetworkMinContracts)
			continue
		}
		if e.count < d.Settings.NetworkFlagThreshold {
			continue
		}
		// Without any dated contract there is no span to annualize over.
		if e.first == nil {
			skipGroup(ctx, d.Kind(), key, 0, 1)
			continue
		}

		span := daysBetween(*e.first, *e.last)
		var raw, rate float64
		if span > 0 {
			rate = float64(e.count) / float64(span) * 365
			raw = rate * 2
		} else {
			raw = sameDayNetworkScore
		}
		out = append(out, domain.Finding{
			Kind:          d.Kind(),
			Discriminator: key,
			Description: fmt.Sprintf("Strong link: %s holds %d contracts with %s over %d days",
				e.winner, e.count, e.authority, span),
			RawScore:   raw,
			RiskScore:  domain.ClampRisk(raw),
			DetectedAt: now,
			Evidence: map[string]any{
				"authority":           e.authority,
				"winner":              e.winner,
				"connection_strength": e.count,
				"total_value":         round(e.value, 2),
				"period_days":         span,
				"contracts_per_year":  round(rate, 2),
				"first_contract":      dateKey(*e.first),
				"last_contract":       dateKey(*e.last),
			},
		})
	}
	return out, nil
}
