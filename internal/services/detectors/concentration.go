package detectors

import (
	"context"
	"fmt"
	"sort"

	"tendersight/internal/domain"
)

// MarketConcentration flags winners holding an outsized share of one
// authority's contracts (by count or by value) inside the trailing window.
// It emits one pattern finding per (authority, winner) pair with no subject
// record.
type MarketConcentration struct {
	Settings Settings
	Clock    Clock
}

func (d *MarketConcentration) Kind() domain.Kind { return domain.KindMarketConcentration }

type shareGroup struct {
	count int
	value float64
}

type winnerShare struct {
	count      int
	value      float64
	categories []string
}

func (d *MarketConcentration) Detect(ctx context.Context, records []domain.ProcurementRecord) ([]domain.Finding, error) {
	now := d.Clock()

	// authority -> winner -> category -> totals
	groups := make(map[string]map[string]map[string]*shareGroup)
	for _, r := range records {
		// The window counts calendar days, so a contract dated exactly
		// ConcentrationWindowDays ago is still inside it.
		if r.AwardDate == nil || daysBetween(*r.AwardDate, now) > d.Settings.ConcentrationWindowDays {
			continue
		}
		byWinner, ok := groups[r.ContractingAuthority]
		if !ok {
			byWinner = make(map[string]map[string]*shareGroup)
			groups[r.ContractingAuthority] = byWinner
		}
		byCat, ok := byWinner[r.WinnerName]
		if !ok {
			byCat = make(map[string]*shareGroup)
			byWinner[r.WinnerName] = byCat
		}
		g, ok := byCat[r.PrimaryCategory()]
		if !ok {
			g = &shareGroup{}
			byCat[r.PrimaryCategory()] = g
		}
		g.count++
		g.value += r.Value.InexactFloat64()
	}

	threshold := d.Settings.ConcentrationShareThreshold * 100
	var out []domain.Finding
	for _, authority := range sortedKeys(groups) {
		winners := make(map[string]*winnerShare)
		var totalCount int
		var totalValue float64
		for winner, byCat := range groups[authority] {
			for cat, g := range byCat {
				if g.count < d.Settings.ConcentrationMinContracts {
					skipGroup(ctx, d.Kind(), domain.JoinKey(authority, winner, cat), g.count, d.Settings.ConcentrationMinContracts)
					continue
				}
				ws, ok := winners[winner]
				if !ok {
					ws = &winnerShare{}
					winners[winner] = ws
				}
				ws.count += g.count
				ws.value += g.value
				ws.categories = append(ws.categories, cat)
				totalCount += g.count
				totalValue += g.value
			}
		}
		if totalCount == 0 {
			continue
		}

		var hhi float64
		for _, ws := range winners {
			s := float64(ws.count) / float64(totalCount)
			hhi += s * s
		}
		hhi *= 10000

		for _, winner := range sortedKeys(winners) {
			ws := winners[winner]
			countShare := float64(ws.count) / float64(totalCount) * 100
			valueShare := 0.0
			if totalValue > 0 {
				valueShare = ws.value / totalValue * 100
			}
			if countShare <= threshold && valueShare <= threshold {
				continue
			}
			sort.Strings(ws.categories)
			raw := (countShare + valueShare) / 10
			out = append(out, domain.Finding{
				Kind:          d.Kind(),
				Discriminator: domain.JoinKey(authority, winner),
				Description: fmt.Sprintf("%s wins %.1f%% of the contracts at %s (value share %.1f%%)",
					winner, countShare, authority, valueShare),
				RawScore:   raw,
				RiskScore:  domain.ClampRisk(raw),
				DetectedAt: now,
				Evidence: map[string]any{
					"authority":       authority,
					"winner":          winner,
					"contract_share":  round(countShare, 2),
					"value_share":     round(valueShare, 2),
					"total_contracts": ws.count,
					"total_value":     round(ws.value, 2),
					"authority_hhi":   round(hhi, 1),
					"categories":      ws.categories,
					"window_days":     d.Settings.ConcentrationWindowDays,
				},
			})
		}
	}
	return out, nil
}
