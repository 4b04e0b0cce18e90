// Package aggregator puts detector output onto one scale and ranks it.
package aggregator

import (
	"math"
	"sort"

	"tendersight/internal/domain"
)

// Result is the ranked, tallied output of one pass.
type Result struct {
	Findings []domain.Finding
	ByKind   map[domain.Kind]int
	HighRisk int
}

// Aggregate clamps every risk score into [0, 10], tallies findings per kind
// and sorts them by risk descending. Equal risks keep detection order, oldest
// first. The input slice is not modified.
func Aggregate(findings []domain.Finding) Result {
	out := make([]domain.Finding, len(findings))
	byKind := make(map[domain.Kind]int)
	high := 0
	for i, f := range findings {
		f.RiskScore = normalize(f.RiskScore)
		out[i] = f
		byKind[f.Kind]++
		if domain.IsHighRisk(f.RiskScore) {
			high++
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return out[i].DetectedAt.Before(out[j].DetectedAt)
	})
	return Result{Findings: out, ByKind: byKind, HighRisk: high}
}

// Top returns at most n findings from the head of the ranking.
func (r Result) Top(n int) []domain.Finding {
	if n <= 0 || len(r.Findings) == 0 {
		return nil
	}
	return r.Findings[:min(n, len(r.Findings))]
}

func normalize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return domain.Clamp(v, 0, domain.MaxRisk)
}

// Dedupe keeps the last finding for each identity, preserving the position of
// its first occurrence.
func Dedupe(findings []domain.Finding) []domain.Finding {
	pos := make(map[string]int, len(findings))
	out := make([]domain.Finding, 0, len(findings))
	for _, f := range findings {
		key := f.Key()
		if i, ok := pos[key]; ok {
			out[i] = f
			continue
		}
		pos[key] = len(out)
		out = append(out, f)
	}
	return out
}
