package domain

import (
	"math"
	"time"
)

// ComputeStats summarizes findings the way FindingReader.Stats does for
// stores that cannot aggregate in a query. Recent counts findings detected
// at or after since.
func ComputeStats(findings []Finding, since time.Time) FindingStats {
	st := FindingStats{ByKind: make(map[Kind]KindStats)}
	sums := make(map[Kind]float64)
	for _, f := range findings {
		st.Total++
		if !f.DetectedAt.Before(since) {
			st.Recent++
		}
		if IsHighRisk(f.RiskScore) {
			st.HighRisk++
		}
		ks := st.ByKind[f.Kind]
		ks.Count++
		st.ByKind[f.Kind] = ks
		sums[f.Kind] += f.RiskScore
	}
	for k, ks := range st.ByKind {
		ks.AverageRisk = math.Round(sums[k]/float64(ks.Count)*100) / 100
		st.ByKind[k] = ks
	}
	return st
}
