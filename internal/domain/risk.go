package domain

import "math"

const (
	MinRisk = 0.0
	MaxRisk = 10.0

	// HighRiskThreshold matches the alerting line used by reviewers.
	HighRiskThreshold = 7.0
)

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampRisk bounds a score to the 0..10 risk scale.
func ClampRisk(v float64) float64 { return Clamp(v, MinRisk, MaxRisk) }

// IsHighRisk reports whether a risk score is above the alerting line.
func IsHighRisk(score float64) bool { return score > HighRiskThreshold }

// RiskLevel converts a risk score to a categorical level.
func RiskLevel(score float64) string {
	switch {
	case score >= 8.0:
		return "critical"
	case score >= 6.0:
		return "high"
	case score >= 4.0:
		return "medium"
	case score >= 2.0:
		return "low"
	default:
		return "info"
	}
}
