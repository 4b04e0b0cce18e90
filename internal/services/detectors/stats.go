package detectors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// meanStdDev returns the mean and the n-1 standard deviation. The deviation
// is zero for fewer than two values, where gonum would report NaN.
func meanStdDev(xs []float64) (mu, sigma float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

// quantile interpolates linearly between closest ranks (Hyndman and Fan
// type 7), matching numpy's default percentile. gonum's stat.Quantile only
// offers the empirical and type 4 estimators, which give different IQR
// fences on small groups. sorted must be ascending.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func sortedCopy(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

// sortedKeys returns map keys in ascending order so findings come out in a
// deterministic order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
