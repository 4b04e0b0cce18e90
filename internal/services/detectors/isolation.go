package detectors

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"

	"tendersight/internal/domain"
)

// maxTreeSamples caps the per-tree subsample size.
const maxTreeSamples = 256

const eulerGamma = 0.5772156649015329

// isolationForest is an ensemble of random isolation trees. Anomalies are
// isolated in fewer splits, so their average path length is short.
type isolationForest struct {
	trees  []*isoNode
	psi    int
	offset float64
}

type isoNode struct {
	feature     int
	split       float64
	left, right *isoNode
	size        int // leaf only
}

func (n *isoNode) leaf() bool { return n.left == nil }

// fitIsolationForest builds the forest on X and calibrates the decision
// offset so that roughly contamination of X scores below zero.
func fitIsolationForest(ctx context.Context, X [][]float64, trees int, contamination float64, seed uint64) (*isolationForest, error) {
	n := len(X)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", domain.ErrModelFit, n)
	}
	dims := len(X[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: empty feature vector", domain.ErrModelFit)
	}
	varying := false
	for i, row := range X {
		if len(row) != dims {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", domain.ErrModelFit, i, len(row), dims)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite value in row %d feature %d", domain.ErrModelFit, i, j)
			}
			if !varying && v != X[0][j] {
				varying = true
			}
		}
	}
	if !varying {
		return nil, fmt.Errorf("%w: every feature is constant", domain.ErrModelFit)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	psi := min(n, maxTreeSamples)
	limit := int(math.Ceil(math.Log2(float64(psi))))

	f := &isolationForest{psi: psi, trees: make([]*isoNode, 0, trees)}
	for t := 0; t < trees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		perm := rng.Perm(n)[:psi]
		f.trees = append(f.trees, buildIsoTree(rng, X, perm, 0, limit))
	}

	scores := make([]float64, n)
	for i, row := range X {
		scores[i] = -f.anomalyScore(row)
	}
	f.offset = percentile(scores, contamination*100)
	return f, nil
}

func buildIsoTree(rng *rand.Rand, X [][]float64, idx []int, depth, limit int) *isoNode {
	if depth >= limit || len(idx) <= 1 {
		return &isoNode{size: len(idx)}
	}

	dims := len(X[idx[0]])
	candidates := make([]int, 0, dims)
	lows := make([]float64, dims)
	highs := make([]float64, dims)
	for j := 0; j < dims; j++ {
		lo, hi := X[idx[0]][j], X[idx[0]][j]
		for _, i := range idx[1:] {
			lo = math.Min(lo, X[i][j])
			hi = math.Max(hi, X[i][j])
		}
		lows[j], highs[j] = lo, hi
		if hi > lo {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return &isoNode{size: len(idx)}
	}

	feature := candidates[rng.IntN(len(candidates))]
	split := lows[feature] + rng.Float64()*(highs[feature]-lows[feature])
	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &isoNode{
		feature: feature,
		split:   split,
		left:    buildIsoTree(rng, X, left, depth+1, limit),
		right:   buildIsoTree(rng, X, right, depth+1, limit),
	}
}

func pathLength(x []float64, n *isoNode, depth int) float64 {
	for !n.leaf() {
		if x[n.feature] <= n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return float64(depth) + averagePathLength(n.size)
}

// averagePathLength is c(n), the mean path length of an unsuccessful BST
// search over n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

// anomalyScore is in (0, 1]; values near 1 are anomalous.
func (f *isolationForest) anomalyScore(x []float64) float64 {
	var total float64
	for _, t := range f.trees {
		total += pathLength(x, t, 0)
	}
	avg := total / float64(len(f.trees))
	return math.Pow(2, -avg/averagePathLength(f.psi))
}

// decision is negative for outliers and positive for inliers.
func (f *isolationForest) decision(x []float64) float64 {
	return -f.anomalyScore(x) - f.offset
}

// percentile with linear interpolation, p in [0,100].
func percentile(xs []float64, p float64) float64 {
	return quantile(sortedCopy(xs), p/100)
}

// standardize rescales each column to zero mean and unit variance in place.
// Constant columns are centred only.
func standardize(X [][]float64) {
	if len(X) == 0 {
		return
	}
	col := make([]float64, len(X))
	for j := range X[0] {
		for i, row := range X {
			col[i] = row[j]
		}
		mu, sd := stat.PopMeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		for _, row := range X {
			row[j] = (row[j] - mu) / sd
		}
	}
}
