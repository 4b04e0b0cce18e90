package detectors

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tendersight/internal/domain"
)

func ordinaryBatch(n int) []domain.ProcurementRecord {
	out := make([]domain.ProcurementRecord, n)
	for i := range out {
		out[i] = rec(fmt.Sprintf("r-%02d", i), int64(100_000+(i%7)*5_000),
			withParties(fmt.Sprintf("Kommun %d", i%3), fmt.Sprintf("Leverantör %d", i%5)),
			withDate(day(i*3)),
			withTitle(fmt.Sprintf("Ramavtal vägunderhåll etapp %d", i%4)))
	}
	return out
}

func TestLearnedOutlier_FlagsInjectedOutlier(t *testing.T) {
	d := &LearnedOutlier{Settings: DefaultSettings(), Clock: fixedClock}
	records := append(ordinaryBatch(60), rec("odd", 900_000_000,
		withParties("Ensam Myndighet", "Okänd Leverantör"),
		withDate(day(-1500)),
		withTitle("x")))

	got, err := d.Detect(context.Background(), records)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Contains(t, subjects(got), "odd")
	assert.LessOrEqual(t, len(got), 12, "roughly the contamination share is flagged")
	for _, f := range got {
		assert.Equal(t, domain.KindLearnedOutlier, f.Kind)
		assert.Less(t, f.RawScore, 0.0)
		assert.GreaterOrEqual(t, f.RiskScore, 1.0)
		assert.LessOrEqual(t, f.RiskScore, 10.0)
	}
}

func TestLearnedOutlier_Deterministic(t *testing.T) {
	d := &LearnedOutlier{Settings: DefaultSettings(), Clock: fixedClock}
	records := append(ordinaryBatch(40), rec("odd", 50_000_000))

	first, err := d.Detect(context.Background(), records)
	require.NoError(t, err)
	second, err := d.Detect(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLearnedOutlier_TooFewSamples(t *testing.T) {
	d := &LearnedOutlier{Settings: DefaultSettings(), Clock: fixedClock}
	got, err := d.Detect(context.Background(), ordinaryBatch(9))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLearnedOutlier_ZeroValuesExcludedFromSample(t *testing.T) {
	d := &LearnedOutlier{Settings: DefaultSettings(), Clock: fixedClock}
	records := append(ordinaryBatch(9), repeat(5, "zero", 0)...)
	got, err := d.Detect(context.Background(), records)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLearnedOutlier_DegenerateInputContainedLocally(t *testing.T) {
	d := &LearnedOutlier{Settings: DefaultSettings(), Clock: fixedClock}
	got, err := d.Detect(context.Background(), repeat(20, "same", 100, withTitle("identical")))
	require.NoError(t, err, "fit failures stay inside the detector")
	assert.Empty(t, got)
}

func TestLearnedOutlier_Cancelled(t *testing.T) {
	d := &LearnedOutlier{Settings: DefaultSettings(), Clock: fixedClock}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Detect(ctx, ordinaryBatch(30))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 10.2448, averagePathLength(256), 1e-3)
}

func TestPercentileInterpolates(t *testing.T) {
	xs := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, percentile(xs, 0))
	assert.Equal(t, 4.0, percentile(xs, 100))
	assert.InDelta(t, 1.3, percentile(xs, 10), 1e-9)
	assert.Equal(t, []float64{4, 1, 3, 2}, xs, "input is not reordered")
}

func TestMeanStdDev(t *testing.T) {
	mu, sigma := meanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mu, 1e-12)
	assert.InDelta(t, 2.138, sigma, 1e-3, "n-1 denominator")

	mu, sigma = meanStdDev([]float64{42})
	assert.Equal(t, 42.0, mu)
	assert.Zero(t, sigma)

	mu, sigma = meanStdDev(nil)
	assert.Zero(t, mu)
	assert.Zero(t, sigma)
}

func TestStandardize(t *testing.T) {
	X := [][]float64{{1, 7}, {2, 7}, {3, 7}}
	standardize(X)

	sd := math.Sqrt(2.0 / 3)
	assert.InDelta(t, -1/sd, X[0][0], 1e-12)
	assert.InDelta(t, 0.0, X[1][0], 1e-12)
	assert.InDelta(t, 1/sd, X[2][0], 1e-12)
	for _, row := range X {
		assert.Zero(t, row[1], "constant column is centred only")
	}
}
