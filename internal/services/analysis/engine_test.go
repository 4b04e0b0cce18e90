package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tendersight/internal/adapters/memory"
	"tendersight/internal/domain"
	"tendersight/internal/ports"
	"tendersight/internal/services/detectors"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

// stubDetector returns fixed findings, an error, a panic, or blocks until
// release is closed or the context ends.
type stubDetector struct {
	kind     domain.Kind
	findings []domain.Finding
	err      error
	panicMsg string
	release  chan struct{}
	calls    atomic.Int32
}

func (d *stubDetector) Kind() domain.Kind { return d.kind }

func (d *stubDetector) Detect(ctx context.Context, _ []domain.ProcurementRecord) ([]domain.Finding, error) {
	d.calls.Add(1)
	if d.release != nil {
		select {
		case <-d.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.panicMsg != "" {
		panic(d.panicMsg)
	}
	return d.findings, d.err
}

type failingSource struct{ err error }

func (s failingSource) Records(context.Context, domain.RecordFilter) ([]domain.ProcurementRecord, error) {
	return nil, s.err
}

type partialSink struct{}

func (partialSink) Upsert(_ context.Context, fs []domain.Finding) (int, error) {
	cause := &domain.FindingWriteError{Key: fs[0].Key(), Err: errors.New("constraint violated")}
	return len(fs) - 1, &domain.PartialPersistenceError{Failed: 1, Causes: []error{cause}}
}

type countingSink struct{ calls atomic.Int32 }

func (s *countingSink) Upsert(_ context.Context, fs []domain.Finding) (int, error) {
	s.calls.Add(1)
	return len(fs), nil
}

func finding(subject string, kind domain.Kind, risk float64) domain.Finding {
	return domain.Finding{SubjectRecordID: &subject, Kind: kind, RiskScore: risk, DetectedAt: testNow}
}

func records(n int) []domain.ProcurementRecord {
	out := make([]domain.ProcurementRecord, n)
	for i := range out {
		out[i] = domain.ProcurementRecord{ID: fmt.Sprintf("r-%d", i), Value: decimal.NewFromInt(100)}
	}
	return out
}

func asDetectors(ds ...*stubDetector) []detectors.Detector {
	out := make([]detectors.Detector, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}

func TestEngine_DetectorFailuresAreIsolated(t *testing.T) {
	good := &stubDetector{kind: domain.KindPriceOutlier, findings: []domain.Finding{
		finding("a", domain.KindPriceOutlier, 8),
		finding("b", domain.KindPriceOutlier, 3),
	}}
	broken := &stubDetector{kind: domain.KindTimeClustering, err: errors.New("boom")}
	panicky := &stubDetector{kind: domain.KindLearnedOutlier, panicMsg: "index out of range"}

	sink := memory.NewFindings()
	e := New(memory.NewRecords(records(3)), sink, asDetectors(good, broken, panicky), WithClock(clock))

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Completed, e.State())
	assert.Equal(t, 2, report.TotalFindings)
	assert.Equal(t, 2, report.StoredCount)
	assert.Equal(t, 3, report.RecordCount)
	assert.Equal(t, 1, report.HighRiskCount)
	assert.Equal(t, map[domain.Kind]int{domain.KindPriceOutlier: 2}, report.FindingsByKind)
	require.Len(t, report.DegradedDetectors, 2)
	assert.Contains(t, report.DegradedDetectors[domain.KindTimeClustering], "boom")
	assert.Contains(t, report.DegradedDetectors[domain.KindLearnedOutlier], "panicked")
	assert.Equal(t, testNow, report.StartedAt)
	require.Len(t, report.Top, 2)
	assert.Equal(t, "critical", report.Top[0].RiskLevel)
}

func TestEngine_RerunIsIdempotent(t *testing.T) {
	d := &stubDetector{kind: domain.KindNetworkAffinity, findings: []domain.Finding{
		{Kind: domain.KindNetworkAffinity, Discriminator: "Region|Bygg AB", RiskScore: 6, DetectedAt: testNow},
		finding("x", domain.KindNetworkAffinity, 5),
	}}
	sink := memory.NewFindings()
	e := New(memory.NewRecords(records(1)), sink, asDetectors(d), WithClock(clock))

	first, err := e.Run(context.Background())
	require.NoError(t, err)
	second, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.TotalFindings, second.TotalFindings)
	assert.NotEqual(t, first.RunID, second.RunID)
	n, err := sink.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEngine_DuplicateIdentityWrittenOnce(t *testing.T) {
	d := &stubDetector{kind: domain.KindPriceOutlier, findings: []domain.Finding{
		finding("a", domain.KindPriceOutlier, 2),
		finding("a", domain.KindPriceOutlier, 5),
	}}
	e := New(memory.NewRecords(records(1)), memory.NewFindings(), asDetectors(d), WithClock(clock))
	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalFindings)
	assert.Equal(t, 5.0, report.Top[0].RiskScore)
}

func TestEngine_ScoresAreClampedBeforeStorage(t *testing.T) {
	d := &stubDetector{kind: domain.KindPriceOutlier, findings: []domain.Finding{
		finding("a", domain.KindPriceOutlier, 1e9),
		finding("b", domain.KindPriceOutlier, -3),
	}}
	sink := memory.NewFindings()
	e := New(memory.NewRecords(records(1)), sink, asDetectors(d), WithClock(clock))
	_, err := e.Run(context.Background())
	require.NoError(t, err)
	for _, f := range sink.All() {
		assert.GreaterOrEqual(t, f.RiskScore, 0.0)
		assert.LessOrEqual(t, f.RiskScore, 10.0)
	}
}

func TestEngine_TopNLimitsReport(t *testing.T) {
	var fs []domain.Finding
	for i := range 5 {
		fs = append(fs, finding(fmt.Sprintf("s-%d", i), domain.KindPriceOutlier, float64(i)))
	}
	d := &stubDetector{kind: domain.KindPriceOutlier, findings: fs}
	e := New(memory.NewRecords(records(1)), memory.NewFindings(), asDetectors(d), WithClock(clock), WithTopN(2))
	report, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Top, 2)
	assert.Equal(t, 4.0, report.Top[0].RiskScore)
	assert.Equal(t, 5, report.TotalFindings)
}

func TestEngine_DataUnavailableIsFatal(t *testing.T) {
	d := &stubDetector{kind: domain.KindPriceOutlier}
	sink := &countingSink{}
	e := New(failingSource{err: errors.New("connection refused")}, sink, asDetectors(d), WithClock(clock))

	_, err := e.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Equal(t, Failed, e.State())
	assert.Zero(t, d.calls.Load(), "no detector runs without records")
	assert.Zero(t, sink.calls.Load())
}

func TestEngine_TimeoutCommitsNothing(t *testing.T) {
	slow := &stubDetector{kind: domain.KindLearnedOutlier, release: make(chan struct{})}
	fast := &stubDetector{kind: domain.KindPriceOutlier, findings: []domain.Finding{finding("a", domain.KindPriceOutlier, 9)}}
	sink := memory.NewFindings()
	e := New(memory.NewRecords(records(1)), sink, asDetectors(slow, fast),
		WithClock(clock), WithTimeout(20*time.Millisecond))

	_, err := e.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrAnalysisTimedOut)
	assert.Equal(t, Failed, e.State())
	n, err := sink.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEngine_CallerDeadline(t *testing.T) {
	slow := &stubDetector{kind: domain.KindLearnedOutlier, release: make(chan struct{})}
	e := New(memory.NewRecords(records(1)), memory.NewFindings(), asDetectors(slow), WithClock(clock))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := e.Run(ctx)
	require.ErrorIs(t, err, domain.ErrAnalysisTimedOut)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_SinglePassAtATime(t *testing.T) {
	slow := &stubDetector{kind: domain.KindPriceOutlier, release: make(chan struct{})}
	e := New(memory.NewRecords(records(1)), memory.NewFindings(), asDetectors(slow), WithClock(clock))

	done := make(chan error, 1)
	go func() {
		_, err := e.Run(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return slow.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, Running, e.State())

	_, err := e.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrAnalysisInProgress)

	close(slow.release)
	require.NoError(t, <-done)
	assert.Equal(t, Completed, e.State())

	_, err = e.Run(context.Background())
	assert.NoError(t, err, "engine accepts a new pass once idle again")
}

func TestEngine_PartialPersistenceStillReports(t *testing.T) {
	d := &stubDetector{kind: domain.KindPriceOutlier, findings: []domain.Finding{
		finding("a", domain.KindPriceOutlier, 9),
		finding("b", domain.KindPriceOutlier, 2),
	}}
	e := New(memory.NewRecords(records(1)), partialSink{}, asDetectors(d), WithClock(clock))

	report, err := e.Run(context.Background())
	var partial *domain.PartialPersistenceError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Failed)
	assert.Equal(t, 2, report.TotalFindings)
	assert.Equal(t, 1, report.StoredCount)
	assert.Equal(t, Completed, e.State())
}

func TestEngine_RealDetectorsEndToEnd(t *testing.T) {
	var recs []domain.ProcurementRecord
	for i := range 10 {
		d := testNow.AddDate(0, 0, -i*7)
		recs = append(recs, domain.ProcurementRecord{
			ID: fmt.Sprintf("n-%d", i), Title: "Skolmat", ContractingAuthority: "Region Uppsala",
			WinnerName: fmt.Sprintf("Leverantör %d", i%4), Value: decimal.NewFromInt(100),
			CategoryCodes: "55520000-1", AwardDate: &d,
		})
	}
	d := testNow.AddDate(0, 0, -3)
	recs = append(recs, domain.ProcurementRecord{
		ID: "big", Title: "Skolmat", ContractingAuthority: "Region Uppsala", WinnerName: "Leverantör 9",
		Value: decimal.NewFromInt(10000), CategoryCodes: "55520000-1", AwardDate: &d,
	})

	sink := memory.NewFindings()
	e := New(memory.NewRecords(recs), sink, detectors.All(detectors.DefaultSettings(), clock), WithClock(clock))
	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.DegradedDetectors)
	assert.GreaterOrEqual(t, report.FindingsByKind[domain.KindPriceOutlier], 1)
	assert.Equal(t, report.TotalFindings, report.StoredCount)
}

func TestEngine_UndersizedBatchSkipsLearnedDetectorOnly(t *testing.T) {
	recs := make([]domain.ProcurementRecord, 0, 9)
	for i := range 8 {
		d := testNow.AddDate(0, 0, -i*5)
		recs = append(recs, domain.ProcurementRecord{
			ID: fmt.Sprintf("n-%d", i), Title: "Städtjänster", ContractingAuthority: "Västerås stad",
			WinnerName: fmt.Sprintf("Städ %d AB", i%4), Value: decimal.NewFromInt(100),
			CategoryCodes: "90910000-9", AwardDate: &d,
		})
	}
	d := testNow.AddDate(0, 0, -2)
	recs = append(recs, domain.ProcurementRecord{
		ID: "big", Title: "Städtjänster", ContractingAuthority: "Västerås stad", WinnerName: "Städ 1 AB",
		Value: decimal.NewFromInt(10000), CategoryCodes: "90910000-9", AwardDate: &d,
	})

	sink := memory.NewFindings()
	e := New(memory.NewRecords(recs), sink, detectors.All(detectors.DefaultSettings(), clock), WithClock(clock))
	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9, report.RecordCount)
	assert.Empty(t, report.DegradedDetectors, "a skipped detector is not a failure")
	assert.Zero(t, report.FindingsByKind[domain.KindLearnedOutlier])
	assert.Equal(t, 1, report.FindingsByKind[domain.KindPriceOutlier])
	assert.Equal(t, report.TotalFindings, report.StoredCount)

	var stored []string
	for _, f := range sink.All() {
		if f.Kind == domain.KindPriceOutlier {
			stored = append(stored, *f.SubjectRecordID)
		}
	}
	assert.Equal(t, []string{"big"}, stored)
}

func TestEngine_ReportsUnderQueuedRunID(t *testing.T) {
	d := &stubDetector{kind: domain.KindPriceOutlier}
	e := New(memory.NewRecords(records(1)), memory.NewFindings(), asDetectors(d), WithClock(clock))

	queued := uuid.New()
	report, err := e.Run(ports.WithRunID(context.Background(), queued))
	require.NoError(t, err)
	assert.Equal(t, queued, report.RunID)

	report, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, report.RunID)
	assert.NotEqual(t, queued, report.RunID, "a pass without a queued run gets a fresh ID")
}
