package analysisrunner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tendersight/internal/adapters/memory"
	"tendersight/internal/domain"
	"tendersight/internal/ports"
)

type fakeAnalyzer struct {
	report domain.AnalysisReport
	err    error
	calls  atomic.Int32
}

// Run reports under the run ID it was handed, as the engine does.
func (a *fakeAnalyzer) Run(ctx context.Context) (domain.AnalysisReport, error) {
	a.calls.Add(1)
	report := a.report
	if id, ok := ports.RunIDFrom(ctx); ok {
		report.RunID = id
	}
	return report, a.err
}

func TestProcessInline_Completes(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewRuns()
	id, err := runs.Create(ctx)
	require.NoError(t, err)

	analyzer := &fakeAnalyzer{report: domain.AnalysisReport{TotalFindings: 7}}
	report, err := ProcessInline(ctx, runs, analyzer, id)
	require.NoError(t, err)
	assert.Equal(t, id, report.RunID)

	st, err := runs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "completed", st.Status)
	assert.Equal(t, 7, st.Report.TotalFindings)
	assert.Equal(t, id, st.Report.RunID)
}

func TestProcessInline_MarksFailure(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewRuns()
	id, err := runs.Create(ctx)
	require.NoError(t, err)

	_, err = ProcessInline(ctx, runs, &fakeAnalyzer{err: domain.ErrDataUnavailable}, id)
	require.ErrorIs(t, err, domain.ErrDataUnavailable)

	st, err := runs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "failed", st.Status)
	assert.Contains(t, st.Error, "unavailable")
}

func TestProcessInline_PartialPersistenceCompletes(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewRuns()
	id, err := runs.Create(ctx)
	require.NoError(t, err)

	partial := &domain.PartialPersistenceError{Failed: 1, Causes: []error{errors.New("disk full")}}
	_, err = ProcessInline(ctx, runs, &fakeAnalyzer{report: domain.AnalysisReport{StoredCount: 2}, err: partial}, id)
	require.ErrorAs(t, err, &partial)

	st, err := runs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "completed", st.Status)
	assert.Equal(t, 2, st.Report.StoredCount)
}

func TestProcessInline_RejectsRunningRun(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewRuns()
	id, err := runs.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, runs.StartRun(ctx, id))

	analyzer := &fakeAnalyzer{}
	_, err = ProcessInline(ctx, runs, analyzer, id)
	assert.ErrorIs(t, err, domain.ErrRunNotQueued)
	assert.Zero(t, analyzer.calls.Load())
}

func TestRun_DrainsQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runs := memory.NewRuns()
	var ids []uuid.UUID
	for range 3 {
		id, err := runs.Create(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	analyzer := &fakeAnalyzer{}
	done := make(chan struct{})
	go func() {
		Run(ctx, runs, analyzer, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		for _, id := range ids {
			st, err := runs.Get(context.Background(), id)
			if err != nil || st.Status != "completed" {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.EqualValues(t, 3, analyzer.calls.Load())
}
