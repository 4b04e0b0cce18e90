package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tendersight/internal/adapters/bolt"
	"tendersight/internal/adapters/jsonfile"
	"tendersight/internal/adapters/memory"
	"tendersight/internal/config"
	"tendersight/internal/domain"
	"tendersight/internal/services/detectors"
)

func TestOpenStores_OfflineDryRun(t *testing.T) {
	st, err := openStores(context.Background(), config.Config{}, storeOptions{recordsPath: "records.json", dryRun: true})
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &jsonfile.Records{}, st.source)
	assert.IsType(t, &memory.Findings{}, st.sink)
	assert.IsType(t, &memory.Runs{}, st.runs)
	assert.Nil(t, st.database)
}

func TestOpenStores_OfflineBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findings.db")
	st, err := openStores(context.Background(), config.Config{}, storeOptions{recordsPath: "records.json", boltPath: path})
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &bolt.Store{}, st.sink)
	assert.Same(t, st.sink, st.reader)
}

func TestOpenStores_StatsFromBoltNeedsNoDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findings.db")
	st, err := openStores(context.Background(), config.Config{}, storeOptions{boltPath: path, findingsOnly: true})
	require.NoError(t, err)
	defer st.Close()
	assert.Nil(t, st.source)
	assert.NotNil(t, st.reader)
}

func TestOpenStores_RequiresDatabase(t *testing.T) {
	_, err := openStores(context.Background(), config.Config{}, storeOptions{})
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, err = openStores(context.Background(), config.Config{}, storeOptions{recordsPath: "records.json"})
	assert.ErrorContains(t, err, "DATABASE_URL", "findings need a store")
}

func TestAnalyze_OfflineSnapshotEndToEnd(t *testing.T) {
	snapshot := `[
	  {"id": "1", "contracting_authority": "Uppsala kommun", "winner_name": "A", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-01"},
	  {"id": "2", "contracting_authority": "Uppsala kommun", "winner_name": "B", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-02"},
	  {"id": "3", "contracting_authority": "Uppsala kommun", "winner_name": "C", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-03"},
	  {"id": "4", "contracting_authority": "Uppsala kommun", "winner_name": "D", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-04"},
	  {"id": "5", "contracting_authority": "Uppsala kommun", "winner_name": "E", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-05"},
	  {"id": "6", "contracting_authority": "Uppsala kommun", "winner_name": "F", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-06"},
	  {"id": "7", "contracting_authority": "Uppsala kommun", "winner_name": "G", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-07"},
	  {"id": "8", "contracting_authority": "Uppsala kommun", "winner_name": "H", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-08"},
	  {"id": "9", "contracting_authority": "Uppsala kommun", "winner_name": "I", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-09"},
	  {"id": "10", "contracting_authority": "Uppsala kommun", "winner_name": "J", "value": 100, "category_codes": "55520000-1", "award_date": "2025-01-10"},
	  {"id": "big", "contracting_authority": "Uppsala kommun", "winner_name": "K", "value": 10000, "category_codes": "55520000-1", "award_date": "2025-01-11"}
	]`
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o600))

	a := &app{cfg: config.Config{Detectors: detectors.DefaultSettings()}}
	st, err := openStores(context.Background(), a.cfg, storeOptions{recordsPath: path, dryRun: true})
	require.NoError(t, err)
	defer st.Close()

	report, err := newEngine(a, st, 5).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, report.RecordCount)
	assert.GreaterOrEqual(t, report.FindingsByKind[domain.KindPriceOutlier], 1)
	assert.LessOrEqual(t, len(report.Top), 5)
}
