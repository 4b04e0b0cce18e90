package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tendersight/internal/domain"
)

const snapshot = `[
  {"id": "a", "title": "Skolmat", "contracting_authority": "Uppsala kommun", "winner_name": "Mat AB",
   "value": "1250000.50", "category_codes": "55520000-1,15000000-8", "award_date": "2025-02-01", "municipality": "Uppsala"},
  {"id": "b", "contracting_authority": "Malmö stad", "winner_name": "Bygg AB", "winner_org_id": "556000-0000",
   "value": 42, "award_date": "2021-06-30T00:00:00Z"},
  {"id": "c", "contracting_authority": "Malmö stad", "winner_name": "Bygg AB", "value": 0, "award_date": null}
]`

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRecords_Decode(t *testing.T) {
	got, err := New(writeSnapshot(t, snapshot)).Records(context.Background(), domain.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.True(t, decimal.RequireFromString("1250000.50").Equal(got[0].Value))
	assert.Equal(t, "55520000-1", got[0].PrimaryCategory())
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), *got[0].AwardDate)
	assert.Equal(t, "556000-0000", *got[1].WinnerOrgID)
	assert.True(t, decimal.NewFromInt(42).Equal(got[1].Value))
	assert.Nil(t, got[2].AwardDate)
	assert.Nil(t, got[2].Municipality)
}

func TestRecords_Filter(t *testing.T) {
	src := New(writeSnapshot(t, snapshot))
	got, err := src.Records(context.Background(), domain.RecordFilter{
		AwardedWithin: 365 * 24 * time.Hour,
		Now:           time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestRecords_Unavailable(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json")).Records(context.Background(), domain.RecordFilter{})
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, err = New(writeSnapshot(t, `{"not": "an array"}`)).Records(context.Background(), domain.RecordFilter{})
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestDecode_RejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"missing id":     `[{"value": 1}]`,
		"negative value": `[{"id": "x", "value": -5}]`,
		"bad date":       `[{"id": "x", "value": 1, "award_date": "01/02/2025"}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(body))
			assert.Error(t, err)
		})
	}
}
