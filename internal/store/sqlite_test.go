package store

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lotto-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sqliteTestDraw(drawNumber int, date string, jackpot string) model.Draw {
	d, err := model.BuildDraw(model.RawDraw{
		DrawDate:       date,
		DrawNumber:     strconv.Itoa(drawNumber),
		WinningNumbers: []string{"3", "9", "12", "24", "31", "42", "50"},
		BonusNumber:    "7",
		JackpotAmount:  jackpot,
	})
	if err != nil {
		panic(err)
	}
	return *d
}

func TestSQLiteSaveAndGetRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rng, err := model.ParseDateRange("2026-01-01:2026-01-31", time.Now())
	require.NoError(t, err)
	summary := &model.RunSummary{
		ScrapedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		Range:     rng,
		Accepted:  2,
	}

	rec, err := s.SaveRun(ctx, summary)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	got, err := s.GetRun(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 2, got.Summary.Accepted)
	assert.Equal(t, rng, got.Summary.Range)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.SaveRun(ctx, &model.RunSummary{Accepted: i})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = s.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteUpsertDraws(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	n, err := s.UpsertDraws(ctx, []model.Draw{
		sqliteTestDraw(2101, "2026-01-06", "$60,000,000"),
		sqliteTestDraw(2102, "2026-01-09", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-scraping the same draw replaces the stored row.
	n, err = s.UpsertDraws(ctx, []model.Draw{
		sqliteTestDraw(2101, "2026-01-06", "$65,000,000"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetDraw(ctx, 2101)
	require.NoError(t, err)
	require.NotNil(t, got.JackpotAmount)
	assert.Equal(t, "65000000", got.JackpotAmount.String())
	assert.Equal(t, []int{3, 9, 12, 24, 31, 42, 50}, got.WinningNumbers)
	assert.Equal(t, 7, got.BonusNumber)
	assert.True(t, got.DrawDate.Equal(time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)))

	other, err := s.GetDraw(ctx, 2102)
	require.NoError(t, err)
	assert.Nil(t, other.JackpotAmount)
	assert.Nil(t, other.Winners)
}

func TestSQLiteGetDrawNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetDraw(context.Background(), 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draw not found")
}

func TestSQLiteListDraws(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.UpsertDraws(ctx, []model.Draw{
		sqliteTestDraw(2103, "2026-01-13", ""),
		sqliteTestDraw(2101, "2026-01-06", ""),
		sqliteTestDraw(2102, "2026-01-09", ""),
		sqliteTestDraw(2099, "2025-12-30", ""),
	})
	require.NoError(t, err)

	all, err := s.ListDraws(ctx, DrawFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, 2099, all[0].DrawNumber)
	assert.Equal(t, 2103, all[3].DrawNumber)

	rng, err := model.ParseDateRange("2026-01-01:2026-01-31", time.Now())
	require.NoError(t, err)
	jan, err := s.ListDraws(ctx, DrawFilter{Range: &rng})
	require.NoError(t, err)
	require.Len(t, jan, 3)
	assert.Equal(t, 2101, jan[0].DrawNumber)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}
