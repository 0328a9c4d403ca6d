package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lotto-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, summary, created_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, summary, created_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(mock.NewRows([]string{"id", "summary", "created_at"}).
			AddRow("run-1", `{"accepted": 3, "pages_fetched": 2}`, created))

	rec, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, 3, rec.Summary.Accepted)
	assert.Equal(t, 2, rec.Summary.PagesFetched)
	assert.Equal(t, created, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.SaveRun(context.Background(), &model.RunSummary{Accepted: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 5, rec.Summary.Accepted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDraw(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	jackpot := "70000000.5"
	winners := 2
	date := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT draw_number, draw_date, winning_numbers, bonus_number, jackpot_amount, winners`).
		WithArgs(2101).
		WillReturnRows(mock.NewRows([]string{"draw_number", "draw_date", "winning_numbers", "bonus_number", "jackpot_amount", "winners"}).
			AddRow(2101, date, "[3,9,12,24,31,42,50]", 7, &jackpot, &winners))

	draw, err := s.GetDraw(context.Background(), 2101)
	require.NoError(t, err)
	assert.Equal(t, 2101, draw.DrawNumber)
	assert.Equal(t, []int{3, 9, 12, 24, 31, 42, 50}, draw.WinningNumbers)
	assert.Equal(t, 7, draw.BonusNumber)
	require.NotNil(t, draw.JackpotAmount)
	assert.Equal(t, "70000000.5", draw.JackpotAmount.String())
	require.NotNil(t, draw.Winners)
	assert.Equal(t, 2, *draw.Winners)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDraw_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT draw_number, draw_date`).
		WithArgs(9999).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetDraw(context.Background(), 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draw not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertDraws_Empty(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	n, err := s.UpsertDraws(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPostgresStore_ListDraws_LimitOffset(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	date := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM draws ORDER BY draw_date, draw_number LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 4).
		WillReturnRows(mock.NewRows([]string{"draw_number", "draw_date", "winning_numbers", "bonus_number", "jackpot_amount", "winners"}).
			AddRow(2105, date, "[3,9,12,24,31,42,50]", 7, (*string)(nil), (*int)(nil)))

	draws, err := s.ListDraws(context.Background(), DrawFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, 2105, draws[0].DrawNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, summary, created_at FROM runs ORDER BY created_at DESC`).
		WithArgs(100).
		WillReturnRows(mock.NewRows([]string{"id", "summary", "created_at"}).
			AddRow("run-2", `{"accepted": 1}`, time.Now()).
			AddRow("run-1", `{"accepted": 4}`, time.Now().Add(-time.Hour)))

	runs, err := s.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
