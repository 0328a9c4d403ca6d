package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lotto-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Dates are stored as YYYY-MM-DD text and jackpots as exact decimal
// strings; SQLite's numeric affinity would quietly turn the latter into
// floats.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS draws (
	draw_number     INTEGER PRIMARY KEY,
	draw_date       TEXT NOT NULL,
	winning_numbers TEXT NOT NULL,
	bonus_number    INTEGER NOT NULL,
	jackpot_amount  TEXT,
	winners         INTEGER,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	summary    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_draws_draw_date ON draws(draw_date);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, summary *model.RunSummary) (*RunRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal summary")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, summary, created_at) VALUES (?, ?, ?)`,
		id, string(summaryJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &RunRecord{ID: id, Summary: *summary, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, summary, created_at FROM runs WHERE id = ?`,
		runID,
	)

	var rec RunRecord
	var summaryJSON string
	err := row.Scan(&rec.ID, &summaryJSON, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}
	return &rec, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, summary, created_at FROM runs ORDER BY created_at DESC LIMIT ?`
	args := []any{limit}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var summaryJSON string
		if err := rows.Scan(&rec.ID, &summaryJSON, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		runs = append(runs, rec)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) UpsertDraws(ctx context.Context, draws []model.Draw) (int, error) {
	if len(draws) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO draws (draw_number, draw_date, winning_numbers, bonus_number, jackpot_amount, winners, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (draw_number) DO UPDATE SET
			draw_date = excluded.draw_date,
			winning_numbers = excluded.winning_numbers,
			bonus_number = excluded.bonus_number,
			jackpot_amount = excluded.jackpot_amount,
			winners = excluded.winners,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range draws {
		args, err := drawArgs(&draws[i], now)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert draw %d", draws[i].DrawNumber)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return len(draws), nil
}

func (s *SQLiteStore) GetDraw(ctx context.Context, drawNumber int) (*model.Draw, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT draw_number, draw_date, winning_numbers, bonus_number, jackpot_amount, winners
		 FROM draws WHERE draw_number = ?`,
		drawNumber,
	)
	draw, err := scanDraw(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("draw not found: %d", drawNumber)
	}
	return draw, err
}

func (s *SQLiteStore) ListDraws(ctx context.Context, filter DrawFilter) ([]model.Draw, error) {
	query := `SELECT draw_number, draw_date, winning_numbers, bonus_number, jackpot_amount, winners FROM draws WHERE 1=1`
	var args []any

	if filter.Range != nil {
		query += ` AND draw_date >= ? AND draw_date <= ?`
		args = append(args, filter.Range.Start.Format("2006-01-02"), filter.Range.End.Format("2006-01-02"))
	}
	query += ` ORDER BY draw_date, draw_number`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list draws")
	}
	defer rows.Close()

	var draws []model.Draw
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, err
		}
		draws = append(draws, *draw)
	}
	return draws, eris.Wrap(rows.Err(), "sqlite: list draws iterate")
}

// helpers

func drawArgs(d *model.Draw, now time.Time) ([]any, error) {
	numbersJSON, err := json.Marshal(d.WinningNumbers)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal winning numbers")
	}

	var jackpot any
	if d.JackpotAmount != nil {
		jackpot = d.JackpotAmount.String()
	}
	var winners any
	if d.Winners != nil {
		winners = *d.Winners
	}

	return []any{
		d.DrawNumber,
		d.DrawDate.Format("2006-01-02"),
		string(numbersJSON),
		d.BonusNumber,
		jackpot,
		winners,
		now,
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDraw(row scannable) (*model.Draw, error) {
	var d model.Draw
	var dateStr, numbersJSON string
	var jackpot sql.NullString
	var winners sql.NullInt64

	err := row.Scan(&d.DrawNumber, &dateStr, &numbersJSON, &d.BonusNumber, &jackpot, &winners)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan draw")
	}

	d.DrawDate, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse draw date %q", dateStr)
	}
	if err := json.Unmarshal([]byte(numbersJSON), &d.WinningNumbers); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal winning numbers")
	}
	if jackpot.Valid {
		amt, err := decimal.NewFromString(jackpot.String)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse jackpot %q", jackpot.String)
		}
		d.JackpotAmount = &amt
	}
	if winners.Valid {
		w := int(winners.Int64)
		d.Winners = &w
	}
	return &d, nil
}
