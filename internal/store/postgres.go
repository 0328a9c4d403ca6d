package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/lotto-cli/internal/db"
	"github.com/sells-group/lotto-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run": `INSERT INTO runs (id, summary, created_at) VALUES ($1, $2, $3)`,
	"get_run":    `SELECT id, summary, created_at FROM runs WHERE id = $1`,
	"get_draw": `SELECT draw_number, draw_date, winning_numbers, bonus_number, jackpot_amount, winners
		FROM draws WHERE draw_number = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Jackpots are stored as TEXT rather than NUMERIC so values survive a
// round trip as the exact decimal strings the scraper produced.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS draws (
	draw_number     INTEGER PRIMARY KEY,
	draw_date       DATE NOT NULL,
	winning_numbers JSONB NOT NULL,
	bonus_number    INTEGER NOT NULL,
	jackpot_amount  TEXT,
	winners         INTEGER,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	summary    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_draws_draw_date ON draws(draw_date);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, summary *model.RunSummary) (*RunRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal summary")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, summary, created_at) VALUES ($1, $2, $3)`,
		id, string(summaryJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &RunRecord{ID: id, Summary: *summary, CreatedAt: now}, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, summary, created_at FROM runs WHERE id = $1`,
		runID,
	)

	var rec RunRecord
	var summaryJSON string
	err := row.Scan(&rec.ID, &summaryJSON, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal summary")
	}
	return &rec, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, summary, created_at FROM runs ORDER BY created_at DESC LIMIT $1`
	args := []any{limit}
	if filter.Offset > 0 {
		query += ` OFFSET $2`
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var summaryJSON string
		if err := rows.Scan(&rec.ID, &summaryJSON, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		runs = append(runs, rec)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// drawColumns is the bulk-upsert column layout for the draws table.
var drawColumns = []string{
	"draw_number", "draw_date", "winning_numbers", "bonus_number",
	"jackpot_amount", "winners", "updated_at",
}

func (s *PostgresStore) UpsertDraws(ctx context.Context, draws []model.Draw) (int, error) {
	if len(draws) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(draws))
	for i := range draws {
		d := &draws[i]

		numbersJSON, err := json.Marshal(d.WinningNumbers)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal winning numbers")
		}
		var jackpot any
		if d.JackpotAmount != nil {
			jackpot = d.JackpotAmount.String()
		}
		var winners any
		if d.Winners != nil {
			winners = *d.Winners
		}

		rows = append(rows, []any{
			d.DrawNumber,
			d.DrawDate,
			string(numbersJSON),
			d.BonusNumber,
			jackpot,
			winners,
			now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "draws",
		Columns:      drawColumns,
		ConflictKeys: []string{"draw_number"},
	}, rows)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) GetDraw(ctx context.Context, drawNumber int) (*model.Draw, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT draw_number, draw_date, winning_numbers, bonus_number, jackpot_amount, winners
		 FROM draws WHERE draw_number = $1`,
		drawNumber,
	)
	draw, err := scanPostgresDraw(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("draw not found: %d", drawNumber)
	}
	return draw, err
}

func (s *PostgresStore) ListDraws(ctx context.Context, filter DrawFilter) ([]model.Draw, error) {
	query := `SELECT draw_number, draw_date, winning_numbers, bonus_number, jackpot_amount, winners FROM draws`
	var args []any

	if filter.Range != nil {
		query += ` WHERE draw_date >= $1 AND draw_date <= $2`
		args = append(args, filter.Range.Start, filter.Range.End)
	}
	query += ` ORDER BY draw_date, draw_number`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list draws")
	}
	defer rows.Close()

	var draws []model.Draw
	for rows.Next() {
		draw, err := scanPostgresDraw(rows)
		if err != nil {
			return nil, err
		}
		draws = append(draws, *draw)
	}
	return draws, eris.Wrap(rows.Err(), "postgres: list draws iterate")
}

func scanPostgresDraw(row pgx.Row) (*model.Draw, error) {
	var d model.Draw
	var numbersJSON string
	var jackpot *string
	var winners *int

	err := row.Scan(&d.DrawNumber, &d.DrawDate, &numbersJSON, &d.BonusNumber, &jackpot, &winners)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan draw")
	}

	if err := json.Unmarshal([]byte(numbersJSON), &d.WinningNumbers); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal winning numbers")
	}
	if jackpot != nil {
		amt, err := decimal.NewFromString(*jackpot)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: parse jackpot %q", *jackpot)
		}
		d.JackpotAmount = &amt
	}
	d.Winners = winners
	return &d, nil
}
