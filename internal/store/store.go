// Package store archives scrape runs and the reconciled draw history in
// SQLite or PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lotto-cli/internal/model"
)

// RunRecord is one archived pipeline execution.
type RunRecord struct {
	ID        string           `json:"id"`
	Summary   model.RunSummary `json:"summary"`
	CreatedAt time.Time        `json:"created_at"`
}

// RunFilter specifies criteria for listing archived runs.
type RunFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DrawFilter specifies criteria for listing archived draws.
type DrawFilter struct {
	Range  *model.DateRange `json:"range,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the draw archive.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, summary *model.RunSummary) (*RunRecord, error)
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error)

	// Draws
	UpsertDraws(ctx context.Context, draws []model.Draw) (int, error)
	GetDraw(ctx context.Context, drawNumber int) (*model.Draw, error)
	ListDraws(ctx context.Context, filter DrawFilter) ([]model.Draw, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
