// Package pipeline composes the fetch orchestrator and the reconciler
// into one run: fetch output streams into reconciliation as pages land,
// and the run always terminates with a dataset plus a full accounting of
// everything dropped along the way.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lotto-cli/internal/fetch"
	"github.com/sells-group/lotto-cli/internal/model"
	"github.com/sells-group/lotto-cli/internal/reconcile"
	"github.com/sells-group/lotto-cli/pkg/browser"
)

// Controller is the single entry point for a scrape run.
type Controller struct {
	renderer browser.Renderer
	cfg      fetch.Config
}

// New wires a controller around a live render session.
func New(renderer browser.Renderer, cfg fetch.Config) *Controller {
	return &Controller{renderer: renderer, cfg: cfg}
}

// Run fetches and reconciles every draw in rng. On a fatal render abort
// the partial dataset reconciled so far is still returned, with the
// summary marked partial. The error return is reserved for runs that
// produced no usable baseline at all: a failed first request,
// cancellation, or a contract violation in the extracted input.
func (c *Controller) Run(ctx context.Context, rng model.DateRange) ([]model.Draw, *model.RunSummary, error) {
	start := time.Now()
	rec := reconcile.New(rng)
	orch := fetch.New(c.renderer, c.cfg)

	zap.L().Info("pipeline run starting", zap.Stringer("range", rng))

	res, err := orch.Run(ctx, rng, rec)
	summary := &model.RunSummary{
		ScrapedAt:    start.UTC(),
		Range:        rng,
		PagesFetched: res.PagesFetched,
		TotalFetched: rec.Total(),
		Accepted:     0,
		OutOfRange:   rec.OutOfRange(),
		Rejected:     rec.Rejected(),
		FetchErrors:  res.FetchErrors,
		Partial:      res.Partial,
		Duration:     time.Since(start),
	}
	if err != nil {
		return nil, summary, eris.Wrap(err, "pipeline: run failed")
	}
	if merr := rec.Malformed(); merr != nil {
		return nil, summary, eris.Wrap(merr, "pipeline: extracted input violated the record contract")
	}

	draws := rec.Draws()
	summary.Accepted = len(draws)
	summary.Duration = time.Since(start)

	zap.L().Info("pipeline run finished",
		zap.Stringer("range", rng),
		zap.Int("pages", summary.PagesFetched),
		zap.Int("fetched", summary.TotalFetched),
		zap.Int("accepted", summary.Accepted),
		zap.Int("out_of_range", summary.OutOfRange),
		zap.Int("rejected", len(summary.Rejected)),
		zap.Int("fetch_errors", len(summary.FetchErrors)),
		zap.Bool("partial", summary.Partial),
		zap.Duration("duration", summary.Duration),
	)
	return draws, summary, nil
}
