// Package fetch drives the render collaborator through a strictly
// sequential fetch plan, paginated or per draw date, and streams
// extracted candidates to a sink in the order they were seen. Sequencing is load-bearing: the
// reconciler's newest-seen-wins rule depends on it, and the browser
// session behind the Renderer cannot serve concurrent callers.
package fetch

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lotto-cli/internal/extract"
	"github.com/sells-group/lotto-cli/internal/model"
	"github.com/sells-group/lotto-cli/internal/resilience"
	"github.com/sells-group/lotto-cli/pkg/browser"
)

// Sink receives extraction output as each page lands.
type Sink interface {
	Candidate(raw model.RawDraw)
	Reject(err model.ExtractionError)
}

// Config controls one orchestrator run.
type Config struct {
	Retry             resilience.RetryConfig
	MaxPages          int
	RequestsPerSecond float64
	Locators          extract.Locators
	// PerDate switches from load-more pagination over one range request
	// to one request per Tuesday/Friday draw date in the range, for
	// targets whose URL template filters to a single date.
	PerDate bool
}

// Result summarizes the fetch side of a run. Reconciliation counts live
// with the reconciler; this is strictly about pages and render failures.
type Result struct {
	PagesFetched int
	Candidates   int
	FetchErrors  []model.FetchError
	Partial      bool
}

// Orchestrator issues render requests one at a time, retrying transient
// failures per the configured policy.
type Orchestrator struct {
	renderer browser.Renderer
	cfg      Config
	limiter  *rate.Limiter
}

// New builds an orchestrator around a live render session.
func New(renderer browser.Renderer, cfg Config) *Orchestrator {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Orchestrator{renderer: renderer, cfg: cfg, limiter: limiter}
}

// Run executes the fetch plan for rng. The default plan issues one range
// request and walks its pages until the rendered page stops advertising
// more results or the page safety bound is hit; with PerDate set it
// issues one single-day request per Tuesday/Friday draw date in the
// range instead. Either way each rendered document is extracted and
// streamed to sink before the next request is issued.
//
// Failure policy: a request whose retries exhaust is recorded and
// skipped, except the very first request, where no baseline render was
// ever achieved and the run fails outright. A fatal render error stops
// the run immediately; everything streamed so far stands and the result
// is marked partial.
func (o *Orchestrator) Run(ctx context.Context, rng model.DateRange, sink Sink) (*Result, error) {
	res := &Result{}
	if o.cfg.PerDate {
		return res, o.runPerDate(ctx, rng, sink, res)
	}
	return res, o.runPaginated(ctx, rng, sink, res)
}

func (o *Orchestrator) runPaginated(ctx context.Context, rng model.DateRange, sink Sink, res *Result) error {
	for page := 0; page < o.cfg.MaxPages; page++ {
		req := browser.Request{Range: rng, PageIndex: page}
		doc, stop, err := o.fetchOne(ctx, req, page == 0, sink, res)
		if err != nil || stop {
			return err
		}
		if doc == nil {
			continue
		}
		if !o.renderer.HasMorePages(doc) {
			return nil
		}
	}

	zap.L().Warn("page safety bound reached, stopping pagination",
		zap.Int("max_pages", o.cfg.MaxPages),
	)
	return nil
}

func (o *Orchestrator) runPerDate(ctx context.Context, rng model.DateRange, sink Sink, res *Result) error {
	dates := rng.DrawDates()
	zap.L().Info("per-date fetch plan",
		zap.Stringer("range", rng),
		zap.Int("draw_dates", len(dates)),
	)

	for i, date := range dates {
		req := browser.Request{Range: model.SingleDay(date), PageIndex: 0}
		_, stop, err := o.fetchOne(ctx, req, i == 0, sink, res)
		if err != nil || stop {
			return err
		}
	}
	return nil
}

// fetchOne renders one request under the failure policy and streams its
// extraction output. A nil document with stop unset means the request's
// retries exhausted and the run moves on without it.
func (o *Orchestrator) fetchOne(ctx context.Context, req browser.Request, first bool, sink Sink, res *Result) (doc *goquery.Document, stop bool, err error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, true, eris.Wrap(err, "fetch: rate limit wait")
	}

	doc, attempts, err := o.render(ctx, req)
	if err != nil {
		fatal := resilience.IsFatal(err)
		res.FetchErrors = append(res.FetchErrors, model.FetchError{
			Request:  req.String(),
			Reason:   err.Error(),
			Attempts: attempts,
			Fatal:    fatal,
		})
		if ctx.Err() != nil {
			return nil, true, eris.Wrapf(err, "fetch: run cancelled at %s", req)
		}
		if first {
			return nil, true, eris.Wrapf(err, "fetch: first request %s failed", req)
		}
		if fatal {
			zap.L().Error("fatal render error, aborting run",
				zap.Stringer("request", req),
				zap.Error(err),
			)
			res.Partial = true
			return nil, true, nil
		}
		zap.L().Warn("render retries exhausted, skipping request",
			zap.Stringer("request", req),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, false, nil
	}

	res.PagesFetched++
	raws, errs := extract.Extract(doc, o.cfg.Locators)
	for i := range raws {
		sink.Candidate(raws[i])
	}
	for _, ee := range errs {
		sink.Reject(ee)
	}
	res.Candidates += len(raws)

	zap.L().Info("page fetched",
		zap.Stringer("request", req),
		zap.Int("candidates", len(raws)),
		zap.Int("rejected", len(errs)),
	)
	return doc, false, nil
}

// render performs one request under the retry policy and reports how
// many attempts it consumed.
func (o *Orchestrator) render(ctx context.Context, req browser.Request) (*goquery.Document, int, error) {
	attempts := 1
	cfg := o.cfg.Retry
	cfg.OnRetry = func(attempt int, err error) {
		attempts = attempt + 1
		zap.L().Warn("render attempt failed, backing off",
			zap.Stringer("request", req),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	doc, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*goquery.Document, error) {
		return o.renderer.Render(ctx, req)
	})
	return doc, attempts, err
}
