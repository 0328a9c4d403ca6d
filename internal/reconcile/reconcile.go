// Package reconcile merges candidate records from every fetched page into
// the final validated, deduplicated, ordered dataset.
package reconcile

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lotto-cli/internal/model"
)

// Reconciler accumulates candidates as pages stream in. It implements the
// orchestrator's sink contract and is owned exclusively by one pipeline
// run; nothing here is safe for concurrent use.
type Reconciler struct {
	rng        model.DateRange
	byNumber   map[int]model.Draw
	rejected   []model.ExtractionError
	total      int
	outOfRange int
	malformed  error
}

// New creates a reconciler for one run over the requested range.
func New(rng model.DateRange) *Reconciler {
	return &Reconciler{
		rng:      rng,
		byNumber: make(map[int]model.Draw),
	}
}

// Candidate validates one raw field-group and folds it into the working
// set. Duplicate draw numbers resolve newest-seen-wins: a later page in
// fetch order overwrites an earlier one, accommodating a page re-rendered
// with corrected data. Records dated outside the requested range are
// dropped and counted, not treated as errors.
func (r *Reconciler) Candidate(raw model.RawDraw) {
	if r.malformed != nil {
		return
	}
	r.total++

	draw, err := model.BuildDraw(raw)
	if err != nil {
		var ee *model.ExtractionError
		if eris.As(err, &ee) {
			r.rejected = append(r.rejected, *ee)
			return
		}
		// Anything else is a contract violation, not a data-quality
		// problem; the run must fail rather than quietly drop input.
		r.malformed = err
		return
	}

	if !r.rng.Contains(draw.DrawDate) {
		r.outOfRange++
		zap.L().Debug("draw outside requested range",
			zap.Int("draw_number", draw.DrawNumber),
			zap.Time("draw_date", draw.DrawDate),
		)
		return
	}

	if _, seen := r.byNumber[draw.DrawNumber]; seen {
		zap.L().Debug("duplicate draw number, newest record wins",
			zap.Int("draw_number", draw.DrawNumber),
		)
	}
	r.byNumber[draw.DrawNumber] = *draw
}

// Reject records an extraction-level failure reported by the fetch layer.
func (r *Reconciler) Reject(e model.ExtractionError) {
	r.rejected = append(r.rejected, e)
}

// Malformed returns the contract violation that poisoned the run, if any.
// Once set, subsequent candidates are ignored.
func (r *Reconciler) Malformed() error {
	return r.malformed
}

// Draws returns the deduplicated working set ordered ascending by draw
// date, ties broken by draw number.
func (r *Reconciler) Draws() []model.Draw {
	out := make([]model.Draw, 0, len(r.byNumber))
	for _, d := range r.byNumber {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DrawDate.Equal(out[j].DrawDate) {
			return out[i].DrawDate.Before(out[j].DrawDate)
		}
		return out[i].DrawNumber < out[j].DrawNumber
	})
	return out
}

// Rejected returns every candidate dropped for a data-quality reason.
func (r *Reconciler) Rejected() []model.ExtractionError {
	return r.rejected
}

// Total is the number of candidates seen, accepted or not.
func (r *Reconciler) Total() int { return r.total }

// OutOfRange is the number of valid records dropped by the range guard.
func (r *Reconciler) OutOfRange() int { return r.outOfRange }
