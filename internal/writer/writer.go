// Package writer persists a reconciled dataset to the configured output
// formats with an atomic write discipline: every file is written to a
// temporary location and renamed into place, so a crash mid-write never
// leaves a corrupt output behind.
package writer

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lotto-cli/internal/model"
)

// Output format selectors.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatBoth = "both"
)

// Default output file names under the output directory.
const (
	JSONFileName = "lotto_max_draws.json"
	CSVFileName  = "lotto_max_draws.csv"
)

// Options selects where and how the dataset is persisted.
type Options struct {
	Dir    string
	Format string
	// Append merges the run's draws into a pre-existing output file,
	// deduplicating by draw number with this run's records winning.
	Append bool
}

// Write persists draws and the run summary per opts and returns the
// paths written. JSON and CSV outputs are independent files, so "both"
// writes them concurrently; the pipeline core upstream stays sequential.
func Write(draws []model.Draw, summary *model.RunSummary, opts Options) ([]string, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "writer: create output dir")
	}

	var paths []string
	var g errgroup.Group

	if opts.Format == FormatJSON || opts.Format == FormatBoth {
		path := filepath.Join(opts.Dir, JSONFileName)
		paths = append(paths, path)
		g.Go(func() error {
			return WriteJSON(path, draws, summary, opts.Append)
		})
	}
	if opts.Format == FormatCSV || opts.Format == FormatBoth {
		path := filepath.Join(opts.Dir, CSVFileName)
		paths = append(paths, path)
		g.Go(func() error {
			return WriteCSV(path, draws, opts.Append)
		})
	}
	if len(paths) == 0 {
		return nil, eris.Errorf("writer: unknown format %q", opts.Format)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("dataset written",
		zap.Int("draws", len(draws)),
		zap.Strings("paths", paths),
	)
	return paths, nil
}

// mergeDraws folds next into prev by draw number, next winning on
// conflicts, and returns the merged set in output order.
func mergeDraws(prev, next []model.Draw) []model.Draw {
	byNumber := make(map[int]model.Draw, len(prev)+len(next))
	for _, d := range prev {
		byNumber[d.DrawNumber] = d
	}
	for _, d := range next {
		byNumber[d.DrawNumber] = d
	}

	out := make([]model.Draw, 0, len(byNumber))
	for _, d := range byNumber {
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

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "writer: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrap(err, "writer: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "writer: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrap(err, "writer: rename into place")
	}
	return nil
}
