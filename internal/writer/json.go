package writer

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lotto-cli/internal/model"
)

// Metadata heads the persisted JSON document: when the scrape ran, what
// range it covered, and everything that went wrong along the way.
type Metadata struct {
	ScrapedAt  time.Time       `json:"scraped_at"`
	TotalDraws int             `json:"total_draws"`
	DateRange  model.DateRange `json:"date_range"`
	Partial    bool            `json:"partial,omitempty"`
	Errors     []string        `json:"errors"`
}

// Document is the on-disk JSON shape.
type Document struct {
	Metadata Metadata     `json:"metadata"`
	Draws    []model.Draw `json:"draws"`
}

// WriteJSON persists the dataset as a single JSON document. In append
// mode, draws already present in the file are carried forward unless
// this run produced a newer record for the same draw number; the
// metadata block always reflects the latest run.
func WriteJSON(path string, draws []model.Draw, summary *model.RunSummary, appendMode bool) error {
	if appendMode {
		prev, err := ReadJSON(path)
		switch {
		case err == nil:
			draws = mergeDraws(prev.Draws, draws)
		case os.IsNotExist(eris.Cause(err)):
			// Nothing to merge on the first run.
		default:
			return err
		}
	}

	doc := Document{
		Metadata: Metadata{
			ScrapedAt:  summary.ScrapedAt,
			TotalDraws: len(draws),
			DateRange:  summary.Range,
			Partial:    summary.Partial,
			Errors:     summary.Errors(),
		},
		Draws: draws,
	}
	if doc.Metadata.Errors == nil {
		doc.Metadata.Errors = []string{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "writer: marshal json document")
	}
	return writeAtomic(path, append(data, '\n'))
}

// ReadJSON loads a previously written JSON document.
func ReadJSON(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "writer: read %s", path)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "writer: parse %s", path)
	}
	return &doc, nil
}
