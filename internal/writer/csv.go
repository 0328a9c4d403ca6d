package writer

import (
	"bytes"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lotto-cli/internal/model"
)

// csvHeader is the fixed column layout of the CSV output.
var csvHeader = []string{
	"draw_date", "draw_number",
	"num_1", "num_2", "num_3", "num_4", "num_5", "num_6", "num_7",
	"bonus", "jackpot", "winners",
}

// WriteCSV persists the dataset as CSV. In append mode the existing file
// is read back, merged by draw number with this run winning conflicts,
// and rewritten whole; appending rows blindly would duplicate keys.
func WriteCSV(path string, draws []model.Draw, appendMode bool) error {
	if appendMode {
		prev, err := ReadCSV(path)
		switch {
		case err == nil:
			draws = mergeDraws(prev, draws)
		case os.IsNotExist(eris.Cause(err)):
		default:
			return err
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return eris.Wrap(err, "writer: write csv header")
	}
	for i := range draws {
		if err := w.Write(csvRow(&draws[i])); err != nil {
			return eris.Wrap(err, "writer: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "writer: flush csv")
	}

	return writeAtomic(path, buf.Bytes())
}

// ReadCSV loads a previously written CSV file. Rows run back through
// full record validation, so a hand-edited file that violates the draw
// invariants is rejected rather than silently accepted.
func ReadCSV(path string) ([]model.Draw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "writer: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "writer: parse %s", path)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var draws []model.Draw
	for i, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, eris.Errorf("writer: row %d has %d columns, want %d", i+2, len(row), len(csvHeader))
		}
		raw := model.RawDraw{
			DrawDate:       row[0],
			DrawNumber:     row[1],
			WinningNumbers: row[2:9],
			BonusNumber:    row[9],
			JackpotAmount:  row[10],
			Winners:        row[11],
		}
		draw, err := model.BuildDraw(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "writer: row %d", i+2)
		}
		draws = append(draws, *draw)
	}
	return draws, nil
}

func csvRow(d *model.Draw) []string {
	row := make([]string, 0, len(csvHeader))
	row = append(row, d.DrawDate.Format("2006-01-02"), strconv.Itoa(d.DrawNumber))
	for _, n := range d.WinningNumbers {
		row = append(row, strconv.Itoa(n))
	}
	row = append(row, strconv.Itoa(d.BonusNumber))
	if d.JackpotAmount != nil {
		row = append(row, d.JackpotAmount.String())
	} else {
		row = append(row, "")
	}
	if d.Winners != nil {
		row = append(row, strconv.Itoa(*d.Winners))
	} else {
		row = append(row, "")
	}
	return row
}
