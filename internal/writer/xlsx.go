package writer

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lotto-cli/internal/model"
)

// WriteXLSX exports the dataset as a single-sheet workbook, one draw per
// row under the same column layout as the CSV output.
func WriteXLSX(path string, draws []model.Draw) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Draws")
	if err != nil {
		return eris.Wrap(err, "writer: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range csvHeader {
		header.AddCell().SetString(col)
	}

	for i := range draws {
		d := &draws[i]
		row := sheet.AddRow()
		row.AddCell().SetString(d.DrawDate.Format("2006-01-02"))
		row.AddCell().SetInt(d.DrawNumber)
		for _, n := range d.WinningNumbers {
			row.AddCell().SetInt(n)
		}
		row.AddCell().SetInt(d.BonusNumber)
		if d.JackpotAmount != nil {
			// Exact decimal string, not a float cell, to keep currency
			// precision intact.
			row.AddCell().SetString(d.JackpotAmount.String())
		} else {
			row.AddCell().SetString("")
		}
		if d.Winners != nil {
			row.AddCell().SetInt(*d.Winners)
		} else {
			row.AddCell().SetString("")
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "writer: create temp file")
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := f.Save(tmpName); err != nil {
		return eris.Wrap(err, "writer: save xlsx")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrap(err, "writer: rename into place")
	}
	return nil
}
