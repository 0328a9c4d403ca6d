package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lotto-cli/internal/model"
)

func testDraw(drawNumber int, date string, jackpot string) model.Draw {
	d, err := model.ParseDrawDate(date)
	if err != nil {
		panic(err)
	}
	draw := model.Draw{
		DrawDate:       d,
		DrawNumber:     drawNumber,
		WinningNumbers: []int{3, 9, 12, 24, 31, 42, 50},
		BonusNumber:    7,
	}
	if jackpot != "" {
		amt, err := model.ParseMoney(jackpot)
		if err != nil {
			panic(err)
		}
		draw.JackpotAmount = &amt
	}
	return draw
}

func testSummary(t *testing.T) *model.RunSummary {
	t.Helper()
	rng, err := model.ParseDateRange("2026-01-01:2026-01-31", time.Now())
	require.NoError(t, err)
	return &model.RunSummary{
		ScrapedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		Range:     rng,
	}
}

func TestJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, JSONFileName)

	winners := 2
	draws := []model.Draw{
		testDraw(2101, "2026-01-06", "$70,000,000.50"),
		testDraw(2102, "2026-01-09", ""),
	}
	draws[0].Winners = &winners

	require.NoError(t, WriteJSON(path, draws, testSummary(t), false))

	doc, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Metadata.TotalDraws)
	assert.NotNil(t, doc.Metadata.Errors)
	require.Len(t, doc.Draws, 2)
	assert.Equal(t, draws[0].DrawNumber, doc.Draws[0].DrawNumber)
	assert.Equal(t, draws[0].WinningNumbers, doc.Draws[0].WinningNumbers)
	require.NotNil(t, doc.Draws[0].JackpotAmount)
	assert.True(t, doc.Draws[0].JackpotAmount.Equal(decimal.RequireFromString("70000000.50")))
	require.NotNil(t, doc.Draws[0].Winners)
	assert.Equal(t, 2, *doc.Draws[0].Winners)
	assert.True(t, doc.Draws[0].DrawDate.Equal(draws[0].DrawDate))
	assert.Nil(t, doc.Draws[1].JackpotAmount)
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CSVFileName)

	winners := 1
	draws := []model.Draw{
		testDraw(2101, "2026-01-06", "$70,000,000.50"),
		testDraw(2102, "2026-01-09", ""),
	}
	draws[1].Winners = &winners

	require.NoError(t, WriteCSV(path, draws, false))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, draws[0].DrawNumber, got[0].DrawNumber)
	assert.Equal(t, draws[0].WinningNumbers, got[0].WinningNumbers)
	assert.True(t, got[0].DrawDate.Equal(draws[0].DrawDate))
	require.NotNil(t, got[0].JackpotAmount)
	assert.True(t, got[0].JackpotAmount.Equal(decimal.RequireFromString("70000000.50")))
	assert.Nil(t, got[1].JackpotAmount)
	require.NotNil(t, got[1].Winners)
	assert.Equal(t, 1, *got[1].Winners)
}

func TestCSVHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CSVFileName)

	require.NoError(t, WriteCSV(path, []model.Draw{testDraw(2101, "2026-01-06", "")}, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "draw_date,draw_number,num_1,num_2,num_3,num_4,num_5,num_6,num_7,bonus,jackpot,winners", lines[0])
}

func TestJSONAppendDeduplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, JSONFileName)

	require.NoError(t, WriteJSON(path, []model.Draw{
		testDraw(2101, "2026-01-06", "$60,000,000"),
		testDraw(2102, "2026-01-09", ""),
	}, testSummary(t), false))

	// Second run re-scrapes 2102 with a corrected jackpot and adds 2103.
	require.NoError(t, WriteJSON(path, []model.Draw{
		testDraw(2102, "2026-01-09", "$65,000,000"),
		testDraw(2103, "2026-01-13", ""),
	}, testSummary(t), true))

	doc, err := ReadJSON(path)
	require.NoError(t, err)
	require.Len(t, doc.Draws, 3)
	assert.Equal(t, 3, doc.Metadata.TotalDraws)
	assert.Equal(t, 2101, doc.Draws[0].DrawNumber)
	assert.Equal(t, 2102, doc.Draws[1].DrawNumber)
	require.NotNil(t, doc.Draws[1].JackpotAmount)
	assert.Equal(t, "65000000", doc.Draws[1].JackpotAmount.String())
	assert.Equal(t, 2103, doc.Draws[2].DrawNumber)
}

func TestCSVAppendDeduplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CSVFileName)

	require.NoError(t, WriteCSV(path, []model.Draw{testDraw(2101, "2026-01-06", "$60,000,000")}, false))
	require.NoError(t, WriteCSV(path, []model.Draw{
		testDraw(2101, "2026-01-06", "$61,500,000"),
		testDraw(2102, "2026-01-09", ""),
	}, true))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].JackpotAmount)
	assert.Equal(t, "61500000", got[0].JackpotAmount.String())
}

func TestAppendIntoMissingFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteJSON(filepath.Join(dir, JSONFileName),
		[]model.Draw{testDraw(2101, "2026-01-06", "")}, testSummary(t), true))
	require.NoError(t, WriteCSV(filepath.Join(dir, CSVFileName),
		[]model.Draw{testDraw(2101, "2026-01-06", "")}, true))
}

func TestWriteBothFormats(t *testing.T) {
	dir := t.TempDir()

	paths, err := Write([]model.Draw{testDraw(2101, "2026-01-06", "")}, testSummary(t), Options{
		Dir:    dir,
		Format: FormatBoth,
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	_, err := Write(nil, testSummary(t), Options{Dir: t.TempDir(), Format: "xml"})
	assert.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "draws.xlsx")

	draws := []model.Draw{testDraw(2101, "2026-01-06", "$70,000,000.50")}
	require.NoError(t, WriteXLSX(path, draws))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "draw_date", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "2026-01-06", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "2101", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "70000000.5", sheet.Rows[1].Cells[10].String())
}

func TestRunSummaryErrorsInMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, JSONFileName)

	summary := testSummary(t)
	summary.Partial = true
	summary.FetchErrors = []model.FetchError{{Request: "page 2 (2026-01-01:2026-01-31)", Reason: "browser crashed", Attempts: 1, Fatal: true}}

	require.NoError(t, WriteJSON(path, nil, summary, false))
	doc, err := ReadJSON(path)
	require.NoError(t, err)
	assert.True(t, doc.Metadata.Partial)
	require.Len(t, doc.Metadata.Errors, 1)
	assert.Contains(t, doc.Metadata.Errors[0], "fatal fetch page 2")
}
