package reconcile

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lotto-cli/internal/model"
)

func janRange(t *testing.T) model.DateRange {
	t.Helper()
	r, err := model.ParseDateRange("2026-01-01:2026-01-31", time.Now())
	require.NoError(t, err)
	return r
}

func rawDraw(drawNumber int, date, jackpot string) model.RawDraw {
	return model.RawDraw{
		DrawDate:       date,
		DrawNumber:     strconv.Itoa(drawNumber),
		WinningNumbers: []string{"3", "9", "12", "24", "31", "42", "50"},
		BonusNumber:    "7",
		JackpotAmount:  jackpot,
	}
}

func TestReconcileAccepts(t *testing.T) {
	r := New(janRange(t))
	r.Candidate(rawDraw(2101, "January 6, 2026", "$70,000,000.00"))
	r.Candidate(rawDraw(2102, "January 9, 2026", ""))

	require.NoError(t, r.Malformed())
	draws := r.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, 2, r.Total())
	assert.Empty(t, r.Rejected())
	assert.Equal(t, 2101, draws[0].DrawNumber)
	require.NotNil(t, draws[0].JackpotAmount)
	assert.Equal(t, "70000000", draws[0].JackpotAmount.String())
	assert.Nil(t, draws[1].JackpotAmount)
}

func TestReconcileNewestSeenWins(t *testing.T) {
	r := New(janRange(t))
	r.Candidate(rawDraw(1234, "January 6, 2026", "$60,000,000"))
	r.Candidate(rawDraw(2102, "January 9, 2026", ""))
	// Same draw on a later page with a corrected jackpot.
	r.Candidate(rawDraw(1234, "January 6, 2026", "$65,000,000"))

	draws := r.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, 1234, draws[0].DrawNumber)
	require.NotNil(t, draws[0].JackpotAmount)
	assert.Equal(t, "65000000", draws[0].JackpotAmount.String())
}

func TestReconcileOrdering(t *testing.T) {
	r := New(janRange(t))
	// Out of order arrival, including a date tie.
	r.Candidate(rawDraw(2105, "January 20, 2026", ""))
	r.Candidate(rawDraw(2102, "January 9, 2026", ""))
	r.Candidate(rawDraw(2101, "January 9, 2026", ""))
	r.Candidate(rawDraw(2103, "January 13, 2026", ""))

	draws := r.Draws()
	require.Len(t, draws, 4)
	assert.Equal(t, []int{2101, 2102, 2103, 2105},
		[]int{draws[0].DrawNumber, draws[1].DrawNumber, draws[2].DrawNumber, draws[3].DrawNumber})
	for i := 1; i < len(draws); i++ {
		assert.False(t, draws[i].DrawDate.Before(draws[i-1].DrawDate))
	}
}

func TestReconcileRangeGuard(t *testing.T) {
	r := New(janRange(t))
	r.Candidate(rawDraw(2101, "January 6, 2026", ""))
	r.Candidate(rawDraw(2099, "December 30, 2025", ""))
	r.Candidate(rawDraw(2110, "February 3, 2026", ""))

	draws := r.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, 2101, draws[0].DrawNumber)
	assert.Equal(t, 2, r.OutOfRange())
	assert.Empty(t, r.Rejected())
}

func TestReconcileRejectsInvalid(t *testing.T) {
	r := New(janRange(t))
	r.Candidate(rawDraw(2101, "January 6, 2026", ""))

	bad := rawDraw(2102, "January 9, 2026", "")
	bad.WinningNumbers = []string{"3", "9", "12", "24", "31", "42", "99"}
	r.Candidate(bad)

	require.Len(t, r.Draws(), 1)
	require.Len(t, r.Rejected(), 1)
	assert.Equal(t, "winning_numbers", r.Rejected()[0].Field)
	assert.Equal(t, 2, r.Total())
}

func TestReconcileMalformedPoisonsRun(t *testing.T) {
	r := New(janRange(t))
	r.Candidate(rawDraw(2101, "January 6, 2026", ""))

	// A structurally absent field is a contract violation, not bad data.
	r.Candidate(model.RawDraw{DrawDate: "January 9, 2026"})
	require.Error(t, r.Malformed())

	// Later candidates are ignored once poisoned.
	r.Candidate(rawDraw(2103, "January 13, 2026", ""))
	assert.Len(t, r.Draws(), 1)
}

func TestReconcileReject(t *testing.T) {
	r := New(janRange(t))
	r.Reject(model.ExtractionError{Field: "draw_number", Reason: "missing field: draw_number"})
	require.Len(t, r.Rejected(), 1)
}
