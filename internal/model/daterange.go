package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Named presets accepted by ParseDateRange.
const (
	RangeLast7Days  = "last_7_days"
	RangeLast30Days = "last_30_days"
	RangeLast90Days = "last_90_days"
	RangeYearToDate = "year_to_date"
)

// DateRange is an inclusive calendar-date range. Times are compared at day
// granularity; the time-of-day component carries no meaning.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseDateRange resolves a preset name or a "YYYY-MM-DD:YYYY-MM-DD" pair
// into a DateRange relative to now.
func ParseDateRange(s string, now time.Time) (DateRange, error) {
	today := Day(now)

	switch s {
	case RangeLast7Days:
		return DateRange{Start: today.AddDate(0, 0, -7), End: today}, nil
	case RangeLast30Days:
		return DateRange{Start: today.AddDate(0, 0, -30), End: today}, nil
	case RangeLast90Days:
		return DateRange{Start: today.AddDate(0, 0, -90), End: today}, nil
	case RangeYearToDate:
		return DateRange{Start: time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC), End: today}, nil
	}

	start, end, ok := strings.Cut(s, ":")
	if !ok {
		return DateRange{}, eris.Errorf("invalid date range %q (preset or YYYY-MM-DD:YYYY-MM-DD)", s)
	}
	startDate, err := time.Parse("2006-01-02", strings.TrimSpace(start))
	if err != nil {
		return DateRange{}, eris.Wrapf(err, "invalid range start %q", start)
	}
	endDate, err := time.Parse("2006-01-02", strings.TrimSpace(end))
	if err != nil {
		return DateRange{}, eris.Wrapf(err, "invalid range end %q", end)
	}
	if endDate.Before(startDate) {
		return DateRange{}, eris.Errorf("range end %s before start %s", end, start)
	}
	return DateRange{Start: Day(startDate), End: Day(endDate)}, nil
}

// YearRange covers one full calendar year.
func YearRange(year int) DateRange {
	return DateRange{
		Start: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

// SingleDay is the degenerate range covering one draw date.
func SingleDay(t time.Time) DateRange {
	d := Day(t)
	return DateRange{Start: d, End: d}
}

// Contains reports whether t falls inside the range, inclusive on both
// ends, at day granularity.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// DrawDates lists every Lotto Max draw date (Tuesday and Friday) inside
// the range, ascending.
func (r DateRange) DrawDates() []time.Time {
	var dates []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Tuesday || wd == time.Friday {
			dates = append(dates, d)
		}
	}
	return dates
}

func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ":" + r.End.Format("2006-01-02")
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
