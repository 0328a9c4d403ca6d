package model

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Lotto Max draw rules.
const (
	NumberCount = 7
	MinNumber   = 1
	MaxNumber   = 50
)

// dateLayouts are the accepted draw-date formats, tried in order.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
}

// Draw is one validated lottery draw result. Draws are immutable values:
// they are created by BuildDraw and never modified afterwards.
type Draw struct {
	DrawDate       time.Time        `json:"draw_date"`
	DrawNumber     int              `json:"draw_number"`
	WinningNumbers []int            `json:"winning_numbers"`
	BonusNumber    int              `json:"bonus_number"`
	JackpotAmount  *decimal.Decimal `json:"jackpot_amount,omitempty"`
	Winners        *int             `json:"winners,omitempty"`
}

// RawDraw is a candidate record as pulled from markup, prior to validation.
// Empty strings mean the field was absent on the page. Fragment carries a
// snippet of the source markup for error reporting.
type RawDraw struct {
	Fragment       string
	DrawDate       string
	DrawNumber     string
	WinningNumbers []string
	BonusNumber    string
	JackpotAmount  string
	Winners        string
}

// BuildDraw validates a raw candidate and constructs a Draw. Data-quality
// problems come back as *ExtractionError naming the offending field. A raw
// group missing a required field entirely is a caller bug (the extractor
// must have skipped it already) and comes back as *MalformedInputError.
func BuildDraw(raw RawDraw) (*Draw, error) {
	if raw.DrawDate == "" {
		return nil, &MalformedInputError{Field: "draw_date"}
	}
	if raw.DrawNumber == "" {
		return nil, &MalformedInputError{Field: "draw_number"}
	}
	if len(raw.WinningNumbers) == 0 {
		return nil, &MalformedInputError{Field: "winning_numbers"}
	}
	if raw.BonusNumber == "" {
		return nil, &MalformedInputError{Field: "bonus_number"}
	}

	date, err := ParseDrawDate(raw.DrawDate)
	if err != nil {
		return nil, extractErr(raw, "draw_date", "unparseable date %q", raw.DrawDate)
	}

	number, err := strconv.Atoi(strings.TrimSpace(raw.DrawNumber))
	if err != nil || number <= 0 {
		return nil, extractErr(raw, "draw_number", "not a positive integer: %q", raw.DrawNumber)
	}

	if len(raw.WinningNumbers) != NumberCount {
		return nil, extractErr(raw, "winning_numbers", "expected %d numbers, got %d", NumberCount, len(raw.WinningNumbers))
	}
	numbers := make([]int, 0, NumberCount)
	seen := make(map[int]bool, NumberCount)
	for _, tok := range raw.WinningNumbers {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, extractErr(raw, "winning_numbers", "not a number: %q", tok)
		}
		if n < MinNumber || n > MaxNumber {
			return nil, extractErr(raw, "winning_numbers", "number %d out of range [%d, %d]", n, MinNumber, MaxNumber)
		}
		if seen[n] {
			return nil, extractErr(raw, "winning_numbers", "duplicate number %d", n)
		}
		seen[n] = true
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	bonus, err := strconv.Atoi(strings.TrimSpace(raw.BonusNumber))
	if err != nil {
		return nil, extractErr(raw, "bonus_number", "not a number: %q", raw.BonusNumber)
	}
	if bonus < MinNumber || bonus > MaxNumber {
		return nil, extractErr(raw, "bonus_number", "number %d out of range [%d, %d]", bonus, MinNumber, MaxNumber)
	}

	draw := &Draw{
		DrawDate:       date,
		DrawNumber:     number,
		WinningNumbers: numbers,
		BonusNumber:    bonus,
	}

	if raw.JackpotAmount != "" {
		amount, err := ParseMoney(raw.JackpotAmount)
		if err != nil {
			return nil, extractErr(raw, "jackpot_amount", "unparseable amount %q", raw.JackpotAmount)
		}
		if amount.IsNegative() {
			return nil, extractErr(raw, "jackpot_amount", "negative amount %s", amount)
		}
		draw.JackpotAmount = &amount
	}

	if raw.Winners != "" {
		winners, err := strconv.Atoi(strings.TrimSpace(raw.Winners))
		if err != nil || winners < 0 {
			return nil, extractErr(raw, "winners", "not a non-negative integer: %q", raw.Winners)
		}
		draw.Winners = &winners
	}

	return draw, nil
}

// ParseDrawDate parses a draw date in any of the accepted layouts. The
// result is truncated to the calendar day in UTC.
func ParseDrawDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseMoney parses a currency string like "$70,000,000" into an exact
// decimal. Currency symbols, commas, and spaces are stripped first.
func ParseMoney(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	return decimal.NewFromString(cleaned)
}
