// Package extract turns one rendered results page into raw draw candidates.
package extract

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Locators maps each draw field to the CSS selector that finds it inside a
// draw-entry container. Selector knowledge is configuration, not code: a
// page redesign means a new locator file, not a new binary.
type Locators struct {
	// Container matches one element per draw entry on the page.
	Container string `yaml:"container"`

	// Required fields. An entry missing any of these is skipped and
	// reported, never built.
	DrawDate       string `yaml:"draw_date"`
	DrawNumber     string `yaml:"draw_number"`
	WinningNumbers string `yaml:"winning_numbers"` // matches the individual number elements
	BonusNumber    string `yaml:"bonus_number"`

	// Optional fields. Missing means null, passed through to validation.
	JackpotAmount string `yaml:"jackpot_amount"`
	Winners       string `yaml:"winners"`

	// HasMore matches the "more results available" control, used for the
	// pagination signal.
	HasMore string `yaml:"has_more"`
}

// DefaultLocators returns the selector set for the OLG past-results page.
func DefaultLocators() Locators {
	return Locators{
		Container:      "div.draw-result, tr.result-row",
		DrawDate:       ".draw-date, td.date",
		DrawNumber:     ".draw-number",
		WinningNumbers: "ul.ball-list li.ball, .winning-number, td.number",
		BonusNumber:    ".bonus-number, li.bonus",
		JackpotAmount:  ".jackpot",
		Winners:        ".winners",
		HasMore:        "button.load-more, a.load-more, button.show-more",
	}
}

// LoadLocators reads a locator set from a YAML file. Fields left empty in
// the file keep their defaults, so a site tweak only needs to override the
// selector that moved.
func LoadLocators(path string) (Locators, error) {
	loc := DefaultLocators()

	data, err := os.ReadFile(path)
	if err != nil {
		return Locators{}, eris.Wrapf(err, "locators: read %s", path)
	}
	if err := yaml.Unmarshal(data, &loc); err != nil {
		return Locators{}, eris.Wrapf(err, "locators: parse %s", path)
	}
	if err := loc.Validate(); err != nil {
		return Locators{}, err
	}
	return loc, nil
}

// Validate rejects locator sets that cannot drive an extraction. Checked
// once at startup so later failures are attributable to a named field.
func (l Locators) Validate() error {
	required := []struct {
		name, sel string
	}{
		{"container", l.Container},
		{"draw_date", l.DrawDate},
		{"draw_number", l.DrawNumber},
		{"winning_numbers", l.WinningNumbers},
		{"bonus_number", l.BonusNumber},
	}
	for _, r := range required {
		if r.sel == "" {
			return eris.Errorf("locators: %s selector is required", r.name)
		}
	}
	return nil
}
