package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/lotto-cli/internal/model"
)

// fragmentLimit bounds the markup snippet carried on errors.
const fragmentLimit = 200

// Extract locates every draw entry in a rendered document and resolves its
// fields by locator. Entries missing a required field are skipped and
// reported; a page with zero containers yields zero candidates and zero
// errors (a reportable no-results page, not a failure). The document is
// only read, never modified.
func Extract(doc *goquery.Document, loc Locators) ([]model.RawDraw, []model.ExtractionError) {
	var (
		raws []model.RawDraw
		errs []model.ExtractionError
	)

	containers := doc.Find(loc.Container)
	zap.L().Debug("extracting draw entries",
		zap.Int("containers", containers.Length()),
	)

	containers.Each(func(_ int, entry *goquery.Selection) {
		raw, missing := extractEntry(entry, loc)
		if missing != "" {
			errs = append(errs, model.ExtractionError{
				Fragment: fragment(entry),
				Field:    missing,
				Reason:   "missing field: " + missing,
			})
			return
		}
		raws = append(raws, raw)
	})

	return raws, errs
}

// extractEntry resolves one container's fields. It returns the name of the
// first missing required field, or "" when the entry is complete enough to
// hand to validation.
func extractEntry(entry *goquery.Selection, loc Locators) (model.RawDraw, string) {
	raw := model.RawDraw{Fragment: fragment(entry)}

	raw.DrawDate = text(entry, loc.DrawDate)
	if raw.DrawDate == "" {
		return raw, "draw_date"
	}

	raw.DrawNumber = text(entry, loc.DrawNumber)
	if raw.DrawNumber == "" {
		return raw, "draw_number"
	}

	numbers := texts(entry, loc.WinningNumbers)
	raw.BonusNumber = text(entry, loc.BonusNumber)
	if raw.BonusNumber == "" && len(numbers) > model.NumberCount {
		// Some layouts render the bonus as the trailing ball in the same
		// list as the main numbers.
		raw.BonusNumber = numbers[model.NumberCount]
	}
	if len(numbers) > model.NumberCount {
		numbers = numbers[:model.NumberCount]
	}
	raw.WinningNumbers = numbers
	if len(raw.WinningNumbers) == 0 {
		return raw, "winning_numbers"
	}
	if raw.BonusNumber == "" {
		return raw, "bonus_number"
	}

	// Optional fields pass through empty when absent.
	raw.JackpotAmount = text(entry, loc.JackpotAmount)
	raw.Winners = text(entry, loc.Winners)

	return raw, ""
}

func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func texts(s *goquery.Selection, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	s.Find(selector).Each(func(_ int, el *goquery.Selection) {
		if t := strings.TrimSpace(el.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

func fragment(s *goquery.Selection) string {
	html, err := goquery.OuterHtml(s)
	if err != nil {
		return ""
	}
	html = strings.Join(strings.Fields(html), " ")
	if len(html) > fragmentLimit {
		html = html[:fragmentLimit]
	}
	return html
}
