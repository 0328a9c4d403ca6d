package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lotto-cli/internal/extract"
	"github.com/sells-group/lotto-cli/internal/model"
	"github.com/sells-group/lotto-cli/internal/store"
	"github.com/sells-group/lotto-cli/pkg/browser"
)

func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if cfg.Store.Driver == "sqlite" && dsn == "" {
		dsn = "lotto.db"
	}
	st, err := store.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func loadLocators() (extract.Locators, error) {
	if cfg.Target.LocatorFile == "" {
		return extract.DefaultLocators(), nil
	}
	return extract.LoadLocators(cfg.Target.LocatorFile)
}

func newRenderer(loc extract.Locators) (*browser.Chrome, error) {
	return browser.New(browser.Options{
		URL:              cfg.Target.URL,
		URLTemplate:      cfg.Target.URLTemplate,
		Headless:         cfg.Browser.Headless,
		ExecPath:         cfg.Browser.ExecPath,
		UserAgent:        cfg.Browser.UserAgent,
		WaitSelector:     loc.Container,
		LoadMoreSelector: loc.HasMore,
		RequestTimeout:   cfg.Browser.RequestTimeout,
	})
}

// resolveRange turns the scrape command's date flags into one range.
// Precedence: --year, then --draw-date, then --start/--end, then --range.
func resolveRange(now time.Time) (model.DateRange, error) {
	switch {
	case scrapeYear != 0:
		return model.YearRange(scrapeYear), nil
	case scrapeDrawDate != "":
		d, err := model.ParseDrawDate(scrapeDrawDate)
		if err != nil {
			return model.DateRange{}, eris.Wrapf(err, "invalid --draw-date %q", scrapeDrawDate)
		}
		return model.SingleDay(d), nil
	case scrapeStart != "" || scrapeEnd != "":
		if scrapeStart == "" || scrapeEnd == "" {
			return model.DateRange{}, eris.New("--start and --end must be used together")
		}
		return model.ParseDateRange(scrapeStart+":"+scrapeEnd, now)
	default:
		return model.ParseDateRange(scrapeRange, now)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
