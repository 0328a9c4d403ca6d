package browser

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/sells-group/lotto-cli/internal/resilience"
)

// Options configures a Chrome session.
type Options struct {
	// URL is the past-results page. If URLTemplate is non-empty it wins;
	// the literal "{start}" and "{end}" are replaced with the requested
	// range bounds as YYYY-MM-DD.
	URL         string
	URLTemplate string

	Headless  bool
	ExecPath  string
	UserAgent string

	// WaitSelector must become visible before a page counts as rendered.
	WaitSelector string
	// LoadMoreSelector is clicked to reveal the next result page.
	LoadMoreSelector string
	// Settle is the pause after a load-more click for the page to update.
	Settle time.Duration
	// RequestTimeout bounds one Render call.
	RequestTimeout time.Duration
}

// Chrome is a Renderer backed by one long-lived headless Chrome session.
// It is an explicit resource handle: acquire with New, release with Close,
// never shared between concurrent pipeline runs.
type Chrome struct {
	opts       Options
	allocCtx   context.Context
	browserCtx context.Context
	cancels    []context.CancelFunc
}

// New launches the browser session.
func New(opts Options) (*Chrome, error) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = 2 * time.Second
	}
	if opts.WaitSelector == "" {
		opts.WaitSelector = "body"
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{},
		chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	c := &Chrome{
		opts:       opts,
		allocCtx:   allocCtx,
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
	}

	// Start the browser now so a broken Chrome install fails loudly at
	// acquisition instead of on the first render.
	if err := chromedp.Run(browserCtx); err != nil {
		c.Close()
		return nil, resilience.NewFatalError(err)
	}

	zap.L().Info("browser session started", zap.Bool("headless", opts.Headless))
	return c, nil
}

// Close tears the session down. Safe to call more than once.
func (c *Chrome) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
}

// Render navigates to the page for req, waits for the results to be
// visible, reveals req.PageIndex additional pages via the load-more
// control, and returns the rendered DOM. The per-request timeout comes
// from Options; the caller's context is not propagated into the session
// (one render is atomic from the pipeline's point of view).
func (c *Chrome) Render(_ context.Context, req Request) (*goquery.Document, error) {
	if c.browserCtx == nil || c.browserCtx.Err() != nil {
		return nil, resilience.NewFatalError(errors.New("browser session closed"))
	}

	url := c.targetURL(req)
	tctx, cancel := context.WithTimeout(c.browserCtx, c.opts.RequestTimeout)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitVisible(c.opts.WaitSelector, chromedp.ByQuery),
	}
	for i := 0; i < req.PageIndex; i++ {
		actions = append(actions,
			chromedp.Click(c.opts.LoadMoreSelector, chromedp.ByQuery),
			chromedp.Sleep(c.opts.Settle),
		)
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	start := time.Now()
	err := chromedp.Run(tctx, actions...)
	zap.L().Debug("render finished",
		zap.String("url", url),
		zap.Int("page", req.PageIndex),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		return nil, c.classify(err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, resilience.NewTransientError(err)
	}
	return doc, nil
}

// HasMorePages reports whether the rendered document still offers a
// load-more control that is not disabled.
func (c *Chrome) HasMorePages(doc *goquery.Document) bool {
	if c.opts.LoadMoreSelector == "" {
		return false
	}
	more := false
	doc.Find(c.opts.LoadMoreSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if _, disabled := s.Attr("disabled"); disabled {
			return true
		}
		more = true
		return false
	})
	return more
}

func (c *Chrome) targetURL(req Request) string {
	if c.opts.URLTemplate == "" {
		return c.opts.URL
	}
	url := strings.ReplaceAll(c.opts.URLTemplate, "{start}", req.Range.Start.Format("2006-01-02"))
	return strings.ReplaceAll(url, "{end}", req.Range.End.Format("2006-01-02"))
}

// classify sorts a chromedp failure into the retry taxonomy: a dead
// session is fatal, everything else (timeouts, elements that never
// appeared) is worth retrying.
func (c *Chrome) classify(err error) error {
	if c.browserCtx.Err() != nil {
		return resilience.NewFatalError(err)
	}
	return resilience.NewTransientError(err)
}
