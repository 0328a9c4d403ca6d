// Package browser renders the lottery results page in a headless Chrome
// session and hands back DOM-queryable documents.
package browser

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/lotto-cli/internal/model"
)

// Request identifies one render: the date-range filter to apply plus the
// zero-based page index in the paginated result list.
type Request struct {
	Range     model.DateRange
	PageIndex int
}

func (r Request) String() string {
	return fmt.Sprintf("page %d (%s)", r.PageIndex, r.Range)
}

// Renderer is the render-collaborator contract consumed by the fetch
// orchestrator. Render returns a parsed document, a transient error
// (resilience.TransientError: timeout, element not found, stale
// navigation) or a fatal one (resilience.FatalError: session unusable).
// A single Renderer is one browser session and must not be shared across
// concurrent callers.
type Renderer interface {
	Render(ctx context.Context, req Request) (*goquery.Document, error)
	HasMorePages(doc *goquery.Document) bool
}
