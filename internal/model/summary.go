package model

import "time"

// FetchError records a render request that failed after exhausting its
// retries, or the fatal error that aborted the run.
type FetchError struct {
	Request  string `json:"request"` // e.g. "page 3", "2026-01-06"
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts"`
	Fatal    bool   `json:"fatal,omitempty"`
}

// RunSummary describes one pipeline execution. Every dropped or rejected
// record appears here; silent data loss is not acceptable.
type RunSummary struct {
	ScrapedAt    time.Time         `json:"scraped_at"`
	Range        DateRange         `json:"range"`
	PagesFetched int               `json:"pages_fetched"`
	TotalFetched int               `json:"total_fetched"` // raw candidates seen
	Accepted     int               `json:"accepted"`
	OutOfRange   int               `json:"out_of_range"` // dropped by the range guard
	Rejected     []ExtractionError `json:"rejected,omitempty"`
	FetchErrors  []FetchError      `json:"fetch_errors,omitempty"`
	Partial      bool              `json:"partial,omitempty"` // aborted by a fatal render error
	Duration     time.Duration     `json:"duration"`
}

// Errors flattens the summary's failure entries into strings for the
// persisted metadata error list.
func (s *RunSummary) Errors() []string {
	out := make([]string, 0, len(s.Rejected)+len(s.FetchErrors))
	for i := range s.Rejected {
		out = append(out, s.Rejected[i].Error())
	}
	for _, fe := range s.FetchErrors {
		msg := "fetch " + fe.Request + ": " + fe.Reason
		if fe.Fatal {
			msg = "fatal " + msg
		}
		out = append(out, msg)
	}
	return out
}
