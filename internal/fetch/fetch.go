// Package fetch retrieves raw pages from the source sites. It is the only
// part of the system that touches the network; everything downstream works
// on the returned Page snapshot.
package fetch

import (
	"context"
	"fmt"
	"time"
)

// Page is the raw result of one fetch attempt.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	FetchedAt  time.Time
}

// Fetcher fetches a single URL. One attempt per call: retry policy is the
// caller's concern (and deliberately absent from the pipeline).
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// StatusError reports a non-success HTTP status. The body is discarded; the
// pipeline skips the term and moves on.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Config holds the fetching knobs shared by the colly fetcher and the
// headless renderer.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	Concurrency    int
	PerDomainQPS   float64

	HeadlessEnabled     bool
	HeadlessMaxParallel int
	HeadlessNavTimeout  time.Duration
}
