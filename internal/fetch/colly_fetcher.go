package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// CollyFetcher implements Fetcher on top of a shared Colly collector. Each
// Fetch clones the base collector so per-request handlers never leak between
// calls.
type CollyFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher.
func NewCollyFetcher(cfg Config, logger *zap.Logger) (*CollyFetcher, error) {
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	parallelism := cfg.Concurrency
	if parallelism <= 0 {
		parallelism = 1
	}
	var delay time.Duration
	if cfg.PerDomainQPS > 0 {
		delay = time.Duration(float64(time.Second) / cfg.PerDomainQPS)
	}
	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       delay,
	}); err != nil {
		return nil, err
	}

	return &CollyFetcher{
		baseCollector: base,
		logger:        logger,
	}, nil
}

// Fetch retrieves one page. A non-2xx response is returned as *StatusError;
// transport failures come back wrapped from Colly.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		page := Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
			FetchedAt:  time.Now().UTC(),
		}
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			send(fetchResult{err: &StatusError{URL: rawURL, StatusCode: r.StatusCode}})
			return
		}
		send(fetchResult{page: page})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= 300 {
			send(fetchResult{err: &StatusError{URL: rawURL, StatusCode: r.StatusCode}})
			return
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(fetchResult{err: err})
	})

	// The visit runs in its own goroutine so cancellation unblocks the
	// caller even while a request is in flight; the transport timeout
	// reclaims the abandoned attempt.
	done := make(chan error, 1)
	go func() {
		if err := collector.Visit(rawURL); err != nil {
			done <- err
			return
		}
		collector.Wait()
		done <- nil
	}()

	select {
	case <-ctx.Done():
		return Page{}, fmt.Errorf("fetch %s canceled: %w", rawURL, ctx.Err())
	case err := <-done:
		if err != nil {
			return Page{}, err
		}
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			f.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(res.err))
		}
		return res.page, res.err
	default:
		return Page{}, errors.New("colly fetch produced no result")
	}
}

type fetchResult struct {
	page Page
	err  error
}
