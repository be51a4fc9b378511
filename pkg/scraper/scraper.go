package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0"
	DefaultTimeout   = 20 * time.Second
	maxBodySize      = 10 * 1024 * 1024
)

// NewScraper builds the collector every product page fetch is cloned from.
// Clones share the HTTP backend, so the timeout and per-domain limits hold
// across concurrent fetches.
func NewScraper(cfg Config, logger *slog.Logger) (Scraper, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := Scraper{
		colly: colly.NewCollector(
			colly.UserAgent(cfg.UserAgent),
			colly.AllowURLRevisit(),
			colly.MaxBodySize(maxBodySize),
		),
		logger: logger.With("component", "scraper"),
	}

	// prices are public, sessions only get in the way
	s.colly.DisableCookies()
	s.colly.SetRequestTimeout(cfg.Timeout)

	err := s.colly.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		RandomDelay: cfg.RandomDelay,
	})
	if err != nil {
		return Scraper{}, fmt.Errorf("setting limit rule: %w", err)
	}

	return s, nil
}

type fetchResult struct {
	body []byte
	err  error
}

// Fetch downloads url and returns the response body. Network errors and non
// 2xx responses are returned as errors; nothing is retried or cached.
func (s Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.colly.Clone()
	done := make(chan fetchResult, 1)

	var body []byte
	c.OnRequest(func(r *colly.Request) {
		s.logger.Debug("visiting", "url", r.URL.String())
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	// the collector timeout bounds this goroutine when ctx is cancelled first
	go func() {
		if err := c.Visit(url); err != nil {
			done <- fetchResult{err: fmt.Errorf("fetching %s: %w", url, err)}
			return
		}
		done <- fetchResult{body: body}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.body, r.err
	}
}
