package fetcher

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/gocolly/colly/v2"

	"quotes-scraper/config"
)

// CollyFetcher implements the Fetcher interface using colly
type CollyFetcher struct {
	options []colly.CollectorOption
	cfg     config.FetcherConfig
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher(cfg config.FetcherConfig) *CollyFetcher {
	opts := []colly.CollectorOption{
		// The same page may legitimately be requested twice (link-based termination)
		colly.AllowURLRevisit(),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}

	return &CollyFetcher{
		options: opts,
		cfg:     cfg,
	}
}

// Fetch implements the Fetcher interface.
// A fresh collector is built per call so response callbacks never leak between pages.
func (cf *CollyFetcher) Fetch(ctx context.Context, page int, url string) ([]byte, error) {
	opts := append(slices.Clip(cf.options), colly.StdlibContext(ctx))
	c := colly.NewCollector(opts...)
	if cf.cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cf.cfg.RequestTimeout)
	}

	var body []byte
	status := 0

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		log.Debugf("Error fetching %s: %v", r.Request.URL, err)
	})

	if err := c.Visit(url); err != nil {
		if status != 0 {
			return nil, newStatusError(page, url, status, err)
		}
		return nil, &FetchError{Page: page, URL: url, Err: err}
	}

	log.Debugf("Fetched page %d: %s (%d bytes)", page, url, len(body))
	return body, nil
}
