package fetcher

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"quotes-scraper/config"
)

// RestyFetcher implements the Fetcher interface with a plain resty HTTP client
type RestyFetcher struct {
	client *resty.Client
}

// NewRestyFetcher creates a new RestyFetcher instance
func NewRestyFetcher(cfg config.FetcherConfig) *RestyFetcher {
	client := resty.New()
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.RequestTimeout > 0 {
		client.SetTimeout(cfg.RequestTimeout)
	}

	return &RestyFetcher{client: client}
}

// Fetch implements the Fetcher interface
func (rf *RestyFetcher) Fetch(ctx context.Context, page int, url string) ([]byte, error) {
	resp, err := rf.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &FetchError{Page: page, URL: url, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, newStatusError(page, url, resp.StatusCode(), nil)
	}

	log.Debugf("Fetched page %d: %s (%d bytes)", page, url, len(resp.Body()))
	return resp.Body(), nil
}
