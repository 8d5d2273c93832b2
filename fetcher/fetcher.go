package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"quotes-scraper/config"
)

// ErrPageNotFound reports that the requested page does not exist (HTTP 404)
var ErrPageNotFound = errors.New("page not found")

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch retrieves the raw HTML of one listing page.
	// page is the 1-based page number and is only used for error reporting.
	Fetch(ctx context.Context, page int, url string) ([]byte, error)
}

// FetchError describes a failed page fetch
type FetchError struct {
	Page       int
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page %d (%s): status %d: %v", e.Page, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPageNotFound) match any 404 response
func (e *FetchError) Is(target error) bool {
	return target == ErrPageNotFound && e.StatusCode == http.StatusNotFound
}

func newStatusError(page int, url string, status int, cause error) *FetchError {
	if cause == nil {
		cause = errors.New(http.StatusText(status))
	}
	return &FetchError{Page: page, URL: url, StatusCode: status, Err: cause}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates the fetcher selected by cfg.Kind.
// The returned closer releases any resources the fetcher holds (the browser for rod).
func New(cfg config.FetcherConfig) (Fetcher, io.Closer, error) {
	switch cfg.Kind {
	case "", "colly":
		return NewCollyFetcher(cfg), nopCloser{}, nil
	case "resty":
		return NewRestyFetcher(cfg), nopCloser{}, nil
	case "rod":
		rf, err := NewRodFetcher(cfg)
		if err != nil {
			return nil, nil, err
		}
		return rf, rf, nil
	default:
		return nil, nil, fmt.Errorf("unknown fetcher kind %q", cfg.Kind)
	}
}
