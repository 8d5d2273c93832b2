package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"quotes-scraper/fetcher"
	"quotes-scraper/models"
	"quotes-scraper/parser"
)

// Termination decides when the crawler stops requesting pages
type Termination int

const (
	// TerminateOnEmpty stops at the first page that yields no quotes
	TerminateOnEmpty Termination = iota
	// TerminateOnLastLink stops at the first page (from page 2 on) without a
	// "next" link, then fetches that page once more and keeps its quotes.
	// This reproduces the legacy link-following behaviour exactly, including
	// the repeated request for the last page.
	TerminateOnLastLink
)

// ParseTermination maps a config value ("empty" or "last-link") to a Termination
func ParseTermination(s string) (Termination, error) {
	switch s {
	case "", "empty":
		return TerminateOnEmpty, nil
	case "last-link":
		return TerminateOnLastLink, nil
	default:
		return 0, fmt.Errorf("unknown termination %q", s)
	}
}

// PageParser turns page HTML into quotes
type PageParser interface {
	ParsePage(htmlContent string) (*parser.Page, error)
}

// Options configures a Crawler
type Options struct {
	BaseURL     string
	Termination Termination
	MaxPages    int // 0 means no limit
}

// Stats summarises a finished crawl
type Stats struct {
	Pages   int // pages whose quotes were collected
	Fetches int // HTTP requests issued, including repeats
}

// CrawlError reports the page at which a crawl failed
type CrawlError struct {
	Page int
	Err  error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl failed at page %d: %v", e.Page, e.Err)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// errNoPage marks a page that does not exist; it is never returned to callers
var errNoPage = errors.New("no such page")

// Crawler walks the numbered listing pages of one site
type Crawler struct {
	fetcher fetcher.Fetcher
	parser  PageParser
	opts    Options
}

// NewCrawler creates a crawler that reads pages through f and extracts them with p
func NewCrawler(f fetcher.Fetcher, p PageParser, opts Options) *Crawler {
	return &Crawler{
		fetcher: f,
		parser:  p,
		opts:    opts,
	}
}

// Crawl fetches pages 1, 2, ... until the termination rule fires and returns
// all quotes in page order, then document order. Any failure other than a
// missing page aborts the crawl and discards everything collected so far.
func (c *Crawler) Crawl(ctx context.Context) ([]models.Quote, Stats, error) {
	if err := fetcher.ValidateBaseURL(c.opts.BaseURL); err != nil {
		return nil, Stats{}, err
	}

	var (
		quotes []models.Quote
		stats  Stats
		err    error
	)
	switch c.opts.Termination {
	case TerminateOnLastLink:
		quotes, err = c.crawlUntilLastLink(ctx, &stats)
	default:
		quotes, err = c.crawlUntilEmpty(ctx, &stats)
	}
	if err != nil {
		return nil, stats, err
	}

	if quotes == nil {
		quotes = []models.Quote{}
	}
	log.Infof("Crawl completed: %d quotes from %d pages (%d requests)", len(quotes), stats.Pages, stats.Fetches)
	return quotes, stats, nil
}

func (c *Crawler) crawlUntilEmpty(ctx context.Context, stats *Stats) ([]models.Quote, error) {
	var all []models.Quote

	for n := 1; !c.reachedLimit(stats.Pages); n++ {
		page, err := c.loadPage(ctx, n, stats)
		if errors.Is(err, errNoPage) {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(page.Quotes) == 0 {
			log.Infof("Page %d has no quotes, stopping", n)
			break
		}

		all = append(all, page.Quotes...)
		stats.Pages++
	}

	return all, nil
}

func (c *Crawler) crawlUntilLastLink(ctx context.Context, stats *Stats) ([]models.Quote, error) {
	var all []models.Quote

	// page 1 is collected without looking at its link
	first, err := c.loadPage(ctx, 1, stats)
	if errors.Is(err, errNoPage) {
		return all, nil
	}
	if err != nil {
		return nil, err
	}
	all = append(all, first.Quotes...)
	stats.Pages++

	n := 2
	for ; !c.reachedLimit(stats.Pages); n++ {
		page, err := c.loadPage(ctx, n, stats)
		if errors.Is(err, errNoPage) {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		if !page.HasNext {
			log.Infof("Page %d has no next link, stopping", n)
			break
		}
		all = append(all, page.Quotes...)
		stats.Pages++
	}

	if c.reachedLimit(stats.Pages) {
		return all, nil
	}

	last, err := c.loadPage(ctx, n, stats)
	if errors.Is(err, errNoPage) {
		return all, nil
	}
	if err != nil {
		return nil, err
	}
	all = append(all, last.Quotes...)
	stats.Pages++

	return all, nil
}

// loadPage fetches and parses page n. A missing page yields errNoPage,
// every other failure a *CrawlError.
func (c *Crawler) loadPage(ctx context.Context, n int, stats *Stats) (*parser.Page, error) {
	url := fetcher.PageURL(c.opts.BaseURL, n)
	log.Debugf("Fetching page %d: %s", n, url)

	stats.Fetches++
	body, err := c.fetcher.Fetch(ctx, n, url)
	if errors.Is(err, fetcher.ErrPageNotFound) {
		log.Infof("Page %d does not exist, stopping", n)
		return nil, errNoPage
	}
	if err != nil {
		return nil, &CrawlError{Page: n, Err: err}
	}

	page, err := c.parser.ParsePage(string(body))
	if err != nil {
		return nil, &CrawlError{Page: n, Err: err}
	}

	log.Debugf("Page %d: %d quotes (next link: %t)", n, len(page.Quotes), page.HasNext)
	return page, nil
}

func (c *Crawler) reachedLimit(pages int) bool {
	return c.opts.MaxPages > 0 && pages >= c.opts.MaxPages
}
