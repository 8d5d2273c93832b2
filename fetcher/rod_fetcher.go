package fetcher

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"quotes-scraper/config"
)

// Common locations of a system Chrome/Chromium; rod downloads its own browser otherwise
var browserPaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// RodFetcher implements the Fetcher interface using rod (headless browser).
// The browser does not expose HTTP status codes, so a missing page is
// indistinguishable from an empty one and never yields ErrPageNotFound.
type RodFetcher struct {
	browser *rod.Browser
	cfg     config.FetcherConfig
}

// NewRodFetcher launches a headless browser and connects to it
func NewRodFetcher(cfg config.FetcherConfig) (*RodFetcher, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false). // Disable leakless to avoid antivirus issues
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("disable-extensions")

	for _, path := range browserPaths {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodFetcher{
		browser: browser,
		cfg:     cfg,
	}, nil
}

// Close closes the browser
func (rf *RodFetcher) Close() error {
	if rf.browser != nil {
		return rf.browser.Close()
	}
	return nil
}

// Fetch implements the Fetcher interface
func (rf *RodFetcher) Fetch(ctx context.Context, page int, url string) ([]byte, error) {
	p, err := rf.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &FetchError{Page: page, URL: url, Err: fmt.Errorf("failed to create page: %w", err)}
	}
	defer p.Close()

	if rf.cfg.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: rf.cfg.UserAgent}); err != nil {
			log.Warnf("Failed to set user agent: %v", err)
		}
	}

	if rf.cfg.RequestTimeout > 0 {
		p = p.Timeout(rf.cfg.RequestTimeout)
	}

	if err := p.Navigate(url); err != nil {
		return nil, &FetchError{Page: page, URL: url, Err: fmt.Errorf("failed to navigate: %w", err)}
	}

	if err := p.WaitLoad(); err != nil {
		return nil, &FetchError{Page: page, URL: url, Err: fmt.Errorf("failed to load: %w", err)}
	}

	html, err := p.HTML()
	if err != nil {
		return nil, &FetchError{Page: page, URL: url, Err: fmt.Errorf("failed to get HTML: %w", err)}
	}

	log.Debugf("Fetched page %d: %s (%d bytes)", page, url, len(html))
	return []byte(html), nil
}
