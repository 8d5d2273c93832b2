package fetcher

import (
	"fmt"
	"net/url"
	"strings"
)

// PageURL returns the URL of listing page n under base, e.g. "https://host/page/3/".
// A missing trailing slash on base is added so the page segment is appended, not substituted.
func PageURL(base string, n int) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("%spage/%d/", base, n)
}

// ValidateBaseURL checks that base is an absolute http(s) URL without query or fragment
func ValidateBaseURL(base string) error {
	parsedURL, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base URL must be http or https, got %q", base)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL has no host: %q", base)
	}
	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return fmt.Errorf("base URL must not carry a query or fragment: %q", base)
	}
	return nil
}
