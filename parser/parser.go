package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"quotes-scraper/models"
)

// ErrMalformedQuote is wrapped by every ExtractError
var ErrMalformedQuote = errors.New("malformed quote block")

// TagStrategy selects how the tag list of a quote block is read
type TagStrategy int

const (
	// TagsFromElements reads each ".tags .tag" element
	TagsFromElements TagStrategy = iota
	// TagsFromLabel splits the ".tags" text on whitespace and drops the "Tags:" label
	TagsFromLabel
)

// ParseTagStrategy maps a config value ("elements" or "label") to a TagStrategy
func ParseTagStrategy(s string) (TagStrategy, error) {
	switch s {
	case "", "elements":
		return TagsFromElements, nil
	case "label":
		return TagsFromLabel, nil
	default:
		return 0, fmt.Errorf("unknown tag strategy %q", s)
	}
}

// ExtractError reports a quote block missing a required sub-element
type ExtractError struct {
	Index int    // 0-based position of the block on the page
	Field string // "text" or "author"
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("quote %d: missing %s", e.Index, e.Field)
}

func (e *ExtractError) Unwrap() error {
	return ErrMalformedQuote
}

// Page is the result of parsing one listing page
type Page struct {
	Quotes  []models.Quote
	HasNext bool // the page links to a following page
}

// Parser extracts quotes from listing page HTML
type Parser struct {
	tags TagStrategy
}

// NewParser creates a new Parser instance
func NewParser(tags TagStrategy) *Parser {
	return &Parser{tags: tags}
}

// ParsePage extracts every quote on the page in document order.
// A page without quote blocks yields an empty, non-nil slice.
func (p *Parser) ParsePage(htmlContent string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{
		Quotes:  []models.Quote{},
		HasNext: doc.Find("li.next").Length() > 0,
	}

	var extractErr error
	doc.Find(".quote").EachWithBreak(func(i int, s *goquery.Selection) bool {
		quote, err := p.extractQuote(i, s)
		if err != nil {
			extractErr = err
			return false
		}
		page.Quotes = append(page.Quotes, quote)
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}

	return page, nil
}

// extractQuote extracts a single quote from a ".quote" selection
func (p *Parser) extractQuote(i int, s *goquery.Selection) (models.Quote, error) {
	text, ok := firstText(s, ".text")
	if !ok {
		return models.Quote{}, &ExtractError{Index: i, Field: "text"}
	}

	author, ok := firstText(s, ".author")
	if !ok {
		return models.Quote{}, &ExtractError{Index: i, Field: "author"}
	}

	return models.Quote{
		Text:   text,
		Author: author,
		Tags:   p.extractTags(s),
	}, nil
}

// firstText returns the trimmed text of the first match, and false when
// there is no match or it is blank
func firstText(s *goquery.Selection, selector string) (string, bool) {
	sel := s.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(sel.Text())
	return text, text != ""
}

func (p *Parser) extractTags(s *goquery.Selection) []string {
	tags := []string{}

	switch p.tags {
	case TagsFromLabel:
		fields := strings.Fields(s.Find(".tags").First().Text())
		if len(fields) > 1 {
			tags = append(tags, fields[1:]...)
		}
	default:
		// a blank tag would read back as no tag at all
		s.Find(".tags .tag").Each(func(_ int, tag *goquery.Selection) {
			if t := strings.TrimSpace(tag.Text()); t != "" {
				tags = append(tags, t)
			}
		})
	}

	return tags
}
