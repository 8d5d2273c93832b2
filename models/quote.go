package models

import "slices"

// Quote represents one quote block scraped from a listing page
type Quote struct {
	Text   string
	Author string
	Tags   []string // in page order, may be empty
}

// Equal reports whether two quotes carry the same text, author and tags
func (q Quote) Equal(other Quote) bool {
	return q.Text == other.Text &&
		q.Author == other.Author &&
		slices.Equal(q.Tags, other.Tags)
}
