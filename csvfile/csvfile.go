// Package csvfile stores quotes as a comma-separated file with a
// "text,author,tags" header. Tags share one field, joined by TagSeparator.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"quotes-scraper/models"
)

// TagSeparator joins the tags of one quote inside its CSV field
const TagSeparator = ","

// Header is the first row of every file written by WriteQuotes
var Header = []string{"text", "author", "tags"}

// ErrBadHeader is returned by ReadQuotes for files not starting with Header
var ErrBadHeader = errors.New("unexpected CSV header")

// ErrTagSeparator is returned by WriteQuotes for a tag containing TagSeparator,
// which could not be told apart from two tags when the file is read back.
var ErrTagSeparator = errors.New("tag contains the tag separator")

// createFile opens the output file; tests swap it to provoke write failures
var createFile = os.Create

// WriteQuotes creates or truncates the file at path and writes quotes to it.
// Missing parent directories are created. Nothing is left at path when
// writing fails.
func WriteQuotes(path string, quotes []models.Quote) error {
	if err := checkTags(quotes); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := createFile(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := writeRows(file, quotes); err != nil {
		file.Close()
		removePartial(path)
		return err
	}

	if err := file.Close(); err != nil {
		removePartial(path)
		return fmt.Errorf("failed to close output file: %w", err)
	}

	log.Infof("Wrote %d quotes to %s", len(quotes), path)
	return nil
}

func checkTags(quotes []models.Quote) error {
	for i, q := range quotes {
		for _, tag := range q.Tags {
			if strings.Contains(tag, TagSeparator) {
				return fmt.Errorf("quote %d, tag %q: %w", i, tag, ErrTagSeparator)
			}
		}
	}
	return nil
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Failed to remove partial output %s: %v", path, err)
	}
}

func writeRows(file *os.File, quotes []models.Quote) error {
	w := csv.NewWriter(file)

	if err := w.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, q := range quotes {
		if err := w.Write(Row(q)); err != nil {
			return fmt.Errorf("failed to write quote %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	return nil
}

// Row renders one quote as CSV fields
func Row(q models.Quote) []string {
	return []string{q.Text, q.Author, strings.Join(q.Tags, TagSeparator)}
}

// ReadQuotes reads a file written by WriteQuotes
func ReadQuotes(path string) ([]models.Quote, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(Header)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if len(rows) == 0 || !slices.Equal(rows[0], Header) {
		return nil, ErrBadHeader
	}

	quotes := make([]models.Quote, 0, len(rows)-1)
	for _, row := range rows[1:] {
		quotes = append(quotes, models.Quote{
			Text:   row[0],
			Author: row[1],
			Tags:   splitTags(row[2]),
		})
	}
	return quotes, nil
}

func splitTags(field string) []string {
	if field == "" {
		return []string{}
	}
	return strings.Split(field, TagSeparator)
}
