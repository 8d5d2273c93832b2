package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quotes-scraper/models"
)

// Run represents one completed crawl
type Run struct {
	ID         string
	BaseURL    string
	Pages      int
	QuoteCount int
	OutputPath string
	CreatedAt  time.Time
}

// SaveRun stores a run and its quotes in one transaction and returns the run ID.
// An empty run.ID gets a fresh UUID; a zero CreatedAt is set to now.
func (db *DB) SaveRun(ctx context.Context, run Run, quotes []models.Quote) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.QuoteCount = len(quotes)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, db.rebind(`
		INSERT INTO crawl_runs (id, base_url, pages, quote_count, output_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), run.ID, run.BaseURL, run.Pages, run.QuoteCount, run.OutputPath, run.CreatedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, db.rebind(`
		INSERT INTO quotes (run_id, position, text, author, tags)
		VALUES (?, ?, ?, ?, ?)
	`))
	if err != nil {
		return "", fmt.Errorf("failed to prepare quote insert: %w", err)
	}
	defer stmt.Close()

	for i, q := range quotes {
		tags, err := encodeTags(q.Tags)
		if err != nil {
			return "", fmt.Errorf("failed to encode tags of quote %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, q.Text, q.Author, tags); err != nil {
			return "", fmt.Errorf("failed to save quote %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	return run.ID, nil
}

// GetRunQuotes returns the quotes of a run in saved order
func (db *DB) GetRunQuotes(ctx context.Context, runID string) ([]models.Quote, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT text, author, tags FROM quotes
		WHERE run_id = ?
		ORDER BY position
	`), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes := []models.Quote{}
	for rows.Next() {
		var q models.Quote
		var tags string
		if err := rows.Scan(&q.Text, &q.Author, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		if q.Tags, err = decodeTags(tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
		quotes = append(quotes, q)
	}

	return quotes, rows.Err()
}

// LatestRun returns the most recent run, or nil if none has been saved
func (db *DB) LatestRun(ctx context.Context) (*Run, error) {
	var run Run
	var createdAt int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, base_url, pages, quote_count, output_path, created_at
		FROM crawl_runs
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.BaseURL, &run.Pages, &run.QuoteCount, &run.OutputPath, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	run.CreatedAt = time.Unix(0, createdAt)
	return &run, nil
}

// encodeTags stores tags as a JSON array so tags containing commas survive
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTags(column string) ([]string, error) {
	tags := []string{}
	if column == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(column), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
