package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	driver string
}

// Open connects to a sqlite or postgres database and creates the schema
func Open(driver, dsn string) (*DB, error) {
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, driver: driver}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS crawl_runs (
			id TEXT PRIMARY KEY,
			base_url TEXT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			quote_count INTEGER NOT NULL DEFAULT 0,
			output_path TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create crawl_runs table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS quotes (
			run_id TEXT NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			author TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (run_id, position)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create quotes table: %w", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_crawl_runs_created_at ON crawl_runs(created_at)`)
	if err != nil {
		log.Warnf("Failed to create index on crawl_runs.created_at: %v", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_quotes_author ON quotes(author)`)
	if err != nil {
		log.Warnf("Failed to create index on quotes.author: %v", err)
	}

	log.Debug("Database schema initialized successfully")
	return nil
}

// rebind rewrites '?' placeholders into the driver's native form
func (db *DB) rebind(query string) string {
	if db.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
