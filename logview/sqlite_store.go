package logview

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const logSchema = `
CREATE TABLE IF NOT EXISTS log_entries (
    id INTEGER PRIMARY KEY,      -- position in the log, oldest first
    timestamp INTEGER NOT NULL,  -- Unix seconds
    is_user INTEGER DEFAULT 0,
    content TEXT NOT NULL
);
`

// SQLiteStore keeps the log in a SQLite database. Each save replaces the
// stored snapshot in a single transaction.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(logSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load() ([]Record, error) {
	rows, err := s.db.Query("SELECT timestamp, is_user, content FROM log_entries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()
	var recs []Record
	for rows.Next() {
		var (
			ts   int64
			user int
			text string
		)
		if err := rows.Scan(&ts, &user, &text); err != nil {
			return recs, fmt.Errorf("scan log row: %w", err)
		}
		recs = append(recs, Record{Text: text, Time: time.Unix(ts, 0), User: user != 0})
	}
	if err := rows.Err(); err != nil {
		return recs, fmt.Errorf("read log rows: %w", err)
	}
	return recs, nil
}

func (s *SQLiteStore) Save(recs []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM log_entries"); err != nil {
		return fmt.Errorf("clear log: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO log_entries (id, timestamp, is_user, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, rec := range recs {
		user := 0
		if rec.User {
			user = 1
		}
		if _, err := stmt.Exec(i, rec.Time.Unix(), user, rec.Text); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
