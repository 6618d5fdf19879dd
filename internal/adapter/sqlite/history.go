// Package sqlite stores dashboard refresh history in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/goccy/go-json"

	_ "modernc.org/sqlite" // SQLite driver
)

const historyTable = "refresh_history"

var schema = []string{`
	CREATE TABLE IF NOT EXISTS ` + historyTable + ` (
		id TEXT PRIMARY KEY,
		community TEXT NOT NULL,
		area_id TEXT NOT NULL,
		categories TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_count INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		top_crimes TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL,
		refreshed_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS refresh_history_refreshed_at ON ` + historyTable + ` (refreshed_at)`,
}

// HistoryStore records refresh outcomes. It implements domain.Recorder.
type HistoryStore struct {
	db *sql.DB
}

var _ domain.Recorder = (*HistoryStore)(nil)

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database %q: %w", path, err)
	}
	// Limit SQLite to a single open connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect history database %q: %w", path, err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create table %s: %w", historyTable, err)
		}
	}
	return &HistoryStore{db: db}, nil
}

// Record inserts rec. Recording the same id twice is an error.
func (s *HistoryStore) Record(ctx context.Context, rec domain.RefreshRecord) error {
	categories, err := json.Marshal(rec.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	topCrimes, err := json.Marshal(rec.TopCrimes)
	if err != nil {
		return fmt.Errorf("marshal top crimes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO `+historyTable+` (id, community, area_id, categories, start_date, end_date,
		                              total_count, rejected, top_crimes, status, error, refreshed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Community, rec.AreaID, string(categories),
		formatTime(rec.Start), formatTime(rec.End),
		rec.TotalCount, rec.Rejected, string(topCrimes),
		rec.Status, rec.Error, formatTime(rec.RefreshedAt),
	)
	if err != nil {
		return fmt.Errorf("insert refresh %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]domain.RefreshRecord, error) {
	if limit <= 0 {
		return []domain.RefreshRecord{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, community, area_id, categories, start_date, end_date,
		       total_count, rejected, top_crimes, status, error, refreshed_at
		FROM `+historyTable+`
		ORDER BY refreshed_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query refresh history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.RefreshRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read refresh history: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *HistoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+historyTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("count refresh history: %w", err)
	}
	return n, nil
}

// CheckReadiness pings the database.
func (s *HistoryStore) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func scanRecord(rows *sql.Rows) (domain.RefreshRecord, error) {
	var (
		rec                     domain.RefreshRecord
		categories, topCrimes   string
		start, end, refreshedAt string
	)
	if err := rows.Scan(&rec.ID, &rec.Community, &rec.AreaID, &categories, &start, &end,
		&rec.TotalCount, &rec.Rejected, &topCrimes, &rec.Status, &rec.Error, &refreshedAt); err != nil {
		return rec, fmt.Errorf("scan refresh history: %w", err)
	}

	if err := json.Unmarshal([]byte(categories), &rec.Categories); err != nil {
		return rec, fmt.Errorf("refresh %s: decode categories: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(topCrimes), &rec.TopCrimes); err != nil {
		return rec, fmt.Errorf("refresh %s: decode top crimes: %w", rec.ID, err)
	}

	var err error
	if rec.Start, err = parseTime(start); err != nil {
		return rec, fmt.Errorf("refresh %s: start_date: %w", rec.ID, err)
	}
	if rec.End, err = parseTime(end); err != nil {
		return rec, fmt.Errorf("refresh %s: end_date: %w", rec.ID, err)
	}
	if rec.RefreshedAt, err = parseTime(refreshedAt); err != nil {
		return rec, fmt.Errorf("refresh %s: refreshed_at: %w", rec.ID, err)
	}
	return rec, nil
}

// Times are stored as fixed-width UTC text so that ordering by column sorts
// chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
