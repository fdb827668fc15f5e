package analytics

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Timestamps are stored as UTC text so they sort and compare as strings.
const tsLayout = "2006-01-02 15:04:05"

const topN = 10

// Store persists visits in their own SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the analytics database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create analytics dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	// A single writer goroutine feeds this database.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS bot_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			path TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_visits_path ON visits(path);
		CREATE INDEX IF NOT EXISTS idx_bot_visits_timestamp ON bot_visits(timestamp);
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// GetSetting returns the value stored under key, or "" when absent.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Salt returns the installation's hashing salt, generating and storing one
// on first use.
func (s *Store) Salt(ctx context.Context) (string, error) {
	salt, err := s.GetSetting(ctx, "hash_salt")
	if err != nil {
		return "", fmt.Errorf("read hash salt: %w", err)
	}
	if salt != "" {
		return salt, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	salt = hex.EncodeToString(b)
	if err := s.SetSetting(ctx, "hash_salt", salt); err != nil {
		return "", fmt.Errorf("store hash salt: %w", err)
	}
	return salt, nil
}

// SaveVisit stores a human page view.
func (s *Store) SaveVisit(ctx context.Context, v Visit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visits (visitor_id, browser, os, device, path, referrer, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.Browser, v.OS, v.Device, v.Path, v.Referrer, v.Timestamp.UTC().Format(tsLayout))
	return err
}

// SaveBotVisit stores a crawler page view.
func (s *Store) SaveBotVisit(ctx context.Context, v BotVisit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_visits (bot_name, path, timestamp) VALUES (?, ?, ?)`,
		v.BotName, v.Path, v.Timestamp.UTC().Format(tsLayout))
	return err
}

// Stats aggregates the visits whose timestamp lies in [from, to).
func (s *Store) Stats(ctx context.Context, from, to time.Time) (Stats, error) {
	f, t := from.UTC().Format(tsLayout), to.UTC().Format(tsLayout)
	st := Stats{From: from, To: to}

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT visitor_id) FROM visits
		WHERE timestamp >= ? AND timestamp < ?`, f, t).Scan(&st.TotalViews, &st.UniqueVisitors); err != nil {
		return Stats{}, fmt.Errorf("count views: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bot_visits
		WHERE timestamp >= ? AND timestamp < ?`, f, t).Scan(&st.BotVisits); err != nil {
		return Stats{}, fmt.Errorf("count bot visits: %w", err)
	}

	pages, err := s.dimension(ctx, "visits", "path", f, t)
	if err != nil {
		return Stats{}, fmt.Errorf("top pages: %w", err)
	}
	st.TopPages = make([]PageStat, len(pages))
	for i, p := range pages {
		st.TopPages[i] = PageStat{Path: p.Name, Views: p.Count}
	}

	for _, d := range []struct {
		table, column string
		dst           *[]DimensionStat
	}{
		{"visits", "browser", &st.Browsers},
		{"visits", "os", &st.OSes},
		{"visits", "device", &st.Devices},
		{"visits", "referrer", &st.Referrers},
		{"bot_visits", "bot_name", &st.TopBots},
	} {
		if *d.dst, err = s.dimension(ctx, d.table, d.column, f, t); err != nil {
			return Stats{}, fmt.Errorf("%s stats: %w", d.column, err)
		}
	}

	if st.DailyViews, err = s.dailyViews(ctx, f, t); err != nil {
		return Stats{}, fmt.Errorf("daily views: %w", err)
	}
	return st, nil
}

// dimension counts rows grouped by column. table and column are never user
// input.
func (s *Store) dimension(ctx context.Context, table, column, from, to string) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %[2]s, COUNT(*) AS n FROM %[1]s
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY %[2]s ORDER BY n DESC, %[2]s ASC LIMIT ?`, table, column), from, to, topN)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) dailyViews(ctx context.Context, from, to string) ([]DailyView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(timestamp, 1, 10) AS day, COUNT(*) FROM visits
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY day ORDER BY day ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DailyView{}
	for rows.Next() {
		var d DailyView
		if err := rows.Scan(&d.Date, &d.Views); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteBefore removes visits and bot visits older than cutoff and reports
// how many rows went.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	c := cutoff.UTC().Format(tsLayout)
	var total int64
	for _, table := range []string{"visits", "bot_visits"} {
		res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE timestamp < ?", c)
		if err != nil {
			return total, fmt.Errorf("cleanup %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
