// Package storage is the durable record store backing team, event and
// news data. Writes are transactional batches keyed by record identity:
// re-confirming a row never duplicates it, only advances its updated_at.
// Rows are never deleted by a fetch; an explicit reset is the only way
// to clear the tables.
package storage

import (
	"context"
	"database/sql"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS teams (
  id         INTEGER PRIMARY KEY,
  game       TEXT NOT NULL,
  team_name  TEXT NOT NULL,
  logo_url   TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  UNIQUE(game, team_name)
);
CREATE INDEX IF NOT EXISTS idx_teams_game ON teams(game);
CREATE TABLE IF NOT EXISTS events (
  id         INTEGER PRIMARY KEY,
  game       TEXT NOT NULL DEFAULT '',
  name       TEXT NOT NULL,
  link       TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  UNIQUE(game, name)
);
CREATE INDEX IF NOT EXISTS idx_events_game ON events(game);
CREATE TABLE IF NOT EXISTS news (
  id            TEXT PRIMARY KEY,
  title         TEXT NOT NULL,
  description   TEXT,
  writer        TEXT,
  thumbnail_ref TEXT,
  news_link     TEXT,
  created_at    DATETIME NOT NULL,
  updated_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_news_created ON news(created_at);
CREATE INDEX IF NOT EXISTS idx_news_writer ON news(writer);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Ping verifies the store is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// ResetResult counts the rows dropped by ResetAll.
type ResetResult struct {
	Teams  int `json:"teams"`
	Events int `json:"events"`
	News   int `json:"news"`
}

// ResetAll clears every table in one transaction.
func (d *DB) ResetAll(ctx context.Context) (ResetResult, error) {
	var res ResetResult

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, t := range []struct {
		table string
		count *int
	}{
		{"teams", &res.Teams},
		{"events", &res.Events},
		{"news", &res.News},
	} {
		var out sql.Result
		out, err = tx.ExecContext(ctx, "DELETE FROM "+t.table)
		if err != nil {
			return ResetResult{}, err
		}
		var n int64
		n, err = out.RowsAffected()
		if err != nil {
			return ResetResult{}, err
		}
		*t.count = int(n)
	}

	if err = tx.Commit(); err != nil {
		return ResetResult{}, err
	}
	return res, nil
}

// GameStats is the per-game row breakdown.
type GameStats struct {
	Game   string `json:"game"`
	Teams  int    `json:"teams"`
	Events int    `json:"events"`
}

// Stats summarizes the store contents.
type Stats struct {
	Games []GameStats `json:"games"`
	News  int         `json:"news"`
}

func (d *DB) GetStats(ctx context.Context) (*Stats, error) {
	byGame := make(map[string]*GameStats)
	get := func(game string) *GameStats {
		if s, ok := byGame[game]; ok {
			return s
		}
		s := &GameStats{Game: game}
		byGame[game] = s
		return s
	}

	rows, err := d.sql.QueryContext(ctx, "SELECT game, COUNT(*) FROM teams GROUP BY game")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var game string
		var n int
		if err := rows.Scan(&game, &n); err != nil {
			rows.Close()
			return nil, err
		}
		get(game).Teams = n
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = d.sql.QueryContext(ctx, "SELECT game, COUNT(*) FROM events GROUP BY game")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var game string
		var n int
		if err := rows.Scan(&game, &n); err != nil {
			rows.Close()
			return nil, err
		}
		get(game).Events = n
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, s := range byGame {
		stats.Games = append(stats.Games, *s)
	}
	sort.Slice(stats.Games, func(i, j int) bool { return stats.Games[i].Game < stats.Games[j].Game })

	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM news").Scan(&stats.News); err != nil {
		return nil, err
	}
	return stats, nil
}

// Timestamps are stored as text the store controls, so updated_at can
// advance on every confirmation regardless of SQLite's second-granular
// CURRENT_TIMESTAMP.
func timeText(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeText(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
