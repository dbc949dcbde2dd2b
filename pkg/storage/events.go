package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// UpsertEvents commits one fetched batch of events for a scope. The
// season overview fetch uses the empty scope; game pages use their slug.
// Identity is (game, name), same augment-only rules as teams.
func (d *DB) UpsertEvents(ctx context.Context, game string, events []records.Event) (UpsertResult, error) {
	var res UpsertResult
	now := timeText(time.Now())

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, "SELECT name FROM events WHERE game = ?", game)
	if err != nil {
		return res, err
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			rows.Close()
			return res, err
		}
		existing[name] = true
	}
	if err = rows.Close(); err != nil {
		return res, err
	}

	for _, e := range events {
		if e.Name == "" {
			continue
		}
		if existing[e.Name] {
			_, err = tx.ExecContext(ctx,
				`UPDATE events SET link = ?, updated_at = ? WHERE game = ? AND name = ?`,
				nullIfEmpty(e.Link), now, game, e.Name)
			if err != nil {
				return UpsertResult{}, err
			}
			res.Updated++
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO events(game, name, link, created_at, updated_at) VALUES(?,?,?,?,?)`,
				game, e.Name, nullIfEmpty(e.Link), now, now)
			if err != nil {
				return UpsertResult{}, err
			}
			existing[e.Name] = true
			res.Inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

// ListEvents returns rows for one scope, or every scope when game is empty.
func (d *DB) ListEvents(ctx context.Context, game string) ([]EventRow, error) {
	q := "SELECT game, name, link, created_at, updated_at FROM events"
	args := []interface{}{}
	if game != "" {
		q += " WHERE game = ?"
		args = append(args, game)
	}
	q += " ORDER BY game, name"

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		var link sql.NullString
		var created, updated string
		if err := rows.Scan(&r.Game, &r.Name, &link, &created, &updated); err != nil {
			return nil, err
		}
		r.Link = link.String
		r.CreatedAt = parseTimeText(created)
		r.UpdatedAt = parseTimeText(updated)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HasEvents reports whether any event row exists for the scope. The empty
// scope asks about the table as a whole.
func (d *DB) HasEvents(ctx context.Context, game string) (bool, error) {
	q := "SELECT EXISTS(SELECT 1 FROM events WHERE game = ?)"
	args := []interface{}{game}
	if game == "" {
		q = "SELECT EXISTS(SELECT 1 FROM events)"
		args = nil
	}
	var n int
	err := d.sql.QueryRowContext(ctx, q, args...).Scan(&n)
	return n == 1, err
}
