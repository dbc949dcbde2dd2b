package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// UpsertTeams commits one fetched batch for a game. Known names get their
// logo refreshed and updated_at advanced, new names are inserted, and
// rows absent from the batch are left alone. The whole batch commits or
// none of it does.
func (d *DB) UpsertTeams(ctx context.Context, game string, teams []records.Team) (UpsertResult, error) {
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

	rows, err := tx.QueryContext(ctx, "SELECT team_name FROM teams WHERE game = ?", game)
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

	for _, t := range teams {
		if t.TeamName == "" {
			continue
		}
		if existing[t.TeamName] {
			_, err = tx.ExecContext(ctx,
				`UPDATE teams SET logo_url = ?, updated_at = ? WHERE game = ? AND team_name = ?`,
				nullIfEmpty(t.LogoURL), now, game, t.TeamName)
			if err != nil {
				return UpsertResult{}, err
			}
			res.Updated++
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO teams(game, team_name, logo_url, created_at, updated_at) VALUES(?,?,?,?,?)`,
				game, t.TeamName, nullIfEmpty(t.LogoURL), now, now)
			if err != nil {
				return UpsertResult{}, err
			}
			existing[t.TeamName] = true
			res.Inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

// ListTeams returns rows for one game, or every game when game is empty.
func (d *DB) ListTeams(ctx context.Context, game string) ([]TeamRow, error) {
	q := "SELECT game, team_name, logo_url, created_at, updated_at FROM teams"
	args := []interface{}{}
	if game != "" {
		q += " WHERE game = ?"
		args = append(args, game)
	}
	q += " ORDER BY game, team_name"

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TeamRow
	for rows.Next() {
		var r TeamRow
		var logo sql.NullString
		var created, updated string
		if err := rows.Scan(&r.Game, &r.TeamName, &logo, &created, &updated); err != nil {
			return nil, err
		}
		r.LogoURL = logo.String
		r.CreatedAt = parseTimeText(created)
		r.UpdatedAt = parseTimeText(updated)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HasTeams reports whether any team row exists for the game.
func (d *DB) HasTeams(ctx context.Context, game string) (bool, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM teams WHERE game = ?)", game).Scan(&n)
	return n == 1, err
}
