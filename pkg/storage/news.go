package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// ErrNewsNotFound is returned when an id matches no news row.
var ErrNewsNotFound = errors.New("news item not found")

const (
	defaultNewsPageSize = 10
	maxNewsPageSize     = 100
)

// NewsFilter selects and pages news rows. Pages are 1-indexed.
type NewsFilter struct {
	Page     int
	PageSize int
	Writer   string
	Search   string
}

// NewsPage is one page of news plus the total row count for the filter.
type NewsPage struct {
	Items    []records.NewsItem `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// ListNews returns the requested page, newest first. A page past the end
// yields an empty item list, not an error.
func (d *DB) ListNews(ctx context.Context, f NewsFilter) (*NewsPage, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultNewsPageSize
	}
	if f.PageSize > maxNewsPageSize {
		f.PageSize = maxNewsPageSize
	}

	where := "WHERE 1=1"
	args := []interface{}{}
	if f.Writer != "" {
		where += " AND writer = ?"
		args = append(args, f.Writer)
	}
	if f.Search != "" {
		where += " AND (title LIKE ? OR description LIKE ?)"
		pattern := fmt.Sprintf("%%%s%%", f.Search)
		args = append(args, pattern, pattern)
	}

	page := &NewsPage{Page: f.Page, PageSize: f.PageSize}
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM news "+where, args...).Scan(&page.Total); err != nil {
		return nil, err
	}

	q := "SELECT id, title, description, writer, thumbnail_ref, news_link, created_at, updated_at FROM news " +
		where + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page, nil
}

// UpsertNews commits one batch keyed by id. Items without an id get one
// assigned and are inserted; known ids have their mutable fields rewritten
// and updated_at advanced. The whole batch commits or none of it does.
func (d *DB) UpsertNews(ctx context.Context, items []records.NewsItem) (UpsertResult, error) {
	var res UpsertResult
	now := time.Now().UTC()
	nowText := timeText(now)

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM news")
	if err != nil {
		return res, err
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			return res, err
		}
		existing[id] = true
	}
	if err = rows.Close(); err != nil {
		return res, err
	}

	for _, item := range items {
		if item.Title == "" {
			continue
		}
		if item.ID != "" && existing[item.ID] {
			_, err = tx.ExecContext(ctx,
				`UPDATE news SET title = ?, description = ?, writer = ?, thumbnail_ref = ?, news_link = ?, updated_at = ? WHERE id = ?`,
				item.Title, nullIfEmpty(item.Description), nullIfEmpty(item.Writer),
				nullIfEmpty(item.ThumbnailRef), nullIfEmpty(item.NewsLink), nowText, item.ID)
			if err != nil {
				return UpsertResult{}, err
			}
			res.Updated++
		} else {
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO news(id, title, description, writer, thumbnail_ref, news_link, created_at, updated_at) VALUES(?,?,?,?,?,?,?,?)`,
				item.ID, item.Title, nullIfEmpty(item.Description), nullIfEmpty(item.Writer),
				nullIfEmpty(item.ThumbnailRef), nullIfEmpty(item.NewsLink), nowText, nowText)
			if err != nil {
				return UpsertResult{}, err
			}
			existing[item.ID] = true
			res.Inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

// CreateNews inserts a new item, assigning its id and timestamps.
func (d *DB) CreateNews(ctx context.Context, item records.NewsItem) (records.NewsItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO news(id, title, description, writer, thumbnail_ref, news_link, created_at, updated_at) VALUES(?,?,?,?,?,?,?,?)`,
		item.ID, item.Title, nullIfEmpty(item.Description), nullIfEmpty(item.Writer),
		nullIfEmpty(item.ThumbnailRef), nullIfEmpty(item.NewsLink), timeText(now), timeText(now))
	if err != nil {
		return records.NewsItem{}, err
	}
	return item, nil
}

// GetNews returns one item by id.
func (d *DB) GetNews(ctx context.Context, id string) (records.NewsItem, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT id, title, description, writer, thumbnail_ref, news_link, created_at, updated_at FROM news WHERE id = ?", id)
	item, err := scanNews(row)
	if errors.Is(err, sql.ErrNoRows) {
		return records.NewsItem{}, ErrNewsNotFound
	}
	if err != nil {
		return records.NewsItem{}, err
	}
	return item, nil
}

// UpdateNews rewrites the mutable fields of an existing item and advances
// updated_at. The created_at stamp never moves.
func (d *DB) UpdateNews(ctx context.Context, item records.NewsItem) (records.NewsItem, error) {
	now := time.Now().UTC()

	res, err := d.sql.ExecContext(ctx,
		`UPDATE news SET title = ?, description = ?, writer = ?, thumbnail_ref = ?, news_link = ?, updated_at = ? WHERE id = ?`,
		item.Title, nullIfEmpty(item.Description), nullIfEmpty(item.Writer),
		nullIfEmpty(item.ThumbnailRef), nullIfEmpty(item.NewsLink), timeText(now), item.ID)
	if err != nil {
		return records.NewsItem{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return records.NewsItem{}, err
	}
	if n == 0 {
		return records.NewsItem{}, ErrNewsNotFound
	}
	return d.GetNews(ctx, item.ID)
}

// DeleteNews removes one item by id.
func (d *DB) DeleteNews(ctx context.Context, id string) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM news WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNewsNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNews(r rowScanner) (records.NewsItem, error) {
	var item records.NewsItem
	var desc, writer, thumb, link sql.NullString
	var created, updated string
	if err := r.Scan(&item.ID, &item.Title, &desc, &writer, &thumb, &link, &created, &updated); err != nil {
		return records.NewsItem{}, err
	}
	item.Description = desc.String
	item.Writer = writer.String
	item.ThumbnailRef = thumb.String
	item.NewsLink = link.String
	item.CreatedAt = parseTimeText(created)
	item.UpdatedAt = parseTimeText(updated)
	return item, nil
}
