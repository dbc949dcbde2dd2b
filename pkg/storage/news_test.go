package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

func TestCreateAndGetNews(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	created, err := d.CreateNews(ctx, records.NewsItem{
		Title:        "Spirit win the grand final",
		Description:  "A 2:1 reverse sweep",
		Writer:       "alice",
		ThumbnailRef: "uploads/final.png",
		NewsLink:     "https://example.com/final",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if created.CreatedAt.IsZero() || !created.UpdatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected matching fresh timestamps, got %+v", created)
	}

	got, err := d.GetNews(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != created.Title || got.Writer != "alice" || got.ThumbnailRef != "uploads/final.png" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestGetNews_Missing(t *testing.T) {
	d := openTestDB(t)

	_, err := d.GetNews(context.Background(), "nope")
	if !errors.Is(err, ErrNewsNotFound) {
		t.Fatalf("expected ErrNewsNotFound, got %v", err)
	}
}

func TestListNews_Pagination(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := d.CreateNews(ctx, records.NewsItem{Title: fmt.Sprintf("post %02d", i)}); err != nil {
			t.Fatalf("seed news: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	seen := make(map[string]bool)
	for page := 1; page <= 3; page++ {
		res, err := d.ListNews(ctx, NewsFilter{Page: page, PageSize: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Total != 12 {
			t.Fatalf("expected total 12, got %d", res.Total)
		}
		want := 5
		if page == 3 {
			want = 2
		}
		if len(res.Items) != want {
			t.Fatalf("expected %d items on page %d, got %d", want, page, len(res.Items))
		}
		for _, item := range res.Items {
			if seen[item.ID] {
				t.Fatalf("item %s appeared on two pages", item.ID)
			}
			seen[item.ID] = true
		}
	}
	if len(seen) != 12 {
		t.Fatalf("expected 12 distinct items across pages, got %d", len(seen))
	}

	empty, err := d.ListNews(ctx, NewsFilter{Page: 4, PageSize: 5})
	if err != nil {
		t.Fatalf("expected an out-of-range page to be valid, got %v", err)
	}
	if len(empty.Items) != 0 || empty.Total != 12 {
		t.Fatalf("expected an empty page with the real total, got %+v", empty)
	}
}

func TestListNews_NewestFirst(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	if _, err := d.CreateNews(ctx, records.NewsItem{Title: "older"}); err != nil {
		t.Fatalf("seed news: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := d.CreateNews(ctx, records.NewsItem{Title: "newer"}); err != nil {
		t.Fatalf("seed news: %v", err)
	}

	res, err := d.ListNews(ctx, NewsFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 2 || res.Items[0].Title != "newer" {
		t.Fatalf("expected newest first, got %+v", res.Items)
	}
}

func TestListNews_Filters(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	seed := []records.NewsItem{
		{Title: "EWC grand final recap", Writer: "alice"},
		{Title: "Transfer rumors", Description: "Roster moves before the World Cup", Writer: "bob"},
		{Title: "Patch notes", Writer: "alice"},
	}
	for _, item := range seed {
		if _, err := d.CreateNews(ctx, item); err != nil {
			t.Fatalf("seed news: %v", err)
		}
	}

	byWriter, err := d.ListNews(ctx, NewsFilter{Writer: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byWriter.Total != 2 || len(byWriter.Items) != 2 {
		t.Fatalf("expected 2 items by alice, got %+v", byWriter)
	}

	bySearch, err := d.ListNews(ctx, NewsFilter{Search: "world cup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bySearch.Total != 1 || bySearch.Items[0].Writer != "bob" {
		t.Fatalf("expected the description match, got %+v", bySearch)
	}

	both, err := d.ListNews(ctx, NewsFilter{Writer: "alice", Search: "final"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if both.Total != 1 || both.Items[0].Title != "EWC grand final recap" {
		t.Fatalf("expected filters to combine, got %+v", both)
	}
}

func TestUpsertNews(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	res, err := d.UpsertNews(ctx, []records.NewsItem{
		{Title: "EWC groups drawn", Writer: "alice"},
		{Title: "", Writer: "ghost"},
		{ID: "pinned-1", Title: "Schedule announced"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted != 2 || res.Updated != 0 {
		t.Fatalf("expected 2 inserts with the untitled item skipped, got %+v", res)
	}

	pinned, err := d.GetNews(ctx, "pinned-1")
	if err != nil {
		t.Fatalf("expected the caller-supplied id to be kept: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	res, err = d.UpsertNews(ctx, []records.NewsItem{
		{ID: "pinned-1", Title: "Schedule updated", Writer: "bob"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted != 0 || res.Updated != 1 {
		t.Fatalf("expected 1 update for a known id, got %+v", res)
	}

	after, err := d.GetNews(ctx, "pinned-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Title != "Schedule updated" || after.Writer != "bob" {
		t.Fatalf("expected rewritten fields, got %+v", after)
	}
	if !after.UpdatedAt.After(pinned.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: %v -> %v", pinned.UpdatedAt, after.UpdatedAt)
	}
	if !after.CreatedAt.Equal(pinned.CreatedAt) {
		t.Fatalf("expected created_at to stay put: %v -> %v", pinned.CreatedAt, after.CreatedAt)
	}

	page, err := d.ListNews(ctx, NewsFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected no duplicate identities, got %+v", page)
	}
}

func TestUpdateNews(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	created, err := d.CreateNews(ctx, records.NewsItem{Title: "draft", Writer: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	created.Title = "published"
	updated, err := d.UpdateNews(ctx, created)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "published" {
		t.Fatalf("expected the new title, got %q", updated.Title)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected created_at to stay put: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}

	_, err = d.UpdateNews(ctx, records.NewsItem{ID: "nope", Title: "x"})
	if !errors.Is(err, ErrNewsNotFound) {
		t.Fatalf("expected ErrNewsNotFound, got %v", err)
	}
}

func TestDeleteNews(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	created, err := d.CreateNews(ctx, records.NewsItem{Title: "ephemeral"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := d.DeleteNews(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := d.GetNews(ctx, created.ID); !errors.Is(err, ErrNewsNotFound) {
		t.Fatalf("expected the row to be gone, got %v", err)
	}
	if err := d.DeleteNews(ctx, created.ID); !errors.Is(err, ErrNewsNotFound) {
		t.Fatalf("expected ErrNewsNotFound on double delete, got %v", err)
	}
}
