package storage

import (
	"context"
	"testing"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

func TestUpsertEvents_Idempotent(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	batch := []records.Event{
		{Name: "EWC 2025 Dota 2", Link: "https://liquipedia.net/esportsworldcup/Dota_2"},
		{Name: "EWC 2025 CS2"},
	}

	res, err := d.UpsertEvents(ctx, "dota2", batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted != 2 || res.Updated != 0 {
		t.Fatalf("expected 2 inserts, got %+v", res)
	}

	res, err = d.UpsertEvents(ctx, "dota2", batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted != 0 || res.Updated != 2 {
		t.Fatalf("expected 2 updates, got %+v", res)
	}

	rows, err := d.ListEvents(ctx, "dota2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
}

func TestUpsertEvents_OverviewScopeIsSeparate(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	if _, err := d.UpsertEvents(ctx, "", []records.Event{{Name: "EWC 2025 Dota 2"}, {Name: "EWC 2025 CS2"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := d.UpsertEvents(ctx, "dota2", []records.Event{{Name: "EWC 2025 Dota 2"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := d.ListEvents(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected overview and game rows to coexist, got %+v", all)
	}

	scoped, err := d.ListEvents(ctx, "dota2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Game != "dota2" {
		t.Fatalf("expected only the game-scoped row, got %+v", scoped)
	}
}

func TestUpsertEvents_UpdatesLink(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	if _, err := d.UpsertEvents(ctx, "", []records.Event{{Name: "EWC 2025", Link: "old"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := d.UpsertEvents(ctx, "", []records.Event{{Name: "EWC 2025", Link: "new"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := d.ListEvents(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Link != "new" {
		t.Fatalf("expected refreshed link, got %+v", rows)
	}
}

func TestHasEvents(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	ok, err := d.HasEvents(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no rows in a fresh store")
	}

	if _, err := d.UpsertEvents(ctx, "dota2", []records.Event{{Name: "EWC 2025 Dota 2"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err = d.HasEvents(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected the empty scope to see any row at all")
	}

	ok, err = d.HasEvents(ctx, "valorant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no rows for an unconfirmed game")
	}
}
