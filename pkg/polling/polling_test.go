package polling

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sw33tLie/liquifeed/pkg/records"
	"github.com/sw33tLie/liquifeed/pkg/refresh"
	"github.com/sw33tLie/liquifeed/pkg/storage"
	"github.com/sw33tLie/liquifeed/pkg/upstream"
)

type stubFetcher struct {
	calls    int32
	failKind records.Kind
}

func (f *stubFetcher) Fetch(ctx context.Context, kind records.Kind, game string) (*records.Payload, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.failKind != "" && kind == f.failKind {
		return nil, fmt.Errorf("%w: stub", upstream.ErrUpstreamUnavailable)
	}
	return &records.Payload{Kind: kind, Game: game}, nil
}

func newTestCoordinator(t *testing.T, f upstream.Fetcher) *refresh.Coordinator {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "liquifeed.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	c, err := refresh.New(refresh.Config{Fetcher: f, Store: db})
	if err != nil {
		t.Fatalf("failed to build coordinator: %v", err)
	}
	return c
}

func TestKeys(t *testing.T) {
	keys := Keys([]string{"dota2"})
	if len(keys) != 5 {
		t.Fatalf("expected 5 keys for one game, got %d", len(keys))
	}
	last := keys[len(keys)-1]
	if last.Kind != records.KindEvents || last.Game != "" {
		t.Fatalf("expected the season calendar key last, got %s", last)
	}
}

func TestSweep_RefreshesEveryKey(t *testing.T) {
	f := &stubFetcher{}
	coord := newTestCoordinator(t, f)

	var mu sync.Mutex
	var done []Key
	res, err := Sweep(context.Background(), Config{
		Coordinator: coord,
		Games:       []string{"dota2", "valorant"},
		OnKeyDone: func(k Key, count int, err error) {
			mu.Lock()
			done = append(done, k)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if res.Refreshed != 9 || len(res.Errors) != 0 {
		t.Fatalf("expected 9 refreshed keys and no errors, got %d and %v", res.Refreshed, res.Errors)
	}
	if got := atomic.LoadInt32(&f.calls); got != 9 {
		t.Fatalf("expected 9 upstream fetches, got %d", got)
	}
	if len(done) != 9 {
		t.Fatalf("expected the callback for every key, got %d calls", len(done))
	}
}

func TestSweep_CollectsFailuresWithoutStopping(t *testing.T) {
	f := &stubFetcher{failKind: records.KindMatches}
	coord := newTestCoordinator(t, f)

	res, err := Sweep(context.Background(), Config{
		Coordinator: coord,
		Games:       []string{"dota2", "valorant"},
	})
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 failed keys, got %v", res.Errors)
	}
	if res.Refreshed != 7 {
		t.Fatalf("expected the other 7 keys to refresh, got %d", res.Refreshed)
	}
}

func TestSweep_RequiresCoordinator(t *testing.T) {
	if _, err := Sweep(context.Background(), Config{}); err == nil {
		t.Fatal("expected an error without a coordinator")
	}
}
