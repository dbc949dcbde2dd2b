package refresh

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sw33tLie/liquifeed/pkg/records"
	"github.com/sw33tLie/liquifeed/pkg/snapcache"
	"github.com/sw33tLie/liquifeed/pkg/storage"
	"github.com/sw33tLie/liquifeed/pkg/upstream"
)

// stubFetcher counts calls and serves canned payloads or errors. A
// non-nil block channel holds every fetch until the channel closes.
type stubFetcher struct {
	calls   int32
	payload *records.Payload
	teams   []records.Team
	events  []records.Event
	err     error
	block   chan struct{}
}

func (f *stubFetcher) Fetch(ctx context.Context, kind records.Kind, game string) (*records.Payload, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.payload != nil {
		return f.payload, nil
	}
	return &records.Payload{
		Kind:      kind,
		Game:      game,
		FetchedAt: time.Now().UTC(),
		Teams:     f.teams,
		Events:    f.events,
	}, nil
}

func (f *stubFetcher) count() int {
	return int(atomic.LoadInt32(&f.calls))
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func openTestStore(t *testing.T) *storage.DB {
	t.Helper()
	d, err := storage.Open(filepath.Join(t.TempDir(), "liquifeed.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func newTestCoordinator(t *testing.T, f *stubFetcher, store *storage.DB) (*Coordinator, *snapcache.Cache, *fakeClock) {
	t.Helper()
	cache := snapcache.New()
	clock := &fakeClock{t: time.Date(2025, 7, 8, 12, 0, 0, 0, time.UTC)}
	c, err := New(Config{
		Fetcher: f,
		Store:   store,
		Cache:   cache,
		TTL:     10 * time.Minute,
		Now:     clock.now,
	})
	if err != nil {
		t.Fatalf("failed to build coordinator: %v", err)
	}
	return c, cache, clock
}

func TestNew_RequiresFetcher(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected an error without a fetcher")
	}
}

func TestEphemeral_FreshSnapshotSkipsFetch(t *testing.T) {
	f := &stubFetcher{}
	c, _, clock := newTestCoordinator(t, f, nil)
	ctx := context.Background()

	first, err := c.Ephemeral(ctx, records.KindMatches, "dota2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.advance(9 * time.Minute)

	second, err := c.Ephemeral(ctx, records.KindMatches, "dota2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.count() != 1 {
		t.Fatalf("expected exactly 1 fetch inside the ttl window, got %d", f.count())
	}
	if first != second {
		t.Fatal("expected the identical snapshot payload on a cache hit")
	}
}

func TestEphemeral_StaleSnapshotRefetches(t *testing.T) {
	f := &stubFetcher{}
	c, _, clock := newTestCoordinator(t, f, nil)
	ctx := context.Background()

	if _, err := c.Ephemeral(ctx, records.KindMatches, "dota2", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.advance(10 * time.Minute)

	if _, err := c.Ephemeral(ctx, records.KindMatches, "dota2", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.count() != 2 {
		t.Fatalf("expected a refetch at exactly ttl age, got %d fetches", f.count())
	}
}

func TestEphemeral_ForceAlwaysFetches(t *testing.T) {
	f := &stubFetcher{}
	c, _, _ := newTestCoordinator(t, f, nil)
	ctx := context.Background()

	if _, err := c.Ephemeral(ctx, records.KindTournaments, "dota2", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Ephemeral(ctx, records.KindTournaments, "dota2", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.count() != 2 {
		t.Fatalf("expected force to bypass a fresh snapshot, got %d fetches", f.count())
	}
}

func TestEphemeral_KeysDoNotCollide(t *testing.T) {
	f := &stubFetcher{}
	c, _, _ := newTestCoordinator(t, f, nil)
	ctx := context.Background()

	if _, err := c.Ephemeral(ctx, records.KindMatches, "dota2", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Ephemeral(ctx, records.KindMatches, "valorant", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Ephemeral(ctx, records.KindTournaments, "dota2", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.count() != 3 {
		t.Fatalf("expected one fetch per distinct key, got %d", f.count())
	}
}

func TestEphemeral_FailureKeepsLastSnapshot(t *testing.T) {
	f := &stubFetcher{}
	c, cache, clock := newTestCoordinator(t, f, nil)
	ctx := context.Background()

	good, err := c.Ephemeral(ctx, records.KindMatches, "dota2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.advance(11 * time.Minute)
	f.err = upstream.ErrUpstreamUnavailable

	if _, err := c.Ephemeral(ctx, records.KindMatches, "dota2", false); !errors.Is(err, upstream.ErrUpstreamUnavailable) {
		t.Fatalf("expected the fetch error to propagate, got %v", err)
	}

	e, ok := cache.Get(snapcache.Key{Kind: records.KindMatches, Game: "dota2"})
	if !ok || e.Payload != good {
		t.Fatal("expected the failed refresh to leave the previous snapshot in place")
	}

	f.err = nil
	recovered, err := c.Ephemeral(ctx, records.KindMatches, "dota2", false)
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if recovered == good {
		t.Fatal("expected a new payload once upstream recovered")
	}
}

func TestEphemeral_ConcurrentRequestsShareOneFetch(t *testing.T) {
	f := &stubFetcher{block: make(chan struct{})}
	c, _, _ := newTestCoordinator(t, f, nil)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	results := make([]*records.Payload, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Ephemeral(ctx, records.KindMatches, "dota2", false)
		}(i)
	}

	// Wait for the flight to start, give the rest a moment to attach,
	// then release the fetch.
	for f.count() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(f.block)
	wg.Wait()

	if f.count() != 1 {
		t.Fatalf("expected exactly 1 upstream fetch for %d concurrent requests, got %d", n, f.count())
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatal("expected every concurrent request to observe the same payload")
		}
	}
}

func TestEphemeral_RejectsDurableKinds(t *testing.T) {
	f := &stubFetcher{}
	c, _, _ := newTestCoordinator(t, f, nil)

	if _, err := c.Ephemeral(context.Background(), records.KindTeams, "dota2", false); err == nil {
		t.Fatal("expected an error for a durable kind")
	}
	if f.count() != 0 {
		t.Fatalf("expected no fetch, got %d", f.count())
	}
}

func TestTeams_FirstRequestPopulatesStore(t *testing.T) {
	f := &stubFetcher{teams: []records.Team{{TeamName: "Team Spirit"}, {TeamName: "Team Falcons"}}}
	c, _, _ := newTestCoordinator(t, f, openTestStore(t))
	ctx := context.Background()

	rows, err := c.Teams(ctx, "dota2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if f.count() != 1 {
		t.Fatalf("expected one fetch to populate an empty table, got %d", f.count())
	}

	rows, err = c.Teams(ctx, "dota2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if f.count() != 1 {
		t.Fatalf("expected the populated table to be served without a fetch, got %d", f.count())
	}
}

func TestTeams_LiveMergesIntoStore(t *testing.T) {
	f := &stubFetcher{teams: []records.Team{{TeamName: "Team Spirit"}}}
	c, _, _ := newTestCoordinator(t, f, openTestStore(t))
	ctx := context.Background()

	if _, err := c.Teams(ctx, "dota2", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.teams = []records.Team{{TeamName: "Tundra"}}
	rows, err := c.Teams(ctx, "dota2", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.count() != 2 {
		t.Fatalf("expected live to always fetch, got %d fetches", f.count())
	}
	if len(rows) != 2 {
		t.Fatalf("expected the merged view to keep the absent team, got %+v", rows)
	}
}

func TestTeams_DegradesToStoredRowsOnFetchFailure(t *testing.T) {
	f := &stubFetcher{teams: []records.Team{{TeamName: "Team Spirit"}, {TeamName: "Tundra"}}}
	c, _, _ := newTestCoordinator(t, f, openTestStore(t))
	ctx := context.Background()

	if _, err := c.Teams(ctx, "dota2", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.err = upstream.ErrUpstreamUnavailable
	rows, err := c.Teams(ctx, "dota2", true)
	if err != nil {
		t.Fatalf("expected degradation instead of failure, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected the stored rows back, got %+v", rows)
	}
}

func TestTeams_EmptyStoreFailurePropagates(t *testing.T) {
	f := &stubFetcher{err: upstream.ErrMalformedDocument}
	c, _, _ := newTestCoordinator(t, f, openTestStore(t))

	_, err := c.Teams(context.Background(), "dota2", false)
	if !errors.Is(err, upstream.ErrMalformedDocument) {
		t.Fatalf("expected the fetch error with nothing to degrade to, got %v", err)
	}
}

func TestTeams_ValidationFailureNeverDegrades(t *testing.T) {
	f := &stubFetcher{teams: []records.Team{{TeamName: "Team Spirit"}}}
	c, _, _ := newTestCoordinator(t, f, openTestStore(t))
	ctx := context.Background()

	if _, err := c.Teams(ctx, "dota2", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.err = upstream.ErrUnsupportedGame
	if _, err := c.Teams(ctx, "dota2", true); !errors.Is(err, upstream.ErrUnsupportedGame) {
		t.Fatalf("expected the validation error to surface despite stored rows, got %v", err)
	}
}

func TestTeams_StoreWriteFailureSurfaces(t *testing.T) {
	store := openTestStore(t)
	f := &stubFetcher{teams: []records.Team{{TeamName: "Team Spirit"}}}
	c, _, _ := newTestCoordinator(t, f, store)

	store.Close()

	_, err := c.Teams(context.Background(), "dota2", true)
	if !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}
}

func TestTeams_RequiresStore(t *testing.T) {
	f := &stubFetcher{}
	c, _, _ := newTestCoordinator(t, f, nil)

	if _, err := c.Teams(context.Background(), "dota2", false); err == nil {
		t.Fatal("expected an error without a store")
	}
}

func TestEvents_OverviewScope(t *testing.T) {
	f := &stubFetcher{events: []records.Event{{Name: "EWC 2025 Dota 2"}, {Name: "EWC 2025 CS2"}}}
	c, _, _ := newTestCoordinator(t, f, openTestStore(t))
	ctx := context.Background()

	rows, err := c.Events(ctx, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if f.count() != 1 {
		t.Fatalf("expected one fetch, got %d", f.count())
	}

	if _, err := c.Events(ctx, "", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.count() != 1 {
		t.Fatalf("expected the store to satisfy the second request, got %d fetches", f.count())
	}
}

func TestEvents_DegradesToStoredRowsOnFetchFailure(t *testing.T) {
	f := &stubFetcher{events: []records.Event{{Name: "EWC 2025"}}}
	c, _, _ := newTestCoordinator(t, f, openTestStore(t))
	ctx := context.Background()

	if _, err := c.Events(ctx, "dota2", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.err = upstream.ErrUpstreamUnavailable
	rows, err := c.Events(ctx, "dota2", true)
	if err != nil {
		t.Fatalf("expected degradation instead of failure, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the stored row back, got %+v", rows)
	}
}
