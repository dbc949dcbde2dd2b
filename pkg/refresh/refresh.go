// Package refresh is the decision engine between callers and upstream.
// Fast-changing kinds (tournaments, matches) are served from a TTL
// snapshot cache and replaced wholesale; slow-changing kinds (teams,
// events) live in the durable store and are merged, never wiped, by a
// live refresh. Concurrent refreshes of the same key share one fetch.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sw33tLie/liquifeed/pkg/records"
	"github.com/sw33tLie/liquifeed/pkg/snapcache"
	"github.com/sw33tLie/liquifeed/pkg/storage"
	"github.com/sw33tLie/liquifeed/pkg/upstream"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// ErrStoreWrite marks a rejected durable write. The batch was rolled
// back; the snapshot cache is unaffected. Unlike fetch failures it is
// never degraded away.
var ErrStoreWrite = errors.New("store write failure")

// DefaultTTL is how long an ephemeral snapshot stays fresh.
const DefaultTTL = 10 * time.Minute

// Config holds everything a Coordinator needs. Fetcher is required; a
// nil Store limits the coordinator to ephemeral kinds.
type Config struct {
	Fetcher upstream.Fetcher
	Store   *storage.DB
	Cache   *snapcache.Cache // optional; a private cache is created if nil
	TTL     time.Duration    // defaults to DefaultTTL
	Log     Logger           // optional; nil = no logging
	Now     func() time.Time // optional; defaults to time.Now
}

// Coordinator routes each request to the snapshot cache, the durable
// store, or a live fetch. Safe for concurrent use.
type Coordinator struct {
	fetcher upstream.Fetcher
	store   *storage.DB
	cache   *snapcache.Cache
	ttl     time.Duration
	log     Logger
	now     func() time.Time
	flight  singleflight.Group
}

func New(cfg Config) (*Coordinator, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("refresh: fetcher is required")
	}
	c := &Coordinator{
		fetcher: cfg.Fetcher,
		store:   cfg.Store,
		cache:   cfg.Cache,
		ttl:     cfg.TTL,
		log:     cfg.Log,
		now:     cfg.Now,
	}
	if c.cache == nil {
		c.cache = snapcache.New()
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.log == nil {
		c.log = nopLogger{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

func flightKey(kind records.Kind, game string) string {
	return string(kind) + "/" + game
}

// Ephemeral serves a TTL-cached kind. Without force, a fresh snapshot is
// returned as-is; otherwise one fetch replaces the snapshot wholesale.
// Concurrent callers of the same key attach to the in-flight fetch, force
// included. A failed fetch leaves the previous snapshot untouched.
func (c *Coordinator) Ephemeral(ctx context.Context, kind records.Kind, game string, force bool) (*records.Payload, error) {
	if !kind.Ephemeral() {
		return nil, fmt.Errorf("refresh: kind %q is not ephemeral", kind)
	}

	key := snapcache.Key{Kind: kind, Game: game}
	if !force {
		if e, ok := c.cache.Get(key); ok && e.Fresh(c.now(), c.ttl) {
			c.log.Debugf("Snapshot hit for %s/%s", kind, game)
			return e.Payload, nil
		}
	}

	v, err, shared := c.flight.Do(flightKey(kind, game), func() (interface{}, error) {
		payload, err := c.fetcher.Fetch(ctx, kind, game)
		if err != nil {
			return nil, err
		}
		c.cache.Put(key, payload, c.now())
		return payload, nil
	})
	if err != nil {
		c.log.Warnf("Refresh failed for %s/%s: %v", kind, game, err)
		return nil, err
	}
	if shared {
		c.log.Debugf("Joined in-flight refresh for %s/%s", kind, game)
	}
	return v.(*records.Payload), nil
}

// Teams serves the durable team table for a game. Without live, a
// populated table is the answer; a live refresh (or a never-populated
// table) fetches, merges, and returns the stored view. When a live fetch
// fails over existing rows, those rows are served instead of the error.
func (c *Coordinator) Teams(ctx context.Context, game string, live bool) ([]storage.TeamRow, error) {
	if c.store == nil {
		return nil, errors.New("refresh: no store configured")
	}

	if !live {
		has, err := c.store.HasTeams(ctx, game)
		if err != nil {
			return nil, err
		}
		if has {
			return c.store.ListTeams(ctx, game)
		}
	}

	_, err, _ := c.flight.Do(flightKey(records.KindTeams, game), func() (interface{}, error) {
		payload, err := c.fetcher.Fetch(ctx, records.KindTeams, game)
		if err != nil {
			return nil, err
		}
		res, err := c.store.UpsertTeams(ctx, game, payload.Teams)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
		}
		c.log.Infof("Teams refresh for %s: %d inserted, %d updated", game, res.Inserted, res.Updated)
		return nil, nil
	})
	if err != nil {
		if rows, ok := c.degradeTeams(ctx, game, err); ok {
			return rows, nil
		}
		return nil, err
	}

	return c.store.ListTeams(ctx, game)
}

// Events serves the durable event table. The empty scope is the whole
// season overview; a game slug narrows to that game's events.
func (c *Coordinator) Events(ctx context.Context, game string, live bool) ([]storage.EventRow, error) {
	if c.store == nil {
		return nil, errors.New("refresh: no store configured")
	}

	if !live {
		has, err := c.store.HasEvents(ctx, game)
		if err != nil {
			return nil, err
		}
		if has {
			return c.store.ListEvents(ctx, game)
		}
	}

	_, err, _ := c.flight.Do(flightKey(records.KindEvents, game), func() (interface{}, error) {
		payload, err := c.fetcher.Fetch(ctx, records.KindEvents, game)
		if err != nil {
			return nil, err
		}
		res, err := c.store.UpsertEvents(ctx, game, payload.Events)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
		}
		c.log.Infof("Events refresh for %q: %d inserted, %d updated", game, res.Inserted, res.Updated)
		return nil, nil
	})
	if err != nil {
		if rows, ok := c.degradeEvents(ctx, game, err); ok {
			return rows, nil
		}
		return nil, err
	}

	return c.store.ListEvents(ctx, game)
}

// degradable reports whether a failure may be papered over with stored
// rows. Validation mistakes and rejected writes always surface.
func degradable(err error) bool {
	return errors.Is(err, upstream.ErrUpstreamUnavailable) || errors.Is(err, upstream.ErrMalformedDocument)
}

func (c *Coordinator) degradeTeams(ctx context.Context, game string, cause error) ([]storage.TeamRow, bool) {
	if !degradable(cause) {
		return nil, false
	}
	has, err := c.store.HasTeams(ctx, game)
	if err != nil || !has {
		return nil, false
	}
	rows, err := c.store.ListTeams(ctx, game)
	if err != nil {
		return nil, false
	}
	c.log.Warnf("Teams refresh for %s failed, serving %d stored rows: %v", game, len(rows), cause)
	return rows, true
}

func (c *Coordinator) degradeEvents(ctx context.Context, game string, cause error) ([]storage.EventRow, bool) {
	if !degradable(cause) {
		return nil, false
	}
	has, err := c.store.HasEvents(ctx, game)
	if err != nil || !has {
		return nil, false
	}
	rows, err := c.store.ListEvents(ctx, game)
	if err != nil {
		return nil, false
	}
	c.log.Warnf("Events refresh for %q failed, serving %d stored rows: %v", game, len(rows), cause)
	return rows, true
}
