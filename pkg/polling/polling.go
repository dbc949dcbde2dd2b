// Package polling keeps the service's data warm by refreshing every
// configured (kind, game) key on a schedule. It is a plain consumer of
// the refresh coordinator: ephemeral kinds are force-fetched, durable
// kinds run a live merge, and a failed key never stops a sweep.
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sw33tLie/liquifeed/pkg/records"
	"github.com/sw33tLie/liquifeed/pkg/refresh"
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

// Key is one refresh target.
type Key struct {
	Kind records.Kind
	Game string
}

func (k Key) String() string {
	return string(k.Kind) + "/" + k.Game
}

// Config holds everything a sweep needs. Coordinator is required.
type Config struct {
	Coordinator *refresh.Coordinator
	Games       []string
	Concurrency int    // defaults to 3 if <= 0
	Log         Logger // optional; nil = no logging

	// OnKeyDone is called per key after its refresh completes (from worker
	// goroutines). Enables the CLI to stream progress. Nil = no callback.
	OnKeyDone func(key Key, count int, err error)
}

// Result holds the outcome of one sweep.
type Result struct {
	Refreshed int
	Errors    []error // non-fatal, one per failed key
}

// Keys expands a game list into the full refresh target list: the three
// ephemeral kinds plus the team table per game, and the season event
// calendar once.
func Keys(games []string) []Key {
	keys := make([]Key, 0, len(games)*4+1)
	for _, g := range games {
		keys = append(keys,
			Key{records.KindTournaments, g},
			Key{records.KindMatches, g},
			Key{records.KindEWCMatches, g},
			Key{records.KindTeams, g},
		)
	}
	keys = append(keys, Key{records.KindEvents, ""})
	return keys
}

// Sweep refreshes every key once through a small worker pool, collecting
// per-key failures instead of stopping on them.
func Sweep(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Coordinator == nil {
		return nil, errors.New("polling: coordinator is required")
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	keys := Keys(cfg.Games)
	keyChan := make(chan Key, len(keys))

	var mu sync.Mutex
	result := &Result{}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range keyChan {
				count, err := refreshOne(ctx, cfg.Coordinator, k)

				mu.Lock()
				if err != nil {
					result.Errors = append(result.Errors, fmt.Errorf("%s: %w", k, err))
				} else {
					result.Refreshed++
				}
				mu.Unlock()

				if err != nil {
					log.Warnf("Refresh failed for %s: %v", k, err)
				} else {
					log.Debugf("Refreshed %s (%d records)", k, count)
				}

				if cfg.OnKeyDone != nil {
					cfg.OnKeyDone(k, count, err)
				}
			}
		}()
	}

	for _, k := range keys {
		keyChan <- k
	}
	close(keyChan)
	wg.Wait()

	return result, nil
}

// refreshOne dispatches a key to the matching coordinator mode.
func refreshOne(ctx context.Context, c *refresh.Coordinator, k Key) (int, error) {
	switch {
	case k.Kind.Ephemeral():
		p, err := c.Ephemeral(ctx, k.Kind, k.Game, true)
		if err != nil {
			return 0, err
		}
		return p.Len(), nil
	case k.Kind == records.KindTeams:
		rows, err := c.Teams(ctx, k.Game, true)
		if err != nil {
			return 0, err
		}
		return len(rows), nil
	case k.Kind == records.KindEvents:
		rows, err := c.Events(ctx, k.Game, true)
		if err != nil {
			return 0, err
		}
		return len(rows), nil
	}
	return 0, fmt.Errorf("polling: kind %q is not refreshable", k.Kind)
}

// Run sweeps immediately, then again on every tick until ctx is cancelled.
func Run(ctx context.Context, cfg Config, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("polling: interval must be positive")
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := Sweep(ctx, cfg)
		if err != nil {
			return err
		}
		log.Infof("Sweep done: %d keys refreshed, %d failed", res.Refreshed, len(res.Errors))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
