package upstream

import (
	"context"
	"errors"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// Failure taxonomy for a fetch-and-parse cycle. Implementations wrap these
// sentinels with detail (fmt.Errorf("...: %w", Err...)) so callers can
// classify with errors.Is while still logging the cause.
var (
	// ErrUpstreamUnavailable covers network and transport failures reaching
	// the source, including 5xx responses. The coordinator never retries
	// these; any retrying happens inside the adapter's own HTTP client.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedDocument means the fetch succeeded but the expected
	// structure was absent (broken API envelope, unparseable fragment).
	// It is local to the requested key and never corrupts stored state.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrUnsupportedGame is a validation failure reported before any
	// network I/O happens.
	ErrUnsupportedGame = errors.New("unsupported game")
)

// Fetcher performs one upstream fetch for a (kind, game) pair and returns
// the parsed records. Implementations must not cache: all caching is the
// refresh coordinator's responsibility. A failed call returns an error
// wrapping exactly one of the sentinels above.
type Fetcher interface {
	Fetch(ctx context.Context, kind records.Kind, game string) (*records.Payload, error)
}
