package limiter

import (
	"context"
	"time"

	"github.com/govgraph/gov-crawler/pkg/log"
)

// DefaultBuffer is how many remaining API calls are kept in reserve before
// the crawl suspends until the quota window resets.
const DefaultBuffer = 150

// Rate carries the quota metadata of a single API response. Ok is false
// when the response did not include the rate headers; such responses never
// throttle the crawl.
type Rate struct {
	Remaining int
	Reset     time.Time
	Ok        bool
}

// Governor suspends the crawl when the remaining API quota drops below the
// buffer. It never fails, it only delays.
type Governor struct {
	Logger log.Logger
	Buffer int

	// sleep is swapped out by tests.
	sleep func(time.Duration)
}

func NewGovernor(logger log.Logger, buffer int) *Governor {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Governor{
		Logger: logger,
		Buffer: buffer,
		sleep:  time.Sleep,
	}
}

// Observe inspects the quota metadata of the latest response and blocks
// until the reset time when the remaining quota has fallen below the
// buffer. Called after every API call, paginated ones included.
func (g *Governor) Observe(ctx context.Context, rate Rate) {
	if !rate.Ok {
		return
	}
	if rate.Remaining >= g.Buffer {
		return
	}

	delay := time.Until(rate.Reset)
	if delay <= 0 {
		return
	}

	g.Logger.Warn(ctx, "API quota low (%d remaining), suspending until %s (%v)",
		rate.Remaining, rate.Reset.Format(time.RFC3339), delay.Round(time.Second))
	g.sleep(delay)
}
