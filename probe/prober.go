package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yllada/mullvad-ping/common"
	"github.com/yllada/mullvad-ping/relay"
)

// Pinger sends a single echo-style request to address and returns the
// measured round-trip time. The context carries the probe deadline.
type Pinger interface {
	Ping(ctx context.Context, address string) (time.Duration, error)
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context, address string) (time.Duration, error)

// Ping implements Pinger.
func (f PingerFunc) Ping(ctx context.Context, address string) (time.Duration, error) {
	return f(ctx, address)
}

// Result is the outcome of probing one relay.
type Result struct {
	// Server is the probed relay.
	Server relay.Server
	// Index is the relay's position in the candidate set.
	Index int
	// Latency is the round-trip time; zero when Err is set.
	Latency time.Duration
	// Err is nil on success, otherwise it wraps common.ErrProbeTimeout,
	// common.ErrProbeUnreachable or common.ErrCancelled.
	Err error
}

// OK reports whether the probe produced a latency.
func (r Result) OK() bool {
	return r.Err == nil
}

// Options configures a Prober.
type Options struct {
	// Concurrency is the maximum number of probes in flight. Must be >= 1.
	Concurrency int
	// Timeout bounds every single probe.
	Timeout time.Duration
	// Rate paces probe starts per second. Zero means unpaced.
	Rate float64
	// OnResult, when set, is called once per Result from a single
	// goroutine as results arrive.
	OnResult func(Result)
}

// DefaultOptions returns the default concurrency cap and timeout.
func DefaultOptions() Options {
	return Options{
		Concurrency: common.DefaultMaxConcurrentPings,
		Timeout:     common.DefaultPingTimeout,
	}
}

// Prober probes relays on a bounded worker pool.
type Prober struct {
	pinger  Pinger
	opts    Options
	limiter *rate.Limiter
}

// New creates a Prober. It rejects a concurrency cap below 1 with
// common.ErrInvalidConcurrency before any probing happens.
func New(pinger Pinger, opts Options) (*Prober, error) {
	if opts.Concurrency < 1 {
		return nil, fmt.Errorf("%w: got %d", common.ErrInvalidConcurrency, opts.Concurrency)
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("%w: probe timeout must be positive, got %v", common.ErrInvalidConfig, opts.Timeout)
	}
	if pinger == nil {
		return nil, fmt.Errorf("%w: no pinger", common.ErrInvalidConfig)
	}

	p := &Prober{pinger: pinger, opts: opts}
	if opts.Rate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	return p, nil
}

// Concurrency returns the configured cap.
func (p *Prober) Concurrency() int {
	return p.opts.Concurrency
}

// Probe measures every server once and returns the results in input
// order. At most Concurrency probes run at any instant. If ctx is
// cancelled, the relays not yet probed get a failed Result so the output
// still has one entry per server.
func (p *Prober) Probe(ctx context.Context, servers []relay.Server) []Result {
	results := make([]Result, len(servers))
	if len(servers) == 0 {
		return results
	}

	workers := min(p.opts.Concurrency, len(servers))
	jobs := make(chan int)
	out := make(chan Result)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out <- p.probeOne(ctx, i, servers[i])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range servers {
			jobs <- i
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	start := time.Now()
	common.LogDebug("Probing %d relays with %d workers (timeout %v)", len(servers), workers, p.opts.Timeout)

	for r := range out {
		results[r.Index] = r
		if p.opts.OnResult != nil {
			p.opts.OnResult(r)
		}
	}

	common.LogDebug("Probed %d relays in %v", len(servers), time.Since(start).Round(time.Millisecond))
	return results
}

// probeOne runs a single probe. It never returns an error: every failure
// is recorded in the Result.
func (p *Prober) probeOne(ctx context.Context, index int, server relay.Server) Result {
	result := Result{Server: server, Index: index}
	address := server.Address()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			result.Err = fmt.Errorf("%w: %s: %v", common.ErrCancelled, address, err)
			return result
		}
	}
	if err := ctx.Err(); err != nil {
		result.Err = fmt.Errorf("%w: %s: %v", common.ErrCancelled, address, err)
		return result
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	latency, err := p.pinger.Ping(probeCtx, address)
	if err != nil {
		result.Err = classify(ctx, probeCtx, address, err)
		common.LogDebug("Probe %s (%s) failed: %v", server.Hostname, address, result.Err)
		return result
	}

	result.Latency = latency
	common.LogDebug("Probe %s (%s): %v", server.Hostname, address, latency)
	return result
}

// classify maps a pinger error onto the probe error taxonomy.
func classify(parent, probeCtx context.Context, address string, err error) error {
	switch {
	case parent.Err() != nil:
		return fmt.Errorf("%w: %s: %v", common.ErrCancelled, address, err)
	case errors.Is(err, common.ErrProbeTimeout), errors.Is(err, common.ErrProbeUnreachable):
		return fmt.Errorf("%s: %w", address, err)
	case isTimeout(err), errors.Is(probeCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %v", common.ErrProbeTimeout, address, err)
	default:
		return fmt.Errorf("%w: %s: %v", common.ErrProbeUnreachable, address, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
