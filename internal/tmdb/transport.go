package tmdb

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Limit defines a simple rate limit: RPS with a burst capacity.
type Limit struct {
	RPS   float64
	Burst int
}

// TransportOptions configures the retrying, rate-limited transport.
type TransportOptions struct {
	// RetryMax is the number of extra attempts after the first one. Zero
	// disables retries, so every failure is returned to the caller at once.
	RetryMax    int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	// Jitter is the backoff randomization factor in [0,1].
	Jitter  float64
	Clock   Clock
	Metrics *Metrics

	// Host-specific limits (by req.URL.Host). If missing, DefaultLimit applies.
	HostLimits   map[string]Limit
	DefaultLimit Limit
}

// DefaultTransportOptions returns settings matching TMDB's published ceiling
// of roughly 40 requests per second.
func DefaultTransportOptions(rps float64, burst, retryMax int) TransportOptions {
	if rps <= 0 {
		rps = 40
	}
	if burst <= 0 {
		burst = int(math.Ceil(rps))
	}
	if retryMax < 0 {
		retryMax = 0
	}
	lim := Limit{RPS: rps, Burst: burst}
	return TransportOptions{
		RetryMax:     retryMax,
		BackoffBase:  250 * time.Millisecond,
		BackoffCap:   5 * time.Second,
		Jitter:       0.5,
		Clock:        realClock{},
		Metrics:      NewMetrics(),
		HostLimits:   map[string]Limit{"api.themoviedb.org": lim},
		DefaultLimit: lim,
	}
}

// tokenBucket is a simple per-host rate limiter with fractional tokens.
type tokenBucket struct {
	mu     sync.Mutex
	rps    float64
	burst  float64
	tokens float64
	last   time.Time
	clock  Clock
}

func newTokenBucket(lim Limit, clock Clock) *tokenBucket {
	rps := lim.RPS
	if rps <= 0 {
		rps = 10
	}
	return &tokenBucket{
		rps:    rps,
		burst:  float64(max(1, lim.Burst)),
		tokens: float64(max(1, lim.Burst)),
		last:   clock.Now(),
		clock:  clock,
	}
}

func (tb *tokenBucket) refillLocked(now time.Time) {
	delta := now.Sub(tb.last).Seconds() * tb.rps
	if delta > 0 {
		tb.tokens = math.Min(tb.burst, tb.tokens+delta)
		tb.last = now
	}
}

// Wait blocks until a token is available or ctx is done.
func (tb *tokenBucket) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tb.mu.Lock()
		tb.refillLocked(tb.clock.Now())
		if tb.tokens >= 1 {
			tb.tokens -= 1
			tb.mu.Unlock()
			return nil
		}
		need := 1 - tb.tokens
		wait := time.Duration((need / tb.rps) * float64(time.Second))
		tb.mu.Unlock()
		// poll in small steps so cancellation is observed
		if wait <= 0 {
			wait = 5 * time.Millisecond
		}
		deadline := tb.clock.Now().Add(wait)
		for tb.clock.Now().Before(deadline) {
			if err := ctx.Err(); err != nil {
				return err
			}
			tb.clock.Sleep(5 * time.Millisecond)
		}
	}
}

// RetryingLimiterTransport wraps a base RoundTripper with host-based rate
// limiting and optional retries on 429/5xx and transient network errors.
type RetryingLimiterTransport struct {
	Base     http.RoundTripper
	Opts     TransportOptions
	limMu    sync.Mutex
	limiters map[string]*tokenBucket
}

func NewRetryingLimiterTransport(opts TransportOptions) *RetryingLimiterTransport {
	return &RetryingLimiterTransport{Opts: opts, limiters: make(map[string]*tokenBucket)}
}

func (t *RetryingLimiterTransport) getLimiter(host string) *tokenBucket {
	if host == "" {
		host = "_default_"
	}
	t.limMu.Lock()
	defer t.limMu.Unlock()
	if tb, ok := t.limiters[host]; ok {
		return tb
	}
	lim := t.Opts.DefaultLimit
	if v, ok := t.Opts.HostLimits[host]; ok {
		lim = v
	}
	tb := newTokenBucket(lim, t.clock())
	t.limiters[host] = tb
	return tb
}

func (t *RetryingLimiterTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *RetryingLimiterTransport) clock() Clock {
	if t.Opts.Clock != nil {
		return t.Opts.Clock
	}
	return realClock{}
}

func (t *RetryingLimiterTransport) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.Opts.BackoffBase
	if b.InitialInterval <= 0 {
		b.InitialInterval = 250 * time.Millisecond
	}
	b.MaxInterval = t.Opts.BackoffCap
	if b.MaxInterval <= 0 {
		b.MaxInterval = 5 * time.Second
	}
	b.Multiplier = 2
	b.RandomizationFactor = math.Max(0, math.Min(1, t.Opts.Jitter))
	b.MaxElapsedTime = 0
	b.Clock = t.clock()
	b.Reset()
	return b
}

func (t *RetryingLimiterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	lim := t.getLimiter(req.URL.Host)
	if t.Opts.Metrics != nil {
		t.Opts.Metrics.IncRequest(req.URL.Host)
	}

	attempts := max(1, t.Opts.RetryMax+1)
	bo := t.newBackOff()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := lim.Wait(req.Context()); err != nil {
			return nil, err
		}

		resp, err := t.base().RoundTrip(req)
		if err != nil {
			if isTransientNetErr(err) && attempt < attempts-1 {
				lastErr = err
				if rc := getRetryCounters(req.Context()); rc != nil {
					rc.Total++
					rc.Net++
				}
				t.sleep(bo.NextBackOff(), true)
				continue
			}
			return nil, err
		}

		if t.Opts.Metrics != nil {
			t.Opts.Metrics.IncStatus(resp.StatusCode)
		}

		if shouldRetryStatus(resp.StatusCode) && attempt < attempts-1 {
			if rc := getRetryCounters(req.Context()); rc != nil {
				rc.Total++
				if resp.StatusCode == http.StatusTooManyRequests {
					rc.Status429++
				} else {
					rc.Status5xx++
				}
			}
			wait := parseRetryAfter(resp.Header.Get("Retry-After"), t.clock().Now())
			if wait <= 0 {
				wait = bo.NextBackOff()
			}
			resp.Body.Close()
			t.sleep(wait, true)
			continue
		}

		return resp, nil
	}
	if lastErr == nil {
		lastErr = errors.New("max retries exceeded")
	}
	return nil, lastErr
}

func (t *RetryingLimiterTransport) sleep(d time.Duration, retry bool) {
	limit := t.Opts.BackoffCap
	if limit <= 0 {
		limit = 5 * time.Second
	}
	d = minDur(d, limit)
	t.clock().Sleep(d)
	if t.Opts.Metrics != nil {
		if retry {
			t.Opts.Metrics.IncRetry()
		}
		t.Opts.Metrics.AddBackoff(d)
	}
}

func isTransientNetErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "temporary") || strings.Contains(msg, "connection reset")
}

func shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout
}

func parseRetryAfter(h string, now time.Time) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(h); err == nil {
		d := when.Sub(now)
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
