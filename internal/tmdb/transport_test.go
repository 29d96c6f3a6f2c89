package tmdb

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

const apiHost = "api.themoviedb.org"

// fakeClock allows deterministic control of time passage.
type fakeClock struct {
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock              { return &fakeClock{now: time.Unix(0, 0)} }
func (fc *fakeClock) Now() time.Time        { return fc.now }
func (fc *fakeClock) Sleep(d time.Duration) { fc.now = fc.now.Add(d); fc.slept += d }

// fakeRT returns a queued series of responses or errors.
type fakeRT struct {
	calls atomic.Int64
	queue []any // *http.Response or error
}

func (frt *fakeRT) RoundTrip(_ *http.Request) (*http.Response, error) {
	idx := frt.calls.Add(1) - 1
	if int(idx) >= len(frt.queue) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}
	switch item := frt.queue[idx].(type) {
	case *http.Response:
		if item.Body == nil {
			item.Body = http.NoBody
		}
		return item, nil
	case error:
		return nil, item
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func newReq(ctx context.Context) *http.Request {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+apiHost+"/3/movie/popular", nil)
	return req
}

func testOptions(fc *fakeClock, retryMax int) TransportOptions {
	return TransportOptions{
		RetryMax:    retryMax,
		BackoffBase: 250 * time.Millisecond,
		BackoffCap:  5 * time.Second,
		Clock:       fc,
		Metrics:     NewMetrics(),
		HostLimits:  map[string]Limit{apiHost: {RPS: 1000, Burst: 1000}},
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	fc := newFakeClock()
	opt := testOptions(fc, 2)
	frt := &fakeRT{queue: []any{
		&http.Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"2"}}, Body: http.NoBody},
		&http.Response{StatusCode: 200, Body: http.NoBody},
	}}
	tr := NewRetryingLimiterTransport(opt)
	tr.Base = frt

	rc := &RetryCounters{}
	resp, err := tr.RoundTrip(newReq(WithRetryCounters(context.Background(), rc)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if fc.slept != 2*time.Second {
		t.Fatalf("expected 2s sleep, got %v", fc.slept)
	}
	if got := opt.Metrics.TotalRetries.Load(); got != 1 {
		t.Fatalf("expected 1 retry, got %d", got)
	}
	if *rc != (RetryCounters{Total: 1, Status429: 1}) {
		t.Fatalf("unexpected retry counters: %+v", *rc)
	}
}

func TestBackoffOn503(t *testing.T) {
	fc := newFakeClock()
	frt := &fakeRT{queue: []any{
		&http.Response{StatusCode: 503, Body: http.NoBody},
		&http.Response{StatusCode: 503, Body: http.NoBody},
		&http.Response{StatusCode: 200, Body: http.NoBody},
	}}
	tr := NewRetryingLimiterTransport(testOptions(fc, 2))
	tr.Base = frt

	resp, err := tr.RoundTrip(newReq(context.Background()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	// 250ms then 500ms with no randomization
	if fc.slept != 750*time.Millisecond {
		t.Fatalf("expected 750ms backoff, got %v", fc.slept)
	}
	if got := frt.calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestNoRetryByDefault(t *testing.T) {
	fc := newFakeClock()
	frt := &fakeRT{queue: []any{
		&http.Response{StatusCode: 503, Body: http.NoBody},
		&http.Response{StatusCode: 200, Body: http.NoBody},
	}}
	opt := testOptions(fc, 0)
	tr := NewRetryingLimiterTransport(opt)
	tr.Base = frt

	resp, err := tr.RoundTrip(newReq(context.Background()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Fatalf("want 503 passed through, got %d", resp.StatusCode)
	}
	if got := frt.calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
	if fc.slept != 0 {
		t.Fatalf("expected no sleep, got %v", fc.slept)
	}
	if got := opt.Metrics.Snapshot().Status5xx; got != 1 {
		t.Fatalf("expected one 5xx, got %d", got)
	}
}

func TestLimiterPacing(t *testing.T) {
	fc := newFakeClock()
	opt := testOptions(fc, 0)
	opt.HostLimits = map[string]Limit{apiHost: {RPS: 2, Burst: 1}}
	tr := NewRetryingLimiterTransport(opt)
	tr.Base = &fakeRT{}

	// 2 rps with burst 1: the 2nd and 3rd request wait ~0.5s each
	for i := 0; i < 3; i++ {
		if _, err := tr.RoundTrip(newReq(context.Background())); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if fc.slept < 900*time.Millisecond {
		t.Fatalf("expected ~1s pacing, got %v", fc.slept)
	}
	if got := opt.Metrics.TotalRequests.Load(); got != 3 {
		t.Fatalf("expected 3 requests, got %d", got)
	}
}

type transientErr struct{}

func (transientErr) Error() string   { return "temporary network error" }
func (transientErr) Timeout() bool   { return true }
func (transientErr) Temporary() bool { return true }

func TestTransientNetErrorRetried(t *testing.T) {
	fc := newFakeClock()
	frt := &fakeRT{queue: []any{transientErr{}, &http.Response{StatusCode: 200, Body: http.NoBody}}}
	tr := NewRetryingLimiterTransport(testOptions(fc, 1))
	tr.Base = frt

	rc := &RetryCounters{}
	resp, err := tr.RoundTrip(newReq(WithRetryCounters(context.Background(), rc)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if rc.Net != 1 {
		t.Fatalf("expected 1 network retry, got %d", rc.Net)
	}
}

func TestCancelDuringBackoff(t *testing.T) {
	fc := newFakeClock()
	opt := testOptions(fc, 1)
	opt.BackoffBase = 2 * time.Second
	tr := NewRetryingLimiterTransport(opt)
	tr.Base = &fakeRT{queue: []any{transientErr{}, &http.Response{StatusCode: 200, Body: http.NoBody}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.RoundTrip(newReq(ctx)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"soon", 0},
		{now.Add(4 * time.Second).Format(http.TimeFormat), 4 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultTransportOptions(t *testing.T) {
	opt := DefaultTransportOptions(0, 0, -3)
	if opt.RetryMax != 0 {
		t.Fatalf("expected RetryMax 0, got %d", opt.RetryMax)
	}
	if got := opt.HostLimits[apiHost]; got != (Limit{RPS: 40, Burst: 40}) {
		t.Fatalf("unexpected host limit: %+v", got)
	}
	if opt.Metrics == nil {
		t.Fatal("expected metrics")
	}
}
