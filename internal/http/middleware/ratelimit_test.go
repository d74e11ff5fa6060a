package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-meetmerge-backend/internal/ratelimit"
)

type fakeRecorder struct {
	mu     sync.Mutex
	events []ratelimit.Event
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, ev ratelimit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func newLimitedRouter(scope string, lim *ratelimit.SlidingWindow, rec ratelimit.Recorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.POST("/api/polls", RateLimit(scope, lim, rec), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func postFrom(r http.Handler, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/polls", nil)
	req.RemoteAddr = ip + ":40000"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	now := start
	lim := ratelimit.NewSlidingWindow(2, time.Minute, ratelimit.WithClock(func() time.Time { return now }))
	rec := &fakeRecorder{}
	r := newLimitedRouter("create", lim, rec)

	deniedBase := testutil.ToFloat64(rateDecisions.WithLabelValues("create", "denied"))

	if w := postFrom(r, "198.51.100.7"); w.Code != http.StatusCreated {
		t.Fatalf("first: %d", w.Code)
	}
	now = start.Add(10 * time.Second)
	if w := postFrom(r, "198.51.100.7"); w.Code != http.StatusCreated {
		t.Fatalf("second: %d", w.Code)
	}
	now = start.Add(20500 * time.Millisecond)
	w := postFrom(r, "198.51.100.7")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third: %d", w.Code)
	}
	// oldest admission leaves the window after 39.5s
	if got := w.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("Retry-After = %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "too_many_requests" || body["error"] != "rate limit exceeded" || body["request_id"] == "" {
		t.Fatalf("body = %v", body)
	}
	if got := testutil.ToFloat64(rateDecisions.WithLabelValues("create", "denied")); got != deniedBase+1 {
		t.Fatalf("denied counter = %v; want %v", got, deniedBase+1)
	}

	// another client is unaffected
	if w := postFrom(r, "198.51.100.8"); w.Code != http.StatusCreated {
		t.Fatalf("other ip: %d", w.Code)
	}

	if len(rec.events) != 4 {
		t.Fatalf("recorded %d events; want 4", len(rec.events))
	}
	if ev := rec.events[2]; ev.Allowed || ev.Scope != "create" || ev.Key != "198.51.100.7" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestRateLimit_ScopesAreIndependent(t *testing.T) {
	lim := ratelimit.NewSlidingWindow(1, time.Minute)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/a", RateLimit("vote", lim, nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/b", RateLimit("lock", lim, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/a", "/b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, p, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d", p, w.Code)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/a", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("repeat /a: %d", w.Code)
	}
}

func TestRateLimit_RecorderFailureIsIgnored(t *testing.T) {
	lim := ratelimit.NewSlidingWindow(5, time.Minute)
	rec := &fakeRecorder{err: errors.New("redis down")}
	r := newLimitedRouter("create", lim, rec)

	for i := 0; i < 3; i++ {
		if w := postFrom(r, "203.0.113.1"); w.Code != http.StatusCreated {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	if len(rec.events) != 3 {
		t.Fatalf("recorded %d events", len(rec.events))
	}
}

// stalledRecorder holds every write until release is closed.
type stalledRecorder struct{ release chan struct{} }

func (s stalledRecorder) Record(ctx context.Context, _ ratelimit.Event) error {
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return nil
}

func TestRateLimit_QueuedRecorderDoesNotDelayRequests(t *testing.T) {
	stalled := stalledRecorder{release: make(chan struct{})}
	rec := ratelimit.NewAsyncRecorder(stalled, 16, 0)
	r := newLimitedRouter("vote", ratelimit.NewSlidingWindow(10, time.Minute), rec)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if w := postFrom(r, "203.0.113.9"); w.Code != http.StatusCreated {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("requests waited on the stats sink: %v", elapsed)
	}

	close(stalled.release)
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "1",
		300 * time.Millisecond:  "1",
		time.Second:             "1",
		1001 * time.Millisecond: "2",
		54 * time.Second:        "54",
	}
	for d, want := range cases {
		if got := retryAfterSeconds(d); got != want {
			t.Fatalf("retryAfterSeconds(%v) = %q; want %q", d, got, want)
		}
	}
}
