package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event describes one admission decision. Scope names the protected
// operation ("create", "vote", "lock"); Key is the client address.
type Event struct {
	Scope   string
	Key     string
	Allowed bool
	At      time.Time
}

// Recorder persists decision statistics. Callers treat errors as
// best-effort: a failing recorder must never fail the request. Record is
// called on the request path; wrap slow sinks in an AsyncRecorder.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// RedisStats writes counters into Redis hashes:
//
//	<prefix>:total           allowed|denied
//	<prefix>:scope           <scope>:allowed|<scope>:denied
//	<prefix>:minute:<yyyymmddhhmm>  allowed|denied (expires after ttl)
//
// Client addresses are not stored to keep key cardinality bounded.
type RedisStats struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// RedisOption customizes RedisStats.
type RedisOption func(*RedisStats)

// WithPrefix sets the key prefix (default "meetmerge:ratelimit").
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStats) {
		if p := strings.Trim(prefix, ": "); p != "" {
			s.prefix = p
		}
	}
}

// WithTTL sets the expiry of per-minute buckets (default 24h).
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisStats) { s.ttl = d }
}

// NewRedisStats wraps a go-redis client or pipeline-capable handle.
func NewRedisStats(rdb redis.Cmdable, opts ...RedisOption) *RedisStats {
	s := &RedisStats{
		rdb:    rdb,
		prefix: "meetmerge:ratelimit",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BucketKey returns the per-minute hash key for t.
func (s *RedisStats) BucketKey(t time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, t.UTC().Format("200601021504"))
}

// Record implements Recorder with a single pipelined round trip.
func (s *RedisStats) Record(ctx context.Context, ev Event) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)
	if scope := strings.TrimSpace(ev.Scope); scope != "" {
		pipe.HIncrBy(ctx, s.prefix+":scope", scope+":"+field, 1)
	}
	bucket := s.BucketKey(at)
	pipe.HIncrBy(ctx, bucket, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucket, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rate-limit stats: %w", err)
	}
	return nil
}
