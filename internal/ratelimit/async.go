package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	// ErrQueueFull is returned when an event is dropped because the buffer
	// is full.
	ErrQueueFull = errors.New("rate-limit stats queue full")
	// ErrRecorderClosed is returned for events handed in after Close.
	ErrRecorderClosed = errors.New("rate-limit stats recorder closed")
)

const failureLogInterval = 30 * time.Second

// AsyncRecorder moves recording off the request path. Record only enqueues;
// a single goroutine writes events to the wrapped Recorder, each with its own
// timeout. Events that do not fit in the buffer are dropped.
type AsyncRecorder struct {
	next    Recorder
	timeout time.Duration
	events  chan Event

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	logFailure rate.Sometimes
}

// NewAsyncRecorder starts the writer goroutine. size below 1 is coerced to 1;
// a non-positive timeout disables the per-write deadline.
func NewAsyncRecorder(next Recorder, size int, timeout time.Duration) *AsyncRecorder {
	if size < 1 {
		size = 1
	}
	a := &AsyncRecorder{
		next:       next,
		timeout:    timeout,
		events:     make(chan Event, size),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logFailure: rate.Sometimes{Interval: failureLogInterval},
	}
	go a.run()
	return a
}

// Record implements Recorder. It never blocks and ignores ctx, since the
// write outlives the request.
func (a *AsyncRecorder) Record(_ context.Context, ev Event) error {
	select {
	case <-a.quit:
		return ErrRecorderClosed
	default:
	}
	select {
	case a.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until the queued ones are written
// or ctx is done.
func (a *AsyncRecorder) Close(ctx context.Context) error {
	a.closeOnce.Do(func() { close(a.quit) })
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AsyncRecorder) run() {
	defer close(a.done)
	for {
		select {
		case ev := <-a.events:
			a.write(ev)
		case <-a.quit:
			for {
				select {
				case ev := <-a.events:
					a.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (a *AsyncRecorder) write(ev Event) {
	ctx := context.Background()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	if err := a.next.Record(ctx, ev); err != nil {
		a.logFailure.Do(func() {
			log.Warn().Err(err).Str("scope", ev.Scope).Msg("rate limit stats not recorded")
		})
	}
}
