/*
Package cooldown implements the throttle guarding repeated submission of one action.

A Limiter is armed for a fixed duration before the guarded action runs, so a slow
action never extends the lockout. While armed it exposes a whole-second countdown,
updated by a 1 Hz ticker, which the live endpoint streams to the page.
*/
package cooldown

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultTick is the countdown update interval.
const DefaultTick = time.Second

// Limiter is a re-armable cooldown. It is safe for concurrent use.
type Limiter struct {
	mu sync.Mutex

	duration time.Duration
	tick     time.Duration

	onCooldown bool
	remaining  int

	// stop ends the goroutine of the current arming.
	stop chan struct{}

	subs map[chan int]struct{}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithTick overrides the countdown interval.
func WithTick(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.tick = d
		}
	}
}

// New creates an idle limiter with cooldown duration d.
func New(d time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		duration: d,
		tick:     DefaultTick,
		subs:     make(map[chan int]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Duration returns the configured cooldown.
func (l *Limiter) Duration() time.Duration {
	return l.duration
}

// OnCooldown reports whether the limiter is armed.
func (l *Limiter) OnCooldown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.onCooldown
}

// Remaining returns the whole seconds left, or 0 when idle.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

// Start arms the limiter, replacing any countdown already running.
func (l *Limiter) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.armLocked()
}

// TryStart arms the limiter unless it is already armed. It returns false and the
// seconds left when the limiter was on cooldown.
func (l *Limiter) TryStart() (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.onCooldown {
		return false, l.remaining
	}
	l.armLocked()
	return true, l.remaining
}

// Close stops the countdown and closes all subscriptions. The limiter may be armed again afterwards.
func (l *Limiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()
	l.onCooldown = false
	l.remaining = 0

	for ch := range l.subs {
		close(ch)
		delete(l.subs, ch)
	}
}

// Subscribe returns a channel receiving the remaining seconds after every change, and a
// function to cancel the subscription. Slow readers only see the latest value.
func (l *Limiter) Subscribe() (<-chan int, func()) {
	ch := make(chan int, 1)

	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if _, ok := l.subs[ch]; ok {
				delete(l.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

func (l *Limiter) armLocked() {
	l.stopLocked()

	seconds := int(math.Ceil(l.duration.Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	l.onCooldown = true
	l.remaining = seconds
	l.stop = make(chan struct{})
	l.notifyLocked()

	go l.run(l.stop)
}

func (l *Limiter) stopLocked() {
	if l.stop != nil {
		close(l.stop)
		l.stop = nil
	}
}

// run drives one arming. stop identifies the arming so a replaced run cannot touch newer state.
func (l *Limiter) run(stop chan struct{}) {
	ticker := time.NewTicker(l.tick)
	timer := time.NewTimer(l.duration)
	defer ticker.Stop()
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			if l.stop != stop {
				l.mu.Unlock()
				return
			}
			if l.remaining > 1 {
				l.remaining--
				l.notifyLocked()
			}
			l.mu.Unlock()
		case <-timer.C:
			l.mu.Lock()
			if l.stop == stop {
				l.stop = nil
				l.onCooldown = false
				l.remaining = 0
				l.notifyLocked()
			}
			l.mu.Unlock()
			return
		}
	}
}

func (l *Limiter) notifyLocked() {
	for ch := range l.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- l.remaining:
		default:
		}
	}
}

// Result is the outcome of Execute.
type Result[T any] struct {
	// RateLimited is true when the action was not invoked.
	RateLimited bool

	// Remaining is the seconds left when RateLimited.
	Remaining int

	Value T
	Err   error
}

// Execute runs action unless l is on cooldown. The cooldown is armed before the action
// starts. A panic in action is recovered and returned as Err.
func Execute[T any](ctx context.Context, l *Limiter, action func(context.Context) (T, error)) (res Result[T]) {
	ok, remaining := l.TryStart()
	if !ok {
		return Result[T]{RateLimited: true, Remaining: remaining}
	}

	defer func() {
		if p := recover(); p != nil {
			res = Result[T]{Err: fmt.Errorf("action panicked: %v", p)}
		}
	}()

	value, err := action(ctx)
	return Result[T]{Value: value, Err: err}
}
