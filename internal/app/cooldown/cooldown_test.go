package cooldown

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecuteRunsActionOncePerWindow(t *testing.T) {
	t.Parallel()

	l := New(time.Hour)
	defer l.Close()

	var calls atomic.Int32
	action := func(context.Context) (string, error) {
		calls.Add(1)
		return "ok", nil
	}

	first := Execute(context.Background(), l, action)
	if first.RateLimited || first.Value != "ok" || first.Err != nil {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second := Execute(context.Background(), l, action)
	if !second.RateLimited || second.Remaining != 3600 {
		t.Fatalf("expected rate limited result, got %+v", second)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one call, got %d", calls.Load())
	}
}

func TestCooldownArmedBeforeActionResolves(t *testing.T) {
	t.Parallel()

	l := New(time.Hour)
	defer l.Close()

	Execute(context.Background(), l, func(context.Context) (int, error) {
		if !l.OnCooldown() {
			t.Error("expected cooldown armed while the action runs")
		}
		return 0, nil
	})
}

func TestFailingAndPanickingActions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		action func(context.Context) (int, error)
	}{
		{name: "error", action: func(context.Context) (int, error) { return 0, errors.New("boom") }},
		{name: "panic", action: func(context.Context) (int, error) { panic("boom") }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l := New(50*time.Millisecond, WithTick(10*time.Millisecond))
			defer l.Close()

			res := Execute(context.Background(), l, tc.action)
			if res.RateLimited || res.Err == nil {
				t.Fatalf("expected surfaced error, got %+v", res)
			}
			if !l.OnCooldown() {
				t.Fatal("cooldown must still run after a failed action")
			}

			waitFor(t, time.Second, func() bool { return !l.OnCooldown() })
		})
	}
}

func TestCountdownDecreasesMonotonically(t *testing.T) {
	t.Parallel()

	l := New(3*time.Second, WithTick(10*time.Millisecond))
	defer l.Close()

	ticks, cancel := l.Subscribe()
	defer cancel()

	l.Start()

	last := 4
	for value := range ticks {
		if value > last {
			t.Fatalf("countdown increased from %d to %d", last, value)
		}
		last = value
		if value == 1 {
			break
		}
	}
	if !l.OnCooldown() {
		t.Fatal("limiter should stay armed until the duration elapses")
	}
}

func TestRearmReplacesRunningCountdown(t *testing.T) {
	t.Parallel()

	l := New(80*time.Millisecond, WithTick(time.Hour))
	defer l.Close()

	l.Start()
	time.Sleep(50 * time.Millisecond)
	l.Start()
	time.Sleep(50 * time.Millisecond)

	// the first arming would have expired by now
	if !l.OnCooldown() {
		t.Fatal("expected second arming to extend the cooldown")
	}

	waitFor(t, time.Second, func() bool { return !l.OnCooldown() })
	if l.Remaining() != 0 {
		t.Fatalf("expected zero remaining, got %d", l.Remaining())
	}
}

func TestCloseReleasesSubscribers(t *testing.T) {
	t.Parallel()

	l := New(time.Hour)
	ticks, cancel := l.Subscribe()
	l.Start()
	l.Close()
	cancel()

	for range ticks {
	}
	if l.OnCooldown() {
		t.Fatal("expected idle limiter after close")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
