package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubDeleter struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (d *stubDeleter) DeleteAllExpired(_ context.Context, now time.Time) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, now)
	return d.n, d.err
}

func (d *stubDeleter) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func TestSweeper_Sweep(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d := &stubDeleter{n: 3}
	s := New(d, time.Minute, zerolog.Nop())
	s.now = func() time.Time { return fixed }

	n, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	if !d.calls[0].Equal(fixed) {
		t.Fatalf("sweep used %v, want %v", d.calls[0], fixed)
	}
}

func TestSweeper_SweepError(t *testing.T) {
	d := &stubDeleter{err: errors.New("db down")}
	s := New(d, time.Minute, zerolog.Nop())

	if _, err := s.Sweep(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSweeper_StartStop(t *testing.T) {
	d := &stubDeleter{}
	s := New(d, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for d.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeper ran %d times, want at least 2", d.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop after cancel")
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(&stubDeleter{}, 0, zerolog.Nop())
	if s.interval != defaultInterval {
		t.Fatalf("interval = %v, want %v", s.interval, defaultInterval)
	}
}

func TestSweeper_StartTwiceRunsOneLoop(t *testing.T) {
	d := &stubDeleter{}
	s := New(d, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for d.count() < 1 {
		select {
		case <-deadline:
			t.Fatalf("sweeper never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop after cancel")
	}

	time.Sleep(20 * time.Millisecond)
	if got := d.count(); got != 1 {
		t.Fatalf("initial sweep ran %d times, want 1", got)
	}
}
