package render

import (
	"context"
	"sync"
	"time"
)

// FrameClock paces animations. Tick blocks until the next frame is due and
// returns its timestamp, or returns ctx.Err() once ctx is done. Timestamps
// from one clock never decrease.
type FrameClock interface {
	Tick(ctx context.Context) (time.Time, error)
}

// TickerClock ticks in real time at a fixed frame rate.
type TickerClock struct {
	interval time.Duration
}

// NewTickerClock returns a real-time clock running at fps frames per second.
// Non-positive values select 60.
func NewTickerClock(fps int) *TickerClock {
	if fps <= 0 {
		fps = 60
	}
	return &TickerClock{interval: time.Second / time.Duration(fps)}
}

// Tick implements [FrameClock].
func (c *TickerClock) Tick(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	t := time.NewTimer(c.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case now := <-t.C:
		return now, nil
	}
}

// SteppedClock advances a virtual time by a fixed step on every tick and
// never sleeps. It makes animations deterministic and is used for offline
// exports and tests.
type SteppedClock struct {
	step time.Duration

	mu  sync.Mutex
	now time.Time
}

// NewSteppedClock returns a clock advancing by step per tick. Non-positive
// steps select one 60 fps frame.
func NewSteppedClock(step time.Duration) *SteppedClock {
	if step <= 0 {
		step = time.Second / 60
	}
	return &SteppedClock{step: step, now: time.Unix(0, 0)}
}

// Tick implements [FrameClock].
func (c *SteppedClock) Tick(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now, nil
}

// Step returns the per-tick increment.
func (c *SteppedClock) Step() time.Duration { return c.step }
