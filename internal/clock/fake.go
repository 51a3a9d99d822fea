package clock

import (
	"context"
	"sync"
	"time"
)

// Fake is a Clock whose Sleep advances simulated time instantly. It lets
// timeout behavior be exercised deterministically in tests.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

// NewFake returns a Fake clock starting at the given instant.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep advances the simulated clock by d without blocking.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.sleeps++
	return nil
}

// Advance moves the simulated clock forward outside of Sleep.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Sleeps returns how many times Sleep was called.
func (f *Fake) Sleeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sleeps
}
