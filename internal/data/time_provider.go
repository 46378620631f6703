package data

import (
	"sync"
	"time"
)

// TimeProvider supplies the timestamps repositories write.
type TimeProvider interface {
	Now() time.Time
}

// SystemTime reads the wall clock.
type SystemTime struct{}

// Now returns the current time.
func (SystemTime) Now() time.Time { return time.Now() }

// dbNow normalises t to what a timestamptz column stores, so a returned row
// compares equal to what a later read yields.
func dbNow(tp TimeProvider) time.Time {
	return tp.Now().UTC().Truncate(time.Microsecond)
}

// FixedTimeProvider returns a settable instant. Safe for concurrent use.
type FixedTimeProvider struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedTimeProvider returns a provider frozen at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{t: t}
}

// Now returns the frozen instant.
func (f *FixedTimeProvider) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Advance moves the frozen instant forward by d.
func (f *FixedTimeProvider) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
