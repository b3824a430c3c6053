package verify

import (
	"context"
	"time"
)

// Clock is the session's timer port. Injecting it lets tests drive the
// polling schedule deterministically instead of waiting on real delays.
type Clock interface {
	// Sleep blocks for d or until ctx is cancelled, reporting false on
	// cancellation.
	Sleep(ctx context.Context, d time.Duration) bool
}

type realClock struct{}

// RealClock returns the wall-clock implementation used in production.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
