package connect

import (
	"context"
	"time"
)

// StaleMarker flips running conversations with no progress before the cutoff
// to failed.
type StaleMarker interface {
	FailStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Watchdog encapsulates a background ticker that enforces the stall timeout
// on running conversations. The transition happens on the persisted record,
// out-of-band of the state machine, which keeps the machine's own logic
// simple and resumable. Call Stop to cancel.
type Watchdog struct {
	stop context.CancelFunc
	// Errors receives errors encountered during sweeps. It is buffered and
	// non-blocking; consumers may choose to drain it for diagnostics.
	Errors chan error
}

// StartWatchdog launches a background goroutine that flags conversations
// without progress within stallTimeout as failed, sweeping every interval.
// Defaults: interval 30s, stallTimeout 2m.
func StartWatchdog(parent context.Context, marker StaleMarker, interval, stallTimeout time.Duration) *Watchdog {
	if marker == nil {
		return nil
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if stallTimeout <= 0 {
		stallTimeout = 2 * time.Minute
	}
	ctx, cancel := context.WithCancel(parent)
	wd := &Watchdog{stop: cancel, Errors: make(chan error, 4)}
	sweep := func() {
		if _, err := marker.FailStale(context.Background(), time.Now().Add(-stallTimeout)); err != nil {
			select {
			case wd.Errors <- err:
			default:
			}
		}
	}
	initial := 2 * time.Second
	if interval < initial {
		initial = interval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		// First sweep shortly after start to reduce perceived latency
		timer := time.NewTimer(initial)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				sweep()
			case <-ticker.C:
				sweep()
			}
		}
	}()
	return wd
}

// Stop cancels the watchdog loop.
func (w *Watchdog) Stop() {
	if w != nil && w.stop != nil {
		w.stop()
	}
}
