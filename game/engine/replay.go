package engine

import (
	"context"
	"sync"
	"time"
)

// StepObserver is notified after every replay tick
type StepObserver func(rec StepRecord, err error)

// Replayer advances a Simulation on a fixed cadence in a background
// goroutine. Only one replay runs at a time; Start stops any previous one.
type Replayer struct {
	sim      *Simulation
	interval time.Duration
	observer StepObserver

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReplayer creates a replayer; a non-positive interval uses DefaultTickInterval
func NewReplayer(sim *Simulation, interval time.Duration, observer StepObserver) *Replayer {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Replayer{sim: sim, interval: interval, observer: observer}
}

// Interval returns the tick cadence
func (r *Replayer) Interval() time.Duration { return r.interval }

// Start cancels an in-flight replay, waits for it to exit, then begins
// ticking the simulation until it leaves the replaying state or ctx ends.
func (r *Replayer) Start(ctx context.Context) {
	r.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go r.loop(ctx, done)
}

func (r *Replayer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A cancelled replay must not apply one more tick
			if ctx.Err() != nil {
				return
			}
			rec, err := r.sim.Step()
			if err == ErrNotReplaying {
				return
			}
			if r.observer != nil {
				r.observer(rec, err)
			}
			if err != nil || rec.Status != StatusReplaying {
				return
			}
		}
	}
}

// Stop cancels the running replay, if any, and waits for its goroutine
func (r *Replayer) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a replay goroutine is active
func (r *Replayer) Running() bool {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Wait blocks until the current replay ends or ctx is done
func (r *Replayer) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
