// Package cleanup runs the periodic sweep that evicts idle rooms from the
// store so a long-lived process doesn't accumulate abandoned lobbies.
package cleanup

import (
	"log"
	"time"

	"boxdrop/state"
)

// Worker ticks on interval, calling store.Sweep and logging what it
// reclaimed. Stop via the channel returned by Start.
type Worker struct {
	store    *state.Store
	interval time.Duration
}

// New constructs a Worker bound to store, sweeping every interval.
func New(store *state.Store, interval time.Duration) *Worker {
	return &Worker{store: store, interval: interval}
}

// Start launches the sweep loop in its own goroutine and returns a channel
// the caller closes to stop it.
func (w *Worker) Start() chan<- struct{} {
	stop := make(chan struct{})
	ticker := time.NewTicker(w.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := w.store.Sweep(time.Now()); n > 0 {
					log.Printf("🧹 cleanup sweep removed %d idle room(s)", n)
				}
			case <-stop:
				return
			}
		}
	}()

	return stop
}
