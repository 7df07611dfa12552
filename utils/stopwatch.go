package utils

import (
	"sync"
	"time"
)

// Watch is a pausable stopwatch. Elapsed excludes paused spans,
// AbsoluteElapsed does not.
type Watch struct {
	mu        sync.RWMutex
	running   bool
	paused    bool
	startTime time.Time
	pauseTime time.Time
	prior     time.Duration // accumulated running time before the current span
}

func (w *Watch) Start() {
	w.mu.Lock()
	if w.paused {
		panic("watch cant start because paused")
	}
	w.startTime = time.Now()
	w.pauseTime = w.startTime
	w.prior = 0
	w.running = true
	w.mu.Unlock()
}

func (w *Watch) Elapsed() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.running {
		return 0
	}
	if w.paused {
		return w.prior
	}
	return w.prior + time.Since(w.pauseTime)
}

func (w *Watch) AbsoluteElapsed() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.running {
		return 0
	}
	return time.Since(w.startTime)
}

// Pause returns the elapsed time up to the pause point.
func (w *Watch) Pause() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		panic("watch already paused")
	}
	w.prior += time.Since(w.pauseTime)
	w.paused = true
	return w.prior
}

func (w *Watch) UnPause() {
	w.mu.Lock()
	if !w.paused {
		panic("watch wasn't paused")
	}
	w.paused = false
	w.pauseTime = time.Now()
	w.mu.Unlock()
}
