// Package util holds the timing helpers exposed alongside the loader.
package util

import (
	"sync"
	"time"
)

// Debounce returns call, which schedules fn to run once d has elapsed
// without another call, and cancel, which drops a pending run.
func Debounce(d time.Duration, fn func()) (call func(), cancel func()) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	call = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, fn)
	}
	cancel = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}
	return call, cancel
}

// Throttle returns a function that runs fn at most once per d. Calls made
// inside the window are dropped.
func Throttle(d time.Duration, fn func()) func() {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func() {
		mu.Lock()
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < d {
			mu.Unlock()
			return
		}
		last = now
		mu.Unlock()
		fn()
	}
}
