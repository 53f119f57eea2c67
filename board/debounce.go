package board

import (
	"sync"
	"time"
)

// debouncer lets a message through at most once per window. A request
// arriving inside the window is dropped but leaves one trailing retry
// behind so the last reaction change is never lost.
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	last    map[string]time.Time
	pending map[string]*time.Timer
	now     func() time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window:  window,
		last:    make(map[string]time.Time),
		pending: make(map[string]*time.Timer),
		now:     time.Now,
	}
}

func (d *debouncer) allow(key string, retry func()) bool {
	if d.window <= 0 {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, exists := d.last[key]; exists {
		elapsed := now.Sub(last)
		if elapsed < d.window {
			if _, scheduled := d.pending[key]; !scheduled {
				d.pending[key] = time.AfterFunc(d.window-elapsed, func() {
					d.mu.Lock()
					delete(d.pending, key)
					d.mu.Unlock()
					retry()
				})
			}
			return false
		}
	}
	d.last[key] = now
	return true
}

// prune forgets keys last processed more than olderThan ago and
// returns how many were removed.
func (d *debouncer) prune(olderThan time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := d.now().Add(-olderThan)
	removed := 0
	for key, last := range d.last {
		if _, scheduled := d.pending[key]; scheduled {
			continue
		}
		if last.Before(cutoff) {
			delete(d.last, key)
			removed++
		}
	}
	return removed
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
}
