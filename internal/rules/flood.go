package rules

import (
	"context"
	"slices"
	"sync"
	"time"

	"tg-automod/internal/crash"
	"tg-automod/internal/logger"
	"tg-automod/internal/models"
)

// FloodTracker keeps the trailing message timestamps of every member and the time of their
// last flood punishment. Nothing here is persisted.
type FloodTracker struct {
	window   time.Duration
	debounce time.Duration

	mu           sync.Mutex
	windows      map[models.MemberKey][]time.Time
	lastPunished map[models.MemberKey]time.Time
}

func NewFloodTracker(window, debounce time.Duration) *FloodTracker {
	if debounce <= 0 {
		debounce = window
	}
	return &FloodTracker{
		window:       window,
		debounce:     debounce,
		windows:      make(map[models.MemberKey][]time.Time),
		lastPunished: make(map[models.MemberKey]time.Time),
	}
}

// Record inserts now into the member's window, drops entries older than the window and
// returns how many remain. The window stays ordered even when timestamps arrive out of order.
func (f *FloodTracker) Record(key models.MemberKey, now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := f.windows[key]
	i, _ := slices.BinarySearchFunc(w, now, time.Time.Compare)
	for i < len(w) && w[i].Equal(now) {
		i++
	}
	w = slices.Insert(w, i, now)
	w = trim(w, w[len(w)-1], f.window)
	f.windows[key] = w
	return len(w)
}

func trim(w []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(w) && now.Sub(w[i]) > window {
		i++
	}
	return w[i:]
}

// ShouldPunish reports whether the member may be punished for flooding at now. A true
// result records now as the last punishment; until the debounce interval elapses further
// calls return false.
func (f *FloodTracker) ShouldPunish(key models.MemberKey, now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if last, ok := f.lastPunished[key]; ok && now.Sub(last) < f.debounce {
		return false
	}
	f.lastPunished[key] = now
	return true
}

// Prune forgets members whose windows and punishment marks have gone stale.
func (f *FloodTracker) Prune(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := 0
	for key, w := range f.windows {
		if w = trim(w, now, f.window); len(w) == 0 {
			delete(f.windows, key)
			removed++
		} else {
			f.windows[key] = w
		}
	}
	for key, last := range f.lastPunished {
		if now.Sub(last) >= f.debounce {
			delete(f.lastPunished, key)
		}
	}
	return removed
}

// StartCleanup prunes stale entries every interval until ctx is done.
func (f *FloodTracker) StartCleanup(ctx context.Context, interval time.Duration) {
	crash.SafeGoroutine("flood-cleanup", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := f.Prune(now); n > 0 {
					logger.Debugf("Pruned %d idle flood windows", n)
				}
			}
		}
	})
}
