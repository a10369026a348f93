package models

import (
	"context"
	"sync"
	"time"

	"tg-automod/internal/crash"
)

type adminEntry struct {
	ids       map[int64]struct{}
	expiresAt time.Time
}

// AdminCache remembers the administrator set of each chat for a limited time.
type AdminCache struct {
	chats map[int64]adminEntry
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
}

func NewAdminCache(ttl time.Duration) *AdminCache {
	return &AdminCache{
		chats: make(map[int64]adminEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put replaces the cached administrators of a chat.
func (c *AdminCache) Put(chatID int64, ids map[int64]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chats[chatID] = adminEntry{ids: ids, expiresAt: c.now().Add(c.ttl)}
}

func (c *AdminCache) Invalidate(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.chats, chatID)
}

// Lookup reports whether userID administers chatID. ok is false when the chat is
// unknown or its entry has expired.
func (c *AdminCache) Lookup(chatID, userID int64) (isAdmin, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.chats[chatID]
	if !exists || !c.now().Before(entry.expiresAt) {
		return false, false
	}
	_, isAdmin = entry.ids[userID]
	return isAdmin, true
}

// Prune drops expired entries and returns how many were removed.
func (c *AdminCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for chatID, entry := range c.chats {
		if !now.Before(entry.expiresAt) {
			delete(c.chats, chatID)
			removed++
		}
	}
	return removed
}

// StartCleanup prunes expired entries every interval until ctx is done.
func (c *AdminCache) StartCleanup(ctx context.Context, interval time.Duration) {
	crash.SafeGoroutine("admin-cache-cleanup", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Prune()
			}
		}
	})
}
