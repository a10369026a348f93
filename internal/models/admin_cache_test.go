package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdminCacheLookup(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewAdminCache(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Lookup(-1, 7)
	assert.False(t, ok)

	c.Put(-1, map[int64]struct{}{7: {}})
	isAdmin, ok := c.Lookup(-1, 7)
	assert.True(t, ok)
	assert.True(t, isAdmin)

	isAdmin, ok = c.Lookup(-1, 8)
	assert.True(t, ok)
	assert.False(t, isAdmin)

	now = now.Add(time.Minute)
	_, ok = c.Lookup(-1, 7)
	assert.False(t, ok, "entry expires after ttl")
	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 0, c.Prune())
}

func TestAdminCacheInvalidate(t *testing.T) {
	c := NewAdminCache(time.Hour)
	c.Put(-1, map[int64]struct{}{7: {}})
	c.Invalidate(-1)

	_, ok := c.Lookup(-1, 7)
	assert.False(t, ok)
}
