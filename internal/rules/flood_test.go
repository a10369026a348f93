package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tg-automod/internal/models"
)

func TestFloodTrackerWindow(t *testing.T) {
	f := NewFloodTracker(5*time.Second, 0)
	key := models.MemberKey{CommunityID: 1, UserID: 2}
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, 1, f.Record(key, now))
	assert.Equal(t, 2, f.Record(key, now.Add(5*time.Second)))
	// the first entry is now 6s old and falls out
	assert.Equal(t, 2, f.Record(key, now.Add(6*time.Second)))
}

func TestFloodTrackerOutOfOrderTimestamps(t *testing.T) {
	f := NewFloodTracker(5*time.Second, 0)
	key := models.MemberKey{CommunityID: 1, UserID: 2}
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, 1, f.Record(key, now))
	assert.Equal(t, 1, f.Record(key, now.Add(6*time.Second)))
	// a late message still counts while it is inside the window
	assert.Equal(t, 2, f.Record(key, now.Add(2*time.Second)))
	// the late entry is 6s older than the newest one and falls out
	assert.Equal(t, 2, f.Record(key, now.Add(8*time.Second)))
	assert.Equal(t, []time.Time{now.Add(6 * time.Second), now.Add(8 * time.Second)}, f.windows[key])
}

func TestFloodTrackerDebounce(t *testing.T) {
	f := NewFloodTracker(5*time.Second, 0)
	key := models.MemberKey{CommunityID: 1, UserID: 2}
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, f.ShouldPunish(key, now))
	assert.False(t, f.ShouldPunish(key, now.Add(time.Second)))
	assert.False(t, f.ShouldPunish(key, now.Add(4999*time.Millisecond)))
	assert.True(t, f.ShouldPunish(key, now.Add(5*time.Second)))
}

func TestFloodTrackerPrune(t *testing.T) {
	f := NewFloodTracker(5*time.Second, 0)
	idle := models.MemberKey{CommunityID: 1, UserID: 2}
	busy := models.MemberKey{CommunityID: 1, UserID: 3}
	now := time.Unix(1_700_000_000, 0)

	f.Record(idle, now)
	f.ShouldPunish(idle, now)
	f.Record(busy, now.Add(9*time.Second))

	assert.Equal(t, 1, f.Prune(now.Add(10*time.Second)))
	assert.NotContains(t, f.windows, idle)
	assert.NotContains(t, f.lastPunished, idle)
	assert.Contains(t, f.windows, busy)
}
