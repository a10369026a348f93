package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tg-automod/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "automod.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestWarningRepository(t *testing.T) {
	repo := NewWarningRepository(openTestDB(t))
	ctx := context.Background()
	key := models.MemberKey{CommunityID: -100, UserID: 5}

	n, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 1; i <= 3; i++ {
		n, err = repo.Increment(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	n, err = repo.Get(ctx, models.MemberKey{CommunityID: -100, UserID: 6})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, repo.Delete(ctx, key))
	n, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMuteRepository(t *testing.T) {
	repo := NewMuteRepository(openTestDB(t))
	ctx := context.Background()
	first := time.Now().Add(time.Hour).Truncate(time.Second)
	later := first.Add(time.Hour)

	require.NoError(t, repo.Upsert(ctx, models.MuteRecord{CommunityID: -1, UserID: 1, UnmuteAt: later}))
	require.NoError(t, repo.Upsert(ctx, models.MuteRecord{CommunityID: -1, UserID: 2, UnmuteAt: first}))
	// second upsert replaces instead of duplicating
	require.NoError(t, repo.Upsert(ctx, models.MuteRecord{CommunityID: -1, UserID: 2, UnmuteAt: later}))

	records, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.UnmuteAt.Equal(later), r.Key().String())
	}

	require.NoError(t, repo.DeleteMany(ctx, []models.MemberKey{{CommunityID: -1, UserID: 1}, {CommunityID: -1, UserID: 9}}))
	require.NoError(t, repo.Delete(ctx, models.MemberKey{CommunityID: -1, UserID: 404}))

	records, err = repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), records[0].UserID)
}

func TestSettingsRepository(t *testing.T) {
	repo := NewSettingsRepository(openTestDB(t))
	ctx := context.Background()

	got, err := repo.Get(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, got)

	settings := &models.CommunitySettings{
		CommunityID:    -1,
		AllowedDomains: []string{"youtube.com"},
		BlockedDomains: []string{},
	}
	require.NoError(t, repo.Save(ctx, settings))

	channel := int64(-50)
	update := settings.Clone()
	update.ID = 0
	update.LogChannelID = &channel
	update.BlockedDomains = []string{"t.me"}
	require.NoError(t, repo.Save(ctx, update))

	got, err = repo.Get(ctx, -1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, settings.ID, got.ID)
	require.NotNil(t, got.LogChannelID)
	assert.Equal(t, channel, *got.LogChannelID)
	assert.Equal(t, []string{"youtube.com"}, got.AllowedDomains)
	assert.Equal(t, []string{"t.me"}, got.BlockedDomains)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestActionRepository(t *testing.T) {
	repo := NewActionRepository(openTestDB(t))
	ctx := context.Background()
	key := models.MemberKey{CommunityID: -1, UserID: 3}

	for _, action := range []string{"warn", "mute"} {
		require.NoError(t, repo.Create(ctx, &models.ModerationAction{
			CommunityID: key.CommunityID,
			UserID:      key.UserID,
			Action:      action,
			Moderator:   "automod",
		}))
	}

	actions, err := repo.ListByMember(ctx, key, 10)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "mute", actions[0].Action)
}
