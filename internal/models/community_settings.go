package models

import (
	"slices"
	"sync"
	"time"
)

// CommunitySettings is the per-community moderation configuration.
type CommunitySettings struct {
	ID             uint     `gorm:"primaryKey;autoIncrement"`
	CommunityID    int64    `gorm:"uniqueIndex;not null"`
	LogChannelID   *int64   `json:"log_channel_id"`
	AllowedDomains []string `gorm:"serializer:json;type:text" json:"allowed_domains"`
	BlockedDomains []string `gorm:"serializer:json;type:text" json:"blocked_domains"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy so callers can mutate lists without touching the cache.
func (s *CommunitySettings) Clone() *CommunitySettings {
	c := *s
	if s.LogChannelID != nil {
		id := *s.LogChannelID
		c.LogChannelID = &id
	}
	c.AllowedDomains = slices.Clone(s.AllowedDomains)
	c.BlockedDomains = slices.Clone(s.BlockedDomains)
	return &c
}

// SettingsCache is the in-memory mirror of community settings.
type SettingsCache struct {
	settings map[int64]*CommunitySettings
	mu       sync.RWMutex
}

func NewSettingsCache() *SettingsCache {
	return &SettingsCache{
		settings: make(map[int64]*CommunitySettings),
	}
}

func (c *SettingsCache) Get(communityID int64) *CommunitySettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings[communityID]
}

func (c *SettingsCache) Put(s *CommunitySettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings[s.CommunityID] = s
}
