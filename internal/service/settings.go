package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"tg-automod/internal/domain"
	"tg-automod/internal/logger"
	"tg-automod/internal/models"
)

// Settings is the per-community moderation configuration. Communities get the
// configured default lists the first time they are looked up.
type Settings struct {
	store          SettingsStore
	cache          *models.SettingsCache
	defaultAllowed []string
	defaultBlocked []string

	// serialises read-modify-write of the setters
	mu sync.Mutex
}

func NewSettings(store SettingsStore, defaultAllowed, defaultBlocked []string) *Settings {
	return &Settings{
		store:          store,
		cache:          models.NewSettingsCache(),
		defaultAllowed: domain.Clean(defaultAllowed),
		defaultBlocked: domain.Clean(defaultBlocked),
	}
}

// Get returns a copy of the community's settings, creating and persisting defaults
// when none exist yet.
func (s *Settings) Get(ctx context.Context, communityID int64) (*models.CommunitySettings, error) {
	if cached := s.cache.Get(communityID); cached != nil {
		return cached.Clone(), nil
	}

	stored, err := s.store.Get(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("load settings of %d: %w", communityID, err)
	}

	dirty := false
	if stored == nil {
		logger.Infof("Creating moderation settings for community %d", communityID)
		stored = &models.CommunitySettings{CommunityID: communityID}
		dirty = true
	}
	if stored.AllowedDomains == nil {
		stored.AllowedDomains = slices.Clone(s.defaultAllowed)
		dirty = true
	}
	if stored.BlockedDomains == nil {
		stored.BlockedDomains = slices.Clone(s.defaultBlocked)
		dirty = true
	}
	stored.AllowedDomains = domain.Clean(stored.AllowedDomains)
	stored.BlockedDomains = domain.Clean(stored.BlockedDomains)

	if dirty {
		if err := s.store.Save(ctx, stored); err != nil {
			return nil, fmt.Errorf("save settings of %d: %w", communityID, err)
		}
	}

	s.cache.Put(stored)
	return stored.Clone(), nil
}

// Defaults returns unsaved default settings, used when the store cannot be read.
func (s *Settings) Defaults(communityID int64) *models.CommunitySettings {
	return &models.CommunitySettings{
		CommunityID:    communityID,
		AllowedDomains: slices.Clone(s.defaultAllowed),
		BlockedDomains: slices.Clone(s.defaultBlocked),
	}
}

// Lists returns the community's domain lists.
func (s *Settings) Lists(ctx context.Context, communityID int64) (domain.Lists, error) {
	settings, err := s.Get(ctx, communityID)
	if err != nil {
		return domain.Lists{}, err
	}
	return domain.Lists{Allowed: settings.AllowedDomains, Blocked: settings.BlockedDomains}, nil
}

func (s *Settings) update(ctx context.Context, communityID int64, fn func(*models.CommunitySettings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.Get(ctx, communityID)
	if err != nil {
		return err
	}
	if err := fn(settings); err != nil {
		return err
	}
	if err := s.store.Save(ctx, settings); err != nil {
		return fmt.Errorf("save settings of %d: %w", communityID, err)
	}
	s.cache.Put(settings.Clone())
	return nil
}

func (s *Settings) SetLogChannel(ctx context.Context, communityID, channelID int64) error {
	return s.update(ctx, communityID, func(settings *models.CommunitySettings) error {
		settings.LogChannelID = &channelID
		return nil
	})
}

// AllowDomain moves raw onto the allow-list and returns its normalized form.
func (s *Settings) AllowDomain(ctx context.Context, communityID int64, raw string) (string, error) {
	return s.mutateLists(ctx, communityID, func(l *domain.Lists) (string, error) { return l.Allow(raw) })
}

// BlockDomain moves raw onto the block-list and returns its normalized form.
func (s *Settings) BlockDomain(ctx context.Context, communityID int64, raw string) (string, error) {
	return s.mutateLists(ctx, communityID, func(l *domain.Lists) (string, error) { return l.Block(raw) })
}

func (s *Settings) mutateLists(ctx context.Context, communityID int64, fn func(*domain.Lists) (string, error)) (string, error) {
	var normalized string
	err := s.update(ctx, communityID, func(settings *models.CommunitySettings) error {
		lists := domain.Lists{Allowed: settings.AllowedDomains, Blocked: settings.BlockedDomains}
		d, err := fn(&lists)
		if err != nil {
			return err
		}
		normalized = d
		settings.AllowedDomains = lists.Allowed
		settings.BlockedDomains = lists.Blocked
		return nil
	})
	return normalized, err
}
