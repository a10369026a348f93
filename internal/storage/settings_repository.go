package storage

import (
	"context"
	"errors"

	"tg-automod/internal/models"

	"gorm.io/gorm"
)

// SettingsRepository handles database operations for CommunitySettings
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// MigrateTable ensures the community_settings table exists with the right schema
func (r *SettingsRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.CommunitySettings{})
}

// Get returns the stored settings of a community, or nil when none were saved yet.
func (r *SettingsRepository) Get(ctx context.Context, communityID int64) (*models.CommunitySettings, error) {
	var settings models.CommunitySettings
	result := r.db.WithContext(ctx).Where("community_id = ?", communityID).First(&settings)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &settings, nil
}

// Save creates the settings row or updates the existing one.
func (r *SettingsRepository) Save(ctx context.Context, settings *models.CommunitySettings) error {
	db := r.db.WithContext(ctx)

	var existing models.CommunitySettings
	result := db.Where("community_id = ?", settings.CommunityID).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return db.Create(settings).Error
		}
		return result.Error
	}

	settings.ID = existing.ID
	settings.CreatedAt = existing.CreatedAt
	return db.Save(settings).Error
}

// All loads every stored community; used to warm the settings cache.
func (r *SettingsRepository) All(ctx context.Context) ([]*models.CommunitySettings, error) {
	var all []*models.CommunitySettings
	if err := r.db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, err
	}
	return all, nil
}
