package storage

import (
	"context"
	"errors"

	"tg-automod/internal/models"

	"gorm.io/gorm"
)

// WarningRepository keeps warning counters in the warning_records table.
type WarningRepository struct {
	db *gorm.DB
}

func NewWarningRepository(db *gorm.DB) *WarningRepository {
	return &WarningRepository{db: db}
}

func (r *WarningRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.WarningRecord{})
}

func (r *WarningRepository) Get(ctx context.Context, key models.MemberKey) (int, error) {
	var record models.WarningRecord
	result := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", key.CommunityID, key.UserID).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}
	return record.Count, nil
}

// Increment adds one warning and returns the new count.
func (r *WarningRepository) Increment(ctx context.Context, key models.MemberKey) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.WarningRecord
		result := tx.Where("community_id = ? AND user_id = ?", key.CommunityID, key.UserID).First(&record)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}
			record = models.WarningRecord{CommunityID: key.CommunityID, UserID: key.UserID, Count: 1}
			count = 1
			return tx.Create(&record).Error
		}

		record.Count++
		count = record.Count
		return tx.Model(&record).Update("count", record.Count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *WarningRepository) Delete(ctx context.Context, key models.MemberKey) error {
	return r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", key.CommunityID, key.UserID).
		Delete(&models.WarningRecord{}).Error
}
