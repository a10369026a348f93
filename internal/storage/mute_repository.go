package storage

import (
	"context"
	"errors"

	"tg-automod/internal/models"

	"gorm.io/gorm"
)

// MuteRepository keeps active timed mutes in the mute_records table.
type MuteRepository struct {
	db *gorm.DB
}

func NewMuteRepository(db *gorm.DB) *MuteRepository {
	return &MuteRepository{db: db}
}

func (r *MuteRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.MuteRecord{})
}

func (r *MuteRepository) All(ctx context.Context) ([]models.MuteRecord, error) {
	var records []models.MuteRecord
	if err := r.db.WithContext(ctx).Order("unmute_at").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Upsert stores the expiry of a member's mute, replacing any previous one.
func (r *MuteRepository) Upsert(ctx context.Context, record models.MuteRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.MuteRecord
		result := tx.Where("community_id = ? AND user_id = ?", record.CommunityID, record.UserID).First(&existing)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}
			record.ID = 0
			return tx.Create(&record).Error
		}
		return tx.Model(&existing).Update("unmute_at", record.UnmuteAt).Error
	})
}

func (r *MuteRepository) Delete(ctx context.Context, key models.MemberKey) error {
	return r.DeleteMany(ctx, []models.MemberKey{key})
}

// DeleteMany removes the given members' records in one transaction.
func (r *MuteRepository) DeleteMany(ctx context.Context, keys []models.MemberKey) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			err := tx.Where("community_id = ? AND user_id = ?", key.CommunityID, key.UserID).
				Delete(&models.MuteRecord{}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
