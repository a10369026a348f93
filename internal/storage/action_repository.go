package storage

import (
	"context"

	"tg-automod/internal/models"

	"gorm.io/gorm"
)

// ActionRepository stores the moderation audit trail.
type ActionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.ModerationAction{})
}

func (r *ActionRepository) Create(ctx context.Context, action *models.ModerationAction) error {
	return r.db.WithContext(ctx).Create(action).Error
}

// ListByMember returns the audit entries of a member, newest first.
func (r *ActionRepository) ListByMember(ctx context.Context, key models.MemberKey, limit int) ([]*models.ModerationAction, error) {
	var actions []*models.ModerationAction
	result := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", key.CommunityID, key.UserID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&actions)
	return actions, result.Error
}
