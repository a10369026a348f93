package models

import "time"

// ModerationAction is one audit entry: which action was taken against which member,
// by whom and why. Written best-effort when the database backend is enabled.
type ModerationAction struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	CommunityID int64  `gorm:"index;not null"`
	UserID      int64  `gorm:"index;not null"`
	Action      string `gorm:"type:varchar(64);not null"`
	Moderator   string `gorm:"type:varchar(255);default:''"`
	Reason      string `gorm:"type:text"`
	CreatedAt   time.Time
}
