package models

import "time"

// WarningRecord is the escalation counter of a member. A missing row means zero warnings.
type WarningRecord struct {
	ID          uint  `gorm:"primaryKey;autoIncrement"`
	CommunityID int64 `gorm:"uniqueIndex:idx_warning_member;not null"`
	UserID      int64 `gorm:"uniqueIndex:idx_warning_member;not null"`
	Count       int   `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
