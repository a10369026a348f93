package models

import "time"

// MuteRecord is an active timed mute. UnmuteAt is absolute so the record stays valid
// across restarts.
type MuteRecord struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	CommunityID int64     `gorm:"uniqueIndex:idx_mute_member;not null"`
	UserID      int64     `gorm:"uniqueIndex:idx_mute_member;not null"`
	UnmuteAt    time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m *MuteRecord) Key() MemberKey {
	return MemberKey{CommunityID: m.CommunityID, UserID: m.UserID}
}

// IsExpired reports whether the mute should have been lifted by now.
func (m *MuteRecord) IsExpired(now time.Time) bool {
	return !m.UnmuteAt.After(now)
}
