package service

import (
	"context"
	"errors"

	"tg-automod/internal/models"
)

var (
	ErrInvalidDuration     = errors.New("invalid duration, use <n>s, <n>m, <n>h or <n>d")
	ErrAlreadyMuted        = errors.New("member is already muted")
	ErrNotMuted            = errors.New("member is not muted")
	ErrSelfMute            = errors.New("moderators cannot mute themselves")
	ErrMuteRoleUnavailable = errors.New("mute role is unavailable")
)

// RoleHandle identifies the community-wide restriction applied to muted members.
type RoleHandle struct {
	CommunityID int64
	Name        string
}

// Membership grants and revokes the mute restriction on the chat platform.
type Membership interface {
	EnsureMuteRole(ctx context.Context, communityID int64) (RoleHandle, error)
	GrantMuteRole(ctx context.Context, key models.MemberKey, reason string) error
	RevokeMuteRole(ctx context.Context, key models.MemberKey, reason string) error
	HasMuteRole(ctx context.Context, key models.MemberKey) (bool, error)
}

// Messenger delivers and removes chat messages.
type Messenger interface {
	DeleteMessage(ctx context.Context, communityID int64, messageID int) error
	SendDirectMessage(ctx context.Context, userID int64, text string) error
	SendMessage(ctx context.Context, channelID int64, text string) error
}

type WarningStore interface {
	Get(ctx context.Context, key models.MemberKey) (int, error)
	Increment(ctx context.Context, key models.MemberKey) (int, error)
	Delete(ctx context.Context, key models.MemberKey) error
}

type MuteStore interface {
	All(ctx context.Context) ([]models.MuteRecord, error)
	Upsert(ctx context.Context, record models.MuteRecord) error
	Delete(ctx context.Context, key models.MemberKey) error
	DeleteMany(ctx context.Context, keys []models.MemberKey) error
}

// SettingsStore returns nil settings for communities that were never saved.
type SettingsStore interface {
	Get(ctx context.Context, communityID int64) (*models.CommunitySettings, error)
	Save(ctx context.Context, settings *models.CommunitySettings) error
}

type AuditStore interface {
	Create(ctx context.Context, action *models.ModerationAction) error
}
