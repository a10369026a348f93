package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mymmrac/telego"

	"tg-automod/internal/logger"
	"tg-automod/internal/models"
	"tg-automod/internal/service"
)

const callTimeout = 10 * time.Second

// ErrCannotRestrict is returned when the bot lacks the right to restrict members.
var ErrCannotRestrict = errors.New("bot cannot restrict members in this chat")

// Gateway adapts the Telegram Bot API to the moderation engine. A mute is a restriction
// with every send permission revoked; lifting it restores the chat's default permissions.
type Gateway struct {
	bot *telego.Bot

	mu sync.Mutex
	me *telego.User
}

func NewGateway(bot *telego.Bot) *Gateway {
	return &Gateway{bot: bot}
}

// Self returns the bot's own user. A successful lookup is cached.
func (g *Gateway) Self(ctx context.Context) (*telego.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.me != nil {
		return g.me, nil
	}
	me, err := g.bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("get bot info: %w", err)
	}
	g.me = me
	return me, nil
}

var (
	_ service.Membership = (*Gateway)(nil)
	_ service.Messenger  = (*Gateway)(nil)
)

func (g *Gateway) EnsureMuteRole(ctx context.Context, communityID int64) (service.RoleHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	me, err := g.Self(ctx)
	if err != nil {
		return service.RoleHandle{}, err
	}
	member, err := g.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: communityID},
		UserID: me.ID,
	})
	if err != nil {
		return service.RoleHandle{}, fmt.Errorf("get bot membership: %w", err)
	}

	switch m := member.(type) {
	case *telego.ChatMemberOwner:
	case *telego.ChatMemberAdministrator:
		if !m.CanRestrictMembers {
			return service.RoleHandle{}, ErrCannotRestrict
		}
	default:
		return service.RoleHandle{}, ErrCannotRestrict
	}
	return service.RoleHandle{CommunityID: communityID, Name: telego.MemberStatusRestricted}, nil
}

func mutedPermissions() telego.ChatPermissions {
	no := false
	return telego.ChatPermissions{
		CanSendMessages:       &no,
		CanSendAudios:         &no,
		CanSendDocuments:      &no,
		CanSendPhotos:         &no,
		CanSendVideos:         &no,
		CanSendVideoNotes:     &no,
		CanSendVoiceNotes:     &no,
		CanSendPolls:          &no,
		CanSendOtherMessages:  &no,
		CanAddWebPagePreviews: &no,
		CanChangeInfo:         &no,
		CanInviteUsers:        &no,
		CanPinMessages:        &no,
		CanManageTopics:       &no,
	}
}

// fallbackPermissions is used when the chat's default permissions cannot be read.
func fallbackPermissions() telego.ChatPermissions {
	yes, no := true, false
	return telego.ChatPermissions{
		CanSendMessages:       &yes,
		CanSendAudios:         &yes,
		CanSendDocuments:      &yes,
		CanSendPhotos:         &yes,
		CanSendVideos:         &yes,
		CanSendVideoNotes:     &yes,
		CanSendVoiceNotes:     &yes,
		CanSendPolls:          &yes,
		CanSendOtherMessages:  &yes,
		CanAddWebPagePreviews: &yes,
		CanChangeInfo:         &no,
		CanInviteUsers:        &yes,
		CanPinMessages:        &no,
		CanManageTopics:       &no,
	}
}

func (g *Gateway) GrantMuteRole(ctx context.Context, key models.MemberKey, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	err := g.bot.RestrictChatMember(ctx, &telego.RestrictChatMemberParams{
		ChatID:      telego.ChatID{ID: key.CommunityID},
		UserID:      key.UserID,
		Permissions: mutedPermissions(),
	})
	if err != nil {
		return fmt.Errorf("restrict member: %w", err)
	}
	logger.Infof("Muted %s: %s", key, reason)
	return nil
}

func (g *Gateway) RevokeMuteRole(ctx context.Context, key models.MemberKey, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	permissions := fallbackPermissions()
	chat, err := g.bot.GetChat(ctx, &telego.GetChatParams{ChatID: telego.ChatID{ID: key.CommunityID}})
	if err != nil {
		logger.Warningf("Cannot read default permissions of %d: %v", key.CommunityID, err)
	} else if chat.Permissions != nil {
		permissions = *chat.Permissions
	}

	err = g.bot.RestrictChatMember(ctx, &telego.RestrictChatMemberParams{
		ChatID:      telego.ChatID{ID: key.CommunityID},
		UserID:      key.UserID,
		Permissions: permissions,
	})
	if err != nil {
		return fmt.Errorf("lift restriction: %w", err)
	}
	logger.Infof("Unmuted %s: %s", key, reason)
	return nil
}

func (g *Gateway) HasMuteRole(ctx context.Context, key models.MemberKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	member, err := g.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: key.CommunityID},
		UserID: key.UserID,
	})
	if err != nil {
		return false, fmt.Errorf("get chat member: %w", err)
	}
	restricted, ok := member.(*telego.ChatMemberRestricted)
	return ok && !restricted.CanSendMessages, nil
}

func (g *Gateway) DeleteMessage(ctx context.Context, communityID int64, messageID int) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return g.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    telego.ChatID{ID: communityID},
		MessageID: messageID,
	})
}

func (g *Gateway) SendDirectMessage(ctx context.Context, userID int64, text string) error {
	return g.SendMessage(ctx, userID, text)
}

func (g *Gateway) SendMessage(ctx context.Context, channelID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := g.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: channelID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	return err
}

// Admins returns the IDs of the chat's administrators and owner.
func (g *Gateway) Admins(ctx context.Context, chatID int64) (map[int64]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	admins, err := g.bot.GetChatAdministrators(ctx, &telego.GetChatAdministratorsParams{
		ChatID: telego.ChatID{ID: chatID},
	})
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(admins))
	for _, admin := range admins {
		ids[admin.MemberUser().ID] = struct{}{}
	}
	return ids, nil
}
