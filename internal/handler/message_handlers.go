package handler

import (
	"context"
	"time"

	"github.com/mymmrac/telego"

	"tg-automod/internal/logger"
	"tg-automod/internal/models"
	"tg-automod/internal/service"
)

// handleMessage dispatches commands and hands every other group message to the engine.
func (h *Handler) handleMessage(ctx context.Context, message telego.Message) error {
	// Skip if no sender information or sender is a bot
	if message.From == nil || message.From.IsBot {
		return nil
	}

	if call, ok := parseCommand(message.Text); ok {
		handled, err := h.handleCommand(ctx, message, call)
		if handled {
			return err
		}
	}

	if !isGroup(message.Chat) {
		return nil
	}
	return h.handleGroupMessage(ctx, message)
}

func (h *Handler) handleGroupMessage(ctx context.Context, message telego.Message) error {
	text := message.Text
	if text == "" {
		text = message.Caption
	}
	if text == "" {
		return nil
	}

	exempt, err := h.isAdmin(ctx, message.Chat.ID, message.From.ID)
	if err != nil {
		logger.Warningf("Cannot check admin status of %d in %d: %v", message.From.ID, message.Chat.ID, err)
	}

	violation, err := h.engine.HandleMessage(ctx, service.Message{
		Key:       models.MemberKey{CommunityID: message.Chat.ID, UserID: message.From.ID},
		MessageID: message.MessageID,
		Text:      text,
		Exempt:    exempt,
		SentAt:    time.Unix(int64(message.Date), 0),
	})
	if violation != nil {
		logger.Debugf("Message %d from %d in %d violated %s", message.MessageID, message.From.ID, message.Chat.ID, violation.Reason)
	}
	return err
}

// handleChatMemberUpdate restores running mutes of members who come back.
func (h *Handler) handleChatMemberUpdate(ctx context.Context, update telego.ChatMemberUpdated) error {
	if isAdminMember(update.OldChatMember) != isAdminMember(update.NewChatMember) {
		h.admins.Invalidate(update.Chat.ID)
	}

	user := update.NewChatMember.MemberUser()
	if user.IsBot || !joined(update.OldChatMember, update.NewChatMember) {
		return nil
	}

	logger.Debugf("User %d joined %d", user.ID, update.Chat.ID)
	return h.engine.HandleMemberJoin(ctx, models.MemberKey{CommunityID: update.Chat.ID, UserID: user.ID})
}

// handleMyChatMemberUpdate tracks the bot's own status changes.
func (h *Handler) handleMyChatMemberUpdate(_ context.Context, update telego.ChatMemberUpdated) error {
	h.admins.Invalidate(update.Chat.ID)
	logger.Infof("Bot status in %d (%s) changed from %s to %s",
		update.Chat.ID, update.Chat.Title,
		update.OldChatMember.MemberStatus(), update.NewChatMember.MemberStatus())
	return nil
}

func isGroup(chat telego.Chat) bool {
	return chat.Type == "group" || chat.Type == "supergroup"
}

// isPresent reports whether the member is currently in the chat.
func isPresent(member telego.ChatMember) bool {
	switch m := member.(type) {
	case *telego.ChatMemberOwner, *telego.ChatMemberAdministrator, *telego.ChatMemberMember:
		return true
	case *telego.ChatMemberRestricted:
		return m.IsMember
	default:
		return false
	}
}

func joined(old, updated telego.ChatMember) bool {
	return !isPresent(old) && isPresent(updated)
}

func isAdminMember(member telego.ChatMember) bool {
	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator:
		return true
	default:
		return false
	}
}
