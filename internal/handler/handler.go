package handler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-automod/internal/crash"
	"tg-automod/internal/logger"
	"tg-automod/internal/models"
	"tg-automod/internal/service"
)

const (
	maxConcurrentUpdates = 100
	adminCacheTTL        = 10 * time.Minute
)

// Handler routes Telegram updates to the moderation engine.
type Handler struct {
	engine  *service.Engine
	gateway *Gateway
	admins  *models.AdminCache
	lang    string

	sem    chan struct{}
	active atomic.Int64
}

func New(engine *service.Engine, gateway *Gateway, lang string) *Handler {
	return &Handler{
		engine:  engine,
		gateway: gateway,
		admins:  models.NewAdminCache(adminCacheTTL),
		lang:    lang,
		sem:     make(chan struct{}, maxConcurrentUpdates),
	}
}

// Start runs the background maintenance of the handler until ctx is done.
func (h *Handler) Start(ctx context.Context) {
	h.admins.StartCleanup(ctx, adminCacheTTL)
	StartStatusMonitoring(ctx, h)
}

// Register configures all message and member update handlers on bh.
func (h *Handler) Register(bh *th.BotHandler) {
	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		return h.guard(ctx.Context(), &totalMessagesProcessed, func(c context.Context) error {
			return h.handleMessage(c, message)
		})
	})

	bh.Handle(func(ctx *th.Context, update telego.Update) error {
		return h.guard(ctx.Context(), &totalChatMemberUpdates, func(c context.Context) error {
			return h.handleChatMemberUpdate(c, *update.ChatMember)
		})
	}, th.AnyChatMember())

	bh.Handle(func(ctx *th.Context, update telego.Update) error {
		return h.guard(ctx.Context(), &totalChatMemberUpdates, func(c context.Context) error {
			return h.handleMyChatMemberUpdate(c, *update.MyChatMember)
		})
	}, th.AnyMyChatMember())
}

// guard bounds the number of updates processed at once and keeps the statistics.
func (h *Handler) guard(ctx context.Context, counter *int64, fn func(context.Context) error) (err error) {
	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		incrementCounter(&totalTimeouts)
		return ctx.Err()
	}
	defer func() { <-h.sem }()

	h.active.Add(1)
	defer h.active.Add(-1)
	defer crash.RecoverWithStack("update-handler")

	incrementCounter(counter)
	if err = fn(ctx); err != nil {
		incrementCounter(&totalErrors)
		logger.Warningf("Update handling failed: %v", err)
	}
	return err
}

func (h *Handler) t(key string) string {
	return models.GetTranslation(h.lang, key)
}

// isAdmin reports whether userID administers chatID, using the admin cache first.
func (h *Handler) isAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if isAdmin, ok := h.admins.Lookup(chatID, userID); ok {
		return isAdmin, nil
	}
	ids, err := h.gateway.Admins(ctx, chatID)
	if err != nil {
		return false, err
	}
	h.admins.Put(chatID, ids)
	_, ok := ids[userID]
	return ok, nil
}

func (h *Handler) reply(ctx context.Context, message telego.Message, text string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := h.gateway.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: message.Chat.ID},
		Text:      text,
		ParseMode: telego.ModeHTML,
		ReplyParameters: &telego.ReplyParameters{
			MessageID:                message.MessageID,
			AllowSendingWithoutReply: true,
		},
	})
	return err
}

// displayName is the plain name of a user: @username when set, the full name otherwise.
func displayName(user telego.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

// linkedUserName renders an HTML link to the user's profile.
func linkedUserName(user telego.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = models.FormatID(user.ID)
	}
	if user.Username != "" {
		name = fmt.Sprintf("%s (@%s)", name, user.Username)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, user.ID, html.EscapeString(name))
}

func actorOf(user telego.User) service.Actor {
	return service.Actor{ID: user.ID, Name: displayName(user)}
}
