package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"tg-automod/internal/logger"
	"tg-automod/internal/metrics"
	"tg-automod/internal/models"
)

const (
	maxLoggedMessage = 1024
	loggedExcerpt    = 1000
)

// ModeratorAuto is the moderator name recorded for automatic actions.
const ModeratorAuto = "automod"

// LogEntry is one moderation event as written to the log channel and audit table.
type LogEntry struct {
	Action    string
	UserID    int64
	Moderator string
	Reason    string
	Message   string
	Extra     string
}

// ActionLog publishes moderation events. Every failure is logged and swallowed.
type ActionLog struct {
	settings  *Settings
	messenger Messenger
	audit     AuditStore
	lang      string
}

// NewActionLog builds the log; audit may be nil when no database is configured.
func NewActionLog(settings *Settings, messenger Messenger, audit AuditStore, lang string) *ActionLog {
	return &ActionLog{settings: settings, messenger: messenger, audit: audit, lang: lang}
}

func (a *ActionLog) Record(ctx context.Context, communityID int64, e LogEntry) {
	if a.audit != nil {
		err := a.audit.Create(ctx, &models.ModerationAction{
			CommunityID: communityID,
			UserID:      e.UserID,
			Action:      e.Action,
			Moderator:   e.Moderator,
			Reason:      e.Reason,
		})
		if err != nil {
			logger.Warningf("Failed to write audit entry for %d/%d: %v", communityID, e.UserID, err)
		}
	}

	settings, err := a.settings.Get(ctx, communityID)
	if err != nil {
		logger.Warningf("Cannot resolve log channel of %d: %v", communityID, err)
		return
	}
	if settings.LogChannelID == nil {
		return
	}

	if err := a.messenger.SendMessage(ctx, *settings.LogChannelID, a.render(e)); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("log_channel").Inc()
		logger.Warningf("Failed to post to log channel %d: %v", *settings.LogChannelID, err)
	}
}

func (a *ActionLog) render(e LogEntry) string {
	t := func(key string) string { return models.GetTranslation(a.lang, key) }

	var b strings.Builder
	fmt.Fprintf(&b, t("log_title"), html.EscapeString(e.Action))
	b.WriteString("\n")
	fmt.Fprintf(&b, t("log_user"), Mention(e.UserID))
	b.WriteString("\n")
	if e.Moderator != "" {
		fmt.Fprintf(&b, t("log_moderator"), html.EscapeString(e.Moderator))
		b.WriteString("\n")
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, t("log_reason"), html.EscapeString(e.Reason))
		b.WriteString("\n")
	}
	if e.Message != "" {
		fmt.Fprintf(&b, t("log_message"), html.EscapeString(Excerpt(e.Message)))
		b.WriteString("\n")
	}
	if e.Extra != "" {
		b.WriteString(html.EscapeString(e.Extra))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Excerpt shortens logged message bodies that would overflow a log record.
func Excerpt(text string) string {
	r := []rune(text)
	if len(r) <= maxLoggedMessage {
		return text
	}
	return string(r[:loggedExcerpt]) + "...(+)"
}

// Mention renders an HTML link to a user's profile.
func Mention(userID int64) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%d</a>`, userID, userID)
}
