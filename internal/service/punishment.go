package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"tg-automod/internal/config"
	"tg-automod/internal/logger"
	"tg-automod/internal/metrics"
	"tg-automod/internal/models"
)

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeMuted
	OutcomeAlreadyMuted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMuted:
		return "muted"
	case OutcomeAlreadyMuted:
		return "already_muted"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

// PunishmentRequest is the input of an escalation step.
type PunishmentRequest struct {
	Key    models.MemberKey
	Count  int
	Reason string
}

// ActionFunc carries out one punishment keyword.
type ActionFunc func(ctx context.Context, req PunishmentRequest) Outcome

// PunishmentPolicy maps warning counts to actions. Reaching the highest threshold
// always resets the member's ledger.
type PunishmentPolicy struct {
	thresholds  map[int]string
	actions     map[string]ActionFunc
	maxWarnings int
	ledger      *WarningLedger
}

func NewPunishmentPolicy(table []config.PunishmentConfig, ledger *WarningLedger) *PunishmentPolicy {
	p := &PunishmentPolicy{
		thresholds: make(map[int]string, len(table)),
		actions:    make(map[string]ActionFunc),
		ledger:     ledger,
	}
	for _, t := range table {
		p.thresholds[t.Warnings] = t.Action
		p.maxWarnings = max(p.maxWarnings, t.Warnings)
	}
	return p
}

// Handle registers the function run for an action keyword.
func (p *PunishmentPolicy) Handle(action string, fn ActionFunc) {
	p.actions[action] = fn
}

func (p *PunishmentPolicy) MaxWarnings() int {
	return p.maxWarnings
}

// Apply runs the action mapped to req.Count, if any, then resets the ledger when the
// count reached the maximum threshold.
func (p *PunishmentPolicy) Apply(ctx context.Context, req PunishmentRequest) Outcome {
	outcome := OutcomeNone
	if action, ok := p.thresholds[req.Count]; ok {
		if fn, ok := p.actions[action]; ok {
			outcome = fn(ctx, req)
		} else {
			logger.Errorf("No handler registered for punishment action %q", action)
		}
	}
	p.ResetIfMaxed(ctx, req.Key, req.Count)
	return outcome
}

// ResetIfMaxed clears the ledger once count reaches the highest threshold.
func (p *PunishmentPolicy) ResetIfMaxed(ctx context.Context, key models.MemberKey, count int) {
	if count < p.maxWarnings {
		return
	}
	if err := p.ledger.Clear(ctx, key); err != nil {
		logger.Errorf("Failed to reset warnings: %v", err)
	}
}

// MuteRequest describes one timed mute handed out by the engine.
type MuteRequest struct {
	Key          models.MemberKey
	Duration     time.Duration
	Reason       string
	Source       string
	Announcement string
}

// Muter applies timed mutes: it grants the restriction, announces it in the community,
// records it, notifies the member and hands the expiry to the scheduler.
type Muter struct {
	membership Membership
	messenger  Messenger
	scheduler  *MuteScheduler
	log        *ActionLog
	lang       string
	now        func() time.Time
}

func (m *Muter) t(key string) string {
	return models.GetTranslation(m.lang, key)
}

func (m *Muter) announce(ctx context.Context, communityID int64, text string) {
	if err := m.messenger.SendMessage(ctx, communityID, text); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("send_message").Inc()
		logger.Warningf("Failed to announce in %d: %v", communityID, err)
	}
}

// TimedMute is idempotent: a member who already holds the restriction is left alone.
func (m *Muter) TimedMute(ctx context.Context, req MuteRequest) Outcome {
	key := req.Key

	if _, err := m.membership.EnsureMuteRole(ctx, key.CommunityID); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("ensure_mute_role").Inc()
		logger.Warningf("Mute role unavailable in %d: %v", key.CommunityID, err)
		m.announce(ctx, key.CommunityID, m.t("mute_role_unavailable"))
		return OutcomeFailed
	}

	muted, err := m.membership.HasMuteRole(ctx, key)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("has_mute_role").Inc()
		logger.Warningf("Could not check mute of %s: %v", key, err)
	}
	if muted {
		m.announce(ctx, key.CommunityID, fmt.Sprintf(m.t("already_muted_announce"), Mention(key.UserID)))
		return OutcomeAlreadyMuted
	}

	expiry := m.now().Add(req.Duration)
	if err := m.membership.GrantMuteRole(ctx, key, req.Reason); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("grant_mute_role").Inc()
		logger.Warningf("Failed to mute %s: %v", key, err)
		m.announce(ctx, key.CommunityID, m.t("mute_failed"))
		return OutcomeFailed
	}
	metrics.MutesGranted.WithLabelValues(req.Source).Inc()

	m.announce(ctx, key.CommunityID, req.Announcement)

	m.log.Record(ctx, key.CommunityID, LogEntry{
		Action:    m.t("action_auto_mute"),
		UserID:    key.UserID,
		Moderator: ModeratorAuto,
		Reason:    fmt.Sprintf("%s | %s", req.Reason, FormatDuration(req.Duration)),
	})

	notify(ctx, m.messenger, key.UserID, fmt.Sprintf(m.t("mute_dm"),
		key.CommunityID, FormatDuration(req.Duration), html.EscapeString(req.Reason), expiry.Format(time.RFC1123)))

	if err := m.scheduler.Register(ctx, key, expiry); err != nil {
		logger.Errorf("Mute of %s will not be lifted automatically: %v", key, err)
	}
	return OutcomeMuted
}

// notify sends a direct message; members who block the bot are ignored.
func notify(ctx context.Context, messenger Messenger, userID int64, text string) {
	if err := messenger.SendDirectMessage(ctx, userID, text); err != nil {
		logger.Debugf("Direct message to %d not delivered: %v", userID, err)
	}
}
