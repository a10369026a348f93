// Package service implements the moderation engine: warning ledger, punishment policy,
// mute scheduler, action log and per-community settings.
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"tg-automod/internal/config"
	"tg-automod/internal/domain"
	"tg-automod/internal/logger"
	"tg-automod/internal/metrics"
	"tg-automod/internal/models"
	"tg-automod/internal/rules"
)

// Actor is the moderator behind a manual operation.
type Actor struct {
	ID   int64
	Name string
}

func (a Actor) String() string {
	if a.Name != "" {
		return a.Name
	}
	return models.FormatID(a.ID)
}

// Message is an inbound community message as seen by the engine.
type Message struct {
	Key       models.MemberKey
	MessageID int
	Text      string
	// Exempt senders (administrators) bypass every rule.
	Exempt bool
	SentAt time.Time
}

// MuteStatus describes a muted member. UnmuteAt is zero for indefinite mutes.
type MuteStatus struct {
	Timed    bool
	UnmuteAt time.Time
}

// Deps are the collaborators and stores the engine runs on.
type Deps struct {
	Membership Membership
	Messenger  Messenger
	Warnings   WarningStore
	Mutes      MuteStore
	Settings   SettingsStore
	// Audit is optional.
	Audit AuditStore
}

type Option func(*Engine)

// WithClock replaces time.Now for every time-dependent decision.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type Engine struct {
	cfg        config.ModerationConfig
	rules      *rules.Engine
	settings   *Settings
	ledger     *WarningLedger
	policy     *PunishmentPolicy
	muter      *Muter
	scheduler  *MuteScheduler
	log        *ActionLog
	membership Membership
	messenger  Messenger
	now        func() time.Time

	locks  keyedMutex
	cancel context.CancelFunc
}

func NewEngine(cfg config.ModerationConfig, deps Deps, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		rules:      rules.NewEngine(rules.OptionsFromConfig(cfg)),
		membership: deps.Membership,
		messenger:  deps.Messenger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	clock := func() time.Time { return e.now() }

	e.settings = NewSettings(deps.Settings, cfg.DefaultAllowedDomains, cfg.DefaultBlockedDomains)
	e.ledger = NewWarningLedger(deps.Warnings)
	e.scheduler = NewMuteScheduler(deps.Mutes, deps.Membership, cfg.SweepInterval, cfg.RejoinDelay)
	e.scheduler.now = clock
	e.log = NewActionLog(e.settings, deps.Messenger, deps.Audit, cfg.Language)
	e.muter = &Muter{
		membership: deps.Membership,
		messenger:  deps.Messenger,
		scheduler:  e.scheduler,
		log:        e.log,
		lang:       cfg.Language,
		now:        clock,
	}
	e.policy = NewPunishmentPolicy(cfg.Punishments, e.ledger)
	e.policy.Handle("mute", e.autoMute)
	return e
}

func (e *Engine) t(key string) string {
	return models.GetTranslation(e.cfg.Language, key)
}

// Start loads the persisted mutes and launches the background sweep and flood pruning.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.scheduler.Load(ctx); err != nil {
		return err
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.scheduler.Start(ctx)
	e.rules.Flood.StartCleanup(ctx, max(e.cfg.FloodWindow, time.Minute))
	return nil
}

// Stop cancels the background tasks and waits for the sweep loop to exit.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.scheduler.Stop()
}

// MaxWarnings is the warning count at which the ledger resets.
func (e *Engine) MaxWarnings() int {
	return e.policy.MaxWarnings()
}

// HandleMessage evaluates msg and enforces whatever violation it finds.
func (e *Engine) HandleMessage(ctx context.Context, msg Message) (*rules.Violation, error) {
	metrics.MessagesProcessed.Inc()
	if msg.Exempt || e.rules.IsCommand(msg.Text) {
		return nil, nil
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = e.now()
	}

	unlock := e.locks.Lock(msg.Key)
	defer unlock()

	lists, err := e.settings.Lists(ctx, msg.Key.CommunityID)
	if err != nil {
		logger.Warningf("Using default domain lists for %d: %v", msg.Key.CommunityID, err)
		d := e.settings.Defaults(msg.Key.CommunityID)
		lists = domain.Lists{Allowed: d.AllowedDomains, Blocked: d.BlockedDomains}
	}

	v := e.rules.Evaluate(rules.Message{Key: msg.Key, Text: msg.Text, SentAt: msg.SentAt}, lists)
	if v == nil {
		return nil, nil
	}
	metrics.Violations.WithLabelValues(string(v.Reason)).Inc()
	logger.Infof("Violation %s by %s: %s", v.Reason, msg.Key, v.Detail)

	if v.Reason == rules.ReasonFlood {
		return v, e.punishFlood(ctx, msg)
	}
	return v, e.autoWarn(ctx, msg, e.reasonText(v))
}

func (e *Engine) reasonText(v *rules.Violation) string {
	switch v.Reason {
	case rules.ReasonLinks:
		return fmt.Sprintf(e.t("reason_links"), strings.Join(v.Domains, ", "))
	case rules.ReasonCaps:
		return e.t("reason_caps")
	case rules.ReasonFlood:
		return e.t("reason_flood")
	default:
		return e.t("rule_violation")
	}
}

func (e *Engine) deleteMessage(ctx context.Context, msg Message) {
	if msg.MessageID == 0 {
		return
	}
	if err := e.messenger.DeleteMessage(ctx, msg.Key.CommunityID, msg.MessageID); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("delete_message").Inc()
		logger.Warningf("Failed to delete message %d in %d: %v", msg.MessageID, msg.Key.CommunityID, err)
	}
}

// addWarning increments the ledger, notifies the member and logs the warning.
func (e *Engine) addWarning(ctx context.Context, key models.MemberKey, moderator, reason, text, source string) (int, error) {
	count, err := e.ledger.Add(ctx, key)
	if err != nil {
		logger.Errorf("%v", err)
		return 0, err
	}
	metrics.WarningsIssued.WithLabelValues(source).Inc()

	notify(ctx, e.messenger, key.UserID, fmt.Sprintf(e.t("warn_dm"),
		key.CommunityID, html.EscapeString(reason), count, e.MaxWarnings()))

	e.log.Record(ctx, key.CommunityID, LogEntry{
		Action:    e.t("action_warn"),
		UserID:    key.UserID,
		Moderator: moderator,
		Reason:    reason,
		Message:   text,
		Extra:     fmt.Sprintf(e.t("log_warning_total"), count, e.MaxWarnings()),
	})
	return count, nil
}

func (e *Engine) autoWarn(ctx context.Context, msg Message, reason string) error {
	e.deleteMessage(ctx, msg)

	count, err := e.addWarning(ctx, msg.Key, ModeratorAuto, reason, msg.Text, "auto")
	if err != nil {
		return err
	}
	outcome := e.policy.Apply(ctx, PunishmentRequest{Key: msg.Key, Count: count, Reason: reason})
	logger.Debugf("Warning %d/%d for %s, punishment outcome %s", count, e.MaxWarnings(), msg.Key, outcome)
	return nil
}

// autoMute is the "mute" punishment action.
func (e *Engine) autoMute(ctx context.Context, req PunishmentRequest) Outcome {
	d := e.cfg.AutoMuteDuration
	return e.muter.TimedMute(ctx, MuteRequest{
		Key:      req.Key,
		Duration: d,
		Reason:   req.Reason,
		Source:   "warnings",
		Announcement: fmt.Sprintf(e.t("auto_mute_announce"),
			Mention(req.Key.UserID), FormatDuration(d), req.Count, e.MaxWarnings()),
	})
}

// punishFlood gives one warning and a short mute per burst. Further messages of the same
// burst are only deleted.
func (e *Engine) punishFlood(ctx context.Context, msg Message) error {
	e.deleteMessage(ctx, msg)

	if !e.rules.Flood.ShouldPunish(msg.Key, msg.SentAt) {
		return nil
	}

	reason := e.t("reason_flood")
	count, err := e.addWarning(ctx, msg.Key, ModeratorAuto, reason, msg.Text, "flood")
	if err != nil {
		return err
	}

	d := e.cfg.FloodMuteDuration
	outcome := e.muter.TimedMute(ctx, MuteRequest{
		Key:          msg.Key,
		Duration:     d,
		Reason:       reason,
		Source:       "flood",
		Announcement: fmt.Sprintf(e.t("flood_mute_announce"), Mention(msg.Key.UserID), FormatDuration(d)),
	})
	logger.Debugf("Flood punishment for %s: %s", msg.Key, outcome)

	e.policy.ResetIfMaxed(ctx, msg.Key, count)
	return nil
}

// HandleMemberJoin restores a timed mute that was still running when the member left.
func (e *Engine) HandleMemberJoin(ctx context.Context, key models.MemberKey) error {
	return e.scheduler.RestoreOnRejoin(ctx, key)
}

// Warn issues a manual warning and applies the punishment table.
func (e *Engine) Warn(ctx context.Context, key models.MemberKey, moderator Actor, reason string) (int, error) {
	unlock := e.locks.Lock(key)
	defer unlock()

	count, err := e.addWarning(ctx, key, moderator.String(), reason, "", "manual")
	if err != nil {
		return 0, err
	}
	e.policy.Apply(ctx, PunishmentRequest{Key: key, Count: count, Reason: reason})
	return count, nil
}

// Unwarn clears every warning of the member.
func (e *Engine) Unwarn(ctx context.Context, key models.MemberKey, moderator Actor) error {
	unlock := e.locks.Lock(key)
	defer unlock()

	if err := e.ledger.Clear(ctx, key); err != nil {
		return err
	}
	e.log.Record(ctx, key.CommunityID, LogEntry{
		Action:    e.t("action_unwarn"),
		UserID:    key.UserID,
		Moderator: moderator.String(),
		Reason:    e.t("reason_unwarn"),
	})
	return nil
}

func (e *Engine) WarningCount(ctx context.Context, key models.MemberKey) (int, error) {
	return e.ledger.Count(ctx, key)
}

// prepareMute runs the checks shared by Mute and TempMute.
func (e *Engine) prepareMute(ctx context.Context, key models.MemberKey, moderator Actor) error {
	if moderator.ID == key.UserID {
		return ErrSelfMute
	}
	if _, err := e.membership.EnsureMuteRole(ctx, key.CommunityID); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("ensure_mute_role").Inc()
		return fmt.Errorf("%w: %v", ErrMuteRoleUnavailable, err)
	}
	muted, err := e.membership.HasMuteRole(ctx, key)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("has_mute_role").Inc()
		return fmt.Errorf("check mute of %s: %w", key, err)
	}
	if muted {
		return ErrAlreadyMuted
	}
	return nil
}

// Mute restricts the member until a moderator lifts it. No record is kept.
func (e *Engine) Mute(ctx context.Context, key models.MemberKey, moderator Actor, reason string) error {
	unlock := e.locks.Lock(key)
	defer unlock()

	if err := e.prepareMute(ctx, key, moderator); err != nil {
		return err
	}
	if err := e.membership.GrantMuteRole(ctx, key, reason); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("grant_mute_role").Inc()
		return fmt.Errorf("mute %s: %w", key, err)
	}
	metrics.MutesGranted.WithLabelValues("manual").Inc()

	notify(ctx, e.messenger, key.UserID, fmt.Sprintf(e.t("manual_mute_dm"),
		key.CommunityID, html.EscapeString(moderator.String()), html.EscapeString(reason)))
	e.log.Record(ctx, key.CommunityID, LogEntry{
		Action:    e.t("action_manual_mute"),
		UserID:    key.UserID,
		Moderator: moderator.String(),
		Reason:    reason,
	})
	return nil
}

// TempMute mutes the member for duration (see ParseDuration) and returns the expiry.
func (e *Engine) TempMute(ctx context.Context, key models.MemberKey, moderator Actor, duration, reason string) (time.Time, error) {
	d, err := ParseDuration(duration)
	if err != nil {
		return time.Time{}, err
	}

	unlock := e.locks.Lock(key)
	defer unlock()

	if err := e.prepareMute(ctx, key, moderator); err != nil {
		return time.Time{}, err
	}

	expiry := e.now().Add(d)
	if err := e.membership.GrantMuteRole(ctx, key, reason); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("grant_mute_role").Inc()
		return time.Time{}, fmt.Errorf("mute %s: %w", key, err)
	}
	metrics.MutesGranted.WithLabelValues("manual").Inc()

	if err := e.scheduler.Register(ctx, key, expiry); err != nil {
		logger.Errorf("Mute of %s will not be lifted automatically: %v", key, err)
	}

	notify(ctx, e.messenger, key.UserID, fmt.Sprintf(e.t("temp_mute_dm"),
		key.CommunityID, FormatDuration(d), html.EscapeString(reason), expiry.Format(time.RFC1123)))
	e.log.Record(ctx, key.CommunityID, LogEntry{
		Action:    e.t("action_temp_mute"),
		UserID:    key.UserID,
		Moderator: moderator.String(),
		Reason:    fmt.Sprintf("%s | %s", reason, FormatDuration(d)),
	})
	return expiry, nil
}

// Unmute lifts a mute of either kind and drops its record.
func (e *Engine) Unmute(ctx context.Context, key models.MemberKey, moderator Actor, reason string) error {
	unlock := e.locks.Lock(key)
	defer unlock()

	muted, err := e.membership.HasMuteRole(ctx, key)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("has_mute_role").Inc()
		return fmt.Errorf("check mute of %s: %w", key, err)
	}
	if !muted {
		return ErrNotMuted
	}
	if err := e.membership.RevokeMuteRole(ctx, key, reason); err != nil {
		metrics.CollaboratorFailures.WithLabelValues("revoke_mute_role").Inc()
		return fmt.Errorf("unmute %s: %w", key, err)
	}
	metrics.MutesLifted.WithLabelValues("manual").Inc()

	if err := e.scheduler.Unregister(ctx, key); err != nil {
		logger.Errorf("%v", err)
	}

	notify(ctx, e.messenger, key.UserID, fmt.Sprintf(e.t("unmute_dm"),
		key.CommunityID, html.EscapeString(moderator.String()), html.EscapeString(reason)))
	e.log.Record(ctx, key.CommunityID, LogEntry{
		Action:    e.t("action_unmute"),
		UserID:    key.UserID,
		Moderator: moderator.String(),
		Reason:    reason,
	})
	return nil
}

// ListMuted returns the timed mutes of a community, soonest expiry first.
func (e *Engine) ListMuted(_ context.Context, communityID int64) ([]models.MuteRecord, error) {
	return e.scheduler.List(communityID), nil
}

func (e *Engine) MuteInfo(ctx context.Context, key models.MemberKey) (MuteStatus, error) {
	muted, err := e.membership.HasMuteRole(ctx, key)
	if err != nil {
		return MuteStatus{}, fmt.Errorf("check mute of %s: %w", key, err)
	}
	if !muted {
		return MuteStatus{}, ErrNotMuted
	}
	if expiry, ok := e.scheduler.Get(key); ok {
		return MuteStatus{Timed: true, UnmuteAt: expiry}, nil
	}
	return MuteStatus{}, nil
}

func (e *Engine) SetLogChannel(ctx context.Context, communityID, channelID int64) error {
	return e.settings.SetLogChannel(ctx, communityID, channelID)
}

// AddAllowedDomain returns the normalized domain that was stored.
func (e *Engine) AddAllowedDomain(ctx context.Context, communityID int64, raw string) (string, error) {
	return e.settings.AllowDomain(ctx, communityID, raw)
}

// AddBlockedDomain returns the normalized domain that was stored.
func (e *Engine) AddBlockedDomain(ctx context.Context, communityID int64, raw string) (string, error) {
	return e.settings.BlockDomain(ctx, communityID, raw)
}

// DomainLists returns a copy of the community settings, log channel included.
func (e *Engine) DomainLists(ctx context.Context, communityID int64) (models.CommunitySettings, error) {
	s, err := e.settings.Get(ctx, communityID)
	if err != nil {
		return models.CommunitySettings{}, err
	}
	return *s, nil
}

// IsUserError reports whether err is caused by moderator input rather than a failure.
func IsUserError(err error) bool {
	for _, target := range []error{ErrInvalidDuration, ErrAlreadyMuted, ErrNotMuted, ErrSelfMute, domain.ErrEmptyDomain} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// keyedMutex serialises work per member.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[models.MemberKey]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key models.MemberKey) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[models.MemberKey]*keyedEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
