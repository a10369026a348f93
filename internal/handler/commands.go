package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"

	"tg-automod/internal/domain"
	"tg-automod/internal/logger"
	"tg-automod/internal/models"
	"tg-automod/internal/service"
)

const (
	timeLayout     = "2006-01-02 15:04:05 MST"
	maxListedMutes = 20
)

// CommandInfo describes a bot command for the command menu.
type CommandInfo struct {
	Command string
	DescKey string
}

// commandCall is a parsed "/name@bot arg..." message.
type commandCall struct {
	name    string
	mention string
	args    []string
}

// commandRequest carries a command invocation to its implementation.
type commandRequest struct {
	message telego.Message
	args    []string
	actor   service.Actor
}

type command struct {
	CommandInfo
	// public commands can be used by anyone, anywhere.
	public bool
	run    func(h *Handler, ctx context.Context, req commandRequest) (string, error)
}

var commands []command

func init() {
	commands = []command{
		{CommandInfo: CommandInfo{"help", "cmd_desc_help"}, public: true, run: (*Handler).cmdHelp},
		{CommandInfo: CommandInfo{"warn", "cmd_desc_warn"}, run: (*Handler).cmdWarn},
		{CommandInfo: CommandInfo{"unwarn", "cmd_desc_unwarn"}, run: (*Handler).cmdUnwarn},
		{CommandInfo: CommandInfo{"warnings", "cmd_desc_warnings"}, run: (*Handler).cmdWarnings},
		{CommandInfo: CommandInfo{"mute", "cmd_desc_mute"}, run: (*Handler).cmdMute},
		{CommandInfo: CommandInfo{"tempmute", "cmd_desc_tempmute"}, run: (*Handler).cmdTempMute},
		{CommandInfo: CommandInfo{"unmute", "cmd_desc_unmute"}, run: (*Handler).cmdUnmute},
		{CommandInfo: CommandInfo{"muted", "cmd_desc_muted"}, run: (*Handler).cmdMuted},
		{CommandInfo: CommandInfo{"muteinfo", "cmd_desc_muteinfo"}, run: (*Handler).cmdMuteInfo},
		{CommandInfo: CommandInfo{"setlog", "cmd_desc_setlog"}, run: (*Handler).cmdSetLog},
		{CommandInfo: CommandInfo{"adddomain", "cmd_desc_adddomain"}, run: (*Handler).cmdAddDomain},
		{CommandInfo: CommandInfo{"blockdomain", "cmd_desc_blockdomain"}, run: (*Handler).cmdBlockDomain},
		{CommandInfo: CommandInfo{"domains", "cmd_desc_domains"}, run: (*Handler).cmdDomains},
	}
}

// Commands lists the commands the handler understands, in menu order.
func Commands() []CommandInfo {
	infos := make([]CommandInfo, 0, len(commands))
	for _, c := range commands {
		infos = append(infos, c.CommandInfo)
	}
	return infos
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.Command == name {
			return c, true
		}
	}
	return command{}, false
}

// parseCommand splits "/name@bot arg1 arg2" into its parts.
func parseCommand(text string) (commandCall, bool) {
	if !strings.HasPrefix(text, "/") {
		return commandCall{}, false
	}
	fields := strings.Fields(text)
	name, mention, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	if name == "" {
		return commandCall{}, false
	}
	return commandCall{name: strings.ToLower(name), mention: mention, args: fields[1:]}, true
}

// handleCommand runs a known command. handled is false when the message is not one of ours.
func (h *Handler) handleCommand(ctx context.Context, message telego.Message, call commandCall) (handled bool, err error) {
	cmd, ok := lookupCommand(call.name)
	if !ok {
		return false, nil
	}
	if call.mention != "" {
		me, err := h.gateway.Self(ctx)
		if err != nil || !strings.EqualFold(me.Username, call.mention) {
			return false, nil
		}
	}
	incrementCounter(&totalCommands)

	if !cmd.public {
		if !isGroup(message.Chat) {
			return true, h.reply(ctx, message, h.t("group_only"))
		}
		isAdmin, err := h.isAdmin(ctx, message.Chat.ID, message.From.ID)
		if err != nil || !isAdmin {
			if err != nil {
				logger.Warningf("Cannot check admin status of %d in %d: %v", message.From.ID, message.Chat.ID, err)
			}
			return true, h.reply(ctx, message, h.t("user_not_admin"))
		}
	}

	text, err := cmd.run(h, ctx, commandRequest{
		message: message,
		args:    call.args,
		actor:   actorOf(*message.From),
	})
	if err != nil {
		if isRejection(err) {
			logger.Debugf("/%s in %d rejected: %v", cmd.Command, message.Chat.ID, err)
		} else {
			logger.Errorf("/%s in %d failed: %v", cmd.Command, message.Chat.ID, err)
		}
		text = h.t(errorKey(err))
	}
	return true, h.reply(ctx, message, text)
}

// errorKey maps an engine error to the translation key shown to the moderator.
func errorKey(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, service.ErrAlreadyMuted):
		return "already_muted"
	case errors.Is(err, service.ErrNotMuted):
		return "not_muted"
	case errors.Is(err, service.ErrSelfMute):
		return "cannot_mute_self"
	case errors.Is(err, service.ErrMuteRoleUnavailable):
		return "mute_role_unavailable"
	case errors.Is(err, domain.ErrEmptyDomain):
		return "domain_empty"
	case errors.Is(err, errTargetRequired):
		return "target_required"
	case errors.Is(err, errTargetIsAdmin):
		return "cannot_mute_admin"
	default:
		return "operation_failed"
	}
}

// isRejection reports whether err refuses bad moderator input instead of reporting a failure.
func isRejection(err error) bool {
	return service.IsUserError(err) || errors.Is(err, errTargetRequired) || errors.Is(err, errTargetIsAdmin)
}

var (
	errTargetRequired = errors.New("no target member")
	errTargetIsAdmin  = errors.New("target is an administrator")
)

// target is the member a moderation command acts on.
type target struct {
	id      int64
	display string
}

// resolveTarget takes the target from the replied-to message, or from a leading numeric
// user ID. It returns the remaining arguments.
func resolveTarget(message telego.Message, args []string) (target, []string, error) {
	if reply := message.ReplyToMessage; reply != nil && reply.From != nil {
		return target{id: reply.From.ID, display: linkedUserName(*reply.From)}, args, nil
	}
	if len(args) > 0 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil && id > 0 {
			return target{id: id, display: service.Mention(id)}, args[1:], nil
		}
	}
	return target{}, args, errTargetRequired
}

func (h *Handler) reasonOf(args []string) string {
	if reason := strings.TrimSpace(strings.Join(args, " ")); reason != "" {
		return reason
	}
	return h.t("default_reason")
}

func keyOf(message telego.Message, t target) models.MemberKey {
	return models.MemberKey{CommunityID: message.Chat.ID, UserID: t.id}
}

func (h *Handler) cmdHelp(_ context.Context, _ commandRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\n%s\n", h.t("help_title"), h.t("help_description"), h.t("help_commands"))
	for _, c := range commands {
		fmt.Fprintf(&b, "/%s - %s\n", c.Command, h.t(c.DescKey))
	}
	fmt.Fprintf(&b, "\n<i>%s</i>", h.t("help_note"))
	return b.String(), nil
}

func (h *Handler) cmdWarn(ctx context.Context, req commandRequest) (string, error) {
	t, rest, err := resolveTarget(req.message, req.args)
	if err != nil {
		return "", err
	}
	count, err := h.engine.Warn(ctx, keyOf(req.message, t), req.actor, h.reasonOf(rest))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(h.t("warn_issued"), t.display, count, h.engine.MaxWarnings()), nil
}

func (h *Handler) cmdUnwarn(ctx context.Context, req commandRequest) (string, error) {
	t, _, err := resolveTarget(req.message, req.args)
	if err != nil {
		return "", err
	}
	if err := h.engine.Unwarn(ctx, keyOf(req.message, t), req.actor); err != nil {
		return "", err
	}
	return fmt.Sprintf(h.t("warnings_cleared"), t.display), nil
}

func (h *Handler) cmdWarnings(ctx context.Context, req commandRequest) (string, error) {
	t, _, err := resolveTarget(req.message, req.args)
	if err != nil {
		return "", err
	}
	count, err := h.engine.WarningCount(ctx, keyOf(req.message, t))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(h.t("warnings_count"), t.display, count, h.engine.MaxWarnings()), nil
}

// muteTarget resolves the target of a mute command and refuses administrators.
func (h *Handler) muteTarget(ctx context.Context, req commandRequest) (target, []string, error) {
	t, rest, err := resolveTarget(req.message, req.args)
	if err != nil {
		return t, rest, err
	}
	if t.id == req.actor.ID {
		return t, rest, service.ErrSelfMute
	}
	isAdmin, err := h.isAdmin(ctx, req.message.Chat.ID, t.id)
	if err != nil {
		return t, rest, err
	}
	if isAdmin {
		return t, rest, errTargetIsAdmin
	}
	return t, rest, nil
}

func (h *Handler) cmdMute(ctx context.Context, req commandRequest) (string, error) {
	t, rest, err := h.muteTarget(ctx, req)
	if err != nil {
		return "", err
	}
	reason := h.reasonOf(rest)
	if err := h.engine.Mute(ctx, keyOf(req.message, t), req.actor, reason); err != nil {
		return "", err
	}
	return fmt.Sprintf(h.t("muted_reply"), t.display, html.EscapeString(reason)), nil
}

func (h *Handler) cmdTempMute(ctx context.Context, req commandRequest) (string, error) {
	t, rest, err := h.muteTarget(ctx, req)
	if err != nil {
		return "", err
	}
	if len(rest) == 0 {
		return h.t("usage_tempmute"), nil
	}
	d, err := service.ParseDuration(rest[0])
	if err != nil {
		return "", err
	}
	reason := h.reasonOf(rest[1:])
	expiry, err := h.engine.TempMute(ctx, keyOf(req.message, t), req.actor, rest[0], reason)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(h.t("tempmuted_reply"), t.display, service.FormatDuration(d),
		html.EscapeString(reason), expiry.Format(timeLayout)), nil
}

func (h *Handler) cmdUnmute(ctx context.Context, req commandRequest) (string, error) {
	t, rest, err := resolveTarget(req.message, req.args)
	if err != nil {
		return "", err
	}
	reason := h.reasonOf(rest)
	if err := h.engine.Unmute(ctx, keyOf(req.message, t), req.actor, reason); err != nil {
		return "", err
	}
	return fmt.Sprintf(h.t("unmuted_reply"), t.display, html.EscapeString(reason)), nil
}

func (h *Handler) cmdMuted(ctx context.Context, req commandRequest) (string, error) {
	records, err := h.engine.ListMuted(ctx, req.message.Chat.ID)
	if err != nil {
		return "", err
	}
	return h.renderMuted(records), nil
}

func (h *Handler) renderMuted(records []models.MuteRecord) string {
	if len(records) == 0 {
		return h.t("muted_list_empty")
	}
	lines := []string{h.t("muted_list_title")}
	for i, r := range records {
		if i == maxListedMutes {
			lines = append(lines, fmt.Sprintf(h.t("muted_list_more"), len(records)-maxListedMutes))
			break
		}
		lines = append(lines, fmt.Sprintf(h.t("muted_list_item"), i+1, service.Mention(r.UserID), r.UnmuteAt.Format(timeLayout)))
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) cmdMuteInfo(ctx context.Context, req commandRequest) (string, error) {
	t, _, err := resolveTarget(req.message, req.args)
	if err != nil {
		return "", err
	}
	status, err := h.engine.MuteInfo(ctx, keyOf(req.message, t))
	if err != nil {
		return "", err
	}
	if status.Timed {
		return fmt.Sprintf(h.t("muteinfo_timed"), t.display, status.UnmuteAt.Format(timeLayout)), nil
	}
	return fmt.Sprintf(h.t("muteinfo_permanent"), t.display), nil
}

func (h *Handler) cmdSetLog(ctx context.Context, req commandRequest) (string, error) {
	if len(req.args) == 0 {
		return h.t("usage_setlog"), nil
	}
	channelID, err := strconv.ParseInt(req.args[0], 10, 64)
	if err != nil {
		return h.t("usage_setlog"), nil
	}
	if err := h.engine.SetLogChannel(ctx, req.message.Chat.ID, channelID); err != nil {
		return "", err
	}
	return fmt.Sprintf(h.t("log_channel_set"), channelID), nil
}

func (h *Handler) cmdAddDomain(ctx context.Context, req commandRequest) (string, error) {
	stored, err := h.engine.AddAllowedDomain(ctx, req.message.Chat.ID, strings.Join(req.args, " "))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(h.t("domain_allowed"), html.EscapeString(stored)), nil
}

func (h *Handler) cmdBlockDomain(ctx context.Context, req commandRequest) (string, error) {
	stored, err := h.engine.AddBlockedDomain(ctx, req.message.Chat.ID, strings.Join(req.args, " "))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(h.t("domain_blocked"), html.EscapeString(stored)), nil
}

func (h *Handler) cmdDomains(ctx context.Context, req commandRequest) (string, error) {
	settings, err := h.engine.DomainLists(ctx, req.message.Chat.ID)
	if err != nil {
		return "", err
	}
	return h.renderSettings(settings), nil
}

func (h *Handler) renderSettings(s models.CommunitySettings) string {
	list := func(domains []string) string {
		if len(domains) == 0 {
			return h.t("none")
		}
		return html.EscapeString(strings.Join(domains, ", "))
	}
	logChannel := h.t("none")
	if s.LogChannelID != nil {
		logChannel = fmt.Sprintf("<code>%d</code>", *s.LogChannelID)
	}
	return strings.Join([]string{
		h.t("domains_title"),
		fmt.Sprintf(h.t("domains_allowed"), list(s.AllowedDomains)),
		fmt.Sprintf(h.t("domains_blocked"), list(s.BlockedDomains)),
		fmt.Sprintf(h.t("domains_log"), logChannel),
	}, "\n")
}
