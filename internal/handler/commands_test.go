package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-automod/internal/config"
	"tg-automod/internal/domain"
	"tg-automod/internal/models"
	"tg-automod/internal/service"
)

const (
	chatID  = int64(-100123)
	modID   = int64(1)
	adminID = int64(2)
	userID  = int64(42)
)

type stubMembership struct {
	mu    sync.Mutex
	muted map[models.MemberKey]bool
}

func (s *stubMembership) EnsureMuteRole(_ context.Context, communityID int64) (service.RoleHandle, error) {
	return service.RoleHandle{CommunityID: communityID, Name: telego.MemberStatusRestricted}, nil
}

func (s *stubMembership) GrantMuteRole(_ context.Context, key models.MemberKey, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted[key] = true
	return nil
}

func (s *stubMembership) RevokeMuteRole(_ context.Context, key models.MemberKey, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.muted, key)
	return nil
}

func (s *stubMembership) HasMuteRole(_ context.Context, key models.MemberKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted[key], nil
}

type stubMessenger struct{}

func (stubMessenger) DeleteMessage(context.Context, int64, int) error        { return nil }
func (stubMessenger) SendDirectMessage(context.Context, int64, string) error { return nil }
func (stubMessenger) SendMessage(context.Context, int64, string) error       { return nil }

func newTestHandler(t *testing.T) (*Handler, *stubMembership) {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Moderation.Language = models.LangEnglish
	cfg.Moderation.RejoinDelay = 0

	membership := &stubMembership{muted: make(map[models.MemberKey]bool)}
	stores := service.NewStores(cfg, nil)
	engine := service.NewEngine(cfg.Moderation, stores.Deps(membership, stubMessenger{}))

	h := New(engine, nil, models.LangEnglish)
	h.admins.Put(chatID, map[int64]struct{}{modID: {}, adminID: {}})
	return h, membership
}

func groupMessage(text string) telego.Message {
	return telego.Message{
		MessageID: 10,
		Chat:      telego.Chat{ID: chatID, Type: "supergroup"},
		From:      &telego.User{ID: modID, FirstName: "Mod", Username: "mod"},
		Text:      text,
	}
}

func request(text string) commandRequest {
	message := groupMessage(text)
	call, _ := parseCommand(text)
	return commandRequest{message: message, args: call.args, actor: actorOf(*message.From)}
}

func TestParseCommand(t *testing.T) {
	call, ok := parseCommand("/TempMute@AutomodBot 42  10m spamming links")
	require.True(t, ok)
	assert.Equal(t, "tempmute", call.name)
	assert.Equal(t, "AutomodBot", call.mention)
	assert.Equal(t, []string{"42", "10m", "spamming", "links"}, call.args)

	call, ok = parseCommand("/help")
	require.True(t, ok)
	assert.Equal(t, "help", call.name)
	assert.Empty(t, call.args)

	for _, text := range []string{"", "hello", "/", "/@bot", "!warn 42"} {
		_, ok := parseCommand(text)
		assert.False(t, ok, text)
	}
}

func TestResolveTarget(t *testing.T) {
	message := groupMessage("/warn spam")
	message.ReplyToMessage = &telego.Message{From: &telego.User{ID: userID, FirstName: "Eve"}}

	target, rest, err := resolveTarget(message, []string{"spam"})
	require.NoError(t, err)
	assert.Equal(t, userID, target.id)
	assert.Contains(t, target.display, "Eve")
	assert.Equal(t, []string{"spam"}, rest)

	target, rest, err = resolveTarget(groupMessage("/warn 42 spam"), []string{"42", "spam"})
	require.NoError(t, err)
	assert.Equal(t, userID, target.id)
	assert.Equal(t, service.Mention(userID), target.display)
	assert.Equal(t, []string{"spam"}, rest)

	_, _, err = resolveTarget(groupMessage("/warn spam"), []string{"spam"})
	assert.ErrorIs(t, err, errTargetRequired)

	_, _, err = resolveTarget(groupMessage("/warn -5"), []string{"-5"})
	assert.ErrorIs(t, err, errTargetRequired)
}

func TestErrorKey(t *testing.T) {
	cases := []struct {
		err error
		key string
	}{
		{service.ErrInvalidDuration, "invalid_duration"},
		{service.ErrAlreadyMuted, "already_muted"},
		{fmt.Errorf("wrapped: %w", service.ErrNotMuted), "not_muted"},
		{service.ErrSelfMute, "cannot_mute_self"},
		{fmt.Errorf("%w: no rights", service.ErrMuteRoleUnavailable), "mute_role_unavailable"},
		{domain.ErrEmptyDomain, "domain_empty"},
		{errTargetRequired, "target_required"},
		{errTargetIsAdmin, "cannot_mute_admin"},
		{errors.New("telegram: Bad Request: chat not found"), "operation_failed"},
	}
	for _, c := range cases {
		assert.Equal(t, c.key, errorKey(c.err), c.err.Error())
	}
}

func TestIsRejection(t *testing.T) {
	assert.True(t, isRejection(fmt.Errorf("wrapped: %w", service.ErrAlreadyMuted)))
	assert.True(t, isRejection(domain.ErrEmptyDomain))
	assert.True(t, isRejection(errTargetRequired))
	assert.True(t, isRejection(errTargetIsAdmin))
	assert.False(t, isRejection(service.ErrMuteRoleUnavailable))
	assert.False(t, isRejection(errors.New("telegram: Bad Request: chat not found")))
}

func TestEveryCommandHasTranslations(t *testing.T) {
	for _, c := range Commands() {
		for _, lang := range []string{models.LangEnglish, models.LangRussian, models.LangSimplifiedChinese} {
			_, ok := models.Translations[lang][c.DescKey]
			assert.True(t, ok, "%s/%s", lang, c.DescKey)
		}
	}
}

func TestWarnAndWarnings(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()

	text, err := h.cmdWarn(ctx, request("/warn 42 rude"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(h.t("warn_issued"), service.Mention(userID), 1, h.engine.MaxWarnings()), text)

	text, err = h.cmdWarnings(ctx, request("/warnings 42"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(h.t("warnings_count"), service.Mention(userID), 1, h.engine.MaxWarnings()), text)

	_, err = h.cmdUnwarn(ctx, request("/unwarn 42"))
	require.NoError(t, err)
	count, err := h.engine.WarningCount(ctx, models.MemberKey{CommunityID: chatID, UserID: userID})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMuteRefusesAdministratorsAndSelf(t *testing.T) {
	h, membership := newTestHandler(t)
	ctx := context.Background()

	_, err := h.cmdMute(ctx, request("/mute 2"))
	assert.ErrorIs(t, err, errTargetIsAdmin)

	_, err = h.cmdMute(ctx, request("/mute 1"))
	assert.ErrorIs(t, err, service.ErrSelfMute)

	assert.Empty(t, membership.muted)
}

func TestTempMuteFlow(t *testing.T) {
	h, membership := newTestHandler(t)
	ctx := context.Background()
	key := models.MemberKey{CommunityID: chatID, UserID: userID}

	text, err := h.cmdTempMute(ctx, request("/tempmute 42"))
	require.NoError(t, err)
	assert.Equal(t, h.t("usage_tempmute"), text)

	_, err = h.cmdTempMute(ctx, request("/tempmute 42 soon"))
	assert.ErrorIs(t, err, service.ErrInvalidDuration)

	text, err = h.cmdTempMute(ctx, request("/tempmute 42 10m flood"))
	require.NoError(t, err)
	assert.Contains(t, text, "10m")
	assert.True(t, membership.muted[key])

	_, err = h.cmdMute(ctx, request("/mute 42"))
	assert.ErrorIs(t, err, service.ErrAlreadyMuted)

	text, err = h.cmdMuted(ctx, request("/muted"))
	require.NoError(t, err)
	assert.Contains(t, text, service.Mention(userID))

	text, err = h.cmdMuteInfo(ctx, request("/muteinfo 42"))
	require.NoError(t, err)
	assert.Contains(t, text, service.Mention(userID))

	_, err = h.cmdUnmute(ctx, request("/unmute 42"))
	require.NoError(t, err)
	assert.False(t, membership.muted[key])

	_, err = h.cmdMuteInfo(ctx, request("/muteinfo 42"))
	assert.ErrorIs(t, err, service.ErrNotMuted)

	text, err = h.cmdMuted(ctx, request("/muted"))
	require.NoError(t, err)
	assert.Equal(t, h.t("muted_list_empty"), text)
}

func TestDomainCommands(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()

	text, err := h.cmdAddDomain(ctx, request("/adddomain https://Example.org/path"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(h.t("domain_allowed"), "example.org"), text)

	_, err = h.cmdBlockDomain(ctx, request("/blockdomain"))
	assert.ErrorIs(t, err, domain.ErrEmptyDomain)

	text, err = h.cmdSetLog(ctx, request("/setlog abc"))
	require.NoError(t, err)
	assert.Equal(t, h.t("usage_setlog"), text)

	_, err = h.cmdSetLog(ctx, request("/setlog -100999"))
	require.NoError(t, err)

	text, err = h.cmdDomains(ctx, request("/domains"))
	require.NoError(t, err)
	assert.Contains(t, text, "example.org")
	assert.Contains(t, text, "<code>-100999</code>")
}

func TestRenderMutedTruncates(t *testing.T) {
	h := New(nil, nil, models.LangEnglish)
	expiry := time.Unix(1_700_000_000, 0)

	records := make([]models.MuteRecord, maxListedMutes+3)
	for i := range records {
		records[i] = models.MuteRecord{CommunityID: chatID, UserID: int64(i + 1), UnmuteAt: expiry}
	}
	text := h.renderMuted(records)
	assert.Contains(t, text, fmt.Sprintf(h.t("muted_list_more"), 3))
	assert.NotContains(t, text, service.Mention(int64(maxListedMutes+1)))
}

func TestHelpListsEveryCommand(t *testing.T) {
	h := New(nil, nil, models.LangEnglish)
	text, err := h.cmdHelp(context.Background(), commandRequest{})
	require.NoError(t, err)
	for _, c := range Commands() {
		assert.Contains(t, text, "/"+c.Command)
	}
}
