package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg-automod/internal/config"
	"tg-automod/internal/models"
	"tg-automod/internal/storage"
)

var errPlatform = errors.New("platform unavailable")

type fakeMembership struct {
	mu        sync.Mutex
	muted     map[models.MemberKey]bool
	grants    []models.MemberKey
	revokes   []models.MemberKey
	ensureErr error
	grantErr  error
	hasErr    error
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{muted: make(map[models.MemberKey]bool)}
}

func (f *fakeMembership) EnsureMuteRole(_ context.Context, communityID int64) (RoleHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureErr != nil {
		return RoleHandle{}, f.ensureErr
	}
	return RoleHandle{CommunityID: communityID, Name: "muted"}, nil
}

func (f *fakeMembership) GrantMuteRole(_ context.Context, key models.MemberKey, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grantErr != nil {
		return f.grantErr
	}
	f.grants = append(f.grants, key)
	f.muted[key] = true
	return nil
}

func (f *fakeMembership) RevokeMuteRole(_ context.Context, key models.MemberKey, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokes = append(f.revokes, key)
	delete(f.muted, key)
	return nil
}

func (f *fakeMembership) HasMuteRole(_ context.Context, key models.MemberKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasErr != nil {
		return false, f.hasErr
	}
	return f.muted[key], nil
}

func (f *fakeMembership) grantCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.grants)
}

type fakeMessenger struct {
	mu      sync.Mutex
	deleted []int
	dms     map[int64][]string
	sent    map[int64][]string
	dmErr   error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{dms: make(map[int64][]string), sent: make(map[int64][]string)}
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) SendDirectMessage(_ context.Context, userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dmErr != nil {
		return f.dmErr
	}
	f.dms[userID] = append(f.dms[userID], text)
	return nil
}

func (f *fakeMessenger) SendMessage(_ context.Context, channelID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[channelID] = append(f.sent[channelID], text)
	return nil
}

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Unix(1_700_000_000, 0)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	engine     *Engine
	membership *fakeMembership
	messenger  *fakeMessenger
	clock      *clock
	dir        string
}

func testModeration() config.ModerationConfig {
	m := config.Default().Moderation
	m.Language = models.LangEnglish
	m.RejoinDelay = 0
	return m
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessIn(t, t.TempDir())
}

func newHarnessIn(t *testing.T, dir string) *harness {
	t.Helper()
	h := &harness{
		membership: newFakeMembership(),
		messenger:  newFakeMessenger(),
		clock:      newClock(),
		dir:        dir,
	}
	stores := Stores{
		Warnings: storage.NewWarningFile(dir),
		Mutes:    storage.NewMuteFile(dir),
		Settings: storage.NewSettingsFile(dir),
	}
	h.engine = NewEngine(testModeration(), stores.Deps(h.membership, h.messenger), WithClock(h.clock.Now))
	require.NoError(t, h.engine.scheduler.Load(context.Background()))
	return h
}

func (h *harness) send(key models.MemberKey, id int, text string) Message {
	return Message{Key: key, MessageID: id, Text: text, SentAt: h.clock.Now()}
}
