package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-automod/internal/domain"
	"tg-automod/internal/models"
)

func testOptions() Options {
	return Options{
		CommandPrefixes: []string{"!", "/", ".", "?", "-"},
		CapsMinLetters:  10,
		CapsRatio:       0.7,
		FloodWindow:     5 * time.Second,
		FloodThreshold:  3,
	}
}

func TestIsCapsAbuse(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  bool
	}{
		{text: "ABCDEFGHIJ", out: true},
		{text: "ABCDEFGHI", out: false},
		{text: "ABCDEFGHI!!!! 12345", out: false},
		{text: "HELLO WORLD how", out: true},    // 10 of 13
		{text: "HELLO WORLD howdy", out: false}, // 10 of 15
		{text: "ПРИВЕТ ВСЕМ ДРУЗЬЯ", out: true},
		{text: "quiet lowercase text", out: false},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, IsCapsAbuse(fix.text, 10, 0.7), fix.text)
	}
}

func TestEvaluateOrder(t *testing.T) {
	e := NewEngine(testOptions())
	key := models.MemberKey{CommunityID: -100, UserID: 7}
	lists := domain.Lists{Allowed: []string{"youtube.com"}, Blocked: []string{"t.me"}}
	now := time.Unix(1_700_000_000, 0)

	// link policy wins over caps
	v := e.Evaluate(Message{Key: key, Text: "JOIN HTTPS://T.ME/SPAMCHANNEL NOW", SentAt: now}, lists)
	require.NotNil(t, v)
	assert.Equal(t, ReasonLinks, v.Reason)
	assert.Equal(t, []string{"t.me"}, v.Domains)
	assert.Equal(t, "t.me", v.Detail)

	v = e.Evaluate(Message{Key: key, Text: "STOP SHOUTING PLEASE", SentAt: now}, lists)
	require.NotNil(t, v)
	assert.Equal(t, ReasonCaps, v.Reason)

	v = e.Evaluate(Message{Key: key, Text: "https://youtube.com/watch?v=1", SentAt: now}, lists)
	assert.Nil(t, v)
}

func TestEvaluateBypass(t *testing.T) {
	e := NewEngine(testOptions())
	key := models.MemberKey{CommunityID: -100, UserID: 7}
	lists := domain.Lists{Blocked: []string{"t.me"}}
	now := time.Unix(1_700_000_000, 0)

	assert.Nil(t, e.Evaluate(Message{Key: key, Text: "https://t.me/x", Exempt: true, SentAt: now}, lists))
	assert.Nil(t, e.Evaluate(Message{Key: key, Text: "/warn https://t.me/x", SentAt: now}, lists))
	assert.Nil(t, e.Evaluate(Message{Key: key, Text: "!SHOUTING COMMAND TEXT", SentAt: now}, lists))
}

func TestEvaluateFlood(t *testing.T) {
	e := NewEngine(testOptions())
	key := models.MemberKey{CommunityID: -100, UserID: 7}
	other := models.MemberKey{CommunityID: -100, UserID: 8}
	now := time.Unix(1_700_000_000, 0)

	assert.Nil(t, e.Evaluate(Message{Key: key, Text: "hi", SentAt: now}, domain.Lists{}))
	assert.Nil(t, e.Evaluate(Message{Key: key, Text: "hi", SentAt: now.Add(time.Second)}, domain.Lists{}))
	assert.Nil(t, e.Evaluate(Message{Key: other, Text: "hi", SentAt: now.Add(time.Second)}, domain.Lists{}))

	v := e.Evaluate(Message{Key: key, Text: "hi", SentAt: now.Add(2 * time.Second)}, domain.Lists{})
	require.NotNil(t, v)
	assert.Equal(t, ReasonFlood, v.Reason)

	// once the burst slides out of the window the member is clean again
	assert.Nil(t, e.Evaluate(Message{Key: key, Text: "hi", SentAt: now.Add(20 * time.Second)}, domain.Lists{}))
}
