package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcerpt(t *testing.T) {
	short := strings.Repeat("a", 1024)
	assert.Equal(t, short, Excerpt(short))

	long := strings.Repeat("я", 1025)
	got := Excerpt(long)
	assert.Equal(t, strings.Repeat("я", 1000)+"...(+)", got)
}

func TestActionLogWithoutChannel(t *testing.T) {
	h := newHarness(t)
	h.engine.log.Record(context.Background(), -1, LogEntry{Action: "Warning", UserID: 5})
	assert.Empty(t, h.messenger.sent)
}

func TestActionLogEscapesAndTruncates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.engine.SetLogChannel(ctx, -1, -99))

	h.engine.log.Record(ctx, -1, LogEntry{
		Action:    "Warning",
		UserID:    5,
		Moderator: "<admin>",
		Message:   strings.Repeat("x", 2000),
	})

	require.Len(t, h.messenger.sent[-99], 1)
	text := h.messenger.sent[-99][0]
	assert.Contains(t, text, "&lt;admin&gt;")
	assert.Contains(t, text, "...(+)")
	assert.Contains(t, text, `tg://user?id=5`)
	assert.NotContains(t, text, "Reason:")
}
