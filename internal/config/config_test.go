package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	assert := assert.New(t)

	c := Default()
	m := c.Moderation
	assert.Equal(10, m.CapsMinLetters)
	assert.InDelta(0.7, m.CapsRatio, 1e-9)
	assert.Equal(5*time.Second, m.FloodWindow)
	assert.Equal(3, m.FloodThreshold)
	assert.Equal(m.FloodWindow, m.FloodDebounce)
	assert.Equal(5*time.Minute, m.FloodMuteDuration)
	assert.Equal(10*time.Minute, m.AutoMuteDuration)
	assert.Equal([]PunishmentConfig{{Warnings: 3, Action: "mute"}}, m.Punishments)
	assert.Contains(m.DefaultBlockedDomains, "t.me")
	assert.Contains(m.DefaultAllowedDomains, "youtube.com")
	assert.Equal("data", c.Storage.DataDir)
	assert.False(c.Database.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
bot:
  token: "123:abc"
moderation:
  flood_window: 10s
  flood_threshold: 5
  punishments:
    - warnings: 4
      action: mute
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", c.Bot.Token)
	assert.Equal(t, 10*time.Second, c.Moderation.FloodWindow)
	assert.Equal(t, 10*time.Second, c.Moderation.FloodDebounce)
	assert.Equal(t, 5, c.Moderation.FloodThreshold)
	assert.Equal(t, []PunishmentConfig{{Warnings: 4, Action: "mute"}}, c.Moderation.Punishments)
	assert.Same(t, c, Get())
}

func TestLoadRejectsUnknownAction(t *testing.T) {
	path := writeConfig(t, `
moderation:
  punishments:
    - warnings: 2
      action: ban
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, `unknown punishment action "ban"`)
}

func TestLoadRequiresPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestExampleConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Moderation, c.Moderation)
	assert.Equal(t, "https://bot.example.org/webhook", c.Bot.Webhook.Endpoint)
	assert.Equal(t, "/metrics", c.Bot.Webhook.MetricsPath)
}
