package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-automod/internal/config"
	"tg-automod/internal/handler"
	"tg-automod/internal/models"
)

func TestWebhookPath(t *testing.T) {
	path, err := webhookPath(config.WebhookConfig{Endpoint: "https://bot.example.org/tg/hook"})
	require.NoError(t, err)
	assert.Equal(t, "/tg/hook", path)

	path, err = webhookPath(config.WebhookConfig{Endpoint: "https://bot.example.org"})
	require.NoError(t, err)
	assert.Equal(t, "/webhook", path)

	path, err = webhookPath(config.WebhookConfig{Endpoint: "http://10.0.0.1:8443/hook", CertFile: "c.pem", KeyFile: "k.pem"})
	require.NoError(t, err)
	assert.Equal(t, "/hook", path)

	_, err = webhookPath(config.WebhookConfig{})
	assert.Error(t, err)

	_, err = webhookPath(config.WebhookConfig{Endpoint: "http://bot.example.org/hook"})
	assert.Error(t, err, "plain http needs a certificate")
}

func TestSecretToken(t *testing.T) {
	assert.Equal(t, "secure_webhook_token_abcdef", secretToken("123456:XYZabcdef"))
	assert.Equal(t, "secure_webhook_token_abc", secretToken("abc"))
}

func TestLocalizedCommands(t *testing.T) {
	commands := localizedCommands(models.LangRussian)
	require.Len(t, commands, len(handler.Commands()))
	for i, cmd := range handler.Commands() {
		assert.Equal(t, cmd.Command, commands[i].Command)
		assert.Equal(t, models.Translations[models.LangRussian][cmd.DescKey], commands[i].Description)
	}
}
