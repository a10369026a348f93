package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-automod/internal/config"
	"tg-automod/internal/handler"
	"tg-automod/internal/logger"
	"tg-automod/internal/models"
)

// BotService represents the Telegram bot service
type BotService struct {
	Bot     *telego.Bot
	Handler *th.BotHandler
}

// Start runs the update loop; it blocks until Stop is called.
func (b *BotService) Start() {
	b.Handler.Start()
}

func (b *BotService) Stop() {
	b.Handler.Stop()
}

// telegoLogger forwards telego's errors to the application log.
type telegoLogger struct{}

func (telegoLogger) Debugf(string, ...any) {}

func (telegoLogger) Errorf(format string, args ...any) {
	logger.Errorf("telego: "+format, args...)
}

// New creates the bot client and checks the token against the API.
func New(ctx context.Context, cfg *config.Config) (*telego.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	option := telego.WithLogger(telegoLogger{})
	if strings.EqualFold(cfg.Logger.Level, "DEBUG") {
		option = telego.WithDefaultDebugLogger()
	}
	bot, err := telego.NewBot(cfg.Bot.Token, option)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	botUser, err := bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	logger.Infof("Authorized on account %s", botUser.Username)
	return bot, nil
}

// Initialize publishes the command menu and sets up the webhook. status feeds the debug endpoint.
func Initialize(ctx context.Context, cfg *config.Config, bot *telego.Bot, status func() string) (*BotService, *WebhookServer, error) {
	setLocalizedCommands(ctx, bot, cfg.Moderation.Language)

	// Delete any existing webhook
	if err := bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{}); err != nil {
		return nil, nil, fmt.Errorf("failed to delete existing webhook: %w", err)
	}

	bh, server, err := SetupWebhook(ctx, bot, cfg.Bot.Webhook, secretToken(cfg.Bot.Token), status)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup webhook: %w", err)
	}

	return &BotService{
		Bot:     bot,
		Handler: bh,
	}, server, nil
}

// secretToken derives the webhook secret from the bot token.
func secretToken(token string) string {
	suffix := token
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return "secure_webhook_token_" + suffix
}

// telegramLanguages maps the supported languages to Telegram language codes.
var telegramLanguages = map[string]string{
	models.LangEnglish:           "en",
	models.LangRussian:           "ru",
	models.LangSimplifiedChinese: "zh",
}

func localizedCommands(lang string) []telego.BotCommand {
	var commands []telego.BotCommand
	for _, cmd := range handler.Commands() {
		commands = append(commands, telego.BotCommand{
			Command:     cmd.Command,
			Description: models.GetTranslation(lang, cmd.DescKey),
		})
	}
	return commands
}

// setLocalizedCommands sets the command menu for every supported language and uses
// defaultLang for clients in any other language.
func setLocalizedCommands(ctx context.Context, bot *telego.Bot, defaultLang string) {
	for lang, telegramLang := range telegramLanguages {
		err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
			Commands:     localizedCommands(lang),
			LanguageCode: telegramLang,
		})
		if err != nil {
			logger.Warningf("Failed to set bot commands for %s: %v", lang, err)
		}
	}

	err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: localizedCommands(defaultLang),
	})
	if err != nil {
		logger.Warningf("Failed to set default bot commands: %v", err)
	}
}
