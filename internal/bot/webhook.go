package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-automod/internal/config"
	"tg-automod/internal/logger"
	"tg-automod/internal/metrics"
)

// allowedUpdates are the update kinds the moderation handlers consume.
var allowedUpdates = []string{"message", "chat_member", "my_chat_member"}

// WebhookServer represents a webhook HTTP server
type WebhookServer struct {
	server   *http.Server
	certFile string
	keyFile  string
}

// Start serves until Shutdown is called; it then returns http.ErrServerClosed.
func (ws *WebhookServer) Start() error {
	logger.Infof("Starting HTTP server on %s", ws.server.Addr)

	if ws.certFile != "" && ws.keyFile != "" {
		logger.Infof("Using TLS with cert: %s, key: %s", ws.certFile, ws.keyFile)
		return ws.server.ListenAndServeTLS(ws.certFile, ws.keyFile)
	}

	logger.Warningf("Running without TLS. Make sure you have a HTTPS proxy in front of this server")
	return ws.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ws *WebhookServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}

// webhookPath validates the webhook settings and returns the path updates are posted to.
func webhookPath(cfg config.WebhookConfig) (string, error) {
	if cfg.Endpoint == "" {
		return "", fmt.Errorf("webhook endpoint is required")
	}
	if (cfg.CertFile == "" || cfg.KeyFile == "") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return "", fmt.Errorf("HTTPS configuration required: set cert_file and key_file in config or use a HTTPS proxy")
	}

	parsedURL, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if parsedURL.Path == "" || parsedURL.Path == "/" {
		logger.Infof("No path specified in webhook endpoint, using default path: /webhook")
		return "/webhook", nil
	}
	return parsedURL.Path, nil
}

// SetupWebhook registers the webhook with Telegram and builds the HTTP server serving it,
// the debug page and the metrics endpoint.
func SetupWebhook(ctx context.Context, bot *telego.Bot, cfg config.WebhookConfig, secretToken string, status func() string) (*th.BotHandler, *WebhookServer, error) {
	path, err := webhookPath(cfg)
	if err != nil {
		return nil, nil, err
	}
	listenPort := cfg.ListenPort
	if listenPort == "" {
		listenPort = "8443"
		logger.Infof("Using default listen port: %s", listenPort)
	}

	logger.Infof("Setting webhook to: %s", cfg.Endpoint)
	err = bot.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            cfg.Endpoint,
		AllowedUpdates: allowedUpdates,
		SecretToken:    secretToken,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set webhook: %w", err)
	}

	if info, err := bot.GetWebhookInfo(ctx); err != nil {
		logger.Warningf("Failed to get webhook info: %v", err)
	} else {
		logger.Infof("Webhook info: URL=%s, HasCustomCert=%v, PendingUpdateCount=%d, AllowedUpdates=%v",
			info.URL, info.HasCustomCertificate, info.PendingUpdateCount, info.AllowedUpdates)
		if info.LastErrorDate > 0 {
			logger.Warningf("Webhook last error: [%d] %s", info.LastErrorDate, info.LastErrorMessage)
		}
	}

	mux := http.NewServeMux()
	if cfg.DebugPath != "" {
		mux.HandleFunc(cfg.DebugPath, debugHandler(ctx, bot, cfg.Endpoint, status))
	}
	if cfg.MetricsPath != "" {
		mux.Handle(cfg.MetricsPath, metrics.Handler())
	}

	server := &http.Server{
		Addr:              "0.0.0.0:" + listenPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	updates, err := bot.UpdatesViaWebhook(ctx, telego.WebhookHTTPServeMux(mux, path, secretToken))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get updates channel: %w", err)
	}

	bh, err := th.NewBotHandler(bot, updates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bot handler: %w", err)
	}

	return bh, &WebhookServer{
		server:   server,
		certFile: cfg.CertFile,
		keyFile:  cfg.KeyFile,
	}, nil
}

func debugHandler(ctx context.Context, bot *telego.Bot, endpoint string, status func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Infof("Debug endpoint accessed: %s %s", r.Method, r.URL.Path)

		var b strings.Builder
		b.WriteString("Bot webhook server is running\n\n")
		if botUser, err := bot.GetMe(ctx); err == nil {
			fmt.Fprintf(&b, "Bot username: %s\n", botUser.Username)
		}
		fmt.Fprintf(&b, "Webhook endpoint: %s\n", endpoint)

		if info, err := bot.GetWebhookInfo(ctx); err == nil {
			b.WriteString("\nWebhook Info:\n")
			fmt.Fprintf(&b, "URL: %s\n", info.URL)
			fmt.Fprintf(&b, "Custom Certificate: %v\n", info.HasCustomCertificate)
			fmt.Fprintf(&b, "Pending Updates: %d\n", info.PendingUpdateCount)
			if info.LastErrorDate > 0 {
				errorTime := time.Unix(int64(info.LastErrorDate), 0)
				fmt.Fprintf(&b, "Last Error: [%s] %s\n", errorTime.Format("2006-01-02 15:04:05"), info.LastErrorMessage)
			}
		} else {
			fmt.Fprintf(&b, "\nError getting webhook info: %v\n", err)
		}

		if status != nil {
			b.WriteString(status())
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(b.String()))
	}
}
