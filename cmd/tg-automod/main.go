package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"tg-automod/internal/bot"
	"tg-automod/internal/config"
	"tg-automod/internal/crash"
	"tg-automod/internal/handler"
	"tg-automod/internal/logger"
	"tg-automod/internal/service"
	"tg-automod/internal/storage"
)

func main() {
	defer crash.RecoverWithStackAndExit("main")
	crash.SetupCrashHandler()

	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging first
	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer logger.Sync()

	var db *gorm.DB
	if cfg.Database.Enabled {
		db, err = storage.Open(cfg)
		if err != nil {
			logger.Fatalf("Failed to open database: %v", err)
		}
		if err := storage.Migrate(db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Infof("Database connection established")
		defer storage.Close(db)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tgBot, err := bot.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create bot: %v", err)
	}

	gateway := handler.NewGateway(tgBot)
	stores := service.NewStores(cfg, db)
	engine := service.NewEngine(cfg.Moderation, stores.Deps(gateway, gateway))
	h := handler.New(engine, gateway, cfg.Moderation.Language)

	botService, server, err := bot.Initialize(ctx, cfg, tgBot, h.DetailedStatus)
	if err != nil {
		logger.Fatalf("Failed to initialize bot: %v", err)
	}

	if err := engine.Start(ctx); err != nil {
		logger.Fatalf("Failed to start moderation engine: %v", err)
	}
	h.Start(ctx)
	h.Register(botService.Handler)

	crash.SafeGoroutine("http-server", func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server error: %v", err)
		}
	})

	// Give server time to start
	time.Sleep(500 * time.Millisecond)
	logger.Infof("HTTP server is ready, starting bot handler...")
	crash.SafeGoroutine("bot-handler", botService.Start)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	logger.Infof("Received signal: %v, shutting down...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}
	botService.Stop()
	engine.Stop()
	cancel()

	logger.Infof("Server gracefully stopped")
}
