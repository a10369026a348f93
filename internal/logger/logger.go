package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"tg-automod/internal/config"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	current.Store(zap.NewNop().Sugar())
}

// createLogFilePath generates a log file path with the current date
func createLogFilePath(logDir, prefix string) string {
	currentDate := time.Now().Format("2006-01-02")
	return filepath.Join(logDir, fmt.Sprintf("%s-%s.log", prefix, currentDate))
}

// createRotatingLogger creates a lumberjack rotating logger
func createRotatingLogger(logFilePath string, cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.Logger.Rotation.MaxSize,
		MaxBackups: cfg.Logger.Rotation.MaxBackups,
		MaxAge:     cfg.Logger.Rotation.MaxAge,
		Compress:   cfg.Logger.Rotation.Compress,
	}
}

// parseLevel maps the configured level names onto zap levels
func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARNING", "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Setup configures logging to output to both stdout and a rotating log file
func Setup(cfg *config.Config) error {
	logDir := cfg.Logger.Directory

	// Create log directory if it doesn't exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := createLogFilePath(logDir, "tg-automod")
	rotatingLogger := createRotatingLogger(logFilePath, cfg)

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), zapcore.AddSync(rotatingLogger)),
		parseLevel(cfg.Logger.Level),
	)

	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	current.Store(l.Sugar())

	Infof("Logging initialized: writing to %s", logFilePath)
	return nil
}

// Use replaces the active logger, mainly for tests that want to observe output.
func Use(l *zap.Logger) {
	current.Store(l.WithOptions(zap.AddCallerSkip(1)).Sugar())
}

// GetRotatingLogWriter returns a writer to stdout and a rotating prefix-dated file, for
// tools that log through the standard log package.
func GetRotatingLogWriter(cfg *config.Config, prefix string) io.Writer {
	logFilePath := createLogFilePath(cfg.Logger.Directory, prefix)
	return io.MultiWriter(os.Stdout, createRotatingLogger(logFilePath, cfg))
}

// Sync flushes buffered log entries.
func Sync() {
	_ = current.Load().Sync()
}

func Debugf(format string, args ...any) { current.Load().Debugf(format, args...) }

func Infof(format string, args ...any) { current.Load().Infof(format, args...) }

func Warningf(format string, args ...any) { current.Load().Warnf(format, args...) }

func Errorf(format string, args ...any) { current.Load().Errorf(format, args...) }

func Fatalf(format string, args ...any) { current.Load().Fatalf(format, args...) }
