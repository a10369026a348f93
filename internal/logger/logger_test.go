package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tg-automod/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(zapcore.WarnLevel, parseLevel("WARNING"))
	assert.Equal(zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(zapcore.ErrorLevel, parseLevel("ERROR"))
	assert.Equal(zapcore.InfoLevel, parseLevel(""))
}

func TestHelpersWriteThroughActiveLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	t.Cleanup(func() { Use(zap.NewNop()) })

	Infof("muted %d", 42)
	Warningf("failed: %s", "boom")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "muted 42", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	}
}

func TestRotatingLogWriterWritesDatedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logger.Directory = t.TempDir()

	w := GetRotatingLogWriter(cfg, "dbmigrate")
	_, err := fmt.Fprintln(w, "migration done")
	require.NoError(t, err)

	name := fmt.Sprintf("dbmigrate-%s.log", time.Now().Format("2006-01-02"))
	data, err := os.ReadFile(filepath.Join(cfg.Logger.Directory, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "migration done")
}
