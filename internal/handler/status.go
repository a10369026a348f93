package handler

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"tg-automod/internal/crash"
	"tg-automod/internal/logger"
)

// Processing statistics
var (
	totalMessagesProcessed int64
	totalChatMemberUpdates int64
	totalCommands          int64
	totalErrors            int64
	totalTimeouts          int64
	startTime              = time.Now()
)

const statsInterval = 5 * time.Minute

func incrementCounter(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// ProcessingStats is a snapshot of the update processing counters.
type ProcessingStats struct {
	Uptime            time.Duration
	Messages          int64
	ChatMemberUpdates int64
	Commands          int64
	Errors            int64
	Timeouts          int64
	ActiveHandlers    int64
	MaxConcurrent     int
	MemoryMB          uint64
	TotalAllocMB      uint64
	SysMemoryMB       uint64
	GCRuns            uint32
	Goroutines        int
}

func (h *Handler) Stats() ProcessingStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessingStats{
		Uptime:            time.Since(startTime),
		Messages:          atomic.LoadInt64(&totalMessagesProcessed),
		ChatMemberUpdates: atomic.LoadInt64(&totalChatMemberUpdates),
		Commands:          atomic.LoadInt64(&totalCommands),
		Errors:            atomic.LoadInt64(&totalErrors),
		Timeouts:          atomic.LoadInt64(&totalTimeouts),
		ActiveHandlers:    h.active.Load(),
		MaxConcurrent:     cap(h.sem),
		MemoryMB:          bToMb(m.Alloc),
		TotalAllocMB:      bToMb(m.TotalAlloc),
		SysMemoryMB:       bToMb(m.Sys),
		GCRuns:            m.NumGC,
		Goroutines:        runtime.NumGoroutine(),
	}
}

// logProcessingStats logs the statistics and flags unusual load.
func logProcessingStats(stats ProcessingStats) {
	logger.Infof("Processing stats: %+v", stats)

	if stats.ActiveHandlers > int64(stats.MaxConcurrent)*8/10 {
		logger.Warningf("High number of active handlers: %d", stats.ActiveHandlers)
	}
	if stats.Messages > 0 && float64(stats.Errors)/float64(stats.Messages) > 0.1 {
		logger.Warningf("High error rate: %.2f%% (%d errors out of %d messages)",
			float64(stats.Errors)/float64(stats.Messages)*100, stats.Errors, stats.Messages)
	}
}

// StartStatusMonitoring logs the statistics periodically until ctx is done.
func StartStatusMonitoring(ctx context.Context, h *Handler) {
	crash.SafeGoroutine("status-monitor", func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logProcessingStats(h.Stats())
			}
		}
	})
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// DetailedStatus renders the statistics for the debug endpoint.
func (h *Handler) DetailedStatus() string {
	s := h.Stats()
	return fmt.Sprintf(`
=== tg-automod processing status ===
Uptime: %d seconds
Messages Processed: %d
Chat Member Updates: %d
Commands: %d
Errors: %d
Timeouts: %d
Active Handlers: %d/%d
Memory Usage: %d MB
Total Allocated: %d MB
System Memory: %d MB
GC Runs: %d
Goroutines: %d
====================================`,
		int64(s.Uptime.Seconds()),
		s.Messages,
		s.ChatMemberUpdates,
		s.Commands,
		s.Errors,
		s.Timeouts,
		s.ActiveHandlers, s.MaxConcurrent,
		s.MemoryMB,
		s.TotalAllocMB,
		s.SysMemoryMB,
		s.GCRuns,
		s.Goroutines,
	)
}
