package crash

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"tg-automod/internal/logger"
)

// RecoverWithStack recovers a panic in the calling goroutine and logs it with its stack.
// It must be deferred directly.
func RecoverWithStack(moduleName string) {
	if r := recover(); r != nil {
		report(moduleName, "PANIC", r)
	}
}

// RecoverWithStackAndExit is the main goroutine variant: it logs the panic and exits non-zero
// so the supervisor restarts the process.
func RecoverWithStackAndExit(moduleName string) {
	if r := recover(); r != nil {
		report(moduleName, "FATAL PANIC", r)
		logger.Sync()
		time.Sleep(1 * time.Second)
		os.Exit(1)
	}
}

// SafeGoroutine starts fn in a goroutine that survives panics.
func SafeGoroutine(name string, fn func()) {
	go func() {
		defer RecoverWithStack(fmt.Sprintf("goroutine-%s", name))
		fn()
	}()
}

func report(moduleName, kind string, r any) {
	stack := debug.Stack()

	logger.Errorf("%s in %s: %v", kind, moduleName, r)
	logger.Errorf("Stack trace:\n%s", string(stack))

	// stderr as well, so container logs show it even if the file sink is broken
	fmt.Fprintf(os.Stderr, "[%s] %s - %s: %v\n", kind, time.Now().Format("2006-01-02 15:04:05"), moduleName, r)
	fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", string(stack))

	logRuntimeInfo()
}

func logRuntimeInfo() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	logger.Errorf("runtime: go=%s cpus=%d goroutines=%d heap_alloc=%dKB heap_inuse=%dKB num_gc=%d",
		runtime.Version(),
		runtime.NumCPU(),
		runtime.NumGoroutine(),
		m.HeapAlloc/1024,
		m.HeapInuse/1024,
		m.NumGC,
	)
}

// SetupCrashHandler turns memory faults into recoverable panics.
func SetupCrashHandler() {
	debug.SetPanicOnFault(true)
}
