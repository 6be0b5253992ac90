package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
)

// goroutineCounter tracks spawned goroutines for diagnostics
var goroutineCounter int64

// GetGoroutineCount returns the number of goroutines spawned via SafeGo
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged and written to a crash log but don't crash the service.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := GetStackTrace()

				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in goroutine")
				} else {
					fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
				}

				// Non-fatal: keep a crash log for post-mortem analysis
				writeCrashLog(name, r, stackTrace)
			}
		}()

		fn()
	}()
}

// writeCrashLog records a recovered goroutine panic next to the fatal crash reports
func writeCrashLog(goroutineName string, panicVal interface{}, stackTrace string) {
	name := fmt.Sprintf("panic-%s-%s.log", goroutineName, time.Now().Format("2006-01-02T15-04-05"))
	body := fmt.Sprintf("goroutine: %s\npanic: %v\n\n%s", goroutineName, panicVal, stackTrace)
	if err := os.WriteFile(filepath.Join(CrashLogDir, name), []byte(body), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "PANIC: failed to write crash log: %v\n", err)
	}
}
