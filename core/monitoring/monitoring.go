// Package monitoring forwards failures to an error tracker. The process-wide
// monitor is a no-op until Init installs one.
package monitoring

import (
	"sync"
	"time"
)

// Tag keys attached to captured solve failures.
const (
	TagBackend = "backend"
	TagStage   = "stage"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// CaptureStage records a failure of one pipeline stage of a run.
func CaptureStage(err error, stage, backend string) {
	CaptureException(err, map[string]string{TagStage: stage, TagBackend: backend})
}

// Recover captures panics in goroutines. It must be deferred directly.
func Recover() {
	get().Recover()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
