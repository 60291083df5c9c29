package imageload

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/imageload/internal/reader"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for imageload and its sub-packages.
// By default, imageload produces no log output. Call SetLogger to enable it.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by imageload:
//   - [slog.LevelDebug]: internal diagnostics (request scheduling, dropped deliveries)
//   - [slog.LevelInfo]: lifecycle events (worker start/stop, device opened)
//   - [slog.LevelError]: failed loads, surfaced verbatim from the decode worker
//
// Example:
//
//	imageload.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	reader.SetLogger(l)

	loggerSinks.mu.Lock()
	sinks := make([]loggerSetter, 0, len(loggerSinks.devs))
	for ls := range loggerSinks.devs {
		sinks = append(sinks, ls)
	}
	loggerSinks.mu.Unlock()
	for _, ls := range sinks {
		ls.SetLogger(l)
	}
}

// Logger returns the current logger used by imageload.
// Sub-packages call this to share the same logger configuration without
// introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// loggerSinks tracks live devices so that later SetLogger calls reach
// devices created before them.
var loggerSinks = struct {
	mu   sync.Mutex
	devs map[loggerSetter]struct{}
}{devs: make(map[loggerSetter]struct{})}

// registerLoggerSink hands the current logger to a device that accepts one
// and keeps it subscribed to future SetLogger calls.
func registerLoggerSink(dev any) {
	ls, ok := dev.(loggerSetter)
	if !ok {
		return
	}
	ls.SetLogger(Logger())
	loggerSinks.mu.Lock()
	loggerSinks.devs[ls] = struct{}{}
	loggerSinks.mu.Unlock()
}

// unregisterLoggerSink drops the device's subscription.
func unregisterLoggerSink(dev any) {
	ls, ok := dev.(loggerSetter)
	if !ok {
		return
	}
	loggerSinks.mu.Lock()
	delete(loggerSinks.devs, ls)
	loggerSinks.mu.Unlock()
}
