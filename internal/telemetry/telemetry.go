// Package telemetry provides the Debugger's topic subsystem referenced in
// spec.md §7: a package-level structured logger, silent by default, plus a
// handful of named Topics used by the render-graph runtime (graph,
// taskflow, engine, job, vkdevice). Disabled topics cost nothing because the
// underlying nop handler reports Enabled() == false, so callers skip
// message formatting entirely.
package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by every package in this module.
// Pass nil to restore the silent default. Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the currently configured logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// Topic is a named log source (e.g. "graph", "taskflow", "engine",
// "job"). It exists so call sites don't repeat the topic name as a
// string at every log call, and so a future per-topic level filter has a
// single place to live.
type Topic struct {
	name string
}

// NewTopic returns a Topic that tags every record with a "topic" attribute.
func NewTopic(name string) Topic {
	return Topic{name: name}
}

func (t Topic) logger() *slog.Logger {
	return Logger().With(slog.String("topic", t.name))
}

// Debug logs a debug-level diagnostic under this topic.
func (t Topic) Debug(msg string, args ...any) { t.logger().Debug(msg, args...) }

// Info logs an info-level lifecycle event under this topic.
func (t Topic) Info(msg string, args ...any) { t.logger().Info(msg, args...) }

// Warn logs a recoverable-error event under this topic (§7 taxonomy
// classes 3 and 4: submit errors caught by Job.Execute, presentation
// errors recovered by a swapchain rebuild).
func (t Topic) Warn(msg string, args ...any) { t.logger().Warn(msg, args...) }

// Error logs a fatal-path event under this topic, just before the error is
// returned to the caller for process abort (§7 taxonomy classes 1, 2, 5, 6).
func (t Topic) Error(msg string, args ...any) { t.logger().Error(msg, args...) }
