/*
   Copyright 2026 The Fapilog Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package fapilog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/field"
	"github.com/chris-haste/fapilog/apis/health"
	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/apis/logctx"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/lifecycle"
	"github.com/chris-haste/fapilog/runtime/metrics"
	"github.com/chris-haste/fapilog/runtime/queue"
)

// DrainResult re-exports the lifecycle drain report.
type DrainResult = lifecycle.DrainResult

// Logger is the producer-facing facade. It is an immutable value
// sharing one pipeline: With/Unbind/WithLevel return derived loggers
// and never mutate the receiver. All methods are safe for concurrent
// use, and none of them ever raises into the application — submission
// problems become diagnostics and DrainResult counters.
type Logger struct {
	ctl     *lifecycle.Controller
	q       *queue.Queue
	diag    *diag.Reporter
	metrics *metrics.Metrics

	floor      level.Level
	bound      map[string]any
	pack       logctx.Pack
	drainAfter time.Duration
	stopSignal func()
}

// Level returns the facade's severity floor.
func (l *Logger) Level() level.Level { return l.floor }

// With returns a derived logger carrying additional bound fields.
func (l *Logger) With(fields ...field.Field) *Logger {
	if len(fields) == 0 {
		return l
	}
	out := *l
	next := make(map[string]any, len(l.bound)+len(fields))
	for k, v := range l.bound {
		next[k] = v
	}
	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		next[f.Key] = f.Value
	}
	out.bound = next
	return &out
}

// Unbind returns a derived logger without the given bound fields.
func (l *Logger) Unbind(keys ...string) *Logger {
	if len(l.bound) == 0 || len(keys) == 0 {
		return l
	}
	out := *l
	next := make(map[string]any, len(l.bound))
	for k, v := range l.bound {
		next[k] = v
	}
	for _, k := range keys {
		delete(next, k)
	}
	out.bound = next
	return &out
}

// WithLevel returns a derived logger with a different severity floor.
func (l *Logger) WithLevel(floor level.Level) *Logger {
	out := *l
	out.floor = floor
	return &out
}

// WithPack returns a derived logger carrying correlation identifiers
// merged over the receiver's.
func (l *Logger) WithPack(p logctx.Pack) *Logger {
	out := *l
	out.pack = logctx.Merge(l.pack, p)
	return &out
}

// Log submits one record. Below the floor it returns without
// allocating an envelope. The record's context is assembled from the
// ambient bindings of ctx, the logger's bound fields, and the
// call-site fields, with collisions resolved in that order of
// increasing precedence (call-site wins).
//
// With policy=block the ctx deadline bounds the wait for queue space;
// cancellation turns into a drop diagnostic, never an error.
func (l *Logger) Log(ctx context.Context, lvl level.Level, msg string, fields ...field.Field) {
	if !lvl.Enabled(l.floor) {
		return
	}
	e := envelope.New(time.Now(), lvl, msg)
	l.assemble(ctx, e, fields)
	_ = l.q.Enqueue(ctx, e)
}

// Emit submits a pre-built envelope (bridges, third-party
// integrations). A zero timestamp is stamped; the floor still applies.
func (l *Logger) Emit(ctx context.Context, e *envelope.Envelope) {
	if e == nil || !e.Level.Enabled(l.floor) {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	_ = l.q.Enqueue(ctx, e)
}

func (l *Logger) assemble(ctx context.Context, e *envelope.Envelope, fields []field.Field) {
	ambient := logctx.From(ctx)
	if len(ambient)+len(l.bound) > 0 {
		merged := make(map[string]any, len(ambient)+len(l.bound))
		for k, v := range ambient {
			merged[k] = v
		}
		for k, v := range l.bound {
			merged[k] = v
		}
		e.Context = merged
	}
	if len(fields) > 0 {
		e.Data = field.Map(fields)
		// Call-site bind wins over ambient/bound context on collision.
		for k := range e.Data {
			delete(e.Context, k)
		}
	}
	e.Ctx = logctx.Merge(l.pack, logctx.PackFrom(ctx))
}

// Trace logs a trace-level message.
func (l *Logger) Trace(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Trace, msg, fields...)
}

// Debug logs a debug-level message.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Debug, msg, fields...)
}

// Info logs an info-level message.
func (l *Logger) Info(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Info, msg, fields...)
}

// Notice logs a notice-level message.
func (l *Logger) Notice(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Notice, msg, fields...)
}

// Warn logs a warning-level message.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Warn, msg, fields...)
}

// Error logs an error-level message.
func (l *Logger) Error(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Error, msg, fields...)
}

// Critical logs a critical-level message. The pipeline never
// terminates the process on the caller's behalf.
func (l *Logger) Critical(ctx context.Context, msg string, fields ...field.Field) {
	l.Log(ctx, level.Critical, msg, fields...)
}

// Flush forces buffered batches and sinks to write, bounded by ctx.
func (l *Logger) Flush(ctx context.Context) error {
	return l.ctl.Flush(ctx)
}

// Drain gracefully shuts the pipeline down within timeout, processing
// everything already queued. A non-positive timeout uses the
// configured shutdown timeout.
func (l *Logger) Drain(timeout time.Duration) (DrainResult, error) {
	if timeout <= 0 {
		timeout = l.drainAfter
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if l.stopSignal != nil {
		l.stopSignal()
	}
	return l.ctl.Drain(ctx)
}

// Close drains with the configured timeout and releases the
// diagnostics reporter.
func (l *Logger) Close() error {
	_, err := l.Drain(0)
	l.diag.Close()
	return err
}

// Health reports aggregated pipeline health.
func (l *Logger) Health(ctx context.Context) health.Report {
	return l.ctl.Health(ctx)
}

// Metrics exposes the pipeline's instrumentation (collectors, export
// channel, counters).
func (l *Logger) Metrics() *metrics.Metrics { return l.metrics }

// defaultLogger is the optional process-wide facade. It is set once
// via SetDefault and never mutates afterwards; prefer passing owned
// Logger handles where practical.
var defaultLogger atomic.Pointer[Logger]

// SetDefault installs the process-wide logger.
func SetDefault(l *Logger) { defaultLogger.Store(l) }

// Default returns the process-wide logger, or nil if none was set.
func Default() *Logger { return defaultLogger.Load() }
