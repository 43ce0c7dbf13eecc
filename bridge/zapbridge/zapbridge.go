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

// Package zapbridge adapts a fapilog pipeline to zapcore.Core, so code
// already written against zap feeds the same queue, stages and sinks.
// Records entering through the bridge carry origin=bridged.
package zapbridge

import (
	"context"

	"go.uber.org/zap/zapcore"

	"github.com/chris-haste/fapilog"
	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/apis/logctx"
)

// Core implements zapcore.Core on top of a fapilog Logger.
type Core struct {
	logger *fapilog.Logger
	fields []zapcore.Field
}

var _ zapcore.Core = (*Core)(nil)

// NewCore wraps logger. Use zap.New(zapbridge.NewCore(logger)) to get
// a *zap.Logger whose output flows through the fapilog pipeline.
func NewCore(logger *fapilog.Logger) *Core {
	return &Core{logger: logger}
}

// Enabled implements zapcore.LevelEnabler against the facade floor.
func (c *Core) Enabled(zl zapcore.Level) bool {
	return fromZapLevel(zl).Enabled(c.logger.Level())
}

// With implements zapcore.Core.
func (c *Core) With(fs []zapcore.Field) zapcore.Core {
	out := &Core{logger: c.logger}
	out.fields = append(append([]zapcore.Field(nil), c.fields...), fs...)
	return out
}

// Check implements zapcore.Core.
func (c *Core) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

// Write implements zapcore.Core, converting the entry and fields into
// a bridged envelope.
func (c *Core) Write(entry zapcore.Entry, fs []zapcore.Field) error {
	e := envelope.New(entry.Time, fromZapLevel(entry.Level), entry.Message)
	e.Origin = envelope.OriginBridged

	if len(c.fields)+len(fs) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range c.fields {
			f.AddTo(enc)
		}
		for _, f := range fs {
			f.AddTo(enc)
		}
		e.Data = enc.Fields
		// Well-known correlation keys lift into the envelope pack.
		e.Ctx = liftPack(enc.Fields)
	}
	if entry.LoggerName != "" {
		e.PutContext("logger", entry.LoggerName)
	}

	c.logger.Emit(context.Background(), e)
	return nil
}

// Sync implements zapcore.Core by flushing the pipeline.
func (c *Core) Sync() error {
	return c.logger.Flush(context.Background())
}

// liftPack moves recognized correlation fields out of the payload.
func liftPack(data map[string]any) logctx.Pack {
	var p logctx.Pack
	lift := func(key string, dst *string) {
		if v, ok := data[key].(string); ok {
			*dst = v
			delete(data, key)
		}
	}
	lift("request_id", &p.RequestID)
	lift("trace_id", &p.TraceID)
	lift("span_id", &p.SpanID)
	lift("user_id", &p.UserID)
	lift("tenant_id", &p.TenantID)
	return p
}

// fromZapLevel maps zapcore severities onto fapilog's scale. DPanic
// and above collapse into Critical; the bridge never terminates the
// process.
func fromZapLevel(zl zapcore.Level) level.Level {
	switch {
	case zl <= zapcore.DebugLevel:
		return level.Debug
	case zl == zapcore.InfoLevel:
		return level.Info
	case zl == zapcore.WarnLevel:
		return level.Warn
	case zl == zapcore.ErrorLevel:
		return level.Error
	default:
		return level.Critical
	}
}
