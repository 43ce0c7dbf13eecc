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

package zapbridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chris-haste/fapilog"
	"github.com/chris-haste/fapilog/apis/level"
	asink "github.com/chris-haste/fapilog/apis/sink"
)

type memSink struct {
	mu    sync.Mutex
	lines []string
}

var _ asink.Sink = (*memSink)(nil)

func (m *memSink) Name() string { return "mem" }

func (m *memSink) Start(ctx context.Context) error { return nil }

func (m *memSink) Write(ctx context.Context, rec asink.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, string(rec.Bytes))
	return nil
}

func (m *memSink) WriteBatch(ctx context.Context, recs []asink.Record) map[int]error {
	for _, rec := range recs {
		_ = m.Write(ctx, rec)
	}
	return nil
}

func (m *memSink) Flush(ctx context.Context) error { return nil }

func (m *memSink) Stop(ctx context.Context) error { return nil }

func (m *memSink) HealthCheck(ctx context.Context) bool { return true }

func (m *memSink) parsed(t *testing.T) []map[string]any {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []map[string]any
	for _, line := range m.lines {
		var obj map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &obj), line)
		out = append(out, obj)
	}
	return out
}

func newLogger(t *testing.T) (*fapilog.Logger, *memSink) {
	t.Helper()
	sink := &memSink{}
	logger, err := fapilog.NewBuilder().WithSink(sink).Build(context.Background())
	require.NoError(t, err)
	return logger, sink
}

func TestBridgedWrite(t *testing.T) {
	logger, sink := newLogger(t)
	zl := zap.New(NewCore(logger))

	zl.Warn("cache miss rate high",
		zap.String("cache", "sessions"),
		zap.Int("misses", 42),
		zap.String("trace_id", "t-99"))

	_, err := logger.Drain(time.Second)
	require.NoError(t, err)

	objs := sink.parsed(t)
	require.Len(t, objs, 1)
	obj := objs[0]
	assert.Equal(t, "bridged", obj["origin"])
	assert.Equal(t, "warn", obj["level"])
	assert.Equal(t, "cache miss rate high", obj["message"])

	data := obj["data"].(map[string]any)
	assert.Equal(t, "sessions", data["cache"])
	assert.Equal(t, float64(42), data["misses"])

	// Correlation fields lift out of the payload.
	assert.Equal(t, "t-99", obj["trace_id"])
	_, inData := data["trace_id"]
	assert.False(t, inData)
}

func TestBridgeWithFields(t *testing.T) {
	logger, sink := newLogger(t)
	zl := zap.New(NewCore(logger)).With(zap.String("component", "auth"))

	zl.Error("token rejected")
	_, err := logger.Drain(time.Second)
	require.NoError(t, err)

	objs := sink.parsed(t)
	require.Len(t, objs, 1)
	assert.Equal(t, "auth", objs[0]["data"].(map[string]any)["component"])
	assert.Equal(t, "error", objs[0]["level"])
}

func TestBridgeRespectsFloor(t *testing.T) {
	sink := &memSink{}
	logger, err := fapilog.NewBuilder().WithLevel(level.Error).WithSink(sink).Build(context.Background())
	require.NoError(t, err)

	core := NewCore(logger)
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	zap.New(core).Info("dropped before the queue")
	res, err := logger.Drain(time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Submitted)
}

func TestLevelMapping(t *testing.T) {
	assert.Equal(t, level.Debug, fromZapLevel(zapcore.DebugLevel))
	assert.Equal(t, level.Info, fromZapLevel(zapcore.InfoLevel))
	assert.Equal(t, level.Warn, fromZapLevel(zapcore.WarnLevel))
	assert.Equal(t, level.Error, fromZapLevel(zapcore.ErrorLevel))
	assert.Equal(t, level.Critical, fromZapLevel(zapcore.DPanicLevel))
	assert.Equal(t, level.Critical, fromZapLevel(zapcore.FatalLevel))
}
