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

package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/runtime/metrics"
)

func env(msg string) *envelope.Envelope {
	return envelope.New(time.Now(), level.Info, msg)
}

func TestParsePolicy(t *testing.T) {
	for s, want := range map[string]Policy{
		"drop_newest":        DropNewest,
		"DROP_OLDEST":        DropOldest,
		" block ":            Block,
		"sample_on_pressure": SampleOnPressure,
	} {
		got, err := ParsePolicy(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got)
	}
	_, err := ParsePolicy("spill")
	assert.ErrorIs(t, err, ErrPolicyInvalid)
}

func TestFIFOPerProducer(t *testing.T) {
	q := New(Options{Capacity: 64})
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(ctx, env(fmt.Sprintf("m%d", i))))
	}
	for i := 0; i < 10; i++ {
		e, ok := q.Dequeue(ctx)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("m%d", i), e.Env.Message)
	}
}

func TestDropNewestAccounting(t *testing.T) {
	m := metrics.New(nil)
	q := New(Options{Capacity: 4, Policy: DropNewest, Metrics: m})
	ctx := context.Background()

	var full int
	for i := 0; i < 10; i++ {
		if err := q.Enqueue(ctx, env("burst")); err != nil {
			assert.ErrorIs(t, err, ErrFull)
			full++
		}
	}
	assert.Equal(t, 6, full)
	assert.Equal(t, 4, q.Depth())
	assert.Equal(t, 4, q.HighWater())

	snap := m.Stats()
	assert.Equal(t, uint64(10), snap.Submitted)
	assert.Equal(t, uint64(6), snap.Dropped)
}

func TestDropOldestEvicts(t *testing.T) {
	m := metrics.New(nil)
	q := New(Options{Capacity: 2, Policy: DropOldest, Metrics: m})
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, env("a")))
	require.NoError(t, q.Enqueue(ctx, env("b")))
	require.NoError(t, q.Enqueue(ctx, env("c")))

	e, ok := q.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, "b", e.Env.Message)
	e, ok = q.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, "c", e.Env.Message)

	assert.Equal(t, uint64(1), m.Stats().Dropped)
}

func TestBlockWaitsForSpace(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: Block})
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, env("a")))

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(ctx, env("b")) }()

	select {
	case <-done:
		t.Fatal("enqueue should block while full")
	case <-time.After(50 * time.Millisecond):
	}

	_, ok := q.Dequeue(ctx)
	require.True(t, ok)
	require.NoError(t, <-done)
}

func TestBlockHonorsDeadline(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: Block})
	require.NoError(t, q.Enqueue(context.Background(), env("a")))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, env("b"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBarrierBypassesCapacityAndMarksShutdown(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: DropNewest})
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, env("a")))

	bar := NewBarrier(BarrierShutdown)
	require.NoError(t, q.EnqueueBarrier(bar))

	// Submissions after the shutdown barrier are rejected.
	assert.ErrorIs(t, q.Enqueue(ctx, env("late")), ErrShutdown)

	e, ok := q.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, "a", e.Env.Message)
	e, ok = q.Dequeue(ctx)
	require.True(t, ok)
	require.NotNil(t, e.Bar)
	assert.Equal(t, BarrierShutdown, e.Bar.Kind)

	e.Bar.Complete()
	select {
	case <-bar.Done():
	default:
		t.Fatal("barrier handle not completed")
	}
}

func TestDequeueBatch(t *testing.T) {
	q := New(Options{Capacity: 16})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(ctx, env(fmt.Sprintf("m%d", i))))
	}
	got, ok := q.DequeueBatch(ctx, 3, nil)
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.Equal(t, "m0", got[0].Env.Message)
	assert.Equal(t, "m2", got[2].Env.Message)

	got, ok = q.DequeueBatch(ctx, 10, got)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "m4", got[1].Env.Message)
}

func TestSampleOnPressure(t *testing.T) {
	q := New(Options{
		Capacity:  100,
		Policy:    SampleOnPressure,
		MinLevel:  level.Warn,
		LowWater:  0.1,
		HighWater: 0.5,
	})
	ctx := context.Background()

	// Fill past the high-water mark with warnings (exempt by level).
	for i := 0; i < 60; i++ {
		require.NoError(t, q.Enqueue(ctx, envelope.New(time.Now(), level.Warn, "w")))
	}

	// Above high water, sub-threshold records are always dropped.
	err := q.Enqueue(ctx, env("info under pressure"))
	assert.ErrorIs(t, err, ErrSampled)

	// Records at or above MinLevel still pass.
	assert.NoError(t, q.Enqueue(ctx, envelope.New(time.Now(), level.Error, "e")))

	// Records bound to a trace are never pressure-sampled.
	traced := env("traced")
	traced.Ctx.TraceID = "t-1"
	assert.NoError(t, q.Enqueue(ctx, traced))
}

func TestCloseDrainsThenStops(t *testing.T) {
	q := New(Options{Capacity: 8})
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, env("a")))
	q.Close()

	e, ok := q.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, "a", e.Env.Message)

	_, ok = q.Dequeue(ctx)
	assert.False(t, ok)

	assert.ErrorIs(t, q.Enqueue(ctx, env("late")), ErrShutdown)
}
