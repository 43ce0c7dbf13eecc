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

package filter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/apis/stage"
)

func env(lvl level.Level, msg string) *envelope.Envelope {
	return envelope.New(time.Now(), lvl, msg)
}

func TestThreshold(t *testing.T) {
	f := Threshold{Min: level.Warn}
	ctx := context.Background()

	d, err := f.Filter(ctx, env(level.Info, "m"))
	require.NoError(t, err)
	assert.Equal(t, stage.Drop, d)

	d, err = f.Filter(ctx, env(level.Warn, "m"))
	require.NoError(t, err)
	assert.Equal(t, stage.Continue, d)

	d, err = f.Filter(ctx, env(level.Critical, "m"))
	require.NoError(t, err)
	assert.Equal(t, stage.Continue, d)
}

func TestSamplerBounds(t *testing.T) {
	ctx := context.Background()
	all := Sampler{Rate: 1}
	none := Sampler{Rate: 0}

	d, _ := all.Filter(ctx, env(level.Info, "m"))
	assert.Equal(t, stage.Continue, d)
	d, _ = none.Filter(ctx, env(level.Info, "m"))
	assert.Equal(t, stage.Drop, d)
}

func TestSamplerDeterministicByKey(t *testing.T) {
	ctx := context.Background()
	s := Sampler{Rate: 0.5, KeyField: "user"}

	e := env(level.Info, "m")
	e.PutData("user", "alice")

	first, _ := s.Filter(ctx, e)
	for i := 0; i < 20; i++ {
		again, _ := s.Filter(ctx, e)
		assert.Equal(t, first, again, "keyed sampling must be stable")
	}

	// A different seed may flip the decision; a different key usually
	// does. Just assert both rates land somewhere sensible over many keys.
	pass := 0
	for i := 0; i < 1000; i++ {
		e := env(level.Info, "m")
		e.PutData("user", fmt.Sprintf("user-%d", i))
		if d, _ := s.Filter(ctx, e); d == stage.Continue {
			pass++
		}
	}
	assert.InDelta(t, 500, pass, 100)
}

func TestTraceSamplerConsistency(t *testing.T) {
	ctx := context.Background()
	s := TraceSampler{Rate: 0.5}

	// Within one trace, every record gets the same decision.
	e := env(level.Info, "m")
	e.Ctx.TraceID = "trace-abc"
	first, _ := s.Filter(ctx, e)
	for i := 0; i < 20; i++ {
		e := env(level.Debug, fmt.Sprintf("m%d", i))
		e.Ctx.TraceID = "trace-abc"
		d, _ := s.Filter(ctx, e)
		assert.Equal(t, first, d)
	}

	// No trace id: always passes.
	d, _ := s.Filter(ctx, env(level.Info, "m"))
	assert.Equal(t, stage.Continue, d)
}

func TestRateLimitPerKey(t *testing.T) {
	ctx := context.Background()
	r := NewRateLimit("client", 1, 3)

	hit := func(client string) stage.Decision {
		e := env(level.Info, "m")
		e.PutData("client", client)
		d, err := r.Filter(ctx, e)
		require.NoError(t, err)
		return d
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, stage.Continue, hit("a"), "burst %d", i)
	}
	assert.Equal(t, stage.Drop, hit("a"))

	// An independent key has its own bucket.
	assert.Equal(t, stage.Continue, hit("b"))
}

func TestRateLimitFallbackKey(t *testing.T) {
	ctx := context.Background()
	r := NewRateLimit("", 1, 1)

	e := env(level.Info, "same message")
	d, _ := r.Filter(ctx, e)
	assert.Equal(t, stage.Continue, d)
	d, _ = r.Filter(ctx, env(level.Info, "same message"))
	assert.Equal(t, stage.Drop, d)
	d, _ = r.Filter(ctx, env(level.Info, "different message"))
	assert.Equal(t, stage.Continue, d)
}
