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
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/stage"
)

// Sampler passes a fraction of records.
//
// With KeyField set, the decision is deterministic per key value: the
// same key always samples the same way, which keeps related records
// together. Without a key the decision is random per record.
type Sampler struct {
	// Rate is the pass fraction in [0,1].
	Rate float64

	// KeyField, when non-empty, selects the payload field whose value
	// drives the deterministic hash.
	KeyField string

	// Seed perturbs the deterministic hash so distinct samplers make
	// independent decisions for the same key.
	Seed uint64
}

var _ stage.Filter = Sampler{}

// Name implements stage.Filter.
func (Sampler) Name() string { return "sampling" }

// Filter implements stage.Filter.
func (s Sampler) Filter(ctx context.Context, e *envelope.Envelope) (stage.Decision, error) {
	if s.Rate >= 1 {
		return stage.Continue, nil
	}
	if s.Rate <= 0 {
		return stage.Drop, nil
	}
	if s.KeyField != "" {
		if v, ok := e.Data[s.KeyField]; ok {
			if hashFraction(fmt.Sprint(v), s.Seed) < s.Rate {
				return stage.Continue, nil
			}
			return stage.Drop, nil
		}
	}
	if rand.Float64() < s.Rate {
		return stage.Continue, nil
	}
	return stage.Drop, nil
}

// TraceSampler admits all records of a sampled trace and none of an
// unsampled one, so a trace is never broken mid-way. Records without a
// trace id always pass (compose with Sampler for those).
type TraceSampler struct {
	// Rate is the per-trace pass fraction in [0,1].
	Rate float64

	// Seed perturbs the per-trace hash.
	Seed uint64
}

var _ stage.Filter = TraceSampler{}

// Name implements stage.Filter.
func (TraceSampler) Name() string { return "trace_sampling" }

// Filter implements stage.Filter.
func (t TraceSampler) Filter(ctx context.Context, e *envelope.Envelope) (stage.Decision, error) {
	trace := e.Ctx.TraceID
	if trace == "" || t.Rate >= 1 {
		return stage.Continue, nil
	}
	if t.Rate <= 0 {
		return stage.Drop, nil
	}
	if hashFraction(trace, t.Seed) < t.Rate {
		return stage.Continue, nil
	}
	return stage.Drop, nil
}

// hashFraction maps s (mixed with seed) onto [0,1).
func hashFraction(s string, seed uint64) float64 {
	h := fnv.New64a()
	if seed != 0 {
		var b [8]byte
		for i := 0; i < 8; i++ {
			b[i] = byte(seed >> (8 * i))
		}
		_, _ = h.Write(b[:])
	}
	_, _ = h.Write([]byte(s))
	return float64(h.Sum64()) / math.MaxUint64
}
