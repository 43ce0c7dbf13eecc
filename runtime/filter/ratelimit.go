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
	"sync"

	"golang.org/x/time/rate"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/stage"
)

// rateLimitMaxKeys bounds the limiter table; when exceeded, the table
// is reset rather than grown (stale keys would otherwise accumulate
// forever on high-cardinality fields).
const rateLimitMaxKeys = 4096

// RateLimit applies a keyed token bucket: each key refills at
// RefillPerSecond and holds at most Capacity tokens.
type RateLimit struct {
	// KeyField selects the payload field whose value buckets records.
	// Records missing the field share one bucket keyed by message.
	KeyField string

	// RefillPerSecond is the sustained per-key rate.
	RefillPerSecond float64

	// Capacity is the burst size.
	Capacity int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ stage.Filter = (*RateLimit)(nil)

// NewRateLimit builds the filter with sane fallbacks (1/sec, burst 10).
func NewRateLimit(keyField string, refillPerSecond float64, capacity int) *RateLimit {
	if refillPerSecond <= 0 {
		refillPerSecond = 1
	}
	if capacity <= 0 {
		capacity = 10
	}
	return &RateLimit{
		KeyField:        keyField,
		RefillPerSecond: refillPerSecond,
		Capacity:        capacity,
		limiters:        make(map[string]*rate.Limiter),
	}
}

// Name implements stage.Filter.
func (*RateLimit) Name() string { return "rate_limit" }

// Filter implements stage.Filter.
func (r *RateLimit) Filter(ctx context.Context, e *envelope.Envelope) (stage.Decision, error) {
	key := e.Message
	if r.KeyField != "" {
		if v, ok := e.Data[r.KeyField]; ok {
			key = fmt.Sprint(v)
		}
	}

	r.mu.Lock()
	lim, ok := r.limiters[key]
	if !ok {
		if len(r.limiters) >= rateLimitMaxKeys {
			r.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(rate.Limit(r.RefillPerSecond), r.Capacity)
		r.limiters[key] = lim
	}
	r.mu.Unlock()

	if lim.Allow() {
		return stage.Continue, nil
	}
	return stage.Drop, nil
}
