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

package sink

import (
	"context"
	"errors"
	"sync"
	"time"

	asink "github.com/chris-haste/fapilog/apis/sink"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/metrics"
)

// ErrBreakerOpen is returned while the circuit breaker rejects writes.
var ErrBreakerOpen = errors.New("fapilog: sink circuit breaker open")

// State is the breaker's gate position.
type State uint8

const (
	// StateClosed lets traffic through (the healthy state).
	StateClosed State = iota

	// StateOpen rejects traffic until the cooldown deadline.
	StateOpen

	// StateHalfOpen admits a single probe write.
	StateHalfOpen
)

// Retry describes the per-write retry/backoff policy applied before a
// failure counts against the breaker.
type Retry struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// Initial is the delay before the first retry.
	Initial time.Duration

	// Max bounds the backoff delay.
	Max time.Duration

	// Multiplier controls exponential backoff, e.g. 2.0 doubles each attempt.
	Multiplier float64
}

// BreakerOptions configures a Breaker.
type BreakerOptions struct {
	// FailureThreshold is the number of consecutive failed writes that
	// opens the breaker. Default 5.
	FailureThreshold int

	// Cooldown is how long the breaker stays open before admitting a
	// probe. Default 30s.
	Cooldown time.Duration

	// Retry is applied per write before counting a failure.
	Retry Retry

	Diag    *diag.Reporter
	Metrics *metrics.Metrics
}

// Breaker wraps a sink with retry and a circuit breaker.
//
// Consecutive write failures at or above the threshold open the gate
// for the cooldown; the first write after cooldown is a probe that
// either closes the gate again or restarts the cooldown.
type Breaker struct {
	next asink.Sink
	opt  BreakerOptions

	mu          sync.Mutex
	state       State
	consecutive int
	openUntil   time.Time
	probing     bool
}

var _ asink.Sink = (*Breaker)(nil)

// WithBreaker wraps next. Zero-valued options get defaults.
func WithBreaker(next asink.Sink, opt BreakerOptions) *Breaker {
	if opt.FailureThreshold <= 0 {
		opt.FailureThreshold = 5
	}
	if opt.Cooldown <= 0 {
		opt.Cooldown = 30 * time.Second
	}
	if opt.Retry.Multiplier < 1 {
		opt.Retry.Multiplier = 2
	}
	if opt.Retry.Initial <= 0 {
		opt.Retry.Initial = 50 * time.Millisecond
	}
	if opt.Retry.Max <= 0 {
		opt.Retry.Max = 2 * time.Second
	}
	return &Breaker{next: next, opt: opt}
}

// Name reports the wrapped sink's name so routing, metrics and
// diagnostics stay attributed to the destination, not the wrapper.
func (b *Breaker) Name() string { return b.next.Name() }

// Start implements sink.Sink.
func (b *Breaker) Start(ctx context.Context) error { return b.next.Start(ctx) }

// Flush implements sink.Sink.
func (b *Breaker) Flush(ctx context.Context) error { return b.next.Flush(ctx) }

// Stop implements sink.Sink.
func (b *Breaker) Stop(ctx context.Context) error { return b.next.Stop(ctx) }

// HealthCheck reports false while the breaker is open.
func (b *Breaker) HealthCheck(ctx context.Context) bool {
	if b.State() == StateOpen {
		return false
	}
	return b.next.HealthCheck(ctx)
}

// State returns the current gate position, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && !time.Now().Before(b.openUntil) {
		b.state = StateHalfOpen
		b.probing = false
	}
	return b.state
}

// IsOpen reports whether traffic should be diverted to a fallback.
func (b *Breaker) IsOpen() bool { return b.State() == StateOpen }

// admit decides whether a write may proceed right now.
func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Now().Before(b.openUntil) {
			return false
		}
		b.state = StateHalfOpen
		b.probing = false
		fallthrough
	default: // StateHalfOpen
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
}

func (b *Breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
	if b.state != StateClosed {
		b.state = StateClosed
		b.opt.Diag.Report("sink:"+b.next.Name(), "circuit breaker closed")
	}
	b.probing = false
}

func (b *Breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive++
	if b.state == StateHalfOpen || b.consecutive >= b.opt.FailureThreshold {
		b.state = StateOpen
		b.openUntil = time.Now().Add(b.opt.Cooldown)
		b.probing = false
		b.opt.Diag.Report("sink:"+b.next.Name(), "circuit breaker open")
	}
}

// Write implements sink.Sink with retry and breaker accounting.
func (b *Breaker) Write(ctx context.Context, rec asink.Record) error {
	if !b.admit() {
		return ErrBreakerOpen
	}
	err := b.withRetry(ctx, func() error { return b.next.Write(ctx, rec) })
	if err != nil {
		b.failure()
		b.opt.Diag.Report("sink:"+b.next.Name(), "write failed: "+err.Error())
		return err
	}
	b.success()
	return nil
}

// WriteBatch implements sink.Sink. Failed records are retried as a
// subset; remaining failures are reported in the returned ack map,
// keyed by index into the original batch.
func (b *Breaker) WriteBatch(ctx context.Context, recs []asink.Record) map[int]error {
	if len(recs) == 0 {
		return nil
	}
	if !b.admit() {
		acks := make(map[int]error, len(recs))
		for i := range recs {
			acks[i] = ErrBreakerOpen
		}
		return acks
	}

	acks := b.next.WriteBatch(ctx, recs)
	delay := b.opt.Retry.Initial
	for attempt := 0; len(acks) > 0 && attempt < b.opt.Retry.MaxRetries; attempt++ {
		if !sleep(ctx, delay) {
			break
		}
		delay = nextDelay(delay, b.opt.Retry)
		b.opt.Metrics.IncRetried()

		idx := make([]int, 0, len(acks))
		sub := make([]asink.Record, 0, len(acks))
		for i := range recs {
			if _, failed := acks[i]; failed {
				idx = append(idx, i)
				sub = append(sub, recs[i])
			}
		}
		subAcks := b.next.WriteBatch(ctx, sub)
		acks = make(map[int]error, len(subAcks))
		for si, err := range subAcks {
			acks[idx[si]] = err
		}
	}

	if len(acks) > 0 {
		b.failure()
		b.opt.Diag.Report("sink:"+b.next.Name(), "batch write failed")
		return acks
	}
	b.success()
	return nil
}

func (b *Breaker) withRetry(ctx context.Context, write func() error) error {
	err := write()
	delay := b.opt.Retry.Initial
	for attempt := 0; err != nil && attempt < b.opt.Retry.MaxRetries; attempt++ {
		if !sleep(ctx, delay) {
			return err
		}
		delay = nextDelay(delay, b.opt.Retry)
		b.opt.Metrics.IncRetried()
		err = write()
	}
	return err
}

func nextDelay(cur time.Duration, r Retry) time.Duration {
	next := time.Duration(float64(cur) * r.Multiplier)
	if next > r.Max {
		next = r.Max
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
