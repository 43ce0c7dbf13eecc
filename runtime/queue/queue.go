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
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/metrics"
)

// Policy selects the backpressure behavior when the queue is full.
type Policy uint8

const (
	// DropNewest discards new submissions when full. The facade
	// returns immediately; a rate-limited diagnostic fires.
	DropNewest Policy = iota

	// DropOldest evicts the oldest queued envelope to make room.
	// Evicted envelopes count as dropped.
	DropOldest

	// Block suspends the submitting goroutine until space is available
	// or the call context's deadline elapses.
	Block

	// SampleOnPressure drops a growing fraction of submissions below a
	// minimum severity as the queue fills; above the high-water mark
	// the fraction reaches 1.0.
	SampleOnPressure
)

// ParsePolicy converts the configuration spelling into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop_newest":
		return DropNewest, nil
	case "drop_oldest":
		return DropOldest, nil
	case "block":
		return Block, nil
	case "sample_on_pressure":
		return SampleOnPressure, nil
	}
	return 0, fmt.Errorf("%w: %q (accepted: drop_newest, drop_oldest, block, sample_on_pressure)",
		ErrPolicyInvalid, s)
}

// String returns the configuration spelling of the policy.
func (p Policy) String() string {
	switch p {
	case DropNewest:
		return "drop_newest"
	case DropOldest:
		return "drop_oldest"
	case Block:
		return "block"
	case SampleOnPressure:
		return "sample_on_pressure"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

var (
	// ErrPolicyInvalid is returned for unknown policy spellings.
	ErrPolicyInvalid = errors.New("fapilog: invalid queue policy")

	// ErrFull is returned when a submission is discarded by backpressure.
	ErrFull = errors.New("fapilog: queue full")

	// ErrSampled is returned when sample_on_pressure discards a submission.
	ErrSampled = errors.New("fapilog: queue sampled under pressure")

	// ErrShutdown is returned for submissions after a shutdown barrier.
	ErrShutdown = errors.New("fapilog: queue shut down")

	// ErrClosed is returned when enqueueing into a closed queue.
	ErrClosed = errors.New("fapilog: queue closed")
)

// DefaultCapacity is used when Options.Capacity is not positive.
const DefaultCapacity = 8192

// Options configures a Queue.
type Options struct {
	// Capacity bounds the number of buffered envelopes. Default 8192.
	Capacity int

	// Policy selects the backpressure behavior. Default DropNewest.
	Policy Policy

	// MinLevel exempts records at or above this severity from
	// sample_on_pressure drops. Default Warn.
	MinLevel level.Level

	// LowWater and HighWater are queue-fill fractions bounding the
	// pressure-sampling ramp. Defaults 0.5 and 0.9.
	LowWater, HighWater float64

	// Diag receives overflow diagnostics (rate-limited downstream).
	Diag *diag.Reporter

	// Metrics mirrors the accounting counters.
	Metrics *metrics.Metrics
}

// BarrierKind distinguishes the two barrier entry types.
type BarrierKind uint8

const (
	// BarrierFlush forces buffered batches and sinks to flush.
	BarrierFlush BarrierKind = iota

	// BarrierShutdown drains the pipeline terminally.
	BarrierShutdown
)

// Barrier is a queue entry that forces flush or shutdown. It carries a
// completion handle observable by the producer that submitted it.
type Barrier struct {
	Kind BarrierKind

	once sync.Once
	done chan struct{}
}

// NewBarrier builds an uncompleted barrier.
func NewBarrier(kind BarrierKind) *Barrier {
	return &Barrier{Kind: kind, done: make(chan struct{})}
}

// Complete signals the barrier's producer. Idempotent.
func (b *Barrier) Complete() {
	b.once.Do(func() { close(b.done) })
}

// Done is closed once the barrier has been fully processed.
func (b *Barrier) Done() <-chan struct{} { return b.done }

// Entry is the tagged union flowing through the queue: exactly one of
// Env or Bar is non-nil.
type Entry struct {
	Env *envelope.Envelope
	Bar *Barrier
}

// Queue is the bounded MPSC ring buffer between producers (facades)
// and consumers (workers).
//
// Envelopes are subject to the configured backpressure policy; barriers
// are not — they are always accepted, growing the ring past capacity if
// necessary, and are never dropped.
//
// The enqueue path takes one short-held mutex and performs no
// allocation beyond the envelope the caller already built.
type Queue struct {
	opt Options

	mu       sync.Mutex
	buf      []Entry
	head     int
	count    int
	envCount int
	high     int
	shutdown bool
	closed   bool

	notEmpty chan struct{}
	notFull  chan struct{}
	closedCh chan struct{}
}

// New builds a queue. Zero-value options get defaults.
func New(opt Options) *Queue {
	if opt.Capacity <= 0 {
		opt.Capacity = DefaultCapacity
	}
	if opt.LowWater <= 0 || opt.LowWater >= 1 {
		opt.LowWater = 0.5
	}
	if opt.HighWater <= opt.LowWater || opt.HighWater > 1 {
		opt.HighWater = 0.9
	}
	if opt.MinLevel == 0 {
		opt.MinLevel = level.Warn
	}
	return &Queue{
		opt:      opt,
		buf:      make([]Entry, opt.Capacity),
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}
}

func (q *Queue) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Enqueue submits an envelope under the configured policy.
//
// The error reports the envelope's fate to the facade, which turns it
// into accounting and diagnostics; it is never surfaced to the
// application.
func (q *Queue) Enqueue(ctx context.Context, env *envelope.Envelope) error {
	q.opt.Metrics.IncSubmitted()

	for {
		q.mu.Lock()
		if q.closed || q.shutdown {
			q.mu.Unlock()
			q.drop(1, "submission after shutdown")
			return ErrShutdown
		}

		if q.envCount < q.opt.Capacity {
			if q.opt.Policy == SampleOnPressure && q.pressureDropLocked(env) {
				q.mu.Unlock()
				q.drop(1, "sampled under pressure")
				return ErrSampled
			}
			q.pushLocked(Entry{Env: env})
			space := q.envCount < q.opt.Capacity
			q.mu.Unlock()
			q.signal(q.notEmpty)
			if space {
				// Chain the wakeup so several blocked producers drain
				// a batch dequeue's worth of space, not just one.
				q.signal(q.notFull)
			}
			return nil
		}

		switch q.opt.Policy {
		case DropOldest:
			if q.evictOldestLocked() {
				q.pushLocked(Entry{Env: env})
				q.mu.Unlock()
				q.signal(q.notEmpty)
				q.drop(1, "evicted oldest under pressure")
				return nil
			}
			// Only barriers buffered: fall through to drop the new one.
			q.mu.Unlock()
			q.drop(1, "queue full")
			return ErrFull
		case Block:
			q.mu.Unlock()
			select {
			case <-q.notFull:
				continue
			case <-q.closedCh:
				continue // re-check under the lock; reports shutdown
			case <-ctx.Done():
				q.drop(1, "blocking enqueue cancelled")
				return ctx.Err()
			}
		default: // DropNewest, SampleOnPressure at capacity
			q.mu.Unlock()
			q.drop(1, "queue full")
			return ErrFull
		}
	}
}

// pressureDropLocked implements sample_on_pressure. Records at or above
// MinLevel, and records already bound to a trace, are never sampled
// away (trace consistency wins over pressure shedding).
func (q *Queue) pressureDropLocked(env *envelope.Envelope) bool {
	fill := float64(q.envCount) / float64(q.opt.Capacity)
	if fill < q.opt.LowWater {
		return false
	}
	if env.Level >= q.opt.MinLevel || env.Ctx.TraceID != "" {
		return false
	}
	frac := (fill - q.opt.LowWater) / (q.opt.HighWater - q.opt.LowWater)
	if frac > 1 {
		frac = 1
	}
	return rand.Float64() < frac
}

func (q *Queue) evictOldestLocked() bool {
	// Scan from the head for the oldest envelope entry; barriers are
	// never evicted.
	for i := 0; i < q.count; i++ {
		idx := (q.head + i) % len(q.buf)
		if q.buf[idx].Env == nil {
			continue
		}
		for j := i; j > 0; j-- {
			cur := (q.head + j) % len(q.buf)
			prev := (q.head + j - 1) % len(q.buf)
			q.buf[cur] = q.buf[prev]
		}
		q.buf[q.head] = Entry{}
		q.head = (q.head + 1) % len(q.buf)
		q.count--
		q.envCount--
		return true
	}
	return false
}

func (q *Queue) pushLocked(e Entry) {
	if q.count == len(q.buf) {
		// Barriers may exceed capacity; grow for them only.
		q.growLocked()
	}
	q.buf[(q.head+q.count)%len(q.buf)] = e
	q.count++
	if e.Env != nil {
		q.envCount++
		if q.envCount > q.high {
			q.high = q.envCount
		}
	}
	q.opt.Metrics.SetQueueDepth(q.envCount, q.high)
}

func (q *Queue) growLocked() {
	next := make([]Entry, len(q.buf)*2)
	for i := 0; i < q.count; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}

// EnqueueBarrier submits a barrier. Barriers bypass backpressure and
// are accepted even at capacity. A shutdown barrier additionally marks
// the queue: envelopes submitted afterwards are rejected.
func (q *Queue) EnqueueBarrier(b *Barrier) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if q.shutdown {
		q.mu.Unlock()
		return ErrShutdown
	}
	if b.Kind == BarrierShutdown {
		q.shutdown = true
	}
	q.pushLocked(Entry{Bar: b})
	q.mu.Unlock()
	q.signal(q.notEmpty)
	return nil
}

// Dequeue removes the next entry, blocking until one is available. The
// boolean is false when the queue is closed and empty, or ctx expired.
func (q *Queue) Dequeue(ctx context.Context) (Entry, bool) {
	for {
		q.mu.Lock()
		if q.count > 0 {
			e := q.popLocked()
			more := q.count > 0
			q.mu.Unlock()
			q.signal(q.notFull)
			if more {
				// Re-arm the wakeup so sibling workers are not lost
				// when several pushes collapsed into one signal.
				q.signal(q.notEmpty)
			}
			return e, true
		}
		if q.closed {
			q.mu.Unlock()
			return Entry{}, false
		}
		q.mu.Unlock()

		select {
		case <-q.notEmpty:
		case <-q.closedCh:
		case <-ctx.Done():
			return Entry{}, false
		}
	}
}

// DequeueBatch removes up to max entries, blocking for the first one
// only. dst is reused when it has capacity. The boolean is false when
// the queue is closed and empty, or ctx expired.
func (q *Queue) DequeueBatch(ctx context.Context, max int, dst []Entry) ([]Entry, bool) {
	if max < 1 {
		max = 1
	}
	first, ok := q.Dequeue(ctx)
	if !ok {
		return dst[:0], false
	}
	dst = append(dst[:0], first)

	q.mu.Lock()
	for len(dst) < max && q.count > 0 {
		dst = append(dst, q.popLocked())
	}
	q.mu.Unlock()
	q.signal(q.notFull)
	return dst, true
}

func (q *Queue) popLocked() Entry {
	e := q.buf[q.head]
	q.buf[q.head] = Entry{}
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	if e.Env != nil {
		q.envCount--
	}
	q.opt.Metrics.SetQueueDepth(q.envCount, q.high)
	return e
}

// Close marks the queue closed. Buffered entries remain dequeueable;
// Dequeue returns false once the buffer drains. Pending envelopes are
// NOT counted dropped here — drain timeout accounting is the lifecycle
// controller's call.
func (q *Queue) Close() {
	q.mu.Lock()
	already := q.closed
	q.closed = true
	q.mu.Unlock()
	if !already {
		close(q.closedCh) // wake every waiter
	}
}

// Capacity returns the configured envelope capacity.
func (q *Queue) Capacity() int { return q.opt.Capacity }

// Drained reports whether the queue is closed with nothing buffered.
func (q *Queue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && q.count == 0
}

// Depth returns the current number of buffered envelopes (barriers
// excluded).
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.envCount
}

// HighWater returns the maximum observed envelope depth.
func (q *Queue) HighWater() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.high
}

func (q *Queue) drop(n uint64, reason string) {
	q.opt.Metrics.IncDropped(n)
	q.opt.Diag.Report("queue", reason)
}
