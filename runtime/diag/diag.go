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

package diag

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	catrate "github.com/joeycumines/go-catrate"
)

// Event is one internal pipeline fault report.
type Event struct {
	// Source names the reporting component ("queue", "sink:file", ...).
	Source string
	// Reason is a short stable description of the fault.
	Reason string
	// Count is how many occurrences this event represents, including
	// ones suppressed by rate limiting since the last emission.
	Count uint64
	// Time is when the (last) occurrence happened.
	Time time.Time
}

// SelfEmit forwards a diagnostic into the pipeline as a normal record
// (a "self-sink"). Implementations must not call back into Report.
type SelfEmit func(ev Event)

// Options configures a Reporter.
type Options struct {
	// Buffer is the event channel capacity. Default 256.
	Buffer int

	// Writer receives single-line diagnostics. Default os.Stderr.
	Writer io.Writer

	// Window and Burst bound emissions per (source, reason) pair:
	// at most Burst events per Window. The defaults (10 per 10s)
	// approximate one per second with a burst of ten.
	Window time.Duration
	Burst  int

	// OnEmit, when set, is invoked for every emitted event in addition
	// to the writer (metrics hookup).
	OnEmit func(Event)
}

// Reporter is the bounded, rate-limited internal diagnostics channel.
//
// Report never blocks: over-rate events only bump a suppression
// counter, and a full buffer discards the event. Diagnostics about the
// reporter itself are never recursively reported.
type Reporter struct {
	ch      chan Event
	limiter *catrate.Limiter
	w       io.Writer
	onEmit  func(Event)

	selfEmit atomic.Pointer[SelfEmit]
	inSelf   atomic.Bool

	mu         sync.Mutex
	suppressed map[[2]string]uint64

	done      chan struct{}
	closeOnce sync.Once
}

// New starts a reporter and its writer goroutine.
func New(opt Options) *Reporter {
	if opt.Buffer <= 0 {
		opt.Buffer = 256
	}
	if opt.Writer == nil {
		opt.Writer = os.Stderr
	}
	if opt.Window <= 0 {
		opt.Window = 10 * time.Second
	}
	if opt.Burst <= 0 {
		opt.Burst = 10
	}
	r := &Reporter{
		ch:         make(chan Event, opt.Buffer),
		limiter:    catrate.NewLimiter(map[time.Duration]int{opt.Window: opt.Burst}),
		w:          opt.Writer,
		onEmit:     opt.OnEmit,
		suppressed: make(map[[2]string]uint64),
		done:       make(chan struct{}),
	}
	go r.run()
	return r
}

// SetSelfEmit installs (or clears, with nil) the self-sink hook.
func (r *Reporter) SetSelfEmit(fn SelfEmit) {
	if r == nil {
		return
	}
	if fn == nil {
		r.selfEmit.Store(nil)
		return
	}
	r.selfEmit.Store(&fn)
}

// Report records a fault. Safe on a nil reporter and from any goroutine.
func (r *Reporter) Report(source, reason string) {
	if r == nil {
		return
	}
	key := [2]string{source, reason}
	if _, ok := r.limiter.Allow(key); !ok {
		r.mu.Lock()
		r.suppressed[key]++
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	count := r.suppressed[key] + 1
	delete(r.suppressed, key)
	r.mu.Unlock()

	ev := Event{Source: source, Reason: reason, Count: count, Time: time.Now()}
	select {
	case r.ch <- ev:
	default:
		// Buffer full: the diagnostics channel must never block the
		// pipeline, so the event is discarded.
	}
}

// Close stops the writer goroutine after draining buffered events.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		close(r.ch)
		<-r.done
	})
}

func (r *Reporter) run() {
	defer close(r.done)
	for ev := range r.ch {
		r.emit(ev)
	}
}

func (r *Reporter) emit(ev Event) {
	fmt.Fprintf(r.w, "fapilog: diagnostic source=%s reason=%q count=%d ts=%s\n",
		ev.Source, ev.Reason, ev.Count, ev.Time.UTC().Format(time.RFC3339))
	if r.onEmit != nil {
		r.onEmit(ev)
	}
	if p := r.selfEmit.Load(); p != nil {
		// The guard keeps a self-sink failure from producing another
		// self-sink emission.
		if r.inSelf.CompareAndSwap(false, true) {
			(*p)(ev)
			r.inSelf.Store(false)
		}
	}
}
