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

package pipeline

import (
	"sync/atomic"
	"time"

	catrate "github.com/joeycumines/go-catrate"

	"github.com/chris-haste/fapilog/runtime/diag"
)

// guard wraps one stage instance with failure isolation: errors are
// reported, and a stage exceeding the failure budget inside the window
// is disabled until the next lifecycle restart.
type guard[T any] struct {
	inner T
	name  string

	diag    *diag.Reporter
	off     atomic.Bool
	limiter *catrate.Limiter
}

func newGuard[T any](inner T, name string, opt Options) *guard[T] {
	return &guard[T]{
		inner: inner,
		name:  name,
		diag:  opt.Diag,
		// The limiter tolerates FailureLimit-1 failures per window; the
		// failure that exceeds it trips the disable flag.
		limiter: catrate.NewLimiter(map[time.Duration]int{
			opt.FailureWindow: opt.FailureLimit - 1,
		}),
	}
}

func (g *guard[T]) disabled() bool { return g.off.Load() }

func (g *guard[T]) fail(err error) {
	g.diag.Report("stage:"+g.name, err.Error())
	if _, ok := g.limiter.Allow(g.name); !ok {
		if g.off.CompareAndSwap(false, true) {
			g.diag.Report("stage:"+g.name, "disabled until restart after repeated failures")
		}
	}
}
