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

	asink "github.com/chris-haste/fapilog/apis/sink"
	"github.com/chris-haste/fapilog/runtime/diag"
)

// Failover pairs a breaker-wrapped primary with a fallback sink. The
// fallback receives traffic only while the primary's breaker is open.
type Failover struct {
	primary  *Breaker
	fallback asink.Sink
	diag     *diag.Reporter
}

var _ asink.Sink = (*Failover)(nil)

// WithFailover wires primary and fallback. fallback may be nil, in
// which case the pair degenerates to the primary alone.
func WithFailover(primary *Breaker, fallback asink.Sink, d *diag.Reporter) *Failover {
	return &Failover{primary: primary, fallback: fallback, diag: d}
}

// Name reports the primary's name.
func (f *Failover) Name() string { return f.primary.Name() }

// Start starts both sinks.
func (f *Failover) Start(ctx context.Context) error {
	if err := f.primary.Start(ctx); err != nil {
		return err
	}
	if f.fallback != nil {
		return f.fallback.Start(ctx)
	}
	return nil
}

// Write routes to the primary, or to the fallback while the breaker is open.
func (f *Failover) Write(ctx context.Context, rec asink.Record) error {
	if f.fallback != nil && f.primary.IsOpen() {
		return f.fallback.Write(ctx, rec)
	}
	err := f.primary.Write(ctx, rec)
	if err != nil && f.fallback != nil && f.primary.IsOpen() {
		f.diag.Report("sink:"+f.primary.Name(), "routing to fallback "+f.fallback.Name())
		return f.fallback.Write(ctx, rec)
	}
	return err
}

// WriteBatch routes like Write, at batch granularity.
func (f *Failover) WriteBatch(ctx context.Context, recs []asink.Record) map[int]error {
	if f.fallback != nil && f.primary.IsOpen() {
		return f.fallback.WriteBatch(ctx, recs)
	}
	acks := f.primary.WriteBatch(ctx, recs)
	if len(acks) > 0 && f.fallback != nil && f.primary.IsOpen() {
		f.diag.Report("sink:"+f.primary.Name(), "routing failed batch to fallback "+f.fallback.Name())
		failedIdx := make([]int, 0, len(acks))
		failed := make([]asink.Record, 0, len(acks))
		for i := range recs {
			if _, ok := acks[i]; ok {
				failedIdx = append(failedIdx, i)
				failed = append(failed, recs[i])
			}
		}
		sub := f.fallback.WriteBatch(ctx, failed)
		out := make(map[int]error, len(sub))
		for si, err := range sub {
			out[failedIdx[si]] = err
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return acks
}

// Flush flushes both sinks.
func (f *Failover) Flush(ctx context.Context) error {
	err := f.primary.Flush(ctx)
	if f.fallback != nil {
		if ferr := f.fallback.Flush(ctx); err == nil {
			err = ferr
		}
	}
	return err
}

// Stop stops the fallback after the primary.
func (f *Failover) Stop(ctx context.Context) error {
	err := f.primary.Stop(ctx)
	if f.fallback != nil {
		if ferr := f.fallback.Stop(ctx); err == nil {
			err = ferr
		}
	}
	return err
}

// HealthCheck is healthy while either destination can accept writes.
func (f *Failover) HealthCheck(ctx context.Context) bool {
	if f.primary.HealthCheck(ctx) {
		return true
	}
	return f.fallback != nil && f.fallback.HealthCheck(ctx)
}
