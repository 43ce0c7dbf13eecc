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

package worker

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chris-haste/fapilog/apis/envelope"
	asink "github.com/chris-haste/fapilog/apis/sink"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/metrics"
	"github.com/chris-haste/fapilog/runtime/pipeline"
	"github.com/chris-haste/fapilog/runtime/queue"
	rsink "github.com/chris-haste/fapilog/runtime/sink"
)

// Binding attaches a sink to the worker pool with its routing predicate
// and batch policy.
type Binding struct {
	// Sink is the destination (usually breaker- or failover-wrapped).
	Sink asink.Sink

	// Predicate selects the envelopes this sink receives; nil accepts all.
	Predicate rsink.Predicate

	// BatchMaxCount, BatchMaxBytes and BatchTimeout bound the per-sink
	// batch; the first bound reached flushes. Defaults: 256, 1 MiB, 1s.
	BatchMaxCount int
	BatchMaxBytes int
	BatchTimeout  time.Duration
}

func (b *Binding) defaults() {
	if b.BatchMaxCount <= 0 {
		b.BatchMaxCount = 256
	}
	if b.BatchMaxBytes <= 0 {
		b.BatchMaxBytes = 1 << 20
	}
	if b.BatchTimeout <= 0 {
		b.BatchTimeout = time.Second
	}
}

// Options configures a Pool.
type Options struct {
	Queue    *queue.Queue
	Pipeline *pipeline.Pipeline
	Bindings []*Binding

	// Workers is the consumer count. More than one worker gives up
	// cross-worker ordering. Default 1.
	Workers int

	// PullBatch bounds how many queue entries one loop iteration
	// takes. Default 64.
	PullBatch int

	Diag    *diag.Reporter
	Metrics *metrics.Metrics
}

// Pool drains the queue with one or more workers. Each worker owns its
// sequence counter and per-sink batch buffers; sinks themselves are
// shared, so batch flushes from different workers serialize inside the
// sink.
type Pool struct {
	opt Options

	eg       *errgroup.Group
	cancel   context.CancelFunc
	flushGen atomic.Uint64
}

// NewPool builds the pool.
func NewPool(opt Options) *Pool {
	if opt.Workers < 1 {
		opt.Workers = 1
	}
	if opt.PullBatch <= 0 {
		opt.PullBatch = 64
	}
	for _, b := range opt.Bindings {
		b.defaults()
	}
	return &Pool{opt: opt}
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.eg, runCtx = errgroup.WithContext(runCtx)
	for i := 0; i < p.opt.Workers; i++ {
		w := &worker{pool: p, id: i}
		p.eg.Go(func() error {
			w.run(runCtx)
			return nil
		})
	}
}

// Wait blocks until every worker has exited (the queue is closed and
// drained). Each worker flushes its batches on the way out.
func (p *Pool) Wait() {
	if p.eg != nil {
		_ = p.eg.Wait()
	}
}

// Kill aborts the workers without draining. Used when a drain deadline
// has already expired.
func (p *Pool) Kill() {
	if p.cancel != nil {
		p.cancel()
	}
	p.Wait()
}

// worker is one queue consumer.
type worker struct {
	pool *Pool
	id   int

	seq      uint64
	batches  []sinkBatch
	flushGen uint64
}

// sinkBatch accumulates serialized records for one sink.
type sinkBatch struct {
	binding  *Binding
	recs     []asink.Record
	bytes    int
	deadline time.Time
}

func (w *worker) run(ctx context.Context) {
	opt := &w.pool.opt

	w.batches = make([]sinkBatch, len(opt.Bindings))
	for i, b := range opt.Bindings {
		w.batches[i] = sinkBatch{binding: b}
	}

	tick := time.NewTicker(w.tickInterval())
	defer tick.Stop()

	entries := make([]queue.Entry, 0, opt.PullBatch)
	for {
		// After Kill, entries still queued are abandoned (the drain has
		// already counted them as dropped); stop pulling.
		if ctx.Err() != nil {
			w.flushAll(context.WithoutCancel(ctx))
			return
		}
		// Between pulls, honor timeouts and pool-wide flush requests.
		select {
		case <-tick.C:
			w.flushExpired(ctx)
		default:
		}
		if gen := w.pool.flushGen.Load(); gen != w.flushGen {
			w.flushGen = gen
			w.flushAll(ctx)
		}

		pullCtx, cancel := context.WithTimeout(ctx, w.tickInterval())
		batch, ok := w.pool.opt.Queue.DequeueBatch(pullCtx, opt.PullBatch, entries)
		cancel()
		if !ok {
			if ctx.Err() != nil || w.pool.opt.Queue.Drained() {
				w.flushAll(context.WithoutCancel(ctx))
				return
			}
			// Just a pull timeout with nothing buffered.
			w.flushExpired(ctx)
			continue
		}
		entries = batch

		for _, entry := range entries {
			switch {
			case entry.Bar != nil:
				w.handleBarrier(ctx, entry.Bar)
			case entry.Env != nil:
				w.handleEnvelope(ctx, entry.Env)
			}
		}
	}
}

func (w *worker) tickInterval() time.Duration {
	min := time.Second
	for _, b := range w.pool.opt.Bindings {
		if b.BatchTimeout < min {
			min = b.BatchTimeout
		}
	}
	return min / 2
}

func (w *worker) handleBarrier(ctx context.Context, bar *queue.Barrier) {
	start := time.Now()
	// Ask sibling workers to flush too; they observe the generation on
	// their next loop iteration.
	w.pool.flushGen.Add(1)
	w.flushGen = w.pool.flushGen.Load()
	w.flushAll(ctx)

	for _, b := range w.pool.opt.Bindings {
		if err := b.Sink.Flush(ctx); err != nil {
			w.pool.opt.Diag.Report("sink:"+b.Sink.Name(), "flush failed: "+err.Error())
		}
	}
	w.pool.opt.Metrics.ObserveFlush(time.Since(start))

	if bar.Kind == queue.BarrierShutdown {
		// No entries can follow the barrier (the queue rejects them),
		// so closing here lets every worker drain out and exit.
		w.pool.opt.Queue.Close()
	}
	bar.Complete()
}

func (w *worker) handleEnvelope(ctx context.Context, env *envelope.Envelope) {
	w.seq++
	env.Seq = w.seq

	buf, res := w.pool.opt.Pipeline.Process(ctx, env)
	if res != pipeline.ResultContinue {
		return
	}

	routed := false
	for i := range w.batches {
		sb := &w.batches[i]
		if sb.binding.Predicate != nil && !sb.binding.Predicate(env) {
			continue
		}
		routed = true
		if len(sb.recs) == 0 {
			sb.deadline = time.Now().Add(sb.binding.BatchTimeout)
		}
		sb.recs = append(sb.recs, asink.Record{Env: env, Bytes: buf})
		sb.bytes += len(buf)
		if len(sb.recs) >= sb.binding.BatchMaxCount || sb.bytes >= sb.binding.BatchMaxBytes {
			w.flushBatch(ctx, sb)
		}
	}

	if routed {
		w.pool.opt.Metrics.IncProcessed()
	} else {
		// No sink wanted it: account as filtered so the totals balance.
		w.pool.opt.Metrics.IncFiltered()
	}
}

func (w *worker) flushExpired(ctx context.Context) {
	now := time.Now()
	for i := range w.batches {
		sb := &w.batches[i]
		if len(sb.recs) > 0 && !now.Before(sb.deadline) {
			w.flushBatch(ctx, sb)
		}
	}
}

func (w *worker) flushAll(ctx context.Context) {
	for i := range w.batches {
		if len(w.batches[i].recs) > 0 {
			w.flushBatch(ctx, &w.batches[i])
		}
	}
}

func (w *worker) flushBatch(ctx context.Context, sb *sinkBatch) {
	start := time.Now()
	acks := sb.binding.Sink.WriteBatch(ctx, sb.recs)
	w.pool.opt.Metrics.ObserveSink(sb.binding.Sink.Name(), time.Since(start))

	if len(acks) > 0 {
		// Sink-level failures are the breaker's department (retry,
		// cooldown, fallback); here they only surface as diagnostics.
		w.pool.opt.Diag.Report("sink:"+sb.binding.Sink.Name(), "batch records failed")
	}
	sb.recs = sb.recs[:0]
	sb.bytes = 0
}
