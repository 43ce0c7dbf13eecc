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

// Package lifecycle orchestrates pipeline startup, periodic flush,
// graceful drain with timeout, and forced shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chris-haste/fapilog/apis/health"
	asink "github.com/chris-haste/fapilog/apis/sink"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/metrics"
	"github.com/chris-haste/fapilog/runtime/queue"
	"github.com/chris-haste/fapilog/runtime/worker"
)

// ErrAlreadyDrained is returned by lifecycle calls after Drain.
var ErrAlreadyDrained = errors.New("fapilog: pipeline already drained")

// DrainResult reports what happened to every submitted record plus the
// drain's own measurements.
type DrainResult struct {
	Submitted               uint64
	Processed               uint64
	Dropped                 uint64
	Filtered                uint64
	Retried                 uint64
	QueueDepthHighWatermark int
	FlushLatencySeconds     float64
}

// Options wires a Controller.
type Options struct {
	Queue *queue.Queue
	Pool  *worker.Pool

	// Sinks are started in order and stopped in reverse order.
	Sinks []asink.Sink

	// FlushInterval triggers periodic flush barriers. Zero disables.
	FlushInterval time.Duration

	// DrainTimeout bounds signal-triggered drains and Close.
	DrainTimeout time.Duration

	Diag    *diag.Reporter
	Metrics *metrics.Metrics
}

// Controller owns the pipeline's run state.
type Controller struct {
	opt Options

	mu      sync.Mutex
	started bool
	drained bool

	flushStop chan struct{}
	flushDone chan struct{}
}

// New builds a controller.
func New(opt Options) *Controller {
	if opt.DrainTimeout <= 0 {
		opt.DrainTimeout = 5 * time.Second
	}
	return &Controller{opt: opt}
}

// Start brings the pipeline up: sinks in declaration order, then the
// worker pool, then the periodic flush ticker.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	for i, s := range c.opt.Sinks {
		if err := s.Start(ctx); err != nil {
			// Roll back sinks that already started.
			for j := i - 1; j >= 0; j-- {
				_ = c.opt.Sinks[j].Stop(ctx)
			}
			return fmt.Errorf("fapilog: starting sink %s: %w", s.Name(), err)
		}
	}

	c.opt.Pool.Start(ctx)

	if c.opt.FlushInterval > 0 {
		c.flushStop = make(chan struct{})
		c.flushDone = make(chan struct{})
		go c.flushLoop()
	}

	c.started = true
	return nil
}

func (c *Controller) flushLoop() {
	defer close(c.flushDone)
	tick := time.NewTicker(c.opt.FlushInterval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.opt.FlushInterval)
			_ = c.Flush(ctx)
			cancel()
		case <-c.flushStop:
			return
		}
	}
}

// Flush injects a flush barrier and waits for its completion or ctx.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	drained := c.drained
	c.mu.Unlock()
	if drained {
		return ErrAlreadyDrained
	}

	start := time.Now()
	bar := queue.NewBarrier(queue.BarrierFlush)
	if err := c.opt.Queue.EnqueueBarrier(bar); err != nil {
		return err
	}
	select {
	case <-bar.Done():
		c.opt.Metrics.ObserveFlush(time.Since(start))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain gracefully shuts the pipeline down: a shutdown barrier is
// injected (later submissions are rejected), workers process everything
// ahead of it and flush their batches, and sinks close in reverse start
// order.
//
// When ctx expires first, the remaining queued entries are counted as
// dropped, a warning goes to stderr, sinks get a best-effort close, and
// the partial result is returned with ctx's error.
func (c *Controller) Drain(ctx context.Context) (DrainResult, error) {
	c.mu.Lock()
	if c.drained {
		c.mu.Unlock()
		return c.result(0), ErrAlreadyDrained
	}
	c.drained = true
	c.mu.Unlock()

	if c.flushStop != nil {
		close(c.flushStop)
		<-c.flushDone
	}

	flushStart := time.Now()
	bar := queue.NewBarrier(queue.BarrierShutdown)
	barErr := c.opt.Queue.EnqueueBarrier(bar)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.opt.Pool.Wait()
	}()

	var drainErr error
	select {
	case <-done:
	case <-ctx.Done():
		drainErr = ctx.Err()
	}
	if barErr != nil && drainErr == nil {
		drainErr = barErr
	}

	var abandoned uint64
	if drainErr != nil {
		abandoned = uint64(c.opt.Queue.Depth())
		c.opt.Metrics.IncDropped(abandoned)
		fmt.Fprintf(os.Stderr,
			"fapilog: drain timed out, %d queued records dropped\n", abandoned)
		c.opt.Queue.Close()
		c.opt.Pool.Kill()
	}

	stopCtx := ctx
	if drainErr != nil {
		// Best-effort close with its own short deadline.
		var cancel context.CancelFunc
		stopCtx, cancel = context.WithTimeout(context.Background(), time.Second)
		defer cancel()
	}
	for i := len(c.opt.Sinks) - 1; i >= 0; i-- {
		if err := c.opt.Sinks[i].Stop(stopCtx); err != nil {
			c.opt.Diag.Report("sink:"+c.opt.Sinks[i].Name(), "stop failed: "+err.Error())
		}
	}

	res := c.result(time.Since(flushStart).Seconds())
	return res, drainErr
}

func (c *Controller) result(flushSeconds float64) DrainResult {
	snap := c.opt.Metrics.Stats()
	return DrainResult{
		Submitted:               snap.Submitted,
		Processed:               snap.Processed,
		Dropped:                 snap.Dropped,
		Filtered:                snap.Filtered,
		Retried:                 snap.Retried,
		QueueDepthHighWatermark: c.opt.Queue.HighWater(),
		FlushLatencySeconds:     flushSeconds,
	}
}

// HandleSignals routes SIGINT/SIGTERM to a drain bounded by the
// configured timeout. The returned stop function uninstalls the
// handler; onDrained (optional) observes the result.
func (c *Controller) HandleSignals(onDrained func(DrainResult, error)) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-ch:
			ctx, cancel := context.WithTimeout(context.Background(), c.opt.DrainTimeout)
			res, err := c.Drain(ctx)
			cancel()
			if onDrained != nil {
				onDrained(res, err)
			}
		case <-done:
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

// Health aggregates sink health and queue pressure into one report.
func (c *Controller) Health(ctx context.Context) health.Report {
	agg := health.NewAggregator()
	for _, s := range c.opt.Sinks {
		s := s
		agg.Add("sink:"+s.Name(), health.CheckFunc(func(ctx context.Context) (health.Result, error) {
			if s.HealthCheck(ctx) {
				return health.Result{Status: health.StatusHealthy}, nil
			}
			return health.Result{Status: health.StatusUnhealthy}, nil
		}))
	}
	agg.Add("queue", health.CheckFunc(func(ctx context.Context) (health.Result, error) {
		depth := c.opt.Queue.Depth()
		st := health.StatusHealthy
		if depth >= c.opt.Queue.Capacity() {
			st = health.StatusDegraded
		}
		return health.Result{
			Status:  st,
			Details: map[string]any{"depth": depth, "high_watermark": c.opt.Queue.HighWater()},
		}, nil
	}))
	return agg.Run(ctx)
}
