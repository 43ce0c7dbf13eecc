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

package fapilog

import (
	"context"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/field/fields"
	"github.com/chris-haste/fapilog/apis/level"
	asink "github.com/chris-haste/fapilog/apis/sink"
	"github.com/chris-haste/fapilog/apis/stage"
	"github.com/chris-haste/fapilog/runtime/config"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/encoder"
	jsonenc "github.com/chris-haste/fapilog/runtime/encoder/json"
	"github.com/chris-haste/fapilog/runtime/encoder/pretty"
	"github.com/chris-haste/fapilog/runtime/lifecycle"
	"github.com/chris-haste/fapilog/runtime/metrics"
	"github.com/chris-haste/fapilog/runtime/pipeline"
	"github.com/chris-haste/fapilog/runtime/queue"
	rsink "github.com/chris-haste/fapilog/runtime/sink"
	_ "github.com/chris-haste/fapilog/runtime/sink/console"
	_ "github.com/chris-haste/fapilog/runtime/sink/file"
	"github.com/chris-haste/fapilog/runtime/worker"
)

// Builder assembles an owned pipeline. Multiple independent pipelines
// per process are fine; each Build returns its own handle.
type Builder struct {
	settings config.Settings
	err      error

	enrichers  []stage.Enricher
	redactors  []stage.Redactor
	filters    []stage.Filter
	serializer stage.Serializer

	bindings []*worker.Binding
	breaker  rsink.BreakerOptions
	selfSink bool
	signals  bool
}

// NewBuilder starts from default settings.
func NewBuilder() *Builder {
	return &Builder{settings: config.Default()}
}

// FromEnv loads settings from the FAPILOG__* environment. Errors
// surface at Build.
func (b *Builder) FromEnv() *Builder {
	s, err := config.Load()
	if err != nil {
		b.err = err
		return b
	}
	b.settings = s
	return b
}

// WithSettings replaces the settings wholesale.
func (b *Builder) WithSettings(s config.Settings) *Builder {
	b.settings = s
	return b
}

// WithLevel overrides the severity floor.
func (b *Builder) WithLevel(lvl level.Level) *Builder {
	b.settings.Level = lvl.String()
	return b
}

// WithEnricher appends an enricher stage.
func (b *Builder) WithEnricher(e stage.Enricher) *Builder {
	b.enrichers = append(b.enrichers, e)
	return b
}

// WithRedactor appends a redactor stage.
func (b *Builder) WithRedactor(r stage.Redactor) *Builder {
	b.redactors = append(b.redactors, r)
	return b
}

// WithFilter appends a filter stage.
func (b *Builder) WithFilter(f stage.Filter) *Builder {
	b.filters = append(b.filters, f)
	return b
}

// WithSerializer replaces the format-derived serializer.
func (b *Builder) WithSerializer(s stage.Serializer) *Builder {
	b.serializer = s
	return b
}

// WithSink attaches a sink receiving every record.
func (b *Builder) WithSink(s asink.Sink) *Builder {
	return b.WithRoutedSink(s, nil)
}

// WithRoutedSink attaches a sink behind a routing predicate.
func (b *Builder) WithRoutedSink(s asink.Sink, pred rsink.Predicate) *Builder {
	b.bindings = append(b.bindings, &worker.Binding{Sink: s, Predicate: pred})
	return b
}

// WithFallbackSink attaches a primary sink with a fallback that
// receives traffic only while the primary's breaker is open.
func (b *Builder) WithFallbackSink(primary, fallback asink.Sink) *Builder {
	b.bindings = append(b.bindings, &worker.Binding{
		Sink: pendingFailover{primary: primary, fallback: fallback},
	})
	return b
}

// pendingFailover defers breaker construction to Build, where the
// shared diagnostics and metrics exist. Only Name is callable before.
type pendingFailover struct {
	asink.Sink
	primary, fallback asink.Sink
}

func (p pendingFailover) Name() string { return p.primary.Name() }

// WithBreaker overrides the circuit-breaker policy applied to sinks.
func (b *Builder) WithBreaker(opt rsink.BreakerOptions) *Builder {
	b.breaker = opt
	return b
}

// WithSelfSink routes emitted diagnostics back through the pipeline as
// native records carrying the reserved reason field, in addition to
// stderr.
func (b *Builder) WithSelfSink() *Builder {
	b.selfSink = true
	return b
}

// WithSignalHandling installs a SIGINT/SIGTERM handler that drains the
// pipeline with the configured shutdown timeout.
func (b *Builder) WithSignalHandling() *Builder {
	b.signals = true
	return b
}

// Build validates the configuration, assembles the pipeline, and
// starts it. This is the only place configuration errors surface.
func (b *Builder) Build(ctx context.Context) (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.settings.Validate(); err != nil {
		return nil, err
	}
	s := &b.settings

	m := metrics.New(nil)
	d := diag.New(diag.Options{OnEmit: func(diag.Event) { m.IncDiagnostics() }})

	serializer := b.serializer
	if serializer == nil {
		switch s.Format {
		case "pretty":
			serializer = pretty.New(encoder.Options{})
		default:
			serializer = jsonenc.New(encoder.Options{}, d)
		}
	}

	pl, err := pipeline.New(pipeline.Options{
		Enrichers:  b.enrichers,
		Redactors:  b.redactors,
		Filters:    b.filters,
		Serializer: serializer,
		Diag:       d,
		Metrics:    m,
	})
	if err != nil {
		d.Close()
		return nil, err
	}

	bindings, sinks, err := b.assembleSinks(ctx, d, m)
	if err != nil {
		d.Close()
		return nil, err
	}

	q := queue.New(queue.Options{
		Capacity: s.Queue.Capacity,
		Policy:   s.QueuePolicy(),
		Diag:     d,
		Metrics:  m,
	})

	for _, bind := range bindings {
		bind.BatchMaxCount = s.Batch.MaxCount
		bind.BatchMaxBytes = int(s.Batch.MaxBytes)
		bind.BatchTimeout = s.Batch.Timeout.Std()
	}

	pool := worker.NewPool(worker.Options{
		Queue:    q,
		Pipeline: pl,
		Bindings: bindings,
		Workers:  s.Workers,
		Diag:     d,
		Metrics:  m,
	})

	ctl := lifecycle.New(lifecycle.Options{
		Queue:         q,
		Pool:          pool,
		Sinks:         sinks,
		FlushInterval: s.Batch.Timeout.Std() * 4,
		DrainTimeout:  s.ShutdownTimeout.Std(),
		Diag:          d,
		Metrics:       m,
	})
	if err := ctl.Start(ctx); err != nil {
		d.Close()
		return nil, err
	}

	logger := &Logger{
		ctl:        ctl,
		q:          q,
		diag:       d,
		metrics:    m,
		floor:      s.FloorLevel(),
		drainAfter: s.ShutdownTimeout.Std(),
	}

	if b.selfSink {
		d.SetSelfEmit(func(ev diag.Event) {
			e := envelope.New(ev.Time, level.Warn, ev.Reason)
			e.PutData(fields.Diagnostic, ev.Source)
			e.PutData("count", ev.Count)
			logger.Emit(context.Background(), e)
		})
	}
	if b.signals {
		logger.stopSignal = ctl.HandleSignals(nil)
	}
	return logger, nil
}

// assembleSinks turns the requested bindings (or config defaults) into
// breaker-wrapped bindings plus the lifecycle sink list.
func (b *Builder) assembleSinks(ctx context.Context, d *diag.Reporter, m *metrics.Metrics) ([]*worker.Binding, []asink.Sink, error) {
	s := &b.settings
	bindings := b.bindings

	if len(bindings) == 0 {
		kind := "stdout"
		if s.File.Directory != "" {
			kind = "file"
		}
		built, err := rsink.Build(ctx, kind, rsink.Spec{
			Directory:     s.File.Directory,
			Prefix:        s.File.Prefix,
			MaxBytes:      int64(s.File.MaxBytes),
			Interval:      s.File.Interval.Every,
			Midnight:      s.File.Interval.Midnight,
			MaxFiles:      s.File.MaxFiles,
			MaxTotalBytes: int64(s.File.MaxTotalBytes),
			MaxAge:        s.File.MaxAge.Std(),
			Compress:      s.File.CompressRotated,
			Diag:          d,
			Metrics:       m,
		})
		if err != nil {
			return nil, nil, err
		}
		bindings = []*worker.Binding{{Sink: built}}
	}

	opt := b.breaker
	opt.Diag = d
	opt.Metrics = m

	sinks := make([]asink.Sink, 0, len(bindings))
	for _, bind := range bindings {
		switch inner := bind.Sink.(type) {
		case pendingFailover:
			bind.Sink = rsink.WithFailover(rsink.WithBreaker(inner.primary, opt), inner.fallback, d)
		default:
			bind.Sink = rsink.WithBreaker(inner, opt)
		}
		sinks = append(sinks, bind.Sink)
	}
	return bindings, sinks, nil
}
