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
	"context"
	"errors"
	"time"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/stage"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/metrics"
)

// Result is the terminal decision for one envelope run.
type Result uint8

const (
	// ResultContinue means the envelope was serialized successfully.
	ResultContinue Result = iota

	// ResultFiltered means a filter stage dropped the envelope.
	ResultFiltered

	// ResultDropped means a closed redactor or the serializer failed
	// and the envelope was discarded.
	ResultDropped
)

// ErrNoSerializer is returned by New when no serializer is configured.
var ErrNoSerializer = errors.New("fapilog: pipeline requires a serializer")

// Options assembles a pipeline.
type Options struct {
	Enrichers  []stage.Enricher
	Redactors  []stage.Redactor
	Filters    []stage.Filter
	Serializer stage.Serializer

	// FailureLimit and FailureWindow disable a stage that keeps
	// failing: the FailureLimit-th error within FailureWindow turns the
	// stage off until the next lifecycle restart. Defaults: 5 in 60s.
	FailureLimit  int
	FailureWindow time.Duration

	Diag    *diag.Reporter
	Metrics *metrics.Metrics
}

// Pipeline executes the ordered stage families on worker-owned
// envelopes: enrichers, then redactors, then filters, then the
// serializer.
//
// Stage faults never abort the record: the envelope continues with its
// pre-error value and the fault becomes a diagnostic. The exceptions
// are redactors configured fail-closed and serializer errors, both of
// which drop the envelope.
type Pipeline struct {
	enrichers  []*guard[stage.Enricher]
	redactors  []*guard[stage.Redactor]
	filters    []*guard[stage.Filter]
	serializer stage.Serializer

	diag    *diag.Reporter
	metrics *metrics.Metrics
}

// New validates options and builds a pipeline.
func New(opt Options) (*Pipeline, error) {
	if opt.Serializer == nil {
		return nil, ErrNoSerializer
	}
	if opt.FailureLimit <= 1 {
		opt.FailureLimit = 5
	}
	if opt.FailureWindow <= 0 {
		opt.FailureWindow = time.Minute
	}
	p := &Pipeline{
		serializer: opt.Serializer,
		diag:       opt.Diag,
		metrics:    opt.Metrics,
	}
	for _, e := range opt.Enrichers {
		p.enrichers = append(p.enrichers, newGuard(e, e.Name(), opt))
	}
	for _, r := range opt.Redactors {
		p.redactors = append(p.redactors, newGuard(r, r.Name(), opt))
	}
	for _, f := range opt.Filters {
		p.filters = append(p.filters, newGuard(f, f.Name(), opt))
	}
	return p, nil
}

// Process runs the stage families on env and returns the serialized
// bytes when the result is ResultContinue.
func (p *Pipeline) Process(ctx context.Context, env *envelope.Envelope) ([]byte, Result) {
	for _, g := range p.enrichers {
		if g.disabled() {
			continue
		}
		before := env.Clone()
		start := time.Now()
		err := g.inner.Enrich(ctx, env)
		p.metrics.ObserveStage(g.name, time.Since(start))
		if err != nil {
			*env = *before
			g.fail(err)
		}
	}

	for _, g := range p.redactors {
		if g.disabled() {
			continue
		}
		before := env.Clone()
		start := time.Now()
		err := g.inner.Redact(ctx, env)
		p.metrics.ObserveStage(g.name, time.Since(start))
		if err != nil {
			*env = *before
			g.fail(err)
			if g.inner.OnError() == stage.OnErrorClosed {
				p.diag.Report("pipeline", "envelope dropped by fail-closed redactor "+g.name)
				p.metrics.IncDropped(1)
				return nil, ResultDropped
			}
		}
	}

	for _, g := range p.filters {
		if g.disabled() {
			continue
		}
		before := env.Clone()
		start := time.Now()
		decision, err := g.inner.Filter(ctx, env)
		p.metrics.ObserveStage(g.name, time.Since(start))
		if err != nil {
			*env = *before
			g.fail(err)
			continue // treated as Continue with the pre-error envelope
		}
		if decision == stage.Drop {
			p.metrics.IncFiltered()
			return nil, ResultFiltered
		}
	}

	start := time.Now()
	buf, err := p.serializer.Serialize(ctx, env)
	p.metrics.ObserveStage(p.serializer.Name(), time.Since(start))
	if err != nil {
		p.diag.Report("serializer:"+p.serializer.Name(), err.Error())
		p.metrics.IncDropped(1)
		return nil, ResultDropped
	}
	return buf, ResultContinue
}

// Serializer exposes the configured serializer (sinks use its content
// type for transport headers).
func (p *Pipeline) Serializer() stage.Serializer { return p.serializer }
