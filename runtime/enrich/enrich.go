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

// Package enrich implements the built-in enricher stages. Enrichers
// only add fields; they are idempotent, so replaying one on an already
// enriched envelope is harmless.
package enrich

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/field/fields"
	"github.com/chris-haste/fapilog/apis/logctx"
	"github.com/chris-haste/fapilog/apis/stage"
)

// Runtime adds process-level runtime information (pid, Go version).
type Runtime struct{}

var _ stage.Enricher = Runtime{}

// Name implements stage.Enricher.
func (Runtime) Name() string { return "runtime_info" }

// Enrich implements stage.Enricher.
func (Runtime) Enrich(ctx context.Context, e *envelope.Envelope) error {
	e.PutContext(fields.PID, os.Getpid())
	e.PutContext(fields.GoVersion, runtime.Version())
	return nil
}

// Host adds host metadata. The hostname is resolved once and cached;
// resolution failure is reported once through the envelope diagnostics.
type Host struct {
	once sync.Once
	name string
	err  error
}

var _ stage.Enricher = (*Host)(nil)

// Name implements stage.Enricher.
func (*Host) Name() string { return "host_metadata" }

// Enrich implements stage.Enricher.
func (h *Host) Enrich(ctx context.Context, e *envelope.Envelope) error {
	h.once.Do(func() { h.name, h.err = os.Hostname() })
	if h.err != nil {
		e.AddDiagnostic("host_metadata", "hostname unavailable: "+h.err.Error())
		return nil
	}
	e.PutContext(fields.Hostname, h.name)
	return nil
}

// Static adds a fixed set of service-identity fields (service name,
// version, environment) to every record.
type Static struct {
	// Fields is copied into the envelope context as-is.
	Fields map[string]any
}

var _ stage.Enricher = Static{}

// Name implements stage.Enricher.
func (Static) Name() string { return "static_fields" }

// Enrich implements stage.Enricher.
func (s Static) Enrich(ctx context.Context, e *envelope.Envelope) error {
	for k, v := range s.Fields {
		e.PutContext(k, v)
	}
	return nil
}

// Correlation fills a missing request id so every record is traceable,
// even when the caller never attached one.
type Correlation struct{}

var _ stage.Enricher = Correlation{}

// Name implements stage.Enricher.
func (Correlation) Name() string { return "correlation" }

// Enrich implements stage.Enricher.
func (Correlation) Enrich(ctx context.Context, e *envelope.Envelope) error {
	if e.Ctx.RequestID == "" {
		e.Ctx.RequestID = logctx.NewRequestID()
	}
	return nil
}

// PIDString is a helper for consumers that want the pid as a string
// label (metrics attribution).
func PIDString() string { return strconv.Itoa(os.Getpid()) }
