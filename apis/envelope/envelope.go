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

package envelope

import (
	"fmt"
	"time"

	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/apis/logctx"
)

// Origin marks where a record entered the pipeline.
type Origin string

const (
	// OriginNative marks records produced through the fapilog facade.
	OriginNative Origin = "native"

	// OriginBridged marks records converted from another logging
	// frontend (for example the zap bridge).
	OriginBridged Origin = "bridged"

	// OriginThirdParty marks records injected by external integrations.
	OriginThirdParty Origin = "third_party"
)

// Outcome is the terminal fate of an envelope. Every envelope reaches
// exactly one outcome; the pipeline counters account for all of them.
type Outcome uint8

const (
	// OutcomeWritten means at least one sink accepted the record.
	OutcomeWritten Outcome = iota

	// OutcomeFiltered means a filter stage dropped the record.
	OutcomeFiltered

	// OutcomeDropped means backpressure or a pipeline fault discarded
	// the record before any sink saw it.
	OutcomeDropped
)

// Envelope is the canonical log record shape inside fapilog.
//
// An envelope is mutable only while it is owned by the worker running
// the stage pipeline. Once handed to the serializer (or dropped), it is
// logically frozen: sinks and diagnostics must treat it as read-only.
type Envelope struct {
	// Time is the event time, stamped at producer enqueue time in UTC.
	Time time.Time
	// Level defines the severity.
	Level level.Level
	// Message is the human-readable text.
	Message string
	// Origin tags the entry point of the record.
	Origin Origin
	// Seq is the capture-time sequence number, assigned by the worker
	// that processes the record. It is monotonically non-decreasing
	// within a single worker's output stream.
	Seq uint64
	// Ctx carries the correlation identifiers.
	Ctx logctx.Pack
	// Context is the bound context map (ambient ∪ facade ∪ call-site).
	Context map[string]any
	// Data is the structured payload (caller-supplied or plugin-enriched).
	Data map[string]any
	// Diagnostics collects non-fatal issues raised by enrichers and
	// redactors while processing this record.
	Diagnostics map[string]any
}

// New builds an envelope with the required parts. The timestamp is
// normalized to UTC.
func New(t time.Time, lvl level.Level, msg string) *Envelope {
	return &Envelope{
		Time:    t.UTC(),
		Level:   lvl,
		Message: msg,
		Origin:  OriginNative,
	}
}

// Validate checks that the envelope has a valid level and a non-zero
// timestamp. This is a contract-level check; runtime components may add
// stricter rules.
func (e *Envelope) Validate() error {
	if err := e.Level.Validate(); err != nil {
		return fmt.Errorf("fapilog: invalid envelope level: %w", err)
	}
	if e.Time.IsZero() {
		return fmt.Errorf("fapilog: envelope time is zero")
	}
	return nil
}

// PutData sets a payload field, allocating the map lazily.
func (e *Envelope) PutData(key string, value any) {
	if e.Data == nil {
		e.Data = make(map[string]any, 8)
	}
	e.Data[key] = value
}

// PutContext sets a bound-context field, allocating the map lazily.
func (e *Envelope) PutContext(key string, value any) {
	if e.Context == nil {
		e.Context = make(map[string]any, 8)
	}
	e.Context[key] = value
}

// AddDiagnostic records a non-fatal processing issue on the envelope.
// Enrichers and redactors use this for problems that should surface in
// the serialized output without failing the record.
func (e *Envelope) AddDiagnostic(source string, detail any) {
	if e.Diagnostics == nil {
		e.Diagnostics = make(map[string]any, 2)
	}
	e.Diagnostics[source] = detail
}

// Clone returns a copy of the envelope with its top-level maps copied
// one level deep. Nested containers are shared; stages that rewrite
// nested values must replace them rather than mutate in place.
func (e *Envelope) Clone() *Envelope {
	out := *e
	out.Context = copyMap(e.Context)
	out.Data = copyMap(e.Data)
	out.Diagnostics = copyMap(e.Diagnostics)
	return &out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
