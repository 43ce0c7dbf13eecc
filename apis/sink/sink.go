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

	"github.com/chris-haste/fapilog/apis/envelope"
)

// Record pairs a frozen envelope with its pre-serialized bytes.
//
// Sinks should use Bytes when present (fast path). A sink that needs a
// different wire shape may fall back to re-rendering from Env.
type Record struct {
	// Env is the source envelope. Read-only.
	Env *envelope.Envelope

	// Bytes is the serialized form produced by the pipeline serializer,
	// including the trailing newline for line-oriented formats.
	Bytes []byte
}

// Sink is a destination for log records.
//
// Notes:
//   - Sink must be safe to call from multiple goroutines unless stated
//     otherwise by the implementation; the worker serializes writes per
//     sink regardless.
//   - Sink must avoid panicking: it is the end of the pipeline.
//   - Write/WriteBatch errors mean the record was not persisted; the
//     runtime turns them into diagnostics, retries and breaker state.
type Sink interface {
	// Name returns a human-friendly identifier of the sink.
	// It is used for diagnostics, metrics and config lookups.
	Name() string

	// Start prepares the sink for writes (open files, dial, ...).
	// It is called exactly once before the first Write.
	Start(ctx context.Context) error

	// Write delivers a single record to the destination.
	Write(ctx context.Context, rec Record) error

	// WriteBatch delivers an ordered batch. The returned map carries
	// per-record failures keyed by index into recs; nil or empty means
	// every record was accepted. Implementations must not fail the
	// whole batch by returning an error for one bad record.
	WriteBatch(ctx context.Context, recs []Record) map[int]error

	// Flush ensures that all buffered/logically accepted entries are
	// actually written to the underlying destination. Implementations
	// that do not buffer may return nil.
	Flush(ctx context.Context) error

	// Stop flushes and releases underlying resources (files,
	// connections, buffers). After Stop, the sink should not be used.
	Stop(ctx context.Context) error

	// HealthCheck reports whether the sink is currently able to accept
	// writes. It should be quick and non-blocking.
	HealthCheck(ctx context.Context) bool
}
