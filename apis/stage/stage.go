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

package stage

import (
	"context"

	"github.com/chris-haste/fapilog/apis/envelope"
)

// The four stage families run in a fixed order inside the worker:
// enrichers -> redactors -> filters -> serializer. Each family is a
// list of instances executed sequentially. Implementations shared
// across workers must be reentrant.

// Enricher observes-and-mutates the envelope by adding fields (runtime
// info, host metadata, context copies, tracing identifiers).
//
// Enrichers must not read unrelated fields and must be idempotent:
// running the same enricher twice on one envelope yields the same result.
type Enricher interface {
	// Name returns a stable identifier used in diagnostics and metrics.
	Name() string

	// Enrich mutates the envelope in place. An error is recorded as a
	// diagnostic; the envelope continues with its pre-error value.
	Enrich(ctx context.Context, e *envelope.Envelope) error
}

// ErrorMode selects how a redactor failure is handled.
type ErrorMode uint8

const (
	// OnErrorWarn preserves the original value and records a diagnostic.
	OnErrorWarn ErrorMode = iota

	// OnErrorClosed drops the entire envelope on redactor failure.
	// Use this when leaking an unredacted value is worse than losing
	// the record.
	OnErrorClosed
)

// Redactor mutates values to mask sensitive data.
type Redactor interface {
	// Name returns a stable identifier used in diagnostics and metrics.
	Name() string

	// Redact masks sensitive values on the envelope in place.
	Redact(ctx context.Context, e *envelope.Envelope) error

	// OnError reports this redactor's failure policy.
	OnError() ErrorMode
}

// Decision tells the pipeline what to do with the current record.
// The pipeline owns the control flow; filters only return one of these.
type Decision uint8

const (
	// Continue means the record should be passed to the next stage.
	Continue Decision = iota

	// Drop means the record should be discarded and the pipeline must
	// stop processing it. This is typically used by sampling,
	// throttling and rate-limit filters.
	Drop
)

// Filter may drop or mutate the envelope.
type Filter interface {
	// Name returns a stable identifier used in diagnostics and metrics.
	Name() string

	// Filter inspects (and may mutate) the envelope and decides whether
	// it continues. An error is recorded as a diagnostic and treated as
	// Continue with the pre-error envelope.
	Filter(ctx context.Context, e *envelope.Envelope) (Decision, error)
}

// Serializer produces the wire form of a frozen envelope.
type Serializer interface {
	// Name returns a short stable name ("json", "pretty", ...).
	Name() string

	// ContentType returns the MIME content type of the encoded output.
	ContentType() string

	// Serialize renders the envelope as a UTF-8 byte buffer. A failure
	// drops the envelope with a diagnostic; there is no partial output.
	Serialize(ctx context.Context, e *envelope.Envelope) ([]byte, error)
}
