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

package logctx

import "github.com/google/uuid"

// Pack is the normalized set of correlation identifiers that can be
// attached to a log record. All fields are optional.
//
// The struct is intended to be used as a plain value type: construct, fill,
// and pass further. Callers should treat it as immutable once created.
type Pack struct {
	// RequestID is an application-level correlation identifier.
	// It is often propagated via HTTP/gRPC headers and is meant to bind
	// multiple services into a single business transaction.
	RequestID string `json:"request_id"`

	// TraceID is the distributed tracing identifier (W3C / OTel compatible).
	// It ties this log entry to a trace.
	TraceID string `json:"trace_id"`

	// SpanID is the distributed tracing span identifier.
	// It ties this log entry to a specific span in the trace.
	SpanID string `json:"span_id"`

	// UserID identifies the acting end user, when known.
	UserID string `json:"user_id"`

	// TenantID identifies the tenant/organization in multi-tenant systems.
	TenantID string `json:"tenant_id"`
}

// Merge overlays fields from b onto a and returns the result.
//
// Rule:
//   - for each string field, if b.<field> is not empty, it replaces a.<field>.
//   - otherwise the original a.<field> value is kept.
func Merge(a, b Pack) Pack {
	out := a

	if b.RequestID != "" {
		out.RequestID = b.RequestID
	}
	if b.TraceID != "" {
		out.TraceID = b.TraceID
	}
	if b.SpanID != "" {
		out.SpanID = b.SpanID
	}
	if b.UserID != "" {
		out.UserID = b.UserID
	}
	if b.TenantID != "" {
		out.TenantID = b.TenantID
	}

	return out
}

// IsZero reports whether all fields of the pack are empty.
// Serializers use this to skip emitting an empty correlation section.
func (p Pack) IsZero() bool {
	return p.RequestID == "" &&
		p.TraceID == "" &&
		p.SpanID == "" &&
		p.UserID == "" &&
		p.TenantID == ""
}

// NewRequestID returns a fresh random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}
