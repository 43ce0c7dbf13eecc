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

package fields

const (
	// Service is the logical name of the application/service/component
	// emitting the log (for example: "router", "auth", "billing-api").
	Service = "service"

	// Version is the version of the running service or binary.
	// This can be a semantic version, a git commit, or a build number.
	Version = "version"

	// Env describes the runtime environment in which the service operates,
	// such as "prod", "staging", "qa", "dev".
	Env = "env"

	// Hostname identifies the node/host/machine on which the process is
	// running. This helps to correlate logs with infrastructure-level events.
	Hostname = "hostname"

	// PID is the operating system process id of the emitter.
	PID = "pid"

	// GoVersion is the Go runtime version of the emitting process.
	GoVersion = "go_version"

	// RequestID is the application-level identifier that ties multiple
	// logs across services into one business transaction. Unlike
	// trace_id, this may originate from the client.
	RequestID = "request_id"

	// TraceID is the distributed tracing identifier (W3C / OpenTelemetry)
	// that links this log entry to a trace.
	TraceID = "trace_id"

	// SpanID is the distributed tracing span identifier (W3C / OpenTelemetry)
	// that links this log entry to a specific span inside the trace.
	SpanID = "span_id"

	// UserID identifies the acting end user, when known.
	UserID = "user_id"

	// TenantID identifies the tenant/organization in multi-tenant systems.
	TenantID = "tenant_id"

	// Timestamp is the moment when the log entry was created.
	// The JSON serializer renders it in UTC RFC-3339 with fractional seconds.
	Timestamp = "timestamp"

	// Level is the severity/verbosity of the log entry.
	// Typical values: "trace", "debug", "info", "notice", "warn", "error".
	Level = "level"

	// Message is the human-readable main text of the log entry.
	// It should be short and descriptive, while additional context
	// should go into structured fields.
	Message = "message"

	// Origin marks where the record entered the pipeline:
	// "native", "bridged" or "third_party".
	Origin = "origin"

	// Diagnostic is the reserved reason field attached to envelopes that
	// the pipeline emits about itself through a self-sink.
	Diagnostic = "fapilog.diagnostic"
)
