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

// Package envelope defines the canonical log record shape flowing
// through the fapilog pipeline.
//
// This package intentionally contains only stable, minimal data
// structures and helper methods. It performs no I/O, encoding,
// buffering, or registry logic; serializers, stages and sinks live
// under runtime/.
//
// # Ownership & mutability
//
// Envelopes are created by the facade at enqueue time (which stamps the
// UTC timestamp and origin) and are mutable only by the worker-owned
// stage pipeline. Once serialized or dropped, the envelope is frozen:
// everything downstream treats it as read-only.
//
// # Outcomes
//
// Every envelope reaches exactly one terminal outcome — written,
// filtered, or dropped — which the pipeline counters account for
// (submitted = processed + filtered + dropped + in-flight).
package envelope
