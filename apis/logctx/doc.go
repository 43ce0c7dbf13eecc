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

// Package logctx carries ambient logging state on context.Context:
// a per-task binding map and a correlation Pack (request, trace, span,
// user, tenant identifiers).
//
// Bindings follow copy-on-write semantics: Bind and Unbind derive new
// contexts and never mutate the parent's map, so a child task can bind
// freely without becoming visible to the parent. The facade reads the
// ambient state of the context passed to each log call, which makes the
// bindings of the calling task (not of the task that created the logger)
// the ones that apply.
//
// When work is handed to an executor that does not carry the context
// (thread pools, untyped callbacks), use Capture/Install or the Go
// helper to move the ambient state across the boundary explicitly.
package logctx
