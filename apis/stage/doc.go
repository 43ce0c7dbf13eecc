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

// Package stage declares the contracts of the four in-pipeline
// transformation families: enrichers, redactors, filters and the
// serializer.
//
// These interfaces are intentionally small so that plugins can be
// composed freely. Error handling is owned by the pipeline runtime:
// a stage that returns an error does not abort the record — the
// envelope continues with its pre-error value and the fault is routed
// to diagnostics (redactors with OnErrorClosed are the one exception).
package stage
