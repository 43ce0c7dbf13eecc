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

// Package sink defines the uniform asynchronous write contract for
// output destinations.
//
// Sinks accept already-serialized bytes (see Record) to stay
// independent of encoders. The runtime wraps sinks with batching,
// retry, circuit-breaker and fallback behavior; implementations should
// stay simple and report failures through returned errors rather than
// panics.
package sink
