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

// Package worker drains the queue with background consumers.
//
// Each worker owns a sequence counter and per-sink batch buffers
// bounded jointly by count, bytes and a timeout; barriers flush
// everything and, for shutdown, close the queue so every worker drains
// out. Within one worker, output order per sink equals acceptance
// order; run a single worker when total order matters.
package worker
