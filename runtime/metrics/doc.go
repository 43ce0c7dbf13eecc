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

// Package metrics instruments the pipeline with prometheus collectors
// and a bounded, non-blocking export channel of (name, value, labels)
// samples for external consumers.
//
// Exposition (HTTP handlers etc.) is out of scope for the pipeline;
// callers register the collectors on their own registry and serve them
// however they like.
package metrics
