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

// Package redact implements the built-in redactor stages: dotted-path
// field masking with wildcard support, key-name regex masking, and URL
// credential scrubbing.
//
// Redactors mutate the envelope in place while it is worker-owned.
// Walks are bounded (depth and key-scan caps) so a hostile payload
// cannot stall the pipeline; cap overruns surface in the envelope's
// diagnostics submap and leave the remainder untouched.
package redact
