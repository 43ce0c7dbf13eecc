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

// Package queue implements the bounded MPSC ring between producers and
// workers.
//
// Envelopes obey the configured backpressure policy; flush and
// shutdown barriers bypass it, carry completion handles, and are never
// dropped. Ordering is FIFO per producer. The enqueue path holds one
// short mutex and allocates nothing beyond the envelope the caller
// already built.
package queue
