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

package sink

import (
	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/level"
)

// Predicate selects which envelopes a sink receives. A nil predicate
// accepts everything.
type Predicate func(*envelope.Envelope) bool

// MinLevel admits records at or above the given severity.
func MinLevel(min level.Level) Predicate {
	return func(e *envelope.Envelope) bool {
		return e.Level.Enabled(min)
	}
}

// FieldEquals admits records whose payload field matches the value.
func FieldEquals(key string, value any) Predicate {
	return func(e *envelope.Envelope) bool {
		v, ok := e.Data[key]
		return ok && v == value
	}
}

// And admits records that every given predicate admits.
func And(preds ...Predicate) Predicate {
	return func(e *envelope.Envelope) bool {
		for _, p := range preds {
			if p != nil && !p(e) {
				return false
			}
		}
		return true
	}
}
