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

// Package filter implements the built-in filter stages: level
// threshold, probabilistic sampling, keyed token-bucket rate limiting,
// and trace-consistent sampling.
package filter

import (
	"context"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/apis/stage"
)

// Threshold drops records below a minimum severity.
type Threshold struct {
	// Min is the lowest severity that passes.
	Min level.Level
}

var _ stage.Filter = Threshold{}

// Name implements stage.Filter.
func (Threshold) Name() string { return "level_threshold" }

// Filter implements stage.Filter.
func (t Threshold) Filter(ctx context.Context, e *envelope.Envelope) (stage.Decision, error) {
	if e.Level.Enabled(t.Min) {
		return stage.Continue, nil
	}
	return stage.Drop, nil
}
