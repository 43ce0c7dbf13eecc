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

package redact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/stage"
)

// DefaultMask is the replacement token for redacted values.
const DefaultMask = "***"

const (
	// DefaultDepthCap bounds how deep the payload walk descends.
	DefaultDepthCap = 16

	// DefaultKeyScanCap bounds how many keys one redaction visits.
	DefaultKeyScanCap = 1000
)

// ErrNoPaths is returned when a field mask has nothing to match.
var ErrNoPaths = errors.New("fapilog: field mask requires at least one path")

// FieldMaskOptions configures a FieldMask redactor.
type FieldMaskOptions struct {
	// Paths is the allowlist of dotted paths to mask. A `*` segment
	// matches any key at that depth ("user.*.token").
	Paths []string

	// Mask replaces matched values. Default "***".
	Mask string

	// DepthCap and KeyScanCap bound the payload walk. Exceeding a cap
	// records a diagnostic on the envelope and leaves the unscanned
	// remainder untouched. Defaults 16 and 1000.
	DepthCap   int
	KeyScanCap int

	// OnError selects the failure policy. Default OnErrorWarn.
	OnError stage.ErrorMode
}

// FieldMask masks values addressed by dotted paths in the envelope's
// payload map.
type FieldMask struct {
	paths   [][]string
	mask    string
	depth   int
	keys    int
	onError stage.ErrorMode
}

var _ stage.Redactor = (*FieldMask)(nil)

// NewFieldMask validates the path list and builds the redactor.
func NewFieldMask(opt FieldMaskOptions) (*FieldMask, error) {
	if len(opt.Paths) == 0 {
		return nil, ErrNoPaths
	}
	if opt.Mask == "" {
		opt.Mask = DefaultMask
	}
	if opt.DepthCap <= 0 {
		opt.DepthCap = DefaultDepthCap
	}
	if opt.KeyScanCap <= 0 {
		opt.KeyScanCap = DefaultKeyScanCap
	}
	fm := &FieldMask{
		mask:    opt.Mask,
		depth:   opt.DepthCap,
		keys:    opt.KeyScanCap,
		onError: opt.OnError,
	}
	for _, p := range opt.Paths {
		segs := strings.Split(p, ".")
		for _, s := range segs {
			if s == "" {
				return nil, fmt.Errorf("fapilog: field mask path %q has an empty segment", p)
			}
		}
		fm.paths = append(fm.paths, segs)
	}
	return fm, nil
}

// Name implements stage.Redactor.
func (fm *FieldMask) Name() string { return "field_mask" }

// OnError implements stage.Redactor.
func (fm *FieldMask) OnError() stage.ErrorMode { return fm.onError }

// Redact walks the payload map and replaces every value matched by a
// configured path with the mask token.
func (fm *FieldMask) Redact(ctx context.Context, e *envelope.Envelope) error {
	if len(e.Data) == 0 {
		return nil
	}
	w := &walker{budget: fm.keys}
	for _, path := range fm.paths {
		w.apply(e.Data, path, 1, fm.depth, fm.mask)
	}
	if w.depthHit {
		e.AddDiagnostic("field_mask", "depth cap exceeded; remainder left unscanned")
	}
	if w.budget <= 0 {
		e.AddDiagnostic("field_mask", "key scan cap exceeded; remainder left unscanned")
	}
	return nil
}

type walker struct {
	budget   int
	depthHit bool
}

// apply matches one path against m. Wildcard segments fan out over all
// keys at that depth; terminal matches overwrite the value in place.
func (w *walker) apply(m map[string]any, path []string, depth, depthCap int, mask string) {
	if depth > depthCap {
		w.depthHit = true
		return
	}
	seg, rest := path[0], path[1:]

	if seg == "*" {
		for k, v := range m {
			if w.budget <= 0 {
				return
			}
			w.budget--
			w.match(m, k, v, rest, depth, depthCap, mask)
		}
		return
	}
	if w.budget <= 0 {
		return
	}
	w.budget--
	if v, ok := m[seg]; ok {
		w.match(m, seg, v, rest, depth, depthCap, mask)
	}
}

func (w *walker) match(m map[string]any, key string, v any, rest []string, depth, depthCap int, mask string) {
	if len(rest) == 0 {
		m[key] = mask
		return
	}
	if child, ok := v.(map[string]any); ok {
		w.apply(child, rest, depth+1, depthCap, mask)
	}
}
