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
	"regexp"
	"sort"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/stage"
)

// ErrNoPatterns is returned when a regex mask has nothing to match.
var ErrNoPatterns = errors.New("fapilog: regex mask requires at least one pattern")

// RegexMaskOptions configures a RegexMask redactor.
type RegexMaskOptions struct {
	// Patterns match key NAMES (not values), case-insensitively, at
	// any nesting depth.
	Patterns []string

	// Mask replaces values under matched keys. Default "***".
	Mask string

	// OnError selects the failure policy. Default OnErrorWarn.
	OnError stage.ErrorMode
}

// RegexMask masks values whose key name matches any configured pattern.
// Keys are visited in sorted order so execution is deterministic across
// invocations.
type RegexMask struct {
	patterns []*regexp.Regexp
	mask     string
	onError  stage.ErrorMode
}

var _ stage.Redactor = (*RegexMask)(nil)

// NewRegexMask compiles the patterns case-insensitively.
func NewRegexMask(opt RegexMaskOptions) (*RegexMask, error) {
	if len(opt.Patterns) == 0 {
		return nil, ErrNoPatterns
	}
	if opt.Mask == "" {
		opt.Mask = DefaultMask
	}
	rm := &RegexMask{mask: opt.Mask, onError: opt.OnError}
	for _, p := range opt.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("fapilog: regex mask pattern %q: %w", p, err)
		}
		rm.patterns = append(rm.patterns, re)
	}
	return rm, nil
}

// Name implements stage.Redactor.
func (rm *RegexMask) Name() string { return "regex_mask" }

// OnError implements stage.Redactor.
func (rm *RegexMask) OnError() stage.ErrorMode { return rm.onError }

// Redact masks matching keys in the payload map.
func (rm *RegexMask) Redact(ctx context.Context, e *envelope.Envelope) error {
	rm.walk(e.Data)
	return nil
}

func (rm *RegexMask) walk(m map[string]any) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if rm.matches(k) {
			m[k] = rm.mask
			continue
		}
		switch child := m[k].(type) {
		case map[string]any:
			rm.walk(child)
		case []any:
			for _, item := range child {
				if cm, ok := item.(map[string]any); ok {
					rm.walk(cm)
				}
			}
		}
	}
}

func (rm *RegexMask) matches(key string) bool {
	for _, re := range rm.patterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}
