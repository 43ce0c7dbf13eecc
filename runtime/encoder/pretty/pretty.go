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

// Package pretty renders envelopes as human-readable lines:
//
//	HH:MM:SS.sss LEVEL    [context-summary] message  key=value ...
//
// The layout is deterministic but NOT stable for machine parsing; use
// the json serializer for that.
package pretty

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/stage"
	"github.com/chris-haste/fapilog/runtime/encoder"
)

const (
	prettyName        = "pretty"
	prettyContentType = "text/plain; charset=utf-8"

	timeLayout = "15:04:05.000"

	// levelWidth pads the level column so messages align; "critical"
	// is the longest built-in.
	levelWidth = 8
)

// Serializer renders envelopes as aligned text lines.
type Serializer struct {
	lineEnding string
}

var _ stage.Serializer = (*Serializer)(nil)

// New builds the pretty serializer.
func New(opt encoder.Options) *Serializer {
	return &Serializer{lineEnding: encoder.PickLineEnding(opt.AppendNewline)}
}

// Name implements stage.Serializer.
func (s *Serializer) Name() string { return prettyName }

// ContentType implements stage.Serializer.
func (s *Serializer) ContentType() string { return prettyContentType }

// Serialize implements stage.Serializer.
func (s *Serializer) Serialize(ctx context.Context, e *envelope.Envelope) ([]byte, error) {
	var b strings.Builder
	b.Grow(96 + 16*len(e.Data))

	b.WriteString(e.Time.UTC().Format(timeLayout))
	b.WriteByte(' ')

	lvl := strings.ToUpper(e.Level.String())
	b.WriteString(lvl)
	for i := len(lvl); i < levelWidth; i++ {
		b.WriteByte(' ')
	}

	b.WriteByte('[')
	b.WriteString(summary(e))
	b.WriteString("] ")
	b.WriteString(e.Message)

	if len(e.Data) > 0 {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" ")
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(renderValue(e.Data[k]))
		}
	}

	b.WriteString(s.lineEnding)
	return []byte(b.String()), nil
}

// summary compacts the correlation pack into the bracket column.
func summary(e *envelope.Envelope) string {
	parts := make([]string, 0, 3)
	if e.Ctx.RequestID != "" {
		parts = append(parts, "req="+shorten(e.Ctx.RequestID))
	}
	if e.Ctx.TraceID != "" {
		parts = append(parts, "trace="+shorten(e.Ctx.TraceID))
	}
	if svc, ok := e.Context["service"].(string); ok {
		parts = append(parts, svc)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t\"") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case error:
		return fmt.Sprintf("%q", val.Error())
	default:
		return fmt.Sprint(val)
	}
}
