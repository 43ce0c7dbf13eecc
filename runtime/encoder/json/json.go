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

package json

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/joeycumines/go-utilpkg/jsonenc"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/stage"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/encoder"
)

const (
	jsonName        = "json"
	jsonContentType = "application/json"

	// timeLayout is RFC-3339 with a fixed nanosecond fraction so the
	// fractional part is always present.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Serializer renders envelopes as JSON Lines: one UTF-8 object per
// record with a trailing newline.
//
// Encoding rules:
//   - envelope sections appear in a fixed order; map keys are emitted
//     sorted, so output is deterministic;
//   - empty sections and absent correlation ids are omitted (timestamp,
//     level and message always appear);
//   - NaN and ±Inf become null and raise a diagnostic;
//   - []byte values are base64-encoded;
//   - unknown types fall back to their canonical string representation.
type Serializer struct {
	diag       *diag.Reporter
	lineEnding string
}

var _ stage.Serializer = (*Serializer)(nil)

// New builds the JSON serializer. The reporter may be nil.
func New(opt encoder.Options, d *diag.Reporter) *Serializer {
	return &Serializer{
		diag:       d,
		lineEnding: encoder.PickLineEnding(opt.AppendNewline),
	}
}

// Name implements stage.Serializer.
func (s *Serializer) Name() string { return jsonName }

// ContentType implements stage.Serializer.
func (s *Serializer) ContentType() string { return jsonContentType }

// Serialize implements stage.Serializer.
func (s *Serializer) Serialize(ctx context.Context, e *envelope.Envelope) ([]byte, error) {
	buf := make([]byte, 0, 256+16*len(e.Data))

	buf = append(buf, `{"timestamp":`...)
	buf = jsonenc.AppendString(buf, e.Time.UTC().Format(timeLayout))
	buf = append(buf, `,"level":`...)
	buf = jsonenc.AppendString(buf, e.Level.String())
	buf = append(buf, `,"message":`...)
	buf = jsonenc.AppendString(buf, e.Message)
	if e.Origin != "" {
		buf = append(buf, `,"origin":`...)
		buf = jsonenc.AppendString(buf, string(e.Origin))
	}

	buf = s.appendSection(buf, "context", e.Context)
	buf = s.appendSection(buf, "data", e.Data)
	buf = s.appendSection(buf, "diagnostics", e.Diagnostics)

	buf = appendOptString(buf, "request_id", e.Ctx.RequestID)
	buf = appendOptString(buf, "trace_id", e.Ctx.TraceID)
	buf = appendOptString(buf, "span_id", e.Ctx.SpanID)
	buf = appendOptString(buf, "user_id", e.Ctx.UserID)
	buf = appendOptString(buf, "tenant_id", e.Ctx.TenantID)

	buf = append(buf, '}')
	buf = append(buf, s.lineEnding...)
	return buf, nil
}

func appendOptString(buf []byte, key, val string) []byte {
	if val == "" {
		return buf
	}
	buf = append(buf, ',', '"')
	buf = append(buf, key...)
	buf = append(buf, '"', ':')
	return jsonenc.AppendString(buf, val)
}

func (s *Serializer) appendSection(buf []byte, key string, m map[string]any) []byte {
	if len(m) == 0 {
		return buf
	}
	buf = append(buf, ',', '"')
	buf = append(buf, key...)
	buf = append(buf, '"', ':')
	return s.appendMap(buf, m)
}

func (s *Serializer) appendMap(buf []byte, m map[string]any) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = jsonenc.AppendString(buf, k)
		buf = append(buf, ':')
		buf = s.appendValue(buf, m[k])
	}
	return append(buf, '}')
}

func (s *Serializer) appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...)
	case bool:
		if val {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case string:
		return jsonenc.AppendString(buf, val)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int8:
		return strconv.AppendInt(buf, int64(val), 10)
	case int16:
		return strconv.AppendInt(buf, int64(val), 10)
	case int32:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint8:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint16:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case float32:
		return s.appendFloat(buf, float64(val))
	case float64:
		return s.appendFloat(buf, val)
	case []byte:
		buf = append(buf, '"')
		buf = base64.StdEncoding.AppendEncode(buf, val)
		return append(buf, '"')
	case time.Time:
		return jsonenc.AppendString(buf, val.UTC().Format(timeLayout))
	case time.Duration:
		return jsonenc.AppendString(buf, val.String())
	case error:
		return jsonenc.AppendString(buf, val.Error())
	case map[string]any:
		return s.appendMap(buf, val)
	case []any:
		buf = append(buf, '[')
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = s.appendValue(buf, item)
		}
		return append(buf, ']')
	case fmt.Stringer:
		return jsonenc.AppendString(buf, val.String())
	default:
		return jsonenc.AppendString(buf, fmt.Sprintf("%v", val))
	}
}

func (s *Serializer) appendFloat(buf []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		s.diag.Report("serializer:json", "non-finite float rendered as null")
		return append(buf, "null"...)
	}
	return jsonenc.AppendFloat64(buf, f)
}
