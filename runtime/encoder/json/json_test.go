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
	gojson "encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/runtime/encoder"
)

func serialize(t *testing.T, e *envelope.Envelope) string {
	t.Helper()
	s := New(encoder.Options{}, nil)
	buf, err := s.Serialize(context.Background(), e)
	require.NoError(t, err)
	return string(buf)
}

func TestShapeAndOrdering(t *testing.T) {
	e := envelope.New(time.Date(2026, 3, 1, 12, 0, 0, 500000000, time.UTC), level.Info, "hello world")
	e.PutContext("service", "api")
	e.PutData("b", 2)
	e.PutData("a", 1)
	e.Ctx.RequestID = "r-1"
	e.Ctx.TraceID = "t-1"

	out := serialize(t, e)
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t,
		`{"timestamp":"2026-03-01T12:00:00.500000000Z","level":"info","message":"hello world","origin":"native",`+
			`"context":{"service":"api"},"data":{"a":1,"b":2},"request_id":"r-1","trace_id":"t-1"}`+"\n",
		out)

	// Output is valid JSON.
	var m map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(out), &m))
}

func TestEmptySectionsOmitted(t *testing.T) {
	e := envelope.New(time.Now(), level.Debug, "m")
	out := serialize(t, e)
	assert.NotContains(t, out, `"context"`)
	assert.NotContains(t, out, `"data"`)
	assert.NotContains(t, out, `"diagnostics"`)
	assert.NotContains(t, out, `"request_id"`)
	assert.Contains(t, out, `"timestamp"`)
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"message":"m"`)
}

func TestNonFiniteFloatsBecomeNull(t *testing.T) {
	e := envelope.New(time.Now(), level.Info, "m")
	e.PutData("nan", math.NaN())
	e.PutData("inf", math.Inf(1))
	e.PutData("ninf", math.Inf(-1))
	e.PutData("ok", 1.5)

	out := serialize(t, e)
	assert.Contains(t, out, `"nan":null`)
	assert.Contains(t, out, `"inf":null`)
	assert.Contains(t, out, `"ninf":null`)
	assert.Contains(t, out, `"ok":1.5`)
}

func TestBytesBase64(t *testing.T) {
	e := envelope.New(time.Now(), level.Info, "m")
	e.PutData("blob", []byte("hi"))
	out := serialize(t, e)
	assert.Contains(t, out, `"blob":"aGk="`)
}

func TestNestedAndUnknownTypes(t *testing.T) {
	e := envelope.New(time.Now(), level.Info, "m")
	e.PutData("nested", map[string]any{
		"list": []any{1, "two", nil, true},
	})
	e.PutData("dur", 1500*time.Millisecond)
	type odd struct{ X int }
	e.PutData("odd", odd{X: 7})

	out := serialize(t, e)
	assert.Contains(t, out, `"list":[1,"two",null,true]`)
	assert.Contains(t, out, `"dur":"1.5s"`)
	assert.Contains(t, out, `"odd":"{7}"`)

	var m map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(out), &m))
}

func TestStringEscaping(t *testing.T) {
	e := envelope.New(time.Now(), level.Info, `quote " and newline
end`)
	out := serialize(t, e)
	var m map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(out), &m))
	assert.Equal(t, "quote \" and newline\nend", m["message"])
}

func TestNoNewlineOption(t *testing.T) {
	no := false
	s := New(encoder.Options{AppendNewline: &no}, nil)
	buf, err := s.Serialize(context.Background(), envelope.New(time.Now(), level.Info, "m"))
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(string(buf), "\n"))
}
