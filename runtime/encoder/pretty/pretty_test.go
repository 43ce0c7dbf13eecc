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

package pretty

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/runtime/encoder"
)

func TestPrettyLine(t *testing.T) {
	e := envelope.New(time.Date(2026, 3, 1, 9, 30, 15, 120000000, time.UTC), level.Warn, "disk nearly full")
	e.Ctx.RequestID = "req-12345678-extra"
	e.PutData("free_mb", 120)
	e.PutData("path", "/var/log")

	s := New(encoder.Options{})
	buf, err := s.Serialize(context.Background(), e)
	require.NoError(t, err)
	line := string(buf)

	assert.True(t, strings.HasPrefix(line, "09:30:15.120 WARN"))
	assert.Contains(t, line, "[req=req-1234]")
	assert.Contains(t, line, "disk nearly full")
	assert.Contains(t, line, "free_mb=120")
	assert.Contains(t, line, "path=/var/log")
	assert.True(t, strings.HasSuffix(line, "\n"))

	// Fields are sorted for a deterministic layout.
	assert.Less(t, strings.Index(line, "free_mb="), strings.Index(line, "path="))
}

func TestPrettyEmptyContextSummary(t *testing.T) {
	e := envelope.New(time.Now(), level.Info, "plain")
	s := New(encoder.Options{})
	buf, err := s.Serialize(context.Background(), e)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "[-] plain")
}

func TestPrettyQuotesAwkwardStrings(t *testing.T) {
	e := envelope.New(time.Now(), level.Info, "m")
	e.PutData("note", "has spaces")
	s := New(encoder.Options{})
	buf, err := s.Serialize(context.Background(), e)
	require.NoError(t, err)
	assert.Contains(t, string(buf), `note="has spaces"`)
}
