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

package level

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"trace":    Trace,
		"DEBUG":    Debug,
		" info ":   Info,
		"notice":   Notice,
		"warn":     Warn,
		"warning":  Warn,
		"error":    Error,
		"err":      Error,
		"critical": Critical,
		"crit":     Critical,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseLevel("shout")
	assert.ErrorIs(t, err, ErrLevelInvalid)
}

func TestLevelOrdering(t *testing.T) {
	assert.True(t, Trace < Debug)
	assert.True(t, Debug < Info)
	assert.True(t, Info < Notice)
	assert.True(t, Notice < Warn)
	assert.True(t, Warn < Error)
	assert.True(t, Error < Critical)

	assert.True(t, Warn.Enabled(Info))
	assert.False(t, Debug.Enabled(Info))
}

func TestRegister(t *testing.T) {
	audit, err := Register("audit", 45)
	require.NoError(t, err)
	assert.True(t, audit > Warn && audit < Error)
	assert.Equal(t, "audit", audit.String())
	assert.NoError(t, audit.Validate())

	parsed, err := ParseLevel("AUDIT")
	require.NoError(t, err)
	assert.Equal(t, audit, parsed)

	_, err = Register("audit", 46)
	assert.ErrorIs(t, err, ErrLevelTaken)
	_, err = Register("other", 45)
	assert.ErrorIs(t, err, ErrLevelTaken)
	_, err = Register("warn", 47)
	assert.ErrorIs(t, err, ErrLevelTaken)
	_, err = Register("clash", int16(Info))
	assert.ErrorIs(t, err, ErrLevelTaken)
}

func TestLevelMarshalJSON(t *testing.T) {
	b, err := Warn.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"warn"`, string(b))

	var l Level
	require.NoError(t, l.UnmarshalJSON([]byte(`"error"`)))
	assert.Equal(t, Error, l)
	require.NoError(t, l.UnmarshalJSON([]byte(`30`)))
	assert.Equal(t, Info, l)
	assert.Error(t, l.UnmarshalJSON([]byte(`"nope"`)))
}

func TestLevelMarshalText(t *testing.T) {
	b, err := Notice.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "notice", string(b))

	var l Level
	require.NoError(t, l.UnmarshalText([]byte(" critical\n")))
	assert.Equal(t, Critical, l)

	bad := Level(999)
	_, err = bad.MarshalText()
	assert.ErrorIs(t, err, ErrLevelInvalid)
}
