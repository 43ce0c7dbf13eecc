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

package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManifestValidate(t *testing.T) {
	ok := Manifest{Name: "field_mask", Type: TypeRedactor, APIVersion: "1.2.9"}
	assert.NoError(t, ok.Validate())

	vPrefixed := Manifest{Name: "x", Type: TypeFilter, APIVersion: "v1.0.0"}
	assert.NoError(t, vPrefixed.Validate())

	wrongMajor := Manifest{Name: "x", Type: TypeFilter, APIVersion: "2.0.0"}
	assert.ErrorIs(t, wrongMajor.Validate(), ErrAPIIncompatible)

	noName := Manifest{Type: TypeSink, APIVersion: "1.0.0"}
	assert.ErrorIs(t, noName.Validate(), ErrManifestInvalid)

	badType := Manifest{Name: "x", Type: "widget", APIVersion: "1.0.0"}
	assert.ErrorIs(t, badType.Validate(), ErrManifestInvalid)

	badVersion := Manifest{Name: "x", Type: TypeSink, APIVersion: "one"}
	assert.ErrorIs(t, badVersion.Validate(), ErrManifestInvalid)
}

func TestManifestKey(t *testing.T) {
	m := Manifest{Name: "mask"}
	assert.Equal(t, "mask", m.Key())
	m.Entrypoint = "redact/mask"
	assert.Equal(t, "redact/mask", m.Key())
}
