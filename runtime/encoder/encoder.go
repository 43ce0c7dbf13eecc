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

// Package encoder hosts the serializer implementations and their shared
// options. Serializers implement the stage.Serializer contract and are
// the last pipeline stage before sink delivery.
package encoder

// Options controls common serializer behavior.
// Fields are intentionally minimal and implementation-agnostic.
type Options struct {
	// AppendNewline requests a trailing '\n'. For JSON Lines this
	// defaults to true. A nil value means "use serializer default".
	AppendNewline *bool
}

// PickLineEnding converts an optional boolean into a concrete line ending.
// Semantics:
//   - nil or true  => "\n" (line-oriented framing)
//   - false        => ""   (no trailing newline)
func PickLineEnding(p *bool) string {
	if p == nil || *p {
		return "\n"
	}
	return ""
}
