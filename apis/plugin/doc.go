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

// Package plugin defines the discovery manifest for pipeline
// extensions. A manifest names the plugin, its capability type and the
// plugin API version it was built against; hosts reject manifests whose
// API major does not match theirs. Builders themselves are registered
// in the runtime registry (see runtime/registry).
package plugin
