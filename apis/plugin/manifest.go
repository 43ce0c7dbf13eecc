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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// APIVersion is the plugin API version exposed by this host.
// Plugins whose declared API major differs are rejected at discovery.
const APIVersion = "1.0.0"

// Type identifies one of the closed plugin capability sets.
type Type string

const (
	TypeEnricher   Type = "enricher"
	TypeRedactor   Type = "redactor"
	TypeFilter     Type = "filter"
	TypeSerializer Type = "serializer"
	TypeSink       Type = "sink"
)

var (
	// ErrManifestInvalid is returned for structurally broken manifests.
	ErrManifestInvalid = errors.New("fapilog: invalid plugin manifest")

	// ErrAPIIncompatible is returned when the manifest's declared API
	// major version does not match the host's.
	ErrAPIIncompatible = errors.New("fapilog: incompatible plugin api version")
)

// Manifest describes a plugin to be placed into the pipeline.
//
// It is intentionally generic: the runtime registry looks up the
// builder by (Type, Name) and decodes Config into the concrete
// plugin's settings.
type Manifest struct {
	// Name is a stable identifier of the plugin ("field_mask", "file", ...).
	Name string `json:"name"`

	// Version is the plugin's own version, informational.
	Version string `json:"version,omitempty"`

	// Type selects the capability set the plugin implements.
	Type Type `json:"type"`

	// Entrypoint is the registry key of the builder, when it differs
	// from Name.
	Entrypoint string `json:"entrypoint,omitempty"`

	// APIVersion is the plugin API version the plugin was built
	// against. Only the major component is compared.
	APIVersion string `json:"api_version"`

	// Config is an opaque configuration payload for this plugin.
	Config any `json:"config,omitempty"`
}

// Validate checks the manifest shape and API compatibility.
func (m Manifest) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrManifestInvalid)
	}
	switch m.Type {
	case TypeEnricher, TypeRedactor, TypeFilter, TypeSerializer, TypeSink:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrManifestInvalid, m.Type)
	}
	declared, err := major(m.APIVersion)
	if err != nil {
		return fmt.Errorf("%w: api_version %q", ErrManifestInvalid, m.APIVersion)
	}
	host, _ := major(APIVersion)
	if declared != host {
		return fmt.Errorf("%w: plugin %q declares api %s, host is %s",
			ErrAPIIncompatible, m.Name, m.APIVersion, APIVersion)
	}
	return nil
}

// Key returns the registry entrypoint: Entrypoint when set, Name otherwise.
func (m Manifest) Key() string {
	if m.Entrypoint != "" {
		return m.Entrypoint
	}
	return m.Name
}

func major(version string) (int, error) {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	head, _, _ := strings.Cut(v, ".")
	if head == "" {
		return 0, ErrManifestInvalid
	}
	return strconv.Atoi(head)
}
