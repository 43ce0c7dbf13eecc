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

package sink

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chris-haste/fapilog/apis/plugin"
	asink "github.com/chris-haste/fapilog/apis/sink"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/metrics"
	"github.com/chris-haste/fapilog/runtime/registry"
)

// Spec is the runtime configuration handed to sink builders. Builders
// read the fields relevant to their kind and ignore the rest.
type Spec struct {
	// Name is the logical sink name. Empty defaults to the kind.
	Name string

	// File sink fields.
	Directory     string
	Prefix        string
	Ext           string
	MaxBytes      int64
	Interval      time.Duration
	Midnight      bool
	MaxFiles      int
	MaxTotalBytes int64
	MaxAge        time.Duration
	Compress      bool
	FileMode      os.FileMode

	// Shared plumbing.
	Diag    *diag.Reporter
	Metrics *metrics.Metrics
}

// Registry is the process-wide sink builder registry. Sink packages
// register themselves from init(); the facade builds from it.
var Registry = registry.New[asink.Sink, Spec]()

// Register registers a sink builder under kind.
// Typical usage from package init(): Register("stdout", build).
func Register(kind string, b registry.Builder[asink.Sink, Spec]) {
	Registry.MustRegister(registry.Key{Kind: "sink", Name: kind}, b)
}

// RegisterManifest registers an external sink plugin after validating
// its manifest: the declared capability must be sink and the plugin API
// major must match the host's.
func RegisterManifest(m plugin.Manifest, b registry.Builder[asink.Sink, Spec]) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Type != plugin.TypeSink {
		return fmt.Errorf("%w: manifest %q is %s, not a sink",
			plugin.ErrManifestInvalid, m.Name, m.Type)
	}
	return Registry.Register(registry.Key{Kind: "sink", Name: m.Key()}, b)
}

// Build constructs a sink instance from the registered builder.
func Build(ctx context.Context, kind string, spec Spec) (asink.Sink, error) {
	return Registry.Build(ctx, registry.Key{Kind: "sink", Name: kind}, spec)
}

// Seal prevents further registrations (optional, once all init() done).
func Seal() { Registry.Seal() }
