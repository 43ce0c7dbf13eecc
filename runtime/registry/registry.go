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

package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when no builder is registered under a key.
	ErrNotFound = errors.New("fapilog: builder not registered")

	// ErrSealed is returned when registering into a sealed registry.
	ErrSealed = errors.New("fapilog: registry sealed")

	// ErrDuplicate is returned when a key is registered twice.
	ErrDuplicate = errors.New("fapilog: builder already registered")
)

// Key addresses a builder by capability kind and plugin name.
type Key struct {
	Kind string
	Name string
}

// Builder constructs a component of type T from a spec of type S.
// Implementations must be stateless and safe for concurrent use.
type Builder[T, S any] interface {
	Build(ctx context.Context, name string, spec S) (T, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc[T, S any] func(ctx context.Context, name string, spec S) (T, error)

// Build calls f.
func (f BuilderFunc[T, S]) Build(ctx context.Context, name string, spec S) (T, error) {
	return f(ctx, name, spec)
}

// Registry is a sealed builder registry keyed by (kind, name),
// case-insensitive for convenience.
type Registry[T, S any] struct {
	mu      sync.RWMutex
	entries map[Key]Builder[T, S]
	sealed  bool
}

// New builds an empty registry.
func New[T, S any]() *Registry[T, S] {
	return &Registry[T, S]{entries: make(map[Key]Builder[T, S])}
}

func fold(k Key) Key {
	return Key{Kind: strings.ToLower(k.Kind), Name: strings.ToLower(k.Name)}
}

// Register adds a builder under key. Registering after Seal or
// registering a duplicate key fails.
func (r *Registry[T, S]) Register(key Key, b Builder[T, S]) error {
	key = fold(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("%w: %s/%s", ErrSealed, key.Kind, key.Name)
	}
	if _, ok := r.entries[key]; ok {
		return fmt.Errorf("%w: %s/%s", ErrDuplicate, key.Kind, key.Name)
	}
	r.entries[key] = b
	return nil
}

// MustRegister is Register that panics on error.
// Typical usage is from package init().
func (r *Registry[T, S]) MustRegister(key Key, b Builder[T, S]) {
	if err := r.Register(key, b); err != nil {
		panic(err)
	}
}

// Build constructs an instance from the registered builder.
func (r *Registry[T, S]) Build(ctx context.Context, key Key, spec S) (T, error) {
	key = fold(key)
	r.mu.RLock()
	b, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%s", ErrNotFound, key.Kind, key.Name)
	}
	return b.Build(ctx, key.Name, spec)
}

// Seal prevents further registrations (call once all init() are done).
func (r *Registry[T, S]) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// List returns the registered keys sorted by kind then name.
func (r *Registry[T, S]) List() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}
