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

package logctx

import (
	"context"

	"github.com/chris-haste/fapilog/apis/field"
)

type bindingsKey struct{}
type packKey struct{}

// Bind returns a context carrying the given fields as ambient log
// bindings, on top of whatever the parent context already carries.
//
// The parent's binding map is never mutated: Bind copies it and applies
// the new fields on the copy, so derived contexts (child tasks) cannot
// affect their parent.
func Bind(ctx context.Context, fields ...field.Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	cur := From(ctx)
	next := make(map[string]any, len(cur)+len(fields))
	for k, v := range cur {
		next[k] = v
	}
	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		next[f.Key] = f.Value
	}
	return context.WithValue(ctx, bindingsKey{}, next)
}

// Unbind returns a context whose ambient bindings no longer contain the
// given keys. Keys that are not bound are ignored.
func Unbind(ctx context.Context, keys ...string) context.Context {
	cur := From(ctx)
	if len(cur) == 0 || len(keys) == 0 {
		return ctx
	}
	next := make(map[string]any, len(cur))
	for k, v := range cur {
		next[k] = v
	}
	for _, k := range keys {
		delete(next, k)
	}
	return context.WithValue(ctx, bindingsKey{}, next)
}

// Clear returns a context with no ambient bindings.
func Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, bindingsKey{}, map[string]any(nil))
}

// From returns the ambient binding map of the context. The returned map
// is shared and MUST be treated as read-only; use Bind/Unbind to derive
// modified contexts.
func From(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	m, _ := ctx.Value(bindingsKey{}).(map[string]any)
	return m
}

// WithPack returns a context carrying the given correlation pack,
// merged over any pack already present (non-empty fields win).
func WithPack(ctx context.Context, p Pack) context.Context {
	return context.WithValue(ctx, packKey{}, Merge(PackFrom(ctx), p))
}

// PackFrom returns the correlation pack of the context, or a zero Pack.
func PackFrom(ctx context.Context) Pack {
	if ctx == nil {
		return Pack{}
	}
	p, _ := ctx.Value(packKey{}).(Pack)
	return p
}

// Snapshot is a frozen copy of the ambient state of one logical task:
// the binding map plus the correlation pack. It is safe to carry across
// goroutine and executor boundaries.
type Snapshot struct {
	bindings map[string]any
	pack     Pack
}

// Capture snapshots the ambient state of ctx.
func Capture(ctx context.Context) Snapshot {
	return Snapshot{bindings: From(ctx), pack: PackFrom(ctx)}
}

// Install returns a context with the snapshot's state installed,
// replacing whatever the target context carried before.
func (s Snapshot) Install(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, bindingsKey{}, s.bindings)
	return context.WithValue(ctx, packKey{}, s.pack)
}

// Run invokes work with the snapshot installed on a fresh background
// context. Use this when offloading to executors that would otherwise
// lose the ambient state.
func (s Snapshot) Run(work func(ctx context.Context)) {
	work(s.Install(context.Background()))
}

// Go spawns work on a new goroutine with the ambient state of ctx
// captured at call time. Mutations the child performs via Bind affect
// only the child's derived context, never the parent's.
func Go(ctx context.Context, work func(ctx context.Context)) {
	snap := Capture(ctx)
	go func() {
		work(snap.Install(context.Background()))
	}()
}
