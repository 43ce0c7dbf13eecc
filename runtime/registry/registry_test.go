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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBuild(t *testing.T) {
	r := New[string, int]()
	require.NoError(t, r.Register(Key{"sink", "file"}, BuilderFunc[string, int](
		func(ctx context.Context, name string, spec int) (string, error) {
			return name, nil
		})))

	got, err := r.Build(context.Background(), Key{"SINK", "File"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "file", got)

	_, err = r.Build(context.Background(), Key{"sink", "missing"}, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateAndSeal(t *testing.T) {
	r := New[string, int]()
	b := BuilderFunc[string, int](func(ctx context.Context, name string, spec int) (string, error) {
		return "", nil
	})
	require.NoError(t, r.Register(Key{"sink", "file"}, b))
	assert.ErrorIs(t, r.Register(Key{"Sink", "FILE"}, b), ErrDuplicate)

	r.Seal()
	assert.ErrorIs(t, r.Register(Key{"sink", "other"}, b), ErrSealed)

	keys := r.List()
	require.Len(t, keys, 1)
	assert.Equal(t, Key{"sink", "file"}, keys[0])
}
