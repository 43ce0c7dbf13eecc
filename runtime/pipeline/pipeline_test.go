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

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/apis/stage"
)

type fakeSerializer struct{ fail bool }

func (fakeSerializer) Name() string        { return "fake" }
func (fakeSerializer) ContentType() string { return "application/json" }
func (s fakeSerializer) Serialize(ctx context.Context, e *envelope.Envelope) ([]byte, error) {
	if s.fail {
		return nil, errors.New("boom")
	}
	return []byte(e.Message + "\n"), nil
}

type fakeEnricher struct {
	name string
	fn   func(*envelope.Envelope) error
}

func (f fakeEnricher) Name() string { return f.name }
func (f fakeEnricher) Enrich(ctx context.Context, e *envelope.Envelope) error {
	return f.fn(e)
}

type fakeRedactor struct {
	name string
	mode stage.ErrorMode
	fn   func(*envelope.Envelope) error
}

func (f fakeRedactor) Name() string             { return f.name }
func (f fakeRedactor) OnError() stage.ErrorMode { return f.mode }
func (f fakeRedactor) Redact(ctx context.Context, e *envelope.Envelope) error {
	return f.fn(e)
}

type fakeFilter struct {
	name string
	fn   func(*envelope.Envelope) (stage.Decision, error)
}

func (f fakeFilter) Name() string { return f.name }
func (f fakeFilter) Filter(ctx context.Context, e *envelope.Envelope) (stage.Decision, error) {
	return f.fn(e)
}

func newEnv() *envelope.Envelope {
	return envelope.New(time.Now(), level.Info, "hello")
}

func TestStageOrderAndSerialize(t *testing.T) {
	var order []string
	p, err := New(Options{
		Enrichers: []stage.Enricher{fakeEnricher{"e", func(e *envelope.Envelope) error {
			order = append(order, "enrich")
			return nil
		}}},
		Redactors: []stage.Redactor{fakeRedactor{"r", stage.OnErrorWarn, func(e *envelope.Envelope) error {
			order = append(order, "redact")
			return nil
		}}},
		Filters: []stage.Filter{fakeFilter{"f", func(e *envelope.Envelope) (stage.Decision, error) {
			order = append(order, "filter")
			return stage.Continue, nil
		}}},
		Serializer: fakeSerializer{},
	})
	require.NoError(t, err)

	buf, res := p.Process(context.Background(), newEnv())
	assert.Equal(t, ResultContinue, res)
	assert.Equal(t, "hello\n", string(buf))
	assert.Equal(t, []string{"enrich", "redact", "filter"}, order)
}

func TestRequiresSerializer(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrNoSerializer)
}

func TestEnricherErrorIsIsolated(t *testing.T) {
	p, err := New(Options{
		Enrichers: []stage.Enricher{fakeEnricher{"bad", func(e *envelope.Envelope) error {
			return errors.New("nope")
		}}},
		Serializer: fakeSerializer{},
	})
	require.NoError(t, err)

	buf, res := p.Process(context.Background(), newEnv())
	assert.Equal(t, ResultContinue, res)
	assert.NotEmpty(t, buf)
}

func TestRedactorFailClosedDrops(t *testing.T) {
	p, err := New(Options{
		Redactors: []stage.Redactor{fakeRedactor{"strict", stage.OnErrorClosed,
			func(e *envelope.Envelope) error { return errors.New("cannot mask") }}},
		Serializer: fakeSerializer{},
	})
	require.NoError(t, err)

	buf, res := p.Process(context.Background(), newEnv())
	assert.Equal(t, ResultDropped, res)
	assert.Nil(t, buf)
}

func TestRedactorWarnKeepsEnvelope(t *testing.T) {
	p, err := New(Options{
		Redactors: []stage.Redactor{fakeRedactor{"lax", stage.OnErrorWarn,
			func(e *envelope.Envelope) error { return errors.New("cannot mask") }}},
		Serializer: fakeSerializer{},
	})
	require.NoError(t, err)

	_, res := p.Process(context.Background(), newEnv())
	assert.Equal(t, ResultContinue, res)
}

func TestFilterDrop(t *testing.T) {
	p, err := New(Options{
		Filters: []stage.Filter{fakeFilter{"deny", func(e *envelope.Envelope) (stage.Decision, error) {
			return stage.Drop, nil
		}}},
		Serializer: fakeSerializer{},
	})
	require.NoError(t, err)

	_, res := p.Process(context.Background(), newEnv())
	assert.Equal(t, ResultFiltered, res)
}

func TestFilterErrorContinues(t *testing.T) {
	p, err := New(Options{
		Filters: []stage.Filter{fakeFilter{"flaky", func(e *envelope.Envelope) (stage.Decision, error) {
			return stage.Drop, errors.New("confused")
		}}},
		Serializer: fakeSerializer{},
	})
	require.NoError(t, err)

	// An erroring filter cannot drop: its decision is ignored.
	_, res := p.Process(context.Background(), newEnv())
	assert.Equal(t, ResultContinue, res)
}

func TestSerializerErrorDrops(t *testing.T) {
	p, err := New(Options{Serializer: fakeSerializer{fail: true}})
	require.NoError(t, err)
	buf, res := p.Process(context.Background(), newEnv())
	assert.Equal(t, ResultDropped, res)
	assert.Nil(t, buf)
}

func TestRepeatedFailuresDisableStage(t *testing.T) {
	calls := 0
	p, err := New(Options{
		Enrichers: []stage.Enricher{fakeEnricher{"flappy", func(e *envelope.Envelope) error {
			calls++
			return errors.New("always")
		}}},
		Serializer:    fakeSerializer{},
		FailureLimit:  3,
		FailureWindow: time.Minute,
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		p.Process(context.Background(), newEnv())
	}
	// The third failure inside the window trips the disable flag;
	// later records skip the stage entirely.
	assert.Equal(t, 3, calls)
}
