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

// Package console implements stdout/stderr sinks.
package console

import (
	"context"
	"io"
	"os"
	"sync"

	asink "github.com/chris-haste/fapilog/apis/sink"
	rsink "github.com/chris-haste/fapilog/runtime/sink"
)

func init() {
	rsink.Register("stdout", builder{w: os.Stdout, name: "stdout"})
	rsink.Register("stderr", builder{w: os.Stderr, name: "stderr"})
}

type builder struct {
	w    io.Writer
	name string
}

func (b builder) Build(ctx context.Context, name string, spec rsink.Spec) (asink.Sink, error) {
	n := spec.Name
	if n == "" {
		n = b.name
	}
	return New(n, b.w), nil
}

// Sink writes serialized records to a writer, one per line. Writes are
// serialized through a mutex so concurrent batches do not interleave.
type Sink struct {
	name string

	mu     sync.Mutex
	w      io.Writer
	closed bool
}

var _ asink.Sink = (*Sink)(nil)

// New builds a console sink over w.
func New(name string, w io.Writer) *Sink {
	return &Sink{name: name, w: w}
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return s.name }

// Start implements sink.Sink.
func (s *Sink) Start(ctx context.Context) error { return nil }

// Write implements sink.Sink.
func (s *Sink) Write(ctx context.Context, rec asink.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return os.ErrClosed
	}
	_, err := s.w.Write(rec.Bytes)
	return err
}

// WriteBatch implements sink.Sink.
func (s *Sink) WriteBatch(ctx context.Context, recs []asink.Record) map[int]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var acks map[int]error
	for i, rec := range recs {
		var err error
		if s.closed {
			err = os.ErrClosed
		} else {
			_, err = s.w.Write(rec.Bytes)
		}
		if err != nil {
			if acks == nil {
				acks = make(map[int]error)
			}
			acks[i] = err
		}
	}
	return acks
}

// Flush implements sink.Sink. Console writers are unbuffered here.
func (s *Sink) Flush(ctx context.Context) error { return nil }

// Stop implements sink.Sink.
func (s *Sink) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// HealthCheck implements sink.Sink.
func (s *Sink) HealthCheck(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}
