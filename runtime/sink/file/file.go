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

package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	asink "github.com/chris-haste/fapilog/apis/sink"
	"github.com/chris-haste/fapilog/runtime/diag"
	"github.com/chris-haste/fapilog/runtime/metrics"
	"github.com/chris-haste/fapilog/runtime/registry"
	rsink "github.com/chris-haste/fapilog/runtime/sink"
)

var (
	// ErrClosed indicates that the sink has been stopped.
	ErrClosed = errors.New("fapilog: file sink closed")

	// ErrNoDirectory indicates that an empty directory was configured.
	ErrNoDirectory = errors.New("fapilog: file sink requires a directory")
)

func init() {
	rsink.Register("file", registry.BuilderFunc[asink.Sink, rsink.Spec](
		func(ctx context.Context, name string, spec rsink.Spec) (asink.Sink, error) {
			return New(Options{
				Directory:     spec.Directory,
				Prefix:        spec.Prefix,
				Ext:           spec.Ext,
				MaxBytes:      spec.MaxBytes,
				Interval:      spec.Interval,
				Midnight:      spec.Midnight,
				MaxFiles:      spec.MaxFiles,
				MaxTotalBytes: spec.MaxTotalBytes,
				MaxAge:        spec.MaxAge,
				Compress:      spec.Compress,
				FileMode:      spec.FileMode,
				Diag:          spec.Diag,
				Metrics:       spec.Metrics,
			})
		}))
}

// Options configures a rotating file sink.
type Options struct {
	// Directory holds the active and rotated files.
	Directory string

	// Prefix names the files. Default "fapilog".
	Prefix string

	// Ext is ".jsonl" or ".log". Default ".jsonl".
	Ext string

	// MaxBytes rotates before a write would push the active file past
	// this size. Zero disables size-based rotation.
	MaxBytes int64

	// Interval rotates at the next multiple of Interval after the current
	// time (with one hour: on the hour), recomputed after each rotation.
	// Zero disables interval rotation.
	Interval time.Duration

	// Midnight rotates at the next local wall-clock midnight,
	// recomputed after each rotation. Takes precedence over Interval.
	Midnight bool

	// MaxFiles bounds how many rotated files are retained. Zero keeps all.
	MaxFiles int

	// MaxTotalBytes bounds the cumulative size of rotated files.
	// Zero keeps all.
	MaxTotalBytes int64

	// MaxAge deletes rotated files whose mtime is older. Zero keeps all.
	MaxAge time.Duration

	// Compress gzips rotated files asynchronously.
	Compress bool

	// FileMode controls permissions for created log files.
	// When zero, a default of 0640 is used.
	FileMode os.FileMode

	Diag    *diag.Reporter
	Metrics *metrics.Metrics

	// now is a test hook; defaults to time.Now.
	now func() time.Time
}

// Sink writes serialized records to an active file and rotates it on
// size and time triggers, applying retention after every rotation.
//
// Semantics:
//
//   - Write/WriteBatch are concurrency safe (guarded by a mutex);
//     rotation happens before the write that would exceed a trigger.
//   - The rename of the active file always precedes opening the new
//     one; in-flight writes serialize through the sink lock.
//   - Retention never blocks writes: stat/unlink failures are swallowed
//     to diagnostics.
//   - Compression runs on background goroutines bounded by a semaphore;
//     Stop waits for them.
type Sink struct {
	opt  Options
	name string

	mu       sync.Mutex
	file     *os.File
	size     int64
	deadline time.Time
	closed   bool

	gzSem *semaphore.Weighted
	gzWG  sync.WaitGroup
}

var _ asink.Sink = (*Sink)(nil)

// New validates options and builds the sink. The active file is opened
// by Start.
func New(opt Options) (*Sink, error) {
	if opt.Directory == "" {
		return nil, ErrNoDirectory
	}
	if opt.Prefix == "" {
		opt.Prefix = "fapilog"
	}
	if opt.Ext == "" {
		opt.Ext = ".jsonl"
	}
	if opt.FileMode == 0 {
		opt.FileMode = 0o640
	}
	if opt.now == nil {
		opt.now = time.Now
	}
	return &Sink{
		opt:   opt,
		name:  "file(" + opt.Prefix + opt.Ext + ")",
		gzSem: semaphore.NewWeighted(2),
	}, nil
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return s.name }

// activePath is the current write target.
func (s *Sink) activePath() string {
	return filepath.Join(s.opt.Directory, s.opt.Prefix+s.opt.Ext)
}

// Start opens (or creates) the active file and initializes rotation
// state from its current size and the configured time trigger.
func (s *Sink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openCurrentLocked(); err != nil {
		return err
	}
	s.deadline = s.nextDeadline(s.opt.now())
	return nil
}

// Write implements sink.Sink, rotating first when a trigger fires.
func (s *Sink) Write(ctx context.Context, rec asink.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(rec.Bytes)
}

// WriteBatch implements sink.Sink. Each record checks the rotation
// triggers individually so size bounds hold inside a batch too.
func (s *Sink) WriteBatch(ctx context.Context, recs []asink.Record) map[int]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var acks map[int]error
	for i, rec := range recs {
		if err := s.writeLocked(rec.Bytes); err != nil {
			if acks == nil {
				acks = make(map[int]error)
			}
			acks[i] = err
		}
	}
	return acks
}

func (s *Sink) writeLocked(entry []byte) error {
	if s.closed {
		return ErrClosed
	}
	if s.file == nil {
		if err := s.openCurrentLocked(); err != nil {
			return err
		}
	}
	if s.shouldRotate(s.opt.now(), len(entry)) {
		if err := s.rotateLocked(); err != nil {
			return err
		}
	}

	n, err := s.file.Write(entry)
	s.size += int64(n)
	if err != nil {
		// A failed write (out of space, stale handle) closes and
		// rotates rather than truncating; buffered batches stay intact
		// upstream and the next write starts on a fresh file.
		s.opt.Diag.Report(s.name, "write failed: "+err.Error())
		if rerr := s.rotateLocked(); rerr != nil {
			s.opt.Diag.Report(s.name, "recovery rotation failed: "+rerr.Error())
		}
		return err
	}
	return nil
}

// Flush implements sink.Sink (fsync on the active file).
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.file == nil {
		return nil
	}
	return s.file.Sync()
}

// Stop closes the active file and waits for pending compressions.
// Stop is idempotent.
func (s *Sink) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var err error
	if s.file != nil {
		err = s.file.Close()
		s.file = nil
	}
	s.mu.Unlock()

	s.gzWG.Wait()
	return err
}

// HealthCheck implements sink.Sink.
func (s *Sink) HealthCheck(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// openCurrentLocked opens the active file, initializing size state.
func (s *Sink) openCurrentLocked() error {
	if err := os.MkdirAll(s.opt.Directory, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.activePath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, s.opt.FileMode)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	s.file = f
	s.size = info.Size()
	return nil
}

// shouldRotate decides whether a rotation is required before writing an
// entry of the given size.
func (s *Sink) shouldRotate(now time.Time, incoming int) bool {
	if s.opt.MaxBytes > 0 && s.size > 0 && s.size+int64(incoming) > s.opt.MaxBytes {
		return true
	}
	if !s.deadline.IsZero() && !now.Before(s.deadline) {
		return true
	}
	return false
}
