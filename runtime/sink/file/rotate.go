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
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// rotatedTimeLayout stamps rotated file names in UTC.
const rotatedTimeLayout = "20060102-150405"

// rotateLocked performs one rotation while the caller holds s.mu:
// close the active file, rename it to its timestamped name, kick off
// optional compression, apply retention, and open a fresh active file.
func (s *Sink) rotateLocked() error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}

	active := s.activePath()
	if _, err := os.Stat(active); err == nil {
		target := s.rotatedName(s.opt.now())
		// The rename must land before a new active file is opened;
		// otherwise a crash window could leave two actives.
		if err := os.Rename(active, target); err != nil {
			return err
		}
		s.opt.Metrics.IncRotations()

		if s.opt.Compress {
			s.compressAsync(target)
		}
		s.applyRetentionLocked()
	}

	s.size = 0
	s.deadline = s.nextDeadline(s.opt.now())
	return s.openCurrentLocked()
}

// rotatedName builds "{prefix}-{UTC_YYYYMMDD-HHMMSS}{ext}", extending
// the stamp when two rotations land within one second.
func (s *Sink) rotatedName(t time.Time) string {
	base := filepath.Join(s.opt.Directory,
		fmt.Sprintf("%s-%s%s", s.opt.Prefix, t.UTC().Format(rotatedTimeLayout), s.opt.Ext))
	name := base
	for n := 1; ; n++ {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			if _, err := os.Stat(name + ".gz"); os.IsNotExist(err) {
				return name
			}
		}
		name = fmt.Sprintf("%s.%d", base, n)
	}
}

// nextDeadline computes the next time-based rotation point.
func (s *Sink) nextDeadline(now time.Time) time.Time {
	if s.opt.Midnight {
		return nextMidnight(now)
	}
	if s.opt.Interval > 0 {
		return now.Truncate(s.opt.Interval).Add(s.opt.Interval)
	}
	return time.Time{}
}

// nextMidnight returns the next local wall-clock 00:00:00. Around DST
// transitions the result may drift by the offset change; that is
// acceptable for log rotation.
func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// compressAsync gzips path on a background goroutine so writes to the
// new active file proceed in parallel. Concurrency is bounded; failures
// are diagnostics only — the uncompressed rotated file stays on disk.
func (s *Sink) compressAsync(path string) {
	s.gzWG.Add(1)
	go func() {
		defer s.gzWG.Done()
		if err := s.gzSem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer s.gzSem.Release(1)
		if err := compressFile(path, s.opt.FileMode); err != nil {
			s.opt.Diag.Report(s.name, "compression failed: "+err.Error())
		}
	}()
}

// compressFile gzips srcPath into srcPath+".gz" and removes the original.
func compressFile(srcPath string, mode os.FileMode) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dstPath := srcPath + ".gz"
	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer dst.Close()

	gw := gzip.NewWriter(dst)
	if _, err := io.Copy(gw, src); err != nil {
		_ = gw.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}

	return os.Remove(srcPath)
}
