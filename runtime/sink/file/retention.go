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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// rotated describes one rotated file on disk.
type rotated struct {
	path    string
	modTime time.Time
	size    int64
}

// applyRetentionLocked prunes rotated files in the fixed order
// age -> count -> total size. It never blocks writes: every stat and
// unlink failure is swallowed to diagnostics.
func (s *Sink) applyRetentionLocked() {
	files, ok := s.listRotated()
	if !ok {
		return
	}
	// Oldest first; mtime is the ground truth for age.
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	now := s.opt.now()

	if s.opt.MaxAge > 0 {
		cutoff := now.Add(-s.opt.MaxAge)
		files = s.deleteWhile(files, func(fs []rotated) bool {
			return len(fs) > 0 && fs[0].modTime.Before(cutoff)
		})
	}

	if s.opt.MaxFiles > 0 {
		files = s.deleteWhile(files, func(fs []rotated) bool {
			return len(fs) > s.opt.MaxFiles
		})
	}

	if s.opt.MaxTotalBytes > 0 {
		var total int64
		for _, f := range files {
			total += f.size
		}
		for len(files) > 0 && total > s.opt.MaxTotalBytes {
			total -= files[0].size
			s.remove(files[0].path)
			files = files[1:]
		}
	}
}

// deleteWhile removes the oldest survivor while cond holds.
func (s *Sink) deleteWhile(files []rotated, cond func([]rotated) bool) []rotated {
	for cond(files) {
		s.remove(files[0].path)
		files = files[1:]
	}
	return files
}

func (s *Sink) remove(path string) {
	if err := os.Remove(path); err != nil {
		s.opt.Diag.Report(s.name, "retention unlink failed: "+err.Error())
	}
}

// listRotated scans the directory for rotated files belonging to this
// sink (plain and compressed). The active file is excluded.
func (s *Sink) listRotated() ([]rotated, bool) {
	entries, err := os.ReadDir(s.opt.Directory)
	if err != nil {
		s.opt.Diag.Report(s.name, "retention scan failed: "+err.Error())
		return nil, false
	}

	prefix := s.opt.Prefix + "-"
	var out []rotated
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if !strings.Contains(name, s.opt.Ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			s.opt.Diag.Report(s.name, "retention stat failed: "+err.Error())
			continue
		}
		out = append(out, rotated{
			path:    filepath.Join(s.opt.Directory, name),
			modTime: info.ModTime(),
			size:    info.Size(),
		})
	}
	return out, true
}
