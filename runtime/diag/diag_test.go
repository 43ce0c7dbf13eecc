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

package diag

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncWriter makes a bytes.Buffer safe for the writer goroutine.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestReportEmitsSingleLine(t *testing.T) {
	w := &syncWriter{}
	r := New(Options{Writer: w})
	r.Report("queue", "overflow")
	r.Close()

	out := w.String()
	require.NotEmpty(t, out)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "source=queue")
	assert.Contains(t, out, `reason="overflow"`)
	assert.Contains(t, out, "count=1")
}

func TestRateLimitSuppressionCount(t *testing.T) {
	w := &syncWriter{}
	r := New(Options{Writer: w, Window: time.Hour, Burst: 2})

	for i := 0; i < 10; i++ {
		r.Report("sink:file", "write failed")
	}
	// A different reason is limited independently.
	r.Report("sink:file", "rotate failed")
	r.Close()

	out := w.String()
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Contains(t, out, `reason="rotate failed"`)
	// 8 of the 10 were suppressed; their count surfaces on the next
	// allowed emission of the same pair, which did not happen here.
}

func TestSuppressedCountCarriesOver(t *testing.T) {
	w := &syncWriter{}
	r := New(Options{Writer: w, Window: 50 * time.Millisecond, Burst: 1})

	r.Report("q", "full")
	for i := 0; i < 4; i++ {
		r.Report("q", "full")
	}
	time.Sleep(80 * time.Millisecond)
	r.Report("q", "full")
	r.Close()

	out := w.String()
	assert.Contains(t, out, "count=5")
}

func TestSelfEmitGuard(t *testing.T) {
	w := &syncWriter{}
	r := New(Options{Writer: w})

	var got []Event
	var mu sync.Mutex
	r.SetSelfEmit(func(ev Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	r.Report("worker", "stage failed")
	r.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "worker", got[0].Source)
}

func TestNilReporterSafe(t *testing.T) {
	var r *Reporter
	r.Report("x", "y")
	r.Close()
}
