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

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersAndSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncSubmitted()
	m.IncSubmitted()
	m.IncProcessed()
	m.IncDropped(3)
	m.IncFiltered()
	m.IncRetried()

	snap := m.Stats()
	assert.Equal(t, uint64(2), snap.Submitted)
	assert.Equal(t, uint64(1), snap.Processed)
	assert.Equal(t, uint64(3), snap.Dropped)
	assert.Equal(t, uint64(1), snap.Filtered)
	assert.Equal(t, uint64(1), snap.Retried)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.submitted))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.dropped))
}

func TestExportChannelNeverBlocks(t *testing.T) {
	m := New(nil)
	// Overrun the bounded channel; publishing must not block.
	for i := 0; i < 5000; i++ {
		m.IncRotations()
	}
	// Some samples made it through, up to the buffer size.
	n := len(m.Samples())
	assert.Greater(t, n, 0)
	assert.LessOrEqual(t, n, 1024)

	s := <-m.Samples()
	assert.Equal(t, "fapilog_file_rotations_total", s.Name)
}

func TestNilReceiverSafe(t *testing.T) {
	var m *Metrics
	m.IncSubmitted()
	m.IncDropped(1)
	m.ObserveStage("x", time.Millisecond)
	m.SetQueueDepth(1, 2)
	assert.Equal(t, Snapshot{}, m.Stats())
	assert.Nil(t, m.Samples())
}
