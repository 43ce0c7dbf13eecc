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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-haste/fapilog/runtime/queue"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", s.Level)
	assert.Equal(t, "json", s.Format)
	assert.Equal(t, 1, s.Workers)
	assert.Equal(t, 8192, s.Queue.Capacity)
	assert.Equal(t, queue.DropNewest, s.QueuePolicy())
	assert.Equal(t, 256, s.Batch.MaxCount)
	assert.Equal(t, Size(1<<20), s.Batch.MaxBytes)
	assert.Equal(t, time.Second, s.Batch.Timeout.Std())
	assert.Equal(t, 5*time.Second, s.ShutdownTimeout.Std())
	assert.Empty(t, s.File.Directory)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FAPILOG__LEVEL", "debug")
	t.Setenv("FAPILOG__FORMAT", "pretty")
	t.Setenv("FAPILOG__WORKERS", "3")
	t.Setenv("FAPILOG__QUEUE__CAPACITY", "128")
	t.Setenv("FAPILOG__QUEUE__POLICY", "block")
	t.Setenv("FAPILOG__BATCH__MAX_COUNT", "32")
	t.Setenv("FAPILOG__BATCH__MAX_BYTES", "64 KB")
	t.Setenv("FAPILOG__BATCH__TIMEOUT_SECONDS", "0.5")
	t.Setenv("FAPILOG__FILE__DIRECTORY", "/var/log/app")
	t.Setenv("FAPILOG__FILE__PREFIX", "svc")
	t.Setenv("FAPILOG__FILE__MAX_BYTES", "10 MB")
	t.Setenv("FAPILOG__FILE__INTERVAL_SECONDS", "daily")
	t.Setenv("FAPILOG__FILE__MAX_FILES", "7")
	t.Setenv("FAPILOG__FILE__MAX_TOTAL_BYTES", "1 GB")
	t.Setenv("FAPILOG__FILE__MAX_AGE_SECONDS", "7d")
	t.Setenv("FAPILOG__FILE__COMPRESS_ROTATED", "true")
	t.Setenv("FAPILOG__SHUTDOWN_TIMEOUT_SECONDS", "30")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", s.Level)
	assert.Equal(t, "pretty", s.Format)
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, 128, s.Queue.Capacity)
	assert.Equal(t, queue.Block, s.QueuePolicy())
	assert.Equal(t, 32, s.Batch.MaxCount)
	assert.Equal(t, Size(64<<10), s.Batch.MaxBytes)
	assert.Equal(t, 500*time.Millisecond, s.Batch.Timeout.Std())
	assert.Equal(t, "/var/log/app", s.File.Directory)
	assert.Equal(t, "svc", s.File.Prefix)
	assert.Equal(t, Size(10<<20), s.File.MaxBytes)
	assert.Equal(t, 24*time.Hour, s.File.Interval.Every)
	assert.Equal(t, 7, s.File.MaxFiles)
	assert.Equal(t, Size(1<<30), s.File.MaxTotalBytes)
	assert.Equal(t, 7*24*time.Hour, s.File.MaxAge.Std())
	assert.True(t, s.File.CompressRotated)
	assert.Equal(t, 30*time.Second, s.ShutdownTimeout.Std())
}

func TestInvalidValuesNameInputAndAcceptedForms(t *testing.T) {
	t.Setenv("FAPILOG__LEVEL", "shout")
	_, err := Load()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "shout")
	assert.Contains(t, err.Error(), "accepted")
}

func TestInvalidFormat(t *testing.T) {
	t.Setenv("FAPILOG__FORMAT", "xml")
	_, err := Load()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "xml")
}

func TestInvalidPolicy(t *testing.T) {
	t.Setenv("FAPILOG__QUEUE__POLICY", "yolo")
	_, err := Load()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "yolo")
	assert.Contains(t, err.Error(), "drop_newest")
}

func TestInvalidSize(t *testing.T) {
	t.Setenv("FAPILOG__FILE__MAX_BYTES", "ten megs")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ten megs")
	assert.Contains(t, err.Error(), "10 MB")
}

func TestSizeParsing(t *testing.T) {
	cases := map[string]Size{
		"1024":   1024,
		"1 KB":   1024,
		"10 MB":  10 << 20,
		"1.5 GB": Size(1.5 * float64(1<<30)),
		"10mb":   10 << 20,
	}
	for in, want := range cases {
		var s Size
		require.NoError(t, s.UnmarshalText([]byte(in)), in)
		assert.Equal(t, want, s, in)
	}
	var s Size
	assert.Error(t, s.UnmarshalText([]byte("many")))
}

func TestDurationParsing(t *testing.T) {
	cases := map[string]time.Duration{
		"5s":  5 * time.Second,
		"10m": 10 * time.Minute,
		"1h":  time.Hour,
		"7d":  7 * 24 * time.Hour,
		"2w":  14 * 24 * time.Hour,
		"90":  90 * time.Second,
		"1H":  time.Hour,
	}
	for in, want := range cases {
		var d Duration
		require.NoError(t, d.UnmarshalText([]byte(in)), in)
		assert.Equal(t, want, d.Std(), in)
	}
	var d Duration
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestIntervalKeywords(t *testing.T) {
	cases := map[string]Interval{
		"hourly":   {Every: time.Hour},
		"DAILY":    {Every: 24 * time.Hour},
		"weekly":   {Every: 7 * 24 * time.Hour},
		"monthly":  {Every: 30 * 24 * time.Hour},
		"midnight": {Midnight: true},
		"30m":      {Every: 30 * time.Minute},
		"3600":     {Every: time.Hour},
	}
	for in, want := range cases {
		var i Interval
		require.NoError(t, i.UnmarshalText([]byte(in)), in)
		assert.Equal(t, want, i, in)
	}

	var i Interval
	err := i.UnmarshalText([]byte("fortnightly"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fortnightly")
	assert.Contains(t, err.Error(), "midnight")

	assert.True(t, Interval{}.IsZero())
	assert.False(t, Interval{Midnight: true}.IsZero())
}
