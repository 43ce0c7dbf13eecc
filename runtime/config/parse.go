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
	"fmt"
	"strconv"
	"strings"
	"time"

	units "github.com/docker/go-units"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Size is a byte count parsed from human-readable strings.
type Size int64

// UnmarshalText accepts plain integers ("1048576") and human-readable
// sizes ("10 MB", "1.5 GB", case-insensitive, binary multiples).
func (s *Size) UnmarshalText(b []byte) error {
	in := strings.TrimSpace(string(b))
	if in == "" {
		*s = 0
		return nil
	}
	n, err := units.RAMInBytes(in)
	if err != nil {
		return fmt.Errorf("fapilog: invalid size %q (accepted: plain bytes or forms like \"10 MB\", \"1.5 GB\")", in)
	}
	*s = Size(n)
	return nil
}

// Duration is a time span parsed from numbers or duration strings.
type Duration time.Duration

// UnmarshalText accepts bare numbers (seconds) and duration strings
// with day/week units ("5s", "10m", "1h", "7d", "2w"), case-insensitive.
func (d *Duration) UnmarshalText(b []byte) error {
	in := strings.TrimSpace(string(b))
	if in == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(in, 64); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	parsed, err := str2duration.ParseDuration(strings.ToLower(in))
	if err != nil {
		return fmt.Errorf("fapilog: invalid duration %q (accepted: seconds or forms like \"5s\", \"10m\", \"1h\", \"7d\", \"2w\")", in)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Interval is a rotation cadence: either a fixed duration/keyword or
// absolute local midnight.
type Interval struct {
	// Midnight selects absolute-midnight rotation.
	Midnight bool

	// Every is the fixed cadence when Midnight is false. Zero disables
	// time-based rotation.
	Every time.Duration
}

// Rotation keywords. Monthly is 30 days, not a calendar month.
const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
)

// UnmarshalText accepts everything Duration does, plus the keywords
// hourly|daily|weekly|monthly|midnight (case-insensitive).
func (i *Interval) UnmarshalText(b []byte) error {
	in := strings.ToLower(strings.TrimSpace(string(b)))
	switch in {
	case "":
		*i = Interval{}
		return nil
	case "midnight":
		*i = Interval{Midnight: true}
		return nil
	case "hourly":
		*i = Interval{Every: time.Hour}
		return nil
	case "daily":
		*i = Interval{Every: day}
		return nil
	case "weekly":
		*i = Interval{Every: week}
		return nil
	case "monthly":
		*i = Interval{Every: month}
		return nil
	}
	var d Duration
	if err := d.UnmarshalText([]byte(in)); err != nil {
		return fmt.Errorf("fapilog: invalid interval %q (accepted: durations like \"1h\", seconds, or hourly|daily|weekly|monthly|midnight)", strings.TrimSpace(string(b)))
	}
	*i = Interval{Every: d.Std()}
	return nil
}

// IsZero reports whether no time-based rotation is configured.
func (i Interval) IsZero() bool { return !i.Midnight && i.Every == 0 }
