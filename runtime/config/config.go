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

// Package config maps the FAPILOG__* environment schema onto typed
// settings. Uppercase keys with a double-underscore separator denote
// nesting: FAPILOG__QUEUE__CAPACITY sets Settings.Queue.Capacity.
//
// Parsing accepts human-readable sizes ("10 MB") and durations ("5s",
// "7d", "2w", or the keywords hourly|daily|weekly|monthly|midnight).
// Validation failures name both the offending input and the accepted
// forms; they are the only errors the library surfaces at startup.
package config

import (
	"errors"
	"fmt"

	env "github.com/caarlos0/env/v11"

	"github.com/chris-haste/fapilog/apis/level"
	"github.com/chris-haste/fapilog/runtime/queue"
)

// ErrInvalid wraps all configuration validation failures.
var ErrInvalid = errors.New("fapilog: invalid configuration")

// Settings is the full pipeline configuration.
type Settings struct {
	// Level is the facade floor; records below it are discarded before
	// an envelope is allocated.
	Level string `env:"LEVEL" envDefault:"info"`

	// Format selects the serializer: json or pretty.
	Format string `env:"FORMAT" envDefault:"json"`

	// Workers is the queue consumer count. With more than one worker,
	// per-sink total order is no longer global.
	Workers int `env:"WORKERS" envDefault:"1"`

	// ShutdownTimeout bounds Drain when triggered by signals.
	ShutdownTimeout Duration `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"5"`

	Queue QueueSettings `envPrefix:"QUEUE__"`
	Batch BatchSettings `envPrefix:"BATCH__"`
	File  FileSettings  `envPrefix:"FILE__"`
}

// QueueSettings configures the bounded queue.
type QueueSettings struct {
	Capacity int    `env:"CAPACITY" envDefault:"8192"`
	Policy   string `env:"POLICY" envDefault:"drop_newest"`
}

// BatchSettings configures per-sink batching.
type BatchSettings struct {
	MaxCount int      `env:"MAX_COUNT" envDefault:"256"`
	MaxBytes Size     `env:"MAX_BYTES" envDefault:"1 MB"`
	Timeout  Duration `env:"TIMEOUT_SECONDS" envDefault:"1"`
}

// FileSettings configures the rotating file sink. The sink is enabled
// when Directory is non-empty.
type FileSettings struct {
	Directory       string   `env:"DIRECTORY"`
	Prefix          string   `env:"PREFIX" envDefault:"fapilog"`
	MaxBytes        Size     `env:"MAX_BYTES"`
	Interval        Interval `env:"INTERVAL_SECONDS"`
	MaxFiles        int      `env:"MAX_FILES"`
	MaxTotalBytes   Size     `env:"MAX_TOTAL_BYTES"`
	MaxAge          Duration `env:"MAX_AGE_SECONDS"`
	CompressRotated bool     `env:"COMPRESS_ROTATED"`
}

// Load reads the FAPILOG__* environment and validates the result.
func Load() (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Prefix: "FAPILOG__"}); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Default returns the settings produced by an empty environment.
func Default() Settings {
	return Settings{
		Level:           "info",
		Format:          "json",
		Workers:         1,
		ShutdownTimeout: Duration(5e9),
		Queue:           QueueSettings{Capacity: 8192, Policy: "drop_newest"},
		Batch:           BatchSettings{MaxCount: 256, MaxBytes: 1 << 20, Timeout: Duration(1e9)},
		File:            FileSettings{Prefix: "fapilog"},
	}
}

// Validate checks cross-field constraints. Errors wrap ErrInvalid and
// name the offending input plus accepted forms.
func (s *Settings) Validate() error {
	if _, err := level.ParseLevel(s.Level); err != nil {
		return fmt.Errorf("%w: LEVEL=%q (accepted: trace|debug|info|notice|warn|error|critical or a registered level)",
			ErrInvalid, s.Level)
	}
	switch s.Format {
	case "json", "pretty":
	default:
		return fmt.Errorf("%w: FORMAT=%q (accepted: json|pretty)", ErrInvalid, s.Format)
	}
	if s.Workers < 1 {
		return fmt.Errorf("%w: WORKERS=%d (accepted: integers >= 1)", ErrInvalid, s.Workers)
	}
	if _, err := queue.ParsePolicy(s.Queue.Policy); err != nil {
		return fmt.Errorf("%w: QUEUE__POLICY=%q (accepted: drop_newest|drop_oldest|block|sample_on_pressure)",
			ErrInvalid, s.Queue.Policy)
	}
	if s.Queue.Capacity < 1 {
		return fmt.Errorf("%w: QUEUE__CAPACITY=%d (accepted: integers >= 1)", ErrInvalid, s.Queue.Capacity)
	}
	if s.Batch.MaxCount < 1 {
		return fmt.Errorf("%w: BATCH__MAX_COUNT=%d (accepted: integers >= 1)", ErrInvalid, s.Batch.MaxCount)
	}
	if s.File.Directory != "" {
		if s.File.MaxFiles < 0 {
			return fmt.Errorf("%w: FILE__MAX_FILES=%d (accepted: integers >= 0)", ErrInvalid, s.File.MaxFiles)
		}
	}
	return nil
}

// FloorLevel returns the parsed facade floor. Validate first.
func (s *Settings) FloorLevel() level.Level {
	lvl, err := level.ParseLevel(s.Level)
	if err != nil {
		return level.Info
	}
	return lvl
}

// QueuePolicy returns the parsed backpressure policy. Validate first.
func (s *Settings) QueuePolicy() queue.Policy {
	p, err := queue.ParsePolicy(s.Queue.Policy)
	if err != nil {
		return queue.DropNewest
	}
	return p
}
