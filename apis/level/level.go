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

package level

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Level represents the logging severity used across fapilog.
//
// The order is intentional: lower values mean more verbosity. Built-in
// levels are spaced so that user-registered levels can slot in between
// (for example an "audit" level between Warn and Error).
type Level int16

const (
	// Trace is the most verbose level.
	// Use it for development or deep diagnostics that are normally disabled.
	Trace Level = 10

	// Debug is verbose but typically enabled in non-production
	// or when diagnosing an issue.
	Debug Level = 20

	// Info is the default informational level for normal operation.
	Info Level = 30

	// Notice indicates normal but significant events, above Info
	// but not yet a warning.
	Notice Level = 35

	// Warn indicates unexpected situations that are not fatal
	// but may require attention.
	Warn Level = 40

	// Error indicates errors after which the process can continue,
	// but the event should be surfaced to operators.
	Error Level = 50

	// Critical indicates severe errors; the pipeline still never
	// terminates the process on behalf of the caller.
	Critical Level = 60
)

var (
	// ErrLevelInvalid is returned when a textual or numeric level cannot be recognized.
	ErrLevelInvalid = errors.New("fapilog: invalid level")

	// ErrLevelTaken is returned by Register when a name or priority
	// is already in use.
	ErrLevelTaken = errors.New("fapilog: level already registered")
)

// Ensure Level can be marshaled/unmarshaled in a canonical way.
var (
	_ fmt.Stringer             = (*Level)(nil)
	_ encoding.TextMarshaler   = (*Level)(nil)
	_ encoding.TextUnmarshaler = (*Level)(nil)
)

// registry holds user-registered levels. Built-ins are not stored here.
var registry = struct {
	mu     sync.RWMutex
	byName map[string]Level
	byVal  map[Level]string
}{
	byName: map[string]Level{},
	byVal:  map[Level]string{},
}

// Register adds a custom severity under the given name and priority.
// The name is stored lowercase; ParseLevel and String recognize it
// afterwards. Registering a name or priority that collides with a
// built-in or previously registered level fails.
func Register(name string, priority int16) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrLevelInvalid)
	}
	if _, err := parseBuiltin(name); err == nil {
		return 0, fmt.Errorf("%w: %q", ErrLevelTaken, name)
	}
	lvl := Level(priority)
	if builtinName(lvl) != "" {
		return 0, fmt.Errorf("%w: priority %d", ErrLevelTaken, priority)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.byName[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrLevelTaken, name)
	}
	if _, ok := registry.byVal[lvl]; ok {
		return 0, fmt.Errorf("%w: priority %d", ErrLevelTaken, priority)
	}
	registry.byName[name] = lvl
	registry.byVal[lvl] = name
	return lvl, nil
}

// ParseLevel converts a textual representation into a Level.
//
// Accepted (case-insensitive):
//
//	"trace", "debug", "info", "notice", "warn", "warning", "error", "err",
//	"critical", "crit", plus any name added via Register.
//
// "warning" is accepted as an alias for "warn" because it is common in configs.
// "err" is accepted as an alias for "error", "crit" for "critical".
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if lvl, err := parseBuiltin(name); err == nil {
		return lvl, nil
	}
	registry.mu.RLock()
	lvl, ok := registry.byName[name]
	registry.mu.RUnlock()
	if ok {
		return lvl, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrLevelInvalid, s)
}

func parseBuiltin(name string) (Level, error) {
	switch name {
	case "trace":
		return Trace, nil
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "notice":
		return Notice, nil
	case "warn", "warning":
		return Warn, nil
	case "error", "err":
		return Error, nil
	case "critical", "crit":
		return Critical, nil
	}
	return 0, ErrLevelInvalid
}

func builtinName(l Level) string {
	switch l {
	case Trace:
		return "trace"
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Notice:
		return "notice"
	case Warn:
		return "warn"
	case Error:
		return "error"
	case Critical:
		return "critical"
	}
	return ""
}

// String returns the canonical lowercase name of the level.
// This representation is stable and should be used in logs and configs.
func (l Level) String() string {
	if name := builtinName(l); name != "" {
		return name
	}
	registry.mu.RLock()
	name, ok := registry.byVal[l]
	registry.mu.RUnlock()
	if ok {
		return name
	}
	// Unknown levels should not normally appear, but we make the
	// string representation explicit to simplify diagnostics.
	return fmt.Sprintf("level(%d)", int(l))
}

// Validate checks that the level is a built-in or registered value.
func (l Level) Validate() error {
	if builtinName(l) != "" {
		return nil
	}
	registry.mu.RLock()
	_, ok := registry.byVal[l]
	registry.mu.RUnlock()
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %d", ErrLevelInvalid, int(l))
}

// Enabled reports whether a record at level l passes a floor.
func (l Level) Enabled(floor Level) bool {
	return l >= floor
}

// MarshalText encodes the level as its canonical lowercase name.
func (l Level) MarshalText() ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes the level from a textual representation.
// It accepts the same values as ParseLevel.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(bytes.TrimSpace(b)))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalJSON encodes the level as a JSON string, e.g. "info".
func (l Level) MarshalJSON() ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes the level from a JSON string or number.
// Strings are preferred; numeric form is allowed for compact configs.
func (l *Level) UnmarshalJSON(b []byte) error {
	// Try string
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, perr := ParseLevel(s)
		if perr != nil {
			return perr
		}
		*l = v
		return nil
	}

	// Try numeric
	var n int16
	if err := json.Unmarshal(b, &n); err == nil {
		v := Level(n)
		if err := v.Validate(); err != nil {
			return err
		}
		*l = v
		return nil
	}

	return fmt.Errorf("%w: %s", ErrLevelInvalid, string(b))
}
