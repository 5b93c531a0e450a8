// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// LogEntry represents a parsed log entry for testing.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   map[string]any
}

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// ParseJSONLogEntries parses newline-delimited JSON log output.
func ParseJSONLogEntries(data []byte) ([]LogEntry, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			return nil, fmt.Errorf("parse log line %q: %w", scanner.Text(), err)
		}

		le := LogEntry{Attrs: make(map[string]any)}
		for k, v := range raw {
			switch k {
			case slogTimeKey:
				if s, ok := v.(string); ok {
					le.Time, _ = time.Parse(time.RFC3339Nano, s)
				}
			case slogLevelKey:
				le.Level, _ = v.(string)
			case slogMessageKey:
				le.Message, _ = v.(string)
			default:
				le.Attrs[k] = v
			}
		}
		entries = append(entries, le)
	}
	return entries, scanner.Err()
}

const (
	slogTimeKey    = "time"
	slogLevelKey   = "level"
	slogMessageKey = "msg"
)

// TestHelper captures JSON log output for assertions.
type TestHelper struct {
	Logger *Logger
	buf    *syncBuffer
}

// NewTestHelper creates a [TestHelper] with an in-memory JSON logger at
// debug level. Additional options are applied after the defaults.
func NewTestHelper(t testing.TB, opts ...Option) *TestHelper {
	t.Helper()

	buf := &syncBuffer{}
	all := append([]Option{
		WithJSONHandler(),
		WithOutput(buf),
		WithLevel(LevelDebug),
	}, opts...)

	logger, err := New(all...)
	require.NoError(t, err, "failed to create test logger")

	return &TestHelper{Logger: logger, buf: buf}
}

// Logs returns all parsed log entries.
func (th *TestHelper) Logs() ([]LogEntry, error) {
	return ParseJSONLogEntries(th.buf.Bytes())
}

// Messages returns the entries whose message is msg.
func (th *TestHelper) Messages(t testing.TB, msg string) []LogEntry {
	t.Helper()

	entries, err := th.Logs()
	require.NoError(t, err, "failed to parse logs")

	var out []LogEntry
	for _, e := range entries {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}

// ContainsLog reports whether any entry has message msg.
func (th *TestHelper) ContainsLog(msg string) bool {
	entries, err := th.Logs()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Message == msg {
			return true
		}
	}
	return false
}

// Reset clears the captured output.
func (th *TestHelper) Reset() {
	th.buf.Reset()
}

// AssertLog fails t unless an entry with the given level, message and
// attributes exists. Numbers are compared after JSON decoding, so ints match
// their float64 form.
func (th *TestHelper) AssertLog(t testing.TB, level, msg string, attrs map[string]any) {
	t.Helper()

	entries, err := th.Logs()
	require.NoError(t, err, "failed to parse logs")

	for _, e := range entries {
		if e.Level != level || e.Message != msg {
			continue
		}
		if attrsMatch(e.Attrs, attrs) {
			return
		}
	}
	require.Fail(t, "log entry not found", "level=%s msg=%s attrs=%v", level, msg, attrs)
}

func attrsMatch(got, want map[string]any) bool {
	for k, expected := range want {
		actual, ok := got[k]
		if !ok {
			return false
		}
		switch e := expected.(type) {
		case int:
			f, ok := actual.(float64)
			if !ok || int(f) != e {
				return false
			}
		default:
			if fmt.Sprint(actual) != fmt.Sprint(expected) {
				return false
			}
		}
	}
	return true
}
