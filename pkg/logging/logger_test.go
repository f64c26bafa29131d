package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestStructuredLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("climate-api", "test", DebugLevel)
	logger.SetOutput(&buf)

	ctx := WithDataSet(WithRequestID(context.Background(), "req-1"), "tmax")
	logger.Info(ctx, "[TEST] hello", Fields{"bins": 3})
	logger.Error(ctx, "[TEST] failed", nil, errors.New("boom"))

	entries := decodeEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].RequestID != "req-1" || entries[0].DataSet != "tmax" {
		t.Errorf("context values = %q/%q, want req-1/tmax", entries[0].RequestID, entries[0].DataSet)
	}
	if entries[0].Fields["bins"] != float64(3) {
		t.Errorf("bins field = %v, want 3", entries[0].Fields["bins"])
	}
	if entries[1].Error != "boom" || entries[1].Level != "ERROR" {
		t.Errorf("error entry = %+v", entries[1])
	}
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("climate-api", "test", WarnLevel)
	logger.SetOutput(&buf)

	logger.Debug(context.Background(), "dropped", nil)
	logger.Info(context.Background(), "dropped", nil)
	logger.Warn(context.Background(), "kept", nil)

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Errorf("entries = %+v, want only the warning", entries)
	}
}

func TestStructuredLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("climate-api", "test", InfoLevel)
	logger.SetOutput(&buf)

	child := logger.With(Fields{"component": "builder", "rule": "ByYear"})
	child.Info(context.Background(), "merged", Fields{"rule": "ByMonthOnly"})
	logger.Info(context.Background(), "parent", nil)

	entries := decodeEntries(t, &buf)
	if got := entries[0].Fields["component"]; got != "builder" {
		t.Errorf("component = %v, want builder", got)
	}
	if got := entries[0].Fields["rule"]; got != "ByMonthOnly" {
		t.Errorf("rule = %v, want call-site value to win", got)
	}
	if len(entries) != 2 || entries[1].Fields["component"] != nil {
		t.Errorf("parent entry = %+v, want no child fields", entries)
	}
}

func TestStructuredLogger_ChildSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("climate-api", "test", InfoLevel)
	child := logger.With(Fields{"component": "scheduler"})
	logger.SetOutput(&buf)
	logger.SetLevel(ErrorLevel)

	child.Warn(context.Background(), "dropped", nil)
	child.Error(context.Background(), "kept", nil, nil)

	if child.Enabled(WarnLevel) {
		t.Error("child Enabled(WarnLevel) = true after parent raised level")
	}
	entries := decodeEntries(t, &buf)
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Errorf("entries = %+v, want only the error", entries)
	}
	if entries[0].Function == "" {
		t.Error("error entry has no caller function")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
