package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{Level: "invalid-level", Format: "json", Output: "stdout"}
	if l := New(cfg, "test"); l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestConfigApplyDefaultsAndValidate(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad level", Config{Level: "loud", Format: "json"}},
		{"bad format", Config{Level: "info", Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "svc").
		WithComponent("storage").
		WithFields(map[string]interface{}{"backend": "fs"})

	l.Info("object written", Fields("path", "a/b.png", "size", 3))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	checks := map[string]interface{}{
		"service":      "svc",
		FieldComponent: "storage",
		"backend":      "fs",
		"path":         "a/b.png",
		"message":      "object written",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s = %v, want %v", k, entry[k], want)
		}
	}
	if entry["size"] != float64(3) {
		t.Errorf("size = %v, want 3", entry["size"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "svc").WithError(errors.New("boom")).Error("failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
	if entry["level"] != "error" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Info("ignored")
	l.WithComponent("x").Warn("ignored", Fields("k", "v"))
}

func TestFieldsHelpers(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if len(f) != 2 || f["a"] != 1 || f["b"] != "two" {
		t.Errorf("Fields() = %v", f)
	}

	ef := ErrorFields("read", errors.New("nope"))
	if ef[FieldOperation] != "read" || ef[FieldError] != "nope" {
		t.Errorf("ErrorFields() = %v", ef)
	}

	df := DurationFields("list", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("DurationFields() = %v", df)
	}
}

func TestGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected lazily created global logger")
	}

	var buf bytes.Buffer
	SetGlobalLogger(NewWithWriter(&buf, "global"))
	WithComponent("cli").Info("hello")
	if !bytes.Contains(buf.Bytes(), []byte(`"component":"cli"`)) {
		t.Errorf("expected component field in %q", buf.String())
	}
}
