package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/capwire/capwire/internal/config"
)

func TestNewDefault(t *testing.T) {
	log, err := NewDefault()
	if err != nil {
		t.Fatalf("Failed to create default logger: %v", err)
	}
	if log == nil {
		t.Fatal("Expected non-nil logger")
	}
	if log.GetLevel() != LevelInfo {
		t.Errorf("Expected info level, got %s", log.GetLevel())
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Level = "shout"

	if _, err := New(cfg); err == nil {
		t.Error("Expected error for invalid log level")
	}
}

func TestNewInvalidFormat(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Format = "xml"

	if _, err := New(cfg); err == nil {
		t.Error("Expected error for invalid log format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := parseLevel(tt.input)
		if tt.wantErr && err == nil {
			t.Errorf("parseLevel(%q): expected error", tt.input)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("parseLevel(%q): unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "capwire.log")

	cfg := config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: path,
	}

	log, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create file logger: %v", err)
	}

	log.Info("file output test", "key", "value")
	if err := log.Close(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "file output test") {
		t.Errorf("Log file missing expected message: %s", data)
	}
	if !strings.Contains(string(data), `"key":"value"`) {
		t.Errorf("Log file missing structured attribute: %s", data)
	}
}

func TestWithDoesNotOwnCloser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capwire.log")

	log, err := New(config.LoggingConfig{Level: "debug", Format: "text", Output: path})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer log.Close()

	derived := log.With("component", "test")
	if derived.closer != nil {
		t.Error("Derived logger should not own the file handle")
	}

	derived.Debug("derived message")
}

func TestEnabled(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "warn", Format: "text", Output: "stderr"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	if log.Enabled(LevelDebug) {
		t.Error("Debug should be disabled at warn level")
	}
	if !log.Enabled(LevelError) {
		t.Error("Error should be enabled at warn level")
	}
}

func TestGlobal(t *testing.T) {
	if Global() == nil {
		t.Fatal("Expected non-nil global logger")
	}

	custom, err := NewDefault()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	SetGlobal(custom)
	if Global() != custom {
		t.Error("SetGlobal did not replace the global logger")
	}
}
