package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config LoggerConfig
		want   logrus.Level
	}{
		{
			name:   "debug level",
			config: LoggerConfig{Level: LogLevelDebug, Format: LogFormatText},
			want:   logrus.DebugLevel,
		},
		{
			name:   "info level",
			config: LoggerConfig{Level: LogLevelInfo, Format: LogFormatText},
			want:   logrus.InfoLevel,
		},
		{
			name:   "warn level",
			config: LoggerConfig{Level: LogLevelWarn, Format: LogFormatText},
			want:   logrus.WarnLevel,
		},
		{
			name:   "error level",
			config: LoggerConfig{Level: LogLevelError, Format: LogFormatText},
			want:   logrus.ErrorLevel,
		},
		{
			name:   "invalid level defaults to info",
			config: LoggerConfig{Level: "bogus", Format: LogFormatText},
			want:   logrus.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger.GetLevel() != tt.want {
				t.Errorf("NewLogger() level = %v, want %v", logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelInfo,
		Format: LogFormatJSON,
		Output: &buf,
	})

	logger.WithComponent("stripper").Info("test message")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["component"] != "stripper" {
		t.Errorf("component field = %v, want stripper", entry["component"])
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg field = %v, want test message", entry["msg"])
	}
}

func TestLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelInfo,
		Format: LogFormatText,
		Output: &buf,
	})

	logger.WithComponent("elfimage").Info("opened image")

	out := buf.String()
	if !strings.Contains(out, "opened image") {
		t.Errorf("log output missing message: %q", out)
	}
	if !strings.Contains(out, "component=elfimage") {
		t.Errorf("log output missing component field: %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{input: "debug", want: LogLevelDebug},
		{input: "INFO", want: LogLevelInfo},
		{input: "warning", want: LogLevelWarn},
		{input: "error", want: LogLevelError},
		{input: "unknown", want: LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if err != nil {
				t.Fatalf("ParseLogLevel() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	if got := ParseLogFormat("JSON"); got != LogFormatJSON {
		t.Errorf("ParseLogFormat(JSON) = %v, want %v", got, LogFormatJSON)
	}
	if got := ParseLogFormat("anything else"); got != LogFormatText {
		t.Errorf("ParseLogFormat() = %v, want %v", got, LogFormatText)
	}
}
