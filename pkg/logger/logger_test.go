package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name          string
		level         Level
		logFunc       func(Logger, string)
		expectedInLog bool
	}{
		{
			name:          "debug message when level is debug",
			level:         LevelDebug,
			logFunc:       func(l Logger, msg string) { l.Debug(msg) },
			expectedInLog: true,
		},
		{
			name:          "debug message when level is info",
			level:         LevelInfo,
			logFunc:       func(l Logger, msg string) { l.Debug(msg) },
			expectedInLog: false,
		},
		{
			name:          "warn message when level is error",
			level:         LevelError,
			logFunc:       func(l Logger, msg string) { l.Warn(msg) },
			expectedInLog: false,
		},
		{
			name:          "error message when level is error",
			level:         LevelError,
			logFunc:       func(l Logger, msg string) { l.Error(msg) },
			expectedInLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLogger(tt.level, buf)

			tt.logFunc(logger, "writing mappings")

			contains := strings.Contains(buf.String(), "writing mappings")
			if contains != tt.expectedInLog {
				t.Errorf("expected message in log: %v, got: %v (output: %s)",
					tt.expectedInLog, contains, buf.String())
			}
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LevelInfo, buf)

	logger.Info("edge written",
		F("edge", "obf2mcp"),
		F("lines", 42),
		Err(errors.New("boom")),
	)

	output := buf.String()
	for _, want := range []string{"[INFO] edge written |", "edge=obf2mcp", "lines=42", "error=boom"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLogger_WithFieldsSharesLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := NewLogger(LevelError, buf)
	child := parent.WithFields(F("version", "1.18.1"))

	child.Info("hidden")
	if buf.Len() > 0 {
		t.Fatalf("expected no output before level change, got: %s", buf.String())
	}

	parent.SetLevel(LevelInfo)
	child.Info("visible", F("namespace", "mcp"))

	output := buf.String()
	if !strings.Contains(output, "version=1.18.1 namespace=mcp") {
		t.Errorf("expected persistent fields before message fields, got: %s", output)
	}
}

func TestLogger_SilentMode(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LevelSilent, buf)

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	if buf.Len() > 0 {
		t.Errorf("expected no output in silent mode, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"off", LevelSilent, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	if got := Level(999).String(); got != "UNKNOWN" {
		t.Errorf("Level.String() = %v, want UNKNOWN", got)
	}
	if got := LevelWarn.String(); got != "WARN" {
		t.Errorf("Level.String() = %v, want WARN", got)
	}
}

func TestDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	previous := Default()
	t.Cleanup(func() { SetDefault(previous) })

	SetDefault(NewLogger(LevelDebug, buf))
	Debug("from package level")

	if !strings.Contains(buf.String(), "from package level") {
		t.Errorf("expected package-level Debug to use the default logger, got: %s", buf.String())
	}
}
