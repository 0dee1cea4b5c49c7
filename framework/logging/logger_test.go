package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/logging"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	logger.Debug().Str("root", "App").Msg("resolved")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry["root"] != "App" || entry["message"] != "resolved" || entry["level"] != "debug" {
		t.Errorf("entry: got %v", entry)
	}
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(config.LogConfig{Level: "warn"}, &buf)

	logger.Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
	logger.Warn().Msg("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("warn should be written, got %q", buf.String())
	}
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(config.LogConfig{Format: "console"}, &buf)

	logger.Info().Msg("hello")
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("console format should not emit JSON, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := logging.ParseLevel(tt.in); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
