package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		l := New(tc.level, "console")
		if got := l.Core().Enabled(tc.want); !got {
			t.Errorf("%q: expected level %v enabled", tc.level, tc.want)
		}
		if tc.want > zapcore.DebugLevel && l.Core().Enabled(tc.want-1) {
			t.Errorf("%q: level %v should be disabled", tc.level, tc.want-1)
		}
	}
}

func TestNewFormats(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		if l := New("info", format); l == nil {
			t.Fatalf("nil logger for format %q", format)
		}
	}
}
