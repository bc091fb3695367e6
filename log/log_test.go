package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Make_Defaults(t *testing.T) {
	t.Parallel()

	logger := Make(&bytes.Buffer{})

	if logger.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", logger.Level(), DefaultLevel)
	}

	if logger.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", logger.Format(), DefaultFormat)
	}

	if logger.caller != DefaultCaller || logger.pretty != DefaultPretty {
		t.Errorf("caller, pretty = %v, %v", logger.caller, logger.pretty)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		logFunc  func(Logger, string, ...slog.Attr)
		minLevel Level
		logged   bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at info", Logger.Info, LevelInfo, true},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"warn at error", Logger.Warn, LevelError, false},
		{"error at error", Logger.Error, LevelError, true},
		{"error at trace", Logger.Error, LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			tt.logFunc(Make(&buf, WithLevel(tt.minLevel)), "message")

			if logged := buf.Len() > 0; logged != tt.logged {
				t.Errorf("logged = %v, want %v: %q", logged, tt.logged, buf.String())
			}
		})
	}
}

func TestLogger_ContextMethods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		log   func(Logger)
		level string
	}{
		{"trace", func(l Logger) { l.TraceContext(t.Context(), "m") }, "TRACE"},
		{"debug", func(l Logger) { l.DebugContext(t.Context(), "m") }, "DEBUG"},
		{"info", func(l Logger) { l.InfoContext(t.Context(), "m") }, "INFO"},
		{"warn", func(l Logger) { l.WarnContext(t.Context(), "m") }, "WARN"},
		{"error", func(l Logger) { l.ErrorContext(t.Context(), "m") }, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer

		tt.log(Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithPretty(false)))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("%s: %v: %q", tt.name, err, buf.String())
		}

		if entry["level"] != tt.level || entry["msg"] != "m" {
			t.Errorf("%s: entry = %v", tt.name, entry)
		}
	}
}

func TestLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false), WithTimeLayout("none"))
	logger.Info("evaluated", slog.String("key", "value"), slog.Int("n", 3))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if entry["msg"] != "evaluated" || entry["key"] != "value" || entry["n"] != 3.0 {
		t.Errorf("entry = %v", entry)
	}

	if _, ok := entry["time"]; ok {
		t.Errorf("time present with layout none: %v", entry)
	}
}

func TestLogger_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatText), WithPretty(false), WithTimeLayout("kitchen"))
	logger.Info("evaluated", slog.String("key", "value"))

	out := buf.String()
	for _, want := range []string{"level=INFO", "msg=evaluated", "key=value", "time="} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestLogger_Caller(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithFormat(FormatText)).Info("here")

	if !strings.Contains(buf.String(), "log_test.go:") {
		t.Errorf("caller missing: %q", buf.String())
	}

	buf.Reset()
	Make(&buf, WithCaller(false), WithFormat(FormatText)).Info("here")

	if strings.Contains(buf.String(), "source=") {
		t.Errorf("caller present when disabled: %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false))
	logger.With(slog.String("component", "lang")).Info("message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}

	if entry["component"] != "lang" {
		t.Errorf("With attribute missing: %v", entry)
	}

	buf.Reset()
	logger.WithGroup("cache").Info("message", slog.Bool("hit", true))

	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}

	if group, ok := entry["cache"].(map[string]any); !ok || group["hit"] != true {
		t.Errorf("group missing: %v", entry)
	}
}

func TestLogger_Wrap(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelError))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	base.Debug("hidden")

	if buf.Len() != 0 {
		t.Errorf("base logged below its level: %q", buf.String())
	}

	wrapped.Debug("shown")

	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("wrapped did not log: %q", buf.String())
	}

	if base.Level() != LevelError || wrapped.Level() != LevelDebug {
		t.Errorf("levels = %v, %v", base.Level(), wrapped.Level())
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	t.Parallel()

	var l Logger

	l.Trace("x")
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.ErrorContext(t.Context(), "x")

	if l.With(slog.String("k", "v")).Logger != nil {
		t.Error("With on zero value produced a logger")
	}

	if l.WithGroup("g").Logger != nil {
		t.Error("WithGroup on zero value produced a logger")
	}

	if l.Enabled(t.Context(), LevelError) {
		t.Error("zero value reports enabled")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Error("zero value does not report defaults")
	}

	var buf bytes.Buffer

	l.Wrap(WithOutput(&buf)).Info("now configured")

	if !strings.Contains(buf.String(), "now configured") {
		t.Errorf("Wrap of zero value = %q", buf.String())
	}
}

// loggable mimics errors that describe themselves as attribute groups.
type loggable struct{}

func (loggable) Error() string { return "bad thing" }

func (loggable) LogValue() slog.Value {
	return slog.GroupValue(slog.String("kind", "runtime"), slog.String("position", "2:13"))
}

func TestLogger_LogValuer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false))
	logger.Error("evaluation failed", slog.Any("error", loggable{}))

	var entry struct {
		Error map[string]string `json:"error"`
	}

	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}

	if entry.Error["position"] != "2:13" {
		t.Errorf("LogValue not resolved: %q", buf.String())
	}

	var plain error = errors.New("plain")

	buf.Reset()
	logger.Error("failed", slog.Any("error", plain))

	if !strings.Contains(buf.String(), `"error":"plain"`) {
		t.Errorf("plain error = %q", buf.String())
	}
}

func TestLogger_Concurrent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := Make(&buf, WithPretty(false))

	var wg sync.WaitGroup

	for i := range 100 {
		wg.Go(func() {
			logger.Info("concurrent message", slog.Int("id", i))
		})
	}

	wg.Wait()

	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 100 {
		t.Errorf("got %d lines, want 100", len(lines))
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	for _, pretty := range []bool{false, true} {
		name := "plain"
		if pretty {
			name = "pretty"
		}

		b.Run(name, func(b *testing.B) {
			var buf bytes.Buffer

			logger := Make(&buf, WithPretty(pretty)).With(slog.String("component", "bench"))

			i := 0
			for b.Loop() {
				logger.Info("benchmark message", slog.Int("iteration", i))
				i++
			}
		})
	}
}

func BenchmarkLogger_Disabled(b *testing.B) {
	logger := Make(&bytes.Buffer{}, WithLevel(LevelError))

	for b.Loop() {
		logger.Trace("not written", slog.Int("n", 1))
	}
}
