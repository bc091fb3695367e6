package cli

import (
	"testing"

	"github.com/ardnew/esp/log"
)

// scan reconfigures the package-level logger, so these tests do not run in
// parallel and restore it when done.
func TestLogConfig_scan(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "separate values",
			args: []string{"--log-level", "debug", "eval", "--log-format", "json"},
			want: logConfig{Level: "debug", Format: "json", Pretty: true},
		},
		{
			name: "assigned values",
			args: []string{"--log-level=trace", "--log-time-layout=kitchen", "fmt"},
			want: logConfig{Level: "trace", TimeLayout: "kitchen", Pretty: true},
		},
		{
			name: "booleans",
			args: []string{"--no-log-pretty", "--log-caller"},
			want: logConfig{Caller: true},
		},
		{
			name: "assigned booleans",
			args: []string{"--log-pretty=false", "--no-log-caller=false"},
			want: logConfig{Caller: true},
		},
		{
			name: "invalid boolean ignored",
			args: []string{"--log-caller=maybe"},
			want: logConfig{Pretty: true},
		},
		{
			name: "value missing",
			args: []string{"--log-level", "--log-caller"},
			want: logConfig{Caller: true, Pretty: true},
		},
		{
			name: "stops at terminator",
			args: []string{"--", "--log-level=error"},
			want: logConfig{Pretty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f != tt.want {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, f, tt.want)
			}
		})
	}
}

func TestLogConfig_scanConfiguresDefault(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	var f logConfig

	f.scan([]string{"--log-level=warn", "--log-format", "json"})

	if got := log.Default().Level(); got != log.LevelWarn {
		t.Errorf("level = %v, want warn", got)
	}

	if got := log.Default().Format(); got != log.FormatJSON {
		t.Errorf("format = %v, want json", got)
	}
}

func TestLogConfig_vars(t *testing.T) {
	t.Parallel()

	var f logConfig

	vars := f.vars()

	if vars["logLevelEnum"] != "trace,debug,info,warn,error" {
		t.Errorf("logLevelEnum = %q", vars["logLevelEnum"])
	}

	if vars["logFormatEnum"] != "text,json" || vars["logFormat"] != "text" {
		t.Errorf("format vars = %q, %q", vars["logFormatEnum"], vars["logFormat"])
	}

	if vars["logLevel"] != "info" {
		t.Errorf("logLevel = %q", vars["logLevel"])
	}

	if got := len(f.options()); got != 5 {
		t.Errorf("options() = %d options", got)
	}
}
