// Package cli contains the command line interface for esp.
//
// # Usage
//
//	esp [flags] [eval] [expr...]
//	esp [flags] fmt [-f esp|ast|json|yaml] [-w] [file...]
//	esp [flags] init [-f]
//	esp [flags] repl
//
// Every command shares one interpreter. The --source files are evaluated
// into it first, in order and without duplicates, so that the command can
// use what they define:
//
//	esp -s lib.esp 'area(3)'
//	esp -n math -n sys -s build.esp eval -o json
//
// # Configuration
//
// Flag values are taken, in increasing priority, from their defaults, the
// configuration script, environment variables named ESP_<FLAG> (for
// example ESP_LOG_LEVEL), and the command line. The configuration script
// is ESP source that defines an object named config; see [resolve] for how
// its properties map to flags. `esp init` writes one from the current
// values.
//
// # Logging Options
//
//   - --log-level: trace, debug, info, warn, or error
//   - --log-format: text or json
//   - --log-time-layout: a named layout (RFC3339, kitchen, none, ...) or a Go
//     time layout
//   - --log-caller: include the source location of each record
//   - --log-pretty: colorized output when writing to a terminal
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: allocs, block, clock, cpu, goroutine, heap, mem, mutex,
//     thread, or trace
//   - --pprof-dir: profile output directory (default: the pprof directory in
//     the user cache directory)
package cli
