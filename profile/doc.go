// Package profile wraps [github.com/pkg/profile] so that the esp command
// can write pprof profiles when it is built with the pprof build tag:
//
//	go build -tags pprof .
//	esp --pprof-mode cpu --pprof-dir ./profiles eval -s script.esp
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// Without the tag, [Modes] is empty and [Profiler.Start] does nothing, so
// callers never need their own build constraints.
//
// Built with the tag, the package also imports [net/http/pprof], which
// registers the /debug/pprof/ handlers on [net/http.DefaultServeMux].
package profile

// Tag is the build tag that enables profiling.
const Tag = `pprof`
