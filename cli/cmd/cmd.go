package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/ardnew/esp/lang"
	"github.com/ardnew/esp/log"
)

// stdinSource is the special source name for reading from stdin.
const stdinSource = "-"

// Session is the state shared by every command: a single interpreter, the
// source files named on the command line, and the streams commands read
// from and write to.
type Session struct {
	Interp *lang.Interpreter
	Logger log.Logger

	Stdin  io.Reader
	Stdout io.Writer

	// ConfigPath is the configuration script written by [Init].
	ConfigPath string

	// Sources are evaluated in order by [Session.Load]. Duplicates are
	// removed by [NewSession] and stdin, if present, is always last.
	Sources []string
}

// NewSession returns a Session evaluating with it, reading from os.Stdin and
// writing to os.Stdout.
func NewSession(it *lang.Interpreter, sources ...string) *Session {
	return &Session{
		Interp:  it,
		Logger:  log.Default(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Sources: uniqueSources(sources),
	}
}

// Load evaluates each source in order and returns the value of the last.
// It returns Undefined when there are no sources.
func (s *Session) Load(ctx context.Context) (lang.Value, error) {
	result := lang.Undefined

	for _, name := range s.Sources {
		v, err := s.evaluate(ctx, name)
		if err != nil {
			return nil, err
		}

		result = v
	}

	return result, nil
}

func (s *Session) evaluate(ctx context.Context, name string) (lang.Value, error) {
	r, closer, err := s.open(name)
	if err != nil {
		return nil, err
	}
	defer closer()

	v, err := s.Interp.ParseReader(ctx, r)
	if err != nil {
		return nil, ErrEvaluate.With(slog.String("source", name)).Wrap(err)
	}

	s.Logger.DebugContext(ctx, "evaluated source", slog.String("source", name))

	return v, nil
}

// open returns a reader for the named source and a function to release it.
func (s *Session) open(name string) (io.Reader, func(), error) {
	if name == stdinSource {
		return s.Stdin, func() {}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, nil, ErrOpenSource.With(slog.String("source", name)).Wrap(err)
	}

	return f, func() { _ = f.Close() }, nil
}

// Output formats for evaluated values.
const (
	OutputNative = "native"
	OutputJSON   = "json"
	OutputYAML   = "yaml"
)

// Print writes v to the session output in the given format.
func (s *Session) Print(ctx context.Context, v lang.Value, format string, indent int) error {
	if v == nil {
		v = lang.Undefined
	}

	var err error

	switch format {
	case OutputNative, "":
		_, err = fmt.Fprintln(s.Stdout, lang.Inspect(v))
	case OutputJSON:
		err = lang.FormatJSON(ctx, s.Stdout, v, indent)
	case OutputYAML:
		err = lang.FormatYAML(ctx, s.Stdout, v, indent)
	default:
		return ErrUnknownFormat.With(slog.String("format", format))
	}

	if err != nil {
		return ErrFormat.With(slog.String("format", format)).Wrap(err)
	}

	return nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueSources removes duplicate paths from sources by comparing the
// device and inode of their resolved targets. Every "-", and any path that
// names the same file as stdin, collapses into a single "-" placed last so
// that it reads after all regular files. Paths that cannot be resolved are
// kept so that opening them reports the error.
func uniqueSources(sources []string) []string {
	if len(sources) == 0 {
		return nil
	}

	var (
		unique   = make([]string, 0, len(sources))
		seen     = make(map[fileKey]struct{})
		hasStdin bool
	)

	var stdinKey fileKey

	stdinOK := false

	if info, err := os.Stdin.Stat(); err == nil {
		stdinKey, stdinOK = makeFileKey(info)
	}

	for _, src := range sources {
		if src == stdinSource {
			hasStdin = true

			continue
		}

		key, ok := resolveFileKey(src)
		if !ok {
			unique = append(unique, src)

			continue
		}

		if stdinOK && key == stdinKey {
			hasStdin = true

			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		unique = append(unique, src)
	}

	if hasStdin {
		unique = append(unique, stdinSource)
	}

	return unique
}

// resolveFileKey resolves path through symlinks to its device and inode.
func resolveFileKey(path string) (fileKey, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert // int32 on darwin
}
