package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/esp/lang"
)

// Formats accepted by [Fmt]. JSON and YAML format the evaluated result.
const (
	FormatESP  = "esp"
	FormatAST  = "ast"
	FormatJSON = OutputJSON
	FormatYAML = OutputYAML
)

// Fmt formats each file as canonical ESP source or as a syntax tree, or
// evaluates it and formats the result as JSON or YAML.
type Fmt struct {
	Format string `default:"esp" enum:"esp,ast,json,yaml" help:"Output format (${enum})." short:"f"`
	Indent int    `default:"2"                           help:"Indent width; 0 uses tabs for esp and compact output for json and yaml." short:"i"`
	Write  bool   `                                      help:"Write canonical source back to each file instead of stdout (esp only)."   short:"w"`

	Files []string `arg:"" help:"Source files or '-' for stdin." name:"file" optional:"" type:"existingfile"`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context, s *Session) error {
	files := f.Files
	if len(files) == 0 {
		files = []string{stdinSource}
	}

	switch f.Format {
	case FormatJSON, FormatYAML:
		if _, err := s.Load(ctx); err != nil {
			return err
		}
	}

	for _, name := range files {
		if err := f.file(ctx, s, name); err != nil {
			return err
		}
	}

	return nil
}

func (f *Fmt) file(ctx context.Context, s *Session, name string) error {
	r, closer, err := s.open(name)
	if err != nil {
		return err
	}
	defer closer()

	switch f.Format {
	case FormatJSON, FormatYAML:
		v, err := s.Interp.ParseReader(ctx, r)
		if err != nil {
			return ErrEvaluate.With(slog.String("source", name)).Wrap(err)
		}

		return s.Print(ctx, v, f.Format, f.Indent)
	}

	src, err := io.ReadAll(r)
	if err != nil {
		return ErrOpenSource.With(slog.String("source", name)).Wrap(err)
	}

	prog, err := lang.Compile(string(src))
	if err != nil {
		return ErrFormat.With(slog.String("source", name)).Wrap(err)
	}

	if f.Format == FormatAST {
		return prog.Print(s.Stdout)
	}

	if !f.Write || name == stdinSource {
		return prog.Format(s.Stdout, f.Indent)
	}

	var buf bytes.Buffer

	if err := prog.Format(&buf, f.Indent); err != nil {
		return ErrFormat.With(slog.String("source", name)).Wrap(err)
	}

	if bytes.Equal(buf.Bytes(), src) {
		return nil
	}

	info, err := os.Stat(name)
	if err != nil {
		return ErrWriteSource.With(slog.String("source", name)).Wrap(err)
	}

	if err := os.WriteFile(name, buf.Bytes(), info.Mode().Perm()); err != nil {
		return ErrWriteSource.With(slog.String("source", name)).Wrap(err)
	}

	s.Logger.InfoContext(ctx, "formatted", slog.String("source", name))

	return nil
}
