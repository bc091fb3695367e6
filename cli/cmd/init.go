package cmd

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/esp/lang"
	"github.com/ardnew/esp/profile"
)

// ConfigName is the global variable holding settings in the configuration
// script.
const ConfigName = "config"

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Flags that describe the invocation rather than a persistent setting.
var ignoreFlags = []string{"help", "version", "config", "source"}

// Init generates a configuration script with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context, ktx *kong.Context, s *Session) error {
	path := s.ConfigPath

	if _, err := os.Stat(path); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", path)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	prog, err := configProgram(ktx.Model.Flags, ktx.FlagValue)
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", path)).Wrap(err)
	}

	file, err := os.Create(path)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", path)).
			Wrap(err)
	}
	defer file.Close()

	if err := prog.Format(file, defaultConfigIndent); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", path)).
			Wrap(err)
	}

	s.Logger.InfoContext(ctx, "initialized configuration file", slog.String("path", path))

	return nil
}

// configProgram builds `var config = {...}` from the value of each flag.
// Flags in a group are nested under the group key, so --log-level becomes
// config.log.level. Remaining hyphens become underscores, which the
// configuration resolver maps back.
func configProgram(flags []*kong.Flag, value func(*kong.Flag) any) (*lang.Program, error) {
	b := lang.NewBuilder()
	root := b.Object()
	groups := make(map[string]*lang.ObjectLit)

	for _, flag := range flags {
		if flag.Hidden || slices.Contains(ignoreFlags, flag.Name) ||
			strings.HasPrefix(flag.Name, profile.Tag) {
			continue
		}

		v, err := lang.ValueOf(value(flag))
		if err != nil {
			return nil, err
		}

		if isBlank(v) {
			continue
		}

		obj, key := root, flag.Name

		if g := flag.Group; g != nil {
			if rest, ok := strings.CutPrefix(key, g.Key+"-"); ok {
				sub, ok := groups[g.Key]
				if !ok {
					sub = b.Object()
					groups[g.Key] = sub
					root.Props = append(root.Props, b.Prop(g.Key, sub))
				}

				obj, key = sub, rest
			}
		}

		obj.Props = append(obj.Props, b.Prop(strings.ReplaceAll(key, "-", "_"), b.Literal(v)))
	}

	return b.Program(b.Var(ConfigName, root)), nil
}

// isBlank reports whether v is an empty string, empty array, or absent.
func isBlank(v lang.Value) bool {
	switch v := v.(type) {
	case lang.String:
		return v == ""
	case *lang.Array:
		return v.Size() == 0
	}

	return lang.IsNullish(v)
}
