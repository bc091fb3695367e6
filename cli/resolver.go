package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/esp/lang"
	"github.com/ardnew/esp/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration scripts
// written in ESP.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx, "config"), "/path/to/config.esp")
//
// The script is evaluated with the Sys and Math namespaces available, and
// the object bound to the global variable name supplies flag values:
//
//	var config = {
//	  log: { level: "debug", time_layout: "kitchen" },
//	  namespace: ["math", "sys"],
//	  max_depth: 200
//	}
//
// Nested objects are flattened by joining keys with hyphens, and
// underscores in keys are read as hyphens, so the example above sets
// --log-level, --log-time-layout, --namespace, and --max-depth.
// Command-line flags and environment variables override these values.
//
// A script that fails to evaluate, or that does not define name as an
// object, is logged and otherwise ignored.
func resolve(ctx context.Context, name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		it := lang.New(
			lang.WithNamespace(lang.SysNamespace(), lang.MathNamespace()),
			lang.WithLogger(log.Default()),
		)

		if _, err := it.ParseReader(ctx, r); err != nil {
			log.WarnContext(ctx, "ignoring configuration", slog.Any("error", err))

			return config{}, nil
		}

		v, ok := it.Get(name)

		obj, isObj := v.(*lang.Object)
		if !ok || !isObj {
			log.DebugContext(ctx, "configuration not defined",
				slog.String("name", name))

			return config{}, nil
		}

		cfg := make(config)
		cfg.flatten("", obj)

		return cfg, nil
	}
}

// config implements [kong.Resolver] for ESP configuration scripts.
// Keys are flag names and values are ready for kong's mappers.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flagKey(flag.Name)]; ok {
		return v, nil
	}

	return nil, nil //nolint:nilnil // kong uses its default when nil
}

// flatten copies the properties of obj into c, prefixing each key with the
// keys of its enclosing objects.
func (c config) flatten(prefix string, obj *lang.Object) {
	for _, key := range obj.Keys() {
		name := flagKey(key)
		if prefix != "" {
			name = prefix + "-" + name
		}

		switch v := obj.Get(key).(type) {
		case *lang.Object:
			c.flatten(name, v)
		case *lang.Function:
			// not a flag value
		default:
			c[name] = flagValue(lang.ToNative(v))
		}
	}
}

// flagValue converts a native value into the form kong's mappers accept.
// Kong parses numbers from strings.
func flagValue(v any) any {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagValue(e)
		}

		return out
	}

	return v
}

func flagKey(s string) string { return strings.ReplaceAll(s, "_", "-") }
