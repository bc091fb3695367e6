package lang

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ardnew/mung"
)

// SysNamespace returns the "Sys" namespace of host environment queries,
// filesystem path helpers, and PATH-style list editing.
func SysNamespace() *Namespace {
	hostname, _ := os.Hostname()

	return NewNamespace("Sys").
		Const("os", String(runtime.GOOS)).
		Const("arch", String(runtime.GOARCH)).
		Const("hostname", String(hostname)).
		Const("pathSeparator", String(string(os.PathSeparator))).
		Const("listSeparator", String(string(os.PathListSeparator))).
		Func("getenv", stringFn(os.Getenv)).
		Func("cwd", func(context.Context, Value, []Value) (Value, error) {
			dir, err := os.Getwd()
			if err != nil {
				return nil, err
			}

			return String(dir), nil
		}).
		Func("args", func(context.Context, Value, []Value) (Value, error) {
			return ValueOf(os.Args[1:])
		}).
		Func("exists", statFn(func(os.FileInfo) bool { return true })).
		Func("isDir", statFn(os.FileInfo.IsDir)).
		Func("isFile", statFn(func(fi os.FileInfo) bool { return fi.Mode().IsRegular() })).
		Func("abs", func(_ context.Context, _ Value, args []Value) (Value, error) {
			p, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}

			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, err
			}

			return String(abs), nil
		}).
		Func("join", func(_ context.Context, _ Value, args []Value) (Value, error) {
			elems, err := stringArgs(args, 0)
			if err != nil {
				return nil, err
			}

			return String(filepath.Join(elems...)), nil
		}).
		Func("rel", func(_ context.Context, _ Value, args []Value) (Value, error) {
			from, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}

			to, err := stringArg(args, 1)
			if err != nil {
				return nil, err
			}

			rel, err := filepath.Rel(from, to)
			if err != nil {
				return nil, err
			}

			return String(rel), nil
		}).
		Func("prefix", pathPrefix).
		Func("prefixIf", pathPrefixIf)
}

func stringFn(fn func(string) string) NativeFunc {
	return func(_ context.Context, _ Value, args []Value) (Value, error) {
		s, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}

		return String(fn(s)), nil
	}
}

func statFn(pred func(os.FileInfo) bool) NativeFunc {
	return func(_ context.Context, _ Value, args []Value) (Value, error) {
		p, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}

		fi, err := os.Stat(p)

		return Boolean(err == nil && pred(fi)), nil
	}
}

func stringArgs(args []Value, from int) ([]string, error) {
	var out []string

	for i := from; i < len(args); i++ {
		s, err := stringArg(args, i)
		if err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	return out, nil
}

// pathPrefix(key, items...) returns the list named by environment variable
// key with items moved to the front and duplicates removed.
func pathPrefix(_ context.Context, _ Value, args []Value) (Value, error) {
	key, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}

	items, err := stringArgs(args, 1)
	if err != nil {
		return nil, err
	}

	return String(mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
	).String()), nil
}

// pathPrefixIf(key, predicate, items...) is pathPrefix keeping only the
// elements for which the script predicate returns true.
func pathPrefixIf(ctx context.Context, _ Value, args []Value) (Value, error) {
	key, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}

	pred, err := AsPredicate(ctx, arg(args, 1))
	if err != nil {
		return nil, err
	}

	items, err := stringArgs(args, 2)
	if err != nil {
		return nil, err
	}

	return String(mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
		mung.WithFilter(pred),
	).String()), nil
}
