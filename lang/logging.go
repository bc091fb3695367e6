package lang

import (
	"log/slog"
	"sort"
)

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// slogFunc names fn in error attributes.
func slogFunc(fn *Function) slog.Attr {
	name := fn.name
	if name == "" {
		name = "anonymous"
	}

	return slog.String("function", name)
}
