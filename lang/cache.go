package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/esp/log"
)

// programCache maps xxh3 source hashes to *cacheEntry. Programs are
// immutable, so one compiled program is shared by every interpreter that
// parses the same source.
var programCache sync.Map

type cacheEntry struct {
	prog *Program
	err  error
	once sync.Once
}

// compileCached compiles src, reusing a previous result for identical text.
func compileCached(ctx context.Context, logger log.Logger, src string) (*Program, error) {
	hash := xxh3.HashString(src)

	value, hit := programCache.LoadOrStore(hash, new(cacheEntry))

	entry, ok := value.(*cacheEntry)
	if !ok {
		return Compile(src)
	}

	logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Int("source_bytes", len(src)),
		slog.Bool("cache_hit", hit),
	)

	entry.once.Do(func() {
		entry.prog, entry.err = Compile(src)
	})

	// Guard against hash collisions.
	if entry.prog != nil && entry.prog.Source != src {
		return Compile(src)
	}

	return entry.prog, entry.err
}

// ClearCache removes all cached programs.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() {
	programCache.Range(func(key, _ any) bool {
		programCache.Delete(key)

		return true
	})
}

// ParseReader reads all of r and evaluates it as with [Interpreter.Parse].
func (it *Interpreter) ParseReader(ctx context.Context, r io.Reader) (Value, error) {
	// Read ahead asynchronously so large inputs overlap I/O with hashing.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	it.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return it.Parse(ctx, string(data))
}

// CompileReader reads all of r and compiles it without evaluation.
func CompileReader(r io.Reader) (*Program, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return Compile(string(data))
}
