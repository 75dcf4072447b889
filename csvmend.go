// Package csvmend repairs malformed CSV exports that use single-byte control
// characters (0x1E / 0x1D, as produced by SQL Server bcp) in place of commas
// and newlines, rewriting them into standards-compliant quoted CSV. Files are
// processed in bounded-size chunks, so inputs far larger than memory stream
// through in constant space.
//
// Example usage:
//
//	cfg := csvmend.DefaultConfig()
//	stats, err := csvmend.Repair("/data/export.csv", cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(stats.Rows, "rows mended")
package csvmend

import (
	"context"
	"io"

	"github.com/bcp-labs/csvmend/internal/mend"
	"github.com/rs/zerolog"
)

// Config holds the per-file repair configuration.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = mend.Config

// Options holds the two delimiter bytes of the broken input.
type Options = mend.Options

// Stats summarizes one transform pass.
type Stats = mend.Stats

// WatchConfig drives drop-folder mode.
type WatchConfig = mend.WatchConfig

// Default delimiter bytes and chunk sizes.
const (
	DefaultSep       = mend.DefaultSep
	DefaultEOL       = mend.DefaultEOL
	DefaultChunkSize = mend.DefaultChunkSize
	WatchChunkSize   = mend.WatchChunkSize
)

// Repair fixes the broken CSV file at path in place using the backup-rename
// protocol. On failure the original file is restored and the partial output
// parked with a .broken suffix.
func Repair(path string, cfg Config) (Stats, error) {
	return mend.Repair(path, cfg)
}

// Transform streams broken CSV from r to w. size is the total input length;
// a zero-size input produces no output at all.
func Transform(r io.Reader, w io.Writer, size int64, chunkSize int, opts Options) (Stats, error) {
	return mend.Transform(r, w, size, chunkSize, opts)
}

// Watch repairs files as they land in cfg.Dir, blocking until ctx is
// cancelled (or, in Once mode, until the initial sweep finishes).
func Watch(ctx context.Context, cfg WatchConfig) error {
	w, err := mend.NewWatcher(cfg)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return mend.DefaultConfig()
}

// DefaultWatchConfig returns a WatchConfig for dir with the smaller watch
// chunk size.
func DefaultWatchConfig(dir string) WatchConfig {
	return mend.DefaultWatchConfig(dir)
}

// ParseDelimiter resolves a delimiter flag value (single character or 0xNN
// hex form) to a single byte, falling back to def when empty.
func ParseDelimiter(s string, def byte) (byte, error) {
	return mend.ParseDelimiter(s, def)
}

// Logger returns the package-level zerolog logger used during repairs.
func Logger() zerolog.Logger {
	return mend.Logger()
}

// SetLogger replaces the package-level logger.
func SetLogger(l zerolog.Logger) {
	mend.SetLogger(l)
}
