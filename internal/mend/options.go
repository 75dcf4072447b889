package mend

import (
	"fmt"
	"strconv"
	"strings"
)

// Delimiter bytes produced by SQL Server bcp exports that never collide with
// printable CSV content.
const (
	DefaultSep = 0x1E // ASCII record separator, used as the field boundary
	DefaultEOL = 0x1D // ASCII group separator, used as the record boundary
)

const (
	// DefaultChunkSize is the read buffer size for one-shot repairs.
	DefaultChunkSize = 4 << 20
	// WatchChunkSize is the smaller read buffer used by watch mode, where
	// many files may be in flight over the lifetime of the process.
	WatchChunkSize = 1 << 20
)

// Options holds the two delimiter bytes of the broken input.
type Options struct {
	Sep byte
	EOL byte
}

// DefaultOptions returns the delimiters written by a standard bcp export.
func DefaultOptions() Options {
	return Options{Sep: DefaultSep, EOL: DefaultEOL}
}

// ParseDelimiter resolves a delimiter flag value to a single byte. An empty
// value yields def. A single character stands for itself; the 0xNN form names
// a byte by hex value. Anything longer is a configuration error, rejected
// before any file is touched.
func ParseDelimiter(s string, def byte) (byte, error) {
	if s == "" {
		return def, nil
	}
	if len(s) == 1 {
		return s[0], nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("delimiter %q is not a byte value: %w", s, err)
		}
		return byte(n), nil
	}
	return 0, fmt.Errorf("delimiter %q must be a single byte (got %d bytes)", s, len(s))
}

// Config holds everything Repair needs for one file.
type Config struct {
	Options

	// ChunkSize bounds the read buffer; the output buffer is sized at
	// roughly three times this.
	ChunkSize int

	// KeepBackup leaves the .bak file next to the repaired output.
	KeepBackup bool

	// Verify recounts the delimiters of the backup after a repair and
	// cross-checks them against the transform stats.
	Verify bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Options:    DefaultOptions(),
		ChunkSize:  DefaultChunkSize,
		KeepBackup: true,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	return nil
}
