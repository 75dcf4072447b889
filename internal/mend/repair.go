package mend

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Suffixes used by the backup-rename protocol.
const (
	BackupSuffix = ".bak"
	BrokenSuffix = ".broken"
)

// Repair fixes the broken CSV file at path in place using the backup-rename
// protocol: the original is renamed to path.bak and transcoded into a new
// file at path. On success the backup stays (unless cfg.KeepBackup is false).
// On any failure the partial output is renamed to path.broken, the backup is
// restored to path, and the underlying error is surfaced — the original data
// is never silently lost.
func Repair(path string, cfg Config) (Stats, error) {
	var st Stats
	if err := cfg.Validate(); err != nil {
		return st, err
	}

	bak := path + BackupSuffix
	if err := os.Rename(path, bak); err != nil {
		return st, fmt.Errorf("backup %s: %w", path, err)
	}

	st, err := transformFile(bak, path, cfg)
	if err != nil {
		return st, restoreBackup(path, bak, err)
	}

	if cfg.Verify {
		if verr := verifyBackup(bak, cfg.EOL, st); verr != nil {
			return st, restoreBackup(path, bak, verr)
		}
	}

	logger.Info().
		Str("file", path).
		Str("in", formatBytes(st.BytesIn)).
		Str("out", formatBytes(st.BytesOut)).
		Int64("rows", st.Rows).
		Msg("repair completed")

	if !cfg.KeepBackup {
		if err := os.Remove(bak); err != nil {
			logger.Warn().Err(err).Str("backup", bak).Msg("remove backup failed")
		}
	}
	return st, nil
}

// transformFile runs Transform from src into a freshly created dst, closing
// both files and reporting any write or close error.
func transformFile(src, dst string, cfg Config) (Stats, error) {
	var st Stats

	in, err := os.Open(src)
	if err != nil {
		return st, fmt.Errorf("open backup: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return st, fmt.Errorf("stat backup: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return st, fmt.Errorf("create output: %w", err)
	}

	st, terr := Transform(in, out, info.Size(), cfg.ChunkSize, cfg.Options)
	if cerr := out.Close(); terr == nil && cerr != nil {
		terr = fmt.Errorf("close output: %w", cerr)
	}
	return st, terr
}

// restoreBackup parks the partial output under BrokenSuffix and puts the
// backup back at path, then wraps cause for the caller. Restore failures are
// logged but never mask the original error.
func restoreBackup(path, bak string, cause error) error {
	if err := os.Rename(path, path+BrokenSuffix); err != nil && !os.IsNotExist(err) {
		logger.Error().Err(err).Str("file", path).Msg("park broken output failed")
	}
	if err := os.Rename(bak, path); err != nil {
		logger.Error().Err(err).Str("backup", bak).Msg("restore backup failed")
	}
	return fmt.Errorf("repair %s: %w", path, cause)
}

// verifyBackup recounts record boundaries in the backup and cross-checks the
// row count reported by the transform. Debug aid, off by default.
func verifyBackup(bak string, eol byte, st Stats) error {
	f, err := os.Open(bak)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	defer f.Close()

	var rows, total int64
	buf := make([]byte, 64*1024)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			rows += int64(bytes.Count(buf[:n], []byte{eol}))
			total += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("verify: %w", rerr)
		}
	}
	if total > 0 {
		rows++
	}
	if rows != st.Rows || total != st.BytesIn {
		return fmt.Errorf("verify: backup has %d rows / %d bytes, transform saw %d / %d",
			rows, total, st.Rows, st.BytesIn)
	}
	return nil
}

func formatBytes(b int64) string {
	const (
		_          = iota
		kb float64 = 1 << (10 * iota)
		mb
		gb
	)

	fb := float64(b)
	switch {
	case fb >= gb:
		return fmt.Sprintf("%.2fGiB", fb/gb)
	case fb >= mb:
		return fmt.Sprintf("%.2fMiB", fb/mb)
	case fb >= kb:
		return fmt.Sprintf("%.2fKiB", fb/kb)
	default:
		return fmt.Sprintf("%dB", b)
	}
}
