package mend

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// purgeBackups removes .bak files under dir whose modification time is older
// than maxAge. Returns the bytes freed and the number of files removed.
// Failures on individual files are logged and skipped so one stuck backup
// does not block the rest.
func purgeBackups(dir string, maxAge time.Duration) (int64, int, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	var freed int64
	removed := 0

	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), BackupSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			logger.Error().Err(err).Str("backup", path).Msg("purge: remove failed")
			continue
		}
		freed += info.Size()
		removed++
	}
	return freed, removed, nil
}
