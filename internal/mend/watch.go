package mend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig drives drop-folder mode: repair files as they land in Dir.
type WatchConfig struct {
	Dir    string
	Suffix string // only files with this suffix are picked up

	Repair Config

	// SettleTimeout bounds how long to wait for a newly dropped file to
	// stop growing before repairing it.
	SettleTimeout time.Duration

	// BackupMaxAge enables periodic purging of .bak files older than this.
	// Zero keeps backups forever.
	BackupMaxAge time.Duration

	// Once repairs the files already present and returns without watching.
	Once bool
}

// DefaultWatchConfig returns a WatchConfig for dir with the smaller watch
// chunk size.
func DefaultWatchConfig(dir string) WatchConfig {
	cfg := DefaultConfig()
	cfg.ChunkSize = WatchChunkSize
	return WatchConfig{
		Dir:           dir,
		Suffix:        ".csv",
		Repair:        cfg,
		SettleTimeout: 30 * time.Second,
	}
}

// Watcher repairs broken CSV files as they appear in a directory.
type Watcher struct {
	cfg WatchConfig

	mu       sync.Mutex
	inflight map[string]bool
	wg       sync.WaitGroup
}

// NewWatcher validates cfg and returns a Watcher.
func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch dir is required")
	}
	if cfg.Suffix == "" {
		cfg.Suffix = ".csv"
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 30 * time.Second
	}
	if err := cfg.Repair.Validate(); err != nil {
		return nil, err
	}
	return &Watcher{cfg: cfg, inflight: make(map[string]bool)}, nil
}

// Run sweeps the directory, then blocks watching for new files until ctx is
// cancelled. In Once mode it returns after the initial sweep.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.sweep(ctx); err != nil {
		return err
	}
	if w.cfg.Once {
		w.wg.Wait()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	logger.Info().Str("dir", w.cfg.Dir).Str("suffix", w.cfg.Suffix).Msg("watching for broken files")

	var purge <-chan time.Time
	if w.cfg.BackupMaxAge > 0 {
		t := time.NewTicker(w.cfg.BackupMaxAge / 2)
		defer t.Stop()
		purge = t.C
	}

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.dispatch(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")

		case <-purge:
			freed, n, err := purgeBackups(w.cfg.Dir, w.cfg.BackupMaxAge)
			if err != nil {
				logger.Error().Err(err).Msg("backup purge failed")
			} else if n > 0 {
				logger.Info().Int("removed", n).Str("freed", formatBytes(freed)).Msg("backups purged")
			}
		}
	}
}

// sweep repairs every eligible file already present in the directory.
func (w *Watcher) sweep(ctx context.Context) error {
	ents, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read watch dir: %w", err)
	}
	for _, e := range ents {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.IsDir() {
			continue
		}
		w.dispatch(ctx, filepath.Join(w.cfg.Dir, e.Name()))
	}
	return nil
}

// dispatch starts a repair for path unless it is ineligible or already being
// handled. The .bak sibling a finished repair leaves behind doubles as the
// marker that suppresses the events our own output file generates.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	if !w.eligible(path) {
		return
	}

	w.mu.Lock()
	if w.inflight[path] {
		w.mu.Unlock()
		return
	}
	w.inflight[path] = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.inflight, path)
			w.mu.Unlock()
		}()
		w.handle(ctx, path)
	}()
}

func (w *Watcher) eligible(path string) bool {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, w.cfg.Suffix) {
		return false
	}
	if strings.HasSuffix(name, BackupSuffix) || strings.HasSuffix(name, BrokenSuffix) {
		return false
	}
	// An existing backup means this file was already repaired.
	if _, err := os.Stat(path + BackupSuffix); err == nil {
		return false
	}
	return true
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if err := w.waitSettled(ctx, path); err != nil {
		logger.Warn().Err(err).Str("file", path).Msg("skipping file")
		return
	}
	if _, err := Repair(path, w.cfg.Repair); err != nil {
		logger.Error().Err(err).Str("file", path).Msg("repair failed")
	}
}

// waitSettled polls until two consecutive size checks agree, so a file still
// being copied into the drop folder is not transcoded half-written.
func (w *Watcher) waitSettled(ctx context.Context, path string) error {
	deadline := time.Now().Add(w.cfg.SettleTimeout)
	back := newBackoff(50*time.Millisecond, 2*time.Second)

	var last int64 = -1
	for {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat: %w", err)
		}
		if info.Size() == last {
			return nil
		}
		last = info.Size()

		if time.Now().After(deadline) {
			return fmt.Errorf("still growing after %s", w.cfg.SettleTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(back.Next()):
		}
	}
}
