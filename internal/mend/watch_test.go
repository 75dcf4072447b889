package mend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func watchConfigForTest(dir string) WatchConfig {
	cfg := DefaultWatchConfig(dir)
	cfg.SettleTimeout = 2 * time.Second
	return cfg
}

func TestNewWatcher_Validation(t *testing.T) {
	if _, err := NewWatcher(WatchConfig{}); err == nil {
		t.Error("NewWatcher() expected error for empty dir")
	}

	cfg := DefaultWatchConfig(t.TempDir())
	cfg.Repair.ChunkSize = 0
	if _, err := NewWatcher(cfg); err == nil {
		t.Error("NewWatcher() expected error for invalid repair config")
	}
}

func TestWatcher_Eligible(t *testing.T) {
	tmp := t.TempDir()
	w, err := NewWatcher(watchConfigForTest(tmp))
	if err != nil {
		t.Fatal(err)
	}

	if w.eligible(filepath.Join(tmp, "notes.txt")) {
		t.Error("picked up file with wrong suffix")
	}
	if !w.eligible(filepath.Join(tmp, "drop.csv")) {
		t.Error("rejected eligible file")
	}

	// A .bak sibling marks the file as already repaired.
	done := filepath.Join(tmp, "done.csv")
	writeFile(t, done, "already repaired")
	writeFile(t, done+BackupSuffix, "original")
	if w.eligible(done) {
		t.Error("picked up file that already has a backup")
	}
}

func TestWatcher_OnceSweep(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "drop.csv")
	writeFile(t, path, "a\x1Eb\x1Dc")
	writeFile(t, filepath.Join(tmp, "ignored.txt"), "not csv")

	cfg := watchConfigForTest(tmp)
	cfg.Once = true
	w, err := NewWatcher(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "\"a\",\"b\"\n\"c\""
	if got := readFile(t, path); got != want {
		t.Errorf("repaired = %q, want %q", got, want)
	}
	if !pathExists(path + BackupSuffix) {
		t.Error("backup missing after sweep")
	}
	if pathExists(filepath.Join(tmp, "ignored.txt") + BackupSuffix) {
		t.Error("non-matching file was repaired")
	}
}

func TestWatcher_RepairsDroppedFile(t *testing.T) {
	tmp := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := NewWatcher(watchConfigForTest(tmp))
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register before dropping the file.
	time.Sleep(200 * time.Millisecond)
	path := filepath.Join(tmp, "drop.csv")
	writeFile(t, path, "x\x1Ey\x1Dz")

	want := "\"x\",\"y\"\n\"z\""
	deadline := time.Now().Add(5 * time.Second)
	for {
		if b, err := os.ReadFile(path); err == nil && string(b) == want && pathExists(path+BackupSuffix) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("file not repaired in time, content = %q", readFile(t, path))
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil && err != context.Canceled {
		t.Errorf("Run() error = %v", err)
	}
}

func TestWatcher_WaitSettled(t *testing.T) {
	tmp := t.TempDir()
	w, err := NewWatcher(watchConfigForTest(tmp))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmp, "stable.csv")
	writeFile(t, path, "stable content")
	if err := w.waitSettled(context.Background(), path); err != nil {
		t.Errorf("waitSettled() error = %v for stable file", err)
	}

	if err := w.waitSettled(context.Background(), filepath.Join(tmp, "gone.csv")); err == nil {
		t.Error("waitSettled() expected error for missing file")
	}
}
