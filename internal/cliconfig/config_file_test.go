package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Separator:     "0x1f",
				Terminator:    "0x1e",
				ChunkSize:     1 << 20,
				WatchDir:      "/spool",
				Suffix:        ".txt",
				SettleTimeout: "10s",
				BackupMaxAge:  "72h",
				KeepBackup:    &falseVal,
				Verify:        &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{KeepBackup: true},
			expected: Config{
				Separator:     "0x1f",
				Terminator:    "0x1e",
				ChunkSize:     1 << 20,
				WatchDir:      "/spool",
				Suffix:        ".txt",
				SettleTimeout: 10 * time.Second,
				BackupMaxAge:  72 * time.Hour,
				KeepBackup:    false,
				Verify:        true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Separator: "|",
				WatchDir:  "/from/file",
			},
			changed: map[string]bool{"sep": true},
			initial: Config{
				Separator: "0x1f",
			},
			expected: Config{
				Separator: "0x1f", // unchanged because flag was set
				WatchDir:  "/from/file",
			},
			wantErr: false,
		},
		{
			name: "invalid duration is an error",
			fileConfig: FileConfig{
				SettleTimeout: "not-a-duration",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}

			if cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
separator = "0x1f"
terminator = "0x1e"
chunk_size = 1048576
watch_dir = "/var/spool/exports"
settle_timeout = "10s"
keep_backup = false
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Separator != "0x1f" {
		t.Errorf("Separator = %v, want 0x1f", fc.Separator)
	}
	if fc.Terminator != "0x1e" {
		t.Errorf("Terminator = %v, want 0x1e", fc.Terminator)
	}
	if fc.ChunkSize != 1<<20 {
		t.Errorf("ChunkSize = %v, want 1MiB", fc.ChunkSize)
	}
	if fc.WatchDir != "/var/spool/exports" {
		t.Errorf("WatchDir = %v, want /var/spool/exports", fc.WatchDir)
	}
	if fc.SettleTimeout != "10s" {
		t.Errorf("SettleTimeout = %v, want 10s", fc.SettleTimeout)
	}
	if fc.KeepBackup == nil || *fc.KeepBackup != false {
		t.Errorf("KeepBackup = %v, want false", fc.KeepBackup)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
separator = "|"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	// Should return a path containing .csvmend
	if path != "" && !strings.Contains(path, ".csvmend") {
		t.Errorf("DefaultConfigPath() = %v, should contain .csvmend", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
