package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Separator     string `toml:"separator"`
	Terminator    string `toml:"terminator"`
	ChunkSize     int    `toml:"chunk_size"`
	WatchDir      string `toml:"watch_dir"`
	Suffix        string `toml:"suffix"`
	SettleTimeout string `toml:"settle_timeout"`
	BackupMaxAge  string `toml:"backup_max_age"`
	KeepBackup    *bool  `toml:"keep_backup"`
	Verify        *bool  `toml:"verify"`
	Once          *bool  `toml:"once"`
	Debug         *bool  `toml:"debug"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.csvmend/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".csvmend", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("sep", fc.Separator, &cfg.Separator)
	s.setString("eol", fc.Terminator, &cfg.Terminator)
	s.setString("watch", fc.WatchDir, &cfg.WatchDir)
	s.setString("suffix", fc.Suffix, &cfg.Suffix)

	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)

	if err := s.setDuration("settle-timeout", fc.SettleTimeout, &cfg.SettleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("backup-max-age", fc.BackupMaxAge, &cfg.BackupMaxAge); err != nil {
		return err
	}

	s.setBool("keep-backup", fc.KeepBackup, &cfg.KeepBackup)
	s.setBool("verify", fc.Verify, &cfg.Verify)
	s.setBool("once", fc.Once, &cfg.Once)
	s.setBool("debug", fc.Debug, &cfg.Debug)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
