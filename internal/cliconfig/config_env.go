package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (CSVMEND_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("sep", os.Getenv("CSVMEND_SEPARATOR"), &cfg.Separator)
	s.setString("eol", os.Getenv("CSVMEND_TERMINATOR"), &cfg.Terminator)
	s.setString("watch", os.Getenv("CSVMEND_WATCH_DIR"), &cfg.WatchDir)
	s.setString("suffix", os.Getenv("CSVMEND_SUFFIX"), &cfg.Suffix)

	if err := s.setIntFromString("chunk-size", os.Getenv("CSVMEND_CHUNK_SIZE"), &cfg.ChunkSize); err != nil {
		return err
	}

	if err := s.setDuration("settle-timeout", os.Getenv("CSVMEND_SETTLE_TIMEOUT"), &cfg.SettleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("backup-max-age", os.Getenv("CSVMEND_BACKUP_MAX_AGE"), &cfg.BackupMaxAge); err != nil {
		return err
	}

	s.setBoolFromString("keep-backup", os.Getenv("CSVMEND_KEEP_BACKUP"), &cfg.KeepBackup)
	s.setBoolFromString("verify", os.Getenv("CSVMEND_VERIFY"), &cfg.Verify)
	s.setBoolFromString("once", os.Getenv("CSVMEND_ONCE"), &cfg.Once)
	s.setBoolFromString("debug", os.Getenv("CSVMEND_DEBUG"), &cfg.Debug)

	return nil
}
