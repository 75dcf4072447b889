package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bcp-labs/csvmend/internal/mend"
)

// Config holds CLI configuration for csvmend. Delimiters stay strings here
// so they can round-trip through flags, env, and the config file; they are
// resolved to bytes by RepairConfig.
type Config struct {
	Separator  string
	Terminator string
	ChunkSize  int

	WatchDir      string
	Suffix        string
	SettleTimeout time.Duration
	BackupMaxAge  time.Duration

	KeepBackup bool
	Verify     bool
	Once       bool
	Debug      bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ChunkSize:     mend.DefaultChunkSize,
		Suffix:        ".csv",
		SettleTimeout: 30 * time.Second,
		KeepBackup:    true,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if _, err := mend.ParseDelimiter(c.Separator, mend.DefaultSep); err != nil {
		return fmt.Errorf("sep: %w", err)
	}
	if _, err := mend.ParseDelimiter(c.Terminator, mend.DefaultEOL); err != nil {
		return fmt.Errorf("eol: %w", err)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk-size must be positive")
	}
	if c.Suffix == "" {
		c.Suffix = ".csv"
	}
	if c.SettleTimeout <= 0 {
		return fmt.Errorf("settle-timeout must be positive")
	}
	return nil
}

// RepairConfig resolves the delimiter strings and returns the per-file
// repair configuration.
func (c *Config) RepairConfig() (mend.Config, error) {
	cfg := mend.DefaultConfig()

	sep, err := mend.ParseDelimiter(c.Separator, mend.DefaultSep)
	if err != nil {
		return cfg, fmt.Errorf("sep: %w", err)
	}
	eol, err := mend.ParseDelimiter(c.Terminator, mend.DefaultEOL)
	if err != nil {
		return cfg, fmt.Errorf("eol: %w", err)
	}

	cfg.Sep = sep
	cfg.EOL = eol
	cfg.ChunkSize = c.ChunkSize
	cfg.KeepBackup = c.KeepBackup
	cfg.Verify = c.Verify
	return cfg, nil
}

// WatcherConfig builds the drop-folder configuration from the CLI config.
func (c *Config) WatcherConfig() (mend.WatchConfig, error) {
	repair, err := c.RepairConfig()
	if err != nil {
		return mend.WatchConfig{}, err
	}
	return mend.WatchConfig{
		Dir:           c.WatchDir,
		Suffix:        c.Suffix,
		Repair:        repair,
		SettleTimeout: c.SettleTimeout,
		BackupMaxAge:  c.BackupMaxAge,
		Once:          c.Once,
	}, nil
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
