package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	csvmend "github.com/bcp-labs/csvmend"
	"github.com/bcp-labs/csvmend/internal/cliconfig"
)

const helpDescription = `
Mend broken CSV exports without loading them into memory.

SQL Server bcp (and friends) can emit "CSV" that separates fields with 0x1E
and records with 0x1D instead of commas and newlines. csvmend streams such
files chunk by chunk and rewrites them into properly quoted CSV, keeping a
.bak copy of the original next to the result.

Highlights:
  - Constant memory use regardless of file size; tune with --chunk-size.
  - Safe by construction: on any failure the original file is restored and
    the partial output is parked with a .broken suffix.
  - Watch mode repairs files as they land in a drop folder.
  - Configure via file ($HOME/.csvmend/config.toml), CSVMEND_* env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  csvmend export.csv
  csvmend --sep 0x1f --eol 0x1e dump1.csv dump2.csv
  csvmend --watch /var/spool/exports --backup-max-age 72h
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := csvmend.Logger()

	root := &cobra.Command{
		Use:     "csvmend [flags] FILE...",
		Short:   "Mend broken CSV exports without loading them into memory",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.csvmend/config.toml),
			// then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables (CSVMEND_*) override file config but
			// are overridden by flags (checked via changed map).
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Debug {
				csvmend.SetLogger(log.Level(zerolog.DebugLevel))
				log = csvmend.Logger()
			}
			log.Debug().Interface("config", cfg).Msg("configuration")

			if cfg.WatchDir != "" {
				if len(args) > 0 {
					return fmt.Errorf("--watch and FILE arguments are mutually exclusive")
				}
				return runWatch(cfg)
			}

			if len(args) == 0 {
				return fmt.Errorf("nothing to do: pass FILE arguments or --watch DIR")
			}
			return runRepair(cfg, args)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.csvmend/config.toml)")
	root.Flags().StringVar(&cfg.Separator, "sep", cfg.Separator, "field separator byte of the broken input (single char or 0xNN, default 0x1e)")
	root.Flags().StringVar(&cfg.Terminator, "eol", cfg.Terminator, "record terminator byte of the broken input (single char or 0xNN, default 0x1d)")
	root.Flags().IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "read buffer size in bytes")

	root.Flags().StringVar(&cfg.WatchDir, "watch", cfg.WatchDir, "repair files as they appear in this directory instead of taking FILE arguments")
	root.Flags().StringVar(&cfg.Suffix, "suffix", cfg.Suffix, "file suffix picked up in watch mode")
	root.Flags().DurationVar(&cfg.SettleTimeout, "settle-timeout", cfg.SettleTimeout, "how long watch mode waits for a growing file to settle")
	root.Flags().DurationVar(&cfg.BackupMaxAge, "backup-max-age", cfg.BackupMaxAge, "purge .bak files older than this in watch mode (0 keeps them)")

	root.Flags().BoolVar(&cfg.KeepBackup, "keep-backup", cfg.KeepBackup, "leave the .bak file next to the repaired output")
	root.Flags().BoolVar(&cfg.Verify, "verify", cfg.Verify, "recount delimiters after each repair (debug)")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "in watch mode, repair existing files and exit")
	root.Flags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("csvmend")
		os.Exit(1)
	}
}

// runRepair mends each file in order, stopping at the first failure.
func runRepair(cfg cliconfig.Config, paths []string) error {
	repairCfg, err := cfg.RepairConfig()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, err := csvmend.Repair(p, repairCfg); err != nil {
			return err
		}
	}
	return nil
}

// runWatch blocks repairing dropped files until SIGINT/SIGTERM.
func runWatch(cfg cliconfig.Config) error {
	watchCfg, err := cfg.WatcherConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger := csvmend.Logger()
		logger.Info().Msg("received signal, stopping...")
		cancel()
	}()

	if err := csvmend.Watch(ctx, watchCfg); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
