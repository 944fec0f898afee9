// Copyright 2026 VaultFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vaultfs/internal/config"
	"vaultfs/internal/storage"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version info for --version flag
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

// getVersionString returns the version string with build info
func getVersionString() string {
	buildDate := formatBuildDate(date)
	if strings.HasSuffix(version, "-dev") {
		// Dev build: include epoch and commit for troubleshooting
		return fmt.Sprintf("%s (%s, epoch: %s, commit: %s)", version, buildDate, date, commit)
	}
	// Prod build: version with date
	return fmt.Sprintf("%s (%s)", version, buildDate)
}

// formatBuildDate converts epoch timestamp to readable date
func formatBuildDate(epoch string) string {
	ts, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return epoch
	}
	return time.Unix(ts, 0).Format("2006-01-02")
}

var (
	flagVaultDir string
	flagOwner    string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "vaultfs",
	Short: "Per-user virtual file vault with quota accounting",
	Long: `VaultFS keeps each owner's files and folders in a local vault: metadata
and quota ledger in SQLite, file content in a blob directory. Entries are
soft-deleted and never returned once removed.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		if err := config.InitDir(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		storage.SetConfigBusyTimeout(cfg.BusyTimeout)
		setupLogging(cfg)
		return nil
	},
}

// setupLogging wires logrus per the config. The --verbose flag overrides
// the configured level; logging stays off by default so command output is
// the only thing on the terminal.
func setupLogging(cfg *config.Config) {
	if flagVerbose {
		log.SetLevel(log.DebugLevel)
		return
	}
	if !cfg.LoggingEnabled() {
		log.SetOutput(io.Discard)
		return
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("vaultfs version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&flagVaultDir, "vault", "", "vault directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagOwner, "owner", "", "owner id (default from config, then OS username)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
