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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a vault",
	Long: `Initialize a vault in the specified directory (or the configured vault
directory). Creates the metadata database and the blob directory.

Examples:
  vaultfs init
  vaultfs init ~/vault`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	var dir string
	var err error
	if len(args) > 0 {
		dir, err = filepath.Abs(args[0])
	} else {
		dir, err = vaultDir()
	}
	if err != nil {
		return err
	}

	existing := false
	if _, err := os.Stat(filepath.Join(dir, dbFileName)); err == nil {
		existing = true
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	_, release, err := openVaultAt(dir)
	if err != nil {
		return err
	}
	release()

	if existing {
		fmt.Printf("Reinitialized existing vault in %s\n", dir)
	} else {
		fmt.Printf("Initialized empty vault in %s\n", dir)
	}
	return nil
}
