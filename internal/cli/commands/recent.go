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
	"github.com/spf13/cobra"
)

var recentLimit int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently uploaded files",
	Long: `List the owner's most recently uploaded files, newest first. Folders are
not included.

Examples:
  vaultfs recent
  vaultfs recent --limit 25`,
	Args: cobra.NoArgs,
	RunE: runRecent,
}

func init() {
	recentCmd.Flags().IntVar(&recentLimit, "limit", 0, "number of files to show (default 10)")
	rootCmd.AddCommand(recentCmd)
}

func runRecent(cmd *cobra.Command, args []string) error {
	owner, err := resolveOwner()
	if err != nil {
		return err
	}
	mgr, release, err := openVault()
	if err != nil {
		return err
	}
	defer release()

	entries, err := mgr.Recent(cmd.Context(), owner, recentLimit)
	if err != nil {
		return err
	}
	printEntries(entries)
	return nil
}
