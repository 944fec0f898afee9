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

	"github.com/spf13/cobra"
)

var favoriteCmd = &cobra.Command{
	Use:   "favorite [id]",
	Short: "Toggle an entry's favorite flag, or list favorites",
	Long: `Toggle the favorite flag of an entry. Without an id, list the owner's
favorite entries instead.

Examples:
  vaultfs favorite 6b9f...
  vaultfs favorite`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFavorite,
}

func init() {
	rootCmd.AddCommand(favoriteCmd)
}

func runFavorite(cmd *cobra.Command, args []string) error {
	owner, err := resolveOwner()
	if err != nil {
		return err
	}
	mgr, release, err := openVault()
	if err != nil {
		return err
	}
	defer release()

	if len(args) == 0 {
		entries, err := mgr.Favorites(cmd.Context(), owner)
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	}

	on, err := mgr.ToggleFavorite(cmd.Context(), owner, args[0])
	if err != nil {
		return err
	}
	if on {
		fmt.Println("Marked as favorite")
	} else {
		fmt.Println("Removed from favorites")
	}
	return nil
}
