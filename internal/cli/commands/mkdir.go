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

	"vaultfs/internal/storage"
)

var mkdirParent string

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <name>",
	Short: "Create a folder",
	Long: `Create a folder in the vault. Without --parent the folder is created at
the top level.

Examples:
  vaultfs mkdir Documents
  vaultfs mkdir Reports --parent 6b9f...`,
	Args: cobra.ExactArgs(1),
	RunE: runMkdir,
}

func init() {
	mkdirCmd.Flags().StringVar(&mkdirParent, "parent", storage.RootID, "parent folder id")
	rootCmd.AddCommand(mkdirCmd)
}

func runMkdir(cmd *cobra.Command, args []string) error {
	owner, err := resolveOwner()
	if err != nil {
		return err
	}
	mgr, release, err := openVault()
	if err != nil {
		return err
	}
	defer release()

	folder, err := mgr.CreateFolder(cmd.Context(), owner, args[0], mkdirParent)
	if err != nil {
		return err
	}
	fmt.Printf("Created folder %s (%s)\n", folder.Name, folder.ID)
	return nil
}
