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

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show storage usage",
	Long: `Show the owner's storage usage: total used, available space and the
per-category breakdown.`,
	Args: cobra.NoArgs,
	RunE: runQuota,
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

func runQuota(cmd *cobra.Command, args []string) error {
	owner, err := resolveOwner()
	if err != nil {
		return err
	}
	mgr, release, err := openVault()
	if err != nil {
		return err
	}
	defer release()

	info, err := mgr.StorageInfo(cmd.Context(), owner)
	if err != nil {
		return err
	}

	fmt.Printf("Owner: %s\n", owner)
	fmt.Printf("Used:  %s of %s (%s available)\n",
		formatSize(info.Used), formatSize(info.Limit), formatSize(info.Available))
	for _, kind := range storage.FileKinds {
		fmt.Printf("  %-9s %s\n", string(kind)+":", formatSize(info.ByKind[kind]))
	}
	return nil
}
