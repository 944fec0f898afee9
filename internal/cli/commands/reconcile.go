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

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute the quota ledger from stored entries",
	Long: `Recompute the owner's quota ledger from the live entries and repair any
drift, for example after a crash between a delete and its quota release.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	owner, err := resolveOwner()
	if err != nil {
		return err
	}
	mgr, release, err := openVault()
	if err != nil {
		return err
	}
	defer release()

	report, err := mgr.Reconcile(cmd.Context(), owner)
	if err != nil {
		return err
	}

	if !report.Drifted {
		fmt.Println("Ledger is consistent, nothing to repair.")
		return nil
	}
	fmt.Printf("Repaired ledger for %s (total now %s):\n", owner, formatSize(report.Recomputed))
	for _, kind := range storage.FileKinds {
		before, after := report.Before[kind], report.After[kind]
		if before != after {
			fmt.Printf("  %-9s %s -> %s\n", string(kind)+":", formatSize(before), formatSize(after))
		}
	}
	return nil
}
