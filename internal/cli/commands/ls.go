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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vaultfs/internal/storage"
)

var (
	lsParent    string
	lsKind      string
	lsFavorites bool
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List entries",
	Long: `List the owner's entries, folders first and then names in ascending
order. Deleted entries are never shown.

Examples:
  vaultfs ls
  vaultfs ls --parent 6b9f...
  vaultfs ls --type image
  vaultfs ls --favorites`,
	Args: cobra.NoArgs,
	RunE: runLs,
}

func init() {
	lsCmd.Flags().StringVar(&lsParent, "parent", "", "restrict to one folder's children (id)")
	lsCmd.Flags().StringVar(&lsKind, "type", "", "restrict to a kind: folder, image, document, pdf")
	lsCmd.Flags().BoolVar(&lsFavorites, "favorites", false, "only favorite entries")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	owner, err := resolveOwner()
	if err != nil {
		return err
	}
	mgr, release, err := openVault()
	if err != nil {
		return err
	}
	defer release()

	filter := storage.ListFilter{
		Kind:          storage.Kind(lsKind),
		FavoritesOnly: lsFavorites,
	}
	if cmd.Flags().Changed("parent") {
		filter.ParentID = &lsParent
	}

	entries, err := mgr.List(cmd.Context(), owner, filter)
	if err != nil {
		return err
	}
	printEntries(entries)
	return nil
}

// printEntries renders a listing in a fixed column layout shared by ls,
// recent and the favorite listings.
func printEntries(entries []storage.ListedEntry) {
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tNAME\tSIZE\tIN\tFAV\tID")
	for _, e := range entries {
		size := "-"
		if !e.IsFolder() {
			size = formatSize(e.Size)
		}
		in := e.ParentName
		if in == "" {
			in = "/"
		}
		fav := ""
		if e.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Kind, e.Name, size, in, fav, e.ID)
	}
	w.Flush()
}

// formatSize renders a byte count with a binary unit suffix.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
