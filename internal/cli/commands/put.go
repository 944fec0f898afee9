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
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vaultfs/internal/files"
	"vaultfs/internal/storage"
)

var (
	putParent    string
	putRecursive bool
)

var putCmd = &cobra.Command{
	Use:   "put <path>...",
	Short: "Upload files into the vault",
	Long: `Upload one or more local files into the vault. With -r a directory is
imported recursively, honoring a .vaultignore file at its root
(gitignore syntax).

Examples:
  vaultfs put report.pdf
  vaultfs put *.png --parent 6b9f...
  vaultfs put -r ~/photos`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPut,
}

func init() {
	putCmd.Flags().StringVar(&putParent, "parent", storage.RootID, "destination folder id")
	putCmd.Flags().BoolVarP(&putRecursive, "recursive", "r", false, "import directories recursively")
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	owner, err := resolveOwner()
	if err != nil {
		return err
	}
	mgr, release, err := openVault()
	if err != nil {
		return err
	}
	defer release()

	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !putRecursive {
				return fmt.Errorf("%s is a directory (use -r to import trees)", arg)
			}
			report, err := mgr.ImportTree(cmd.Context(), owner, path, putParent)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %s: %d folders, %d files", arg, report.Folders, report.Files)
			if report.Skipped > 0 {
				fmt.Printf(", %d skipped", report.Skipped)
			}
			fmt.Println()
			continue
		}

		entry, err := putFile(cmd, mgr, owner, path)
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded %s (%s, %s, %s)\n", entry.Name, entry.Kind, formatSize(entry.Size), entry.ID)
	}
	return nil
}

func putFile(cmd *cobra.Command, mgr *files.Manager, owner, path string) (*storage.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)
	return mgr.Upload(cmd.Context(), owner, files.UploadInput{
		Name:        name,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
		ParentID:    putParent,
		Content:     f,
	})
}
