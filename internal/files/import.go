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

package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	log "github.com/sirupsen/logrus"

	"vaultfs/internal/common"
)

// IgnoreFileName is the per-tree exclusion list honored by ImportTree,
// gitignore syntax.
const IgnoreFileName = ".vaultignore"

// ImportReport summarizes one ImportTree run.
type ImportReport struct {
	Folders int
	Files   int
	Skipped int // ignored or failed entries, each one logged
}

// ImportTree walks a local directory and recreates it under parentID,
// uploading every regular file. A .vaultignore file at the tree root is
// honored with gitignore semantics. Entries that already exist or exceed
// quota are skipped and logged rather than aborting the walk, so a
// partially imported tree can be re-run after cleanup.
func (m *Manager) ImportTree(ctx context.Context, ownerID, dir, parentID string) (*ImportReport, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("importing %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", common.ErrValidation, dir)
	}
	if err := m.resolveParent(ctx, ownerID, parentID); err != nil {
		return nil, err
	}

	matcher, err := loadIgnoreFile(dir)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}
	// Maps each visited directory to its vault folder id. WalkDir visits
	// parents before children, so the parent id is always present.
	folderIDs := map[string]string{dir: parentID}

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if d.Name() == IgnoreFileName {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			report.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		parent := folderIDs[filepath.Dir(path)]

		if d.IsDir() {
			id, err := m.importFolder(ctx, ownerID, d.Name(), parent)
			if err != nil {
				return err
			}
			folderIDs[path] = id
			report.Folders++
			return nil
		}
		if !d.Type().IsRegular() {
			report.Skipped++
			return nil
		}

		if err := m.importFile(ctx, ownerID, path, d.Name(), parent); err != nil {
			if errors.Is(err, common.ErrNameConflict) || errors.Is(err, common.ErrQuotaExceeded) {
				log.WithError(err).WithField("path", rel).Warn("skipping file")
				report.Skipped++
				return nil
			}
			return err
		}
		report.Files++
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("importing %q: %w", dir, walkErr)
	}
	return report, nil
}

// importFolder creates the folder or, when a live folder of that name
// already exists, reuses it so repeated imports merge into one tree.
func (m *Manager) importFolder(ctx context.Context, ownerID, name, parentID string) (string, error) {
	folder, err := m.CreateFolder(ctx, ownerID, name, parentID)
	if err == nil {
		return folder.ID, nil
	}
	if !errors.Is(err, common.ErrNameConflict) {
		return "", err
	}
	existing, lookupErr := m.store.ListChildren(ctx, ownerID, parentID)
	if lookupErr != nil {
		return "", lookupErr
	}
	for _, e := range existing {
		if e.Name == name && e.IsFolder() {
			return e.ID, nil
		}
	}
	// The colliding sibling is a file, not a folder.
	return "", err
}

func (m *Manager) importFile(ctx context.Context, ownerID, path, name, parentID string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = m.Upload(ctx, ownerID, UploadInput{
		Name:        name,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
		ParentID:    parentID,
		Content:     f,
	})
	return err
}

func loadIgnoreFile(dir string) (*ignore.GitIgnore, error) {
	path := filepath.Join(dir, IgnoreFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", IgnoreFileName, err)
	}
	return matcher, nil
}
