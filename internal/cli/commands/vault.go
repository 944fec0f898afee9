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

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"

	"vaultfs/internal/blob"
	"vaultfs/internal/config"
	"vaultfs/internal/files"
	"vaultfs/internal/storage"
)

const (
	dbFileName   = "vault.db"
	blobsDirName = "blobs"
	lockFileName = "vault.lock"
)

// vaultDir resolves the vault directory: --vault flag, then config.
func vaultDir() (string, error) {
	if flagVaultDir != "" {
		return filepath.Abs(flagVaultDir)
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.VaultDir, nil
}

// resolveOwner picks the owner id: --owner flag, then the configured
// default, which itself falls back to the OS username.
func resolveOwner() (string, error) {
	if flagOwner != "" {
		return flagOwner, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.DefaultOwner == "" {
		return "", fmt.Errorf("no owner: set --owner or default_owner in %s", config.FilePath())
	}
	return cfg.DefaultOwner, nil
}

// openVault opens an existing vault and returns a manager plus a release
// func for the vault lock and the database. The flock keeps a second
// process from racing schema setup; data operations rely on SQLite for
// their atomicity.
func openVault() (*files.Manager, func(), error) {
	dir, err := vaultDir()
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, dbFileName)); err != nil {
		return nil, nil, fmt.Errorf("no vault at %s (run 'vaultfs init' first)", dir)
	}
	return openVaultAt(dir)
}

func openVaultAt(dir string) (*files.Manager, func(), error) {
	lock := flock.New(filepath.Join(dir, lockFileName))
	if err := lock.Lock(); err != nil {
		return nil, nil, fmt.Errorf("failed to lock vault: %w", err)
	}

	store, err := storage.OpenOrCreate(filepath.Join(dir, dbFileName))
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}

	blobs, err := blob.NewOnDisk(filepath.Join(dir, blobsDirName))
	if err != nil {
		store.Close()
		lock.Unlock()
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		store.Close()
		lock.Unlock()
		return nil, nil, err
	}

	release := func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close vault store")
		}
		if err := lock.Unlock(); err != nil {
			log.WithError(err).Warn("failed to release vault lock")
		}
	}
	return files.NewManager(store, blobs, cfg.QuotaLimit), release, nil
}
