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

// Package integration exercises the full vault stack against a real
// on-disk vault: SQLite metadata, quota ledger and blob directory
// together, the way the CLI drives them.
package integration

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"vaultfs/internal/blob"
	"vaultfs/internal/files"
	"vaultfs/internal/storage"
)

// VaultEnv is an on-disk vault with a manager over it.
type VaultEnv struct {
	t       *testing.T
	Dir     string
	Store   *storage.Store
	Manager *files.Manager
}

// NewVaultEnv creates a fresh vault under a temp directory.
func NewVaultEnv(t *testing.T, quotaLimit int64) *VaultEnv {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.Create(filepath.Join(dir, "vault.db"))
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewOnDisk(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	return &VaultEnv{
		t:       t,
		Dir:     dir,
		Store:   store,
		Manager: files.NewManager(store, blobs, quotaLimit),
	}
}

// Reopen closes the store and opens the same vault again, simulating a
// process restart.
func (env *VaultEnv) Reopen() {
	env.t.Helper()

	if err := env.Store.Close(); err != nil {
		env.t.Fatalf("failed to close vault: %v", err)
	}
	store, err := storage.Open(filepath.Join(env.Dir, "vault.db"))
	if err != nil {
		env.t.Fatalf("failed to reopen vault: %v", err)
	}
	env.t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewOnDisk(filepath.Join(env.Dir, "blobs"))
	if err != nil {
		env.t.Fatalf("failed to reopen blob store: %v", err)
	}

	env.Store = store
	env.Manager = files.NewManager(store, blobs, env.Manager.QuotaLimit())
}

// Upload stores content under the given name and parent.
func (env *VaultEnv) Upload(owner, name, contentType, parentID, content string) *storage.Entry {
	env.t.Helper()

	entry, err := env.Manager.Upload(context.Background(), owner, files.UploadInput{
		Name:        name,
		ContentType: contentType,
		ParentID:    parentID,
		Content:     strings.NewReader(content),
	})
	if err != nil {
		env.t.Fatalf("upload %q failed: %v", name, err)
	}
	return entry
}

// Mkdir creates a folder.
func (env *VaultEnv) Mkdir(owner, name, parentID string) *storage.Entry {
	env.t.Helper()

	folder, err := env.Manager.CreateFolder(context.Background(), owner, name, parentID)
	if err != nil {
		env.t.Fatalf("mkdir %q failed: %v", name, err)
	}
	return folder
}

// ReadBlob returns the stored content of an entry.
func (env *VaultEnv) ReadBlob(g *WithT, ref string) string {
	env.t.Helper()

	r, err := env.Manager.Blobs().Open(ref)
	g.Expect(err).NotTo(HaveOccurred())
	defer r.Close()
	data, err := io.ReadAll(r)
	g.Expect(err).NotTo(HaveOccurred())
	return string(data)
}
