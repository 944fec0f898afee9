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

// Package files implements the file manager: folder creation, uploads,
// listing, rename, favorites and recursive soft-delete over the vault
// store, the quota ledger and the blob store.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"vaultfs/internal/blob"
	"vaultfs/internal/common"
	"vaultfs/internal/storage"
)

// DefaultRecentLimit is the number of entries Recent returns when the
// caller does not ask for a specific count.
const DefaultRecentLimit = 10

// Manager orchestrates all file and folder operations for a vault.
// Owner ids arrive already authenticated and are trusted verbatim.
type Manager struct {
	store      *storage.Store
	blobs      *blob.Store
	quotaLimit int64
}

// NewManager returns a Manager over the given stores. quotaLimit is the
// per-owner byte ceiling, a deployment constant.
func NewManager(store *storage.Store, blobs *blob.Store, quotaLimit int64) *Manager {
	return &Manager{
		store:      store,
		blobs:      blobs,
		quotaLimit: quotaLimit,
	}
}

// QuotaLimit returns the per-owner byte ceiling.
func (m *Manager) QuotaLimit() int64 {
	return m.quotaLimit
}

// Blobs returns the underlying blob store.
func (m *Manager) Blobs() *blob.Store {
	return m.blobs
}

// resolveParent validates that parentID refers to a live folder owned by
// ownerID. RootID needs no lookup.
func (m *Manager) resolveParent(ctx context.Context, ownerID, parentID string) error {
	if parentID == storage.RootID {
		return nil
	}
	parent, err := m.store.GetOwnedEntry(ctx, parentID, ownerID)
	if err != nil {
		return fmt.Errorf("resolving parent: %w", err)
	}
	if !parent.IsFolder() {
		return fmt.Errorf("%w: parent %q is not a folder", common.ErrValidation, parentID)
	}
	return nil
}

// CreateFolder creates a folder under parentID (RootID for top level).
// A live sibling of any kind with the same name fails the call with
// ErrNameConflict.
func (m *Manager) CreateFolder(ctx context.Context, ownerID, name, parentID string) (*storage.Entry, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	if err := common.ValidateName(name); err != nil {
		return nil, err
	}
	if err := m.resolveParent(ctx, ownerID, parentID); err != nil {
		return nil, err
	}

	// Friendly pre-check; the partial unique index is the real guarantee
	// when two creations race.
	if exists, err := m.store.HasLiveSibling(ctx, ownerID, parentID, name, ""); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("creating folder %q: %w", name, common.ErrNameConflict)
	}

	now := time.Now()
	folder := &storage.Entry{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		ParentID:  parentID,
		Name:      name,
		Kind:      storage.KindFolder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.InsertEntry(ctx, folder); err != nil {
		return nil, fmt.Errorf("creating folder %q: %w", name, err)
	}
	return folder, nil
}

// UploadInput describes one file upload.
type UploadInput struct {
	Name        string
	ContentType string // drives the quota bucket
	ParentID    string
	Content     io.Reader
}

// Upload stores the content as a blob, reserves quota and commits the
// entry metadata, in that order. Any failure after the blob is written
// discards the blob; any failure after the reservation also rolls the
// reservation back, so a rejected upload leaves no trace.
func (m *Manager) Upload(ctx context.Context, ownerID string, in UploadInput) (*storage.Entry, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	if err := common.ValidateName(in.Name); err != nil {
		return nil, err
	}
	if in.Content == nil {
		return nil, fmt.Errorf("%w: missing file content", common.ErrValidation)
	}
	if err := m.resolveParent(ctx, ownerID, in.ParentID); err != nil {
		return nil, err
	}

	ref, size, err := m.blobs.Put(in.Content)
	if err != nil {
		return nil, fmt.Errorf("storing content for %q: %w", in.Name, err)
	}

	kind := storage.KindFromContentType(in.ContentType)

	// Uniqueness is checked across all kinds: one namespace per parent.
	if exists, err := m.store.HasLiveSibling(ctx, ownerID, in.ParentID, in.Name, ""); err != nil {
		m.discardBlob(ref)
		return nil, err
	} else if exists {
		m.discardBlob(ref)
		return nil, fmt.Errorf("uploading %q: %w", in.Name, common.ErrNameConflict)
	}

	if err := m.store.ReserveQuota(ctx, ownerID, size, kind, m.quotaLimit); err != nil {
		m.discardBlob(ref)
		return nil, fmt.Errorf("uploading %q: %w", in.Name, err)
	}

	now := time.Now()
	entry := &storage.Entry{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		ParentID:  in.ParentID,
		Name:      in.Name,
		Kind:      kind,
		Size:      size,
		BlobRef:   ref,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.InsertEntry(ctx, entry); err != nil {
		// The reservation is rolled back rather than treated as lost, so a
		// failed commit cannot shrink the owner's available quota.
		if rerr := m.store.ReleaseQuota(ctx, ownerID, size, kind); rerr != nil {
			log.WithError(rerr).WithField("owner", ownerID).
				Error("failed to roll back quota reservation")
		}
		m.discardBlob(ref)
		return nil, fmt.Errorf("uploading %q: %w", in.Name, err)
	}
	return entry, nil
}

// List returns the owner's live entries matching the filter, folders
// first then name ascending, annotated with parent names.
func (m *Manager) List(ctx context.Context, ownerID string, filter storage.ListFilter) ([]storage.ListedEntry, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", common.ErrValidation, filter.Kind)
	}
	return m.store.ListEntries(ctx, ownerID, filter)
}

// Recent returns the owner's newest non-folder entries. limit <= 0 means
// DefaultRecentLimit.
func (m *Manager) Recent(ctx context.Context, ownerID string, limit int) ([]storage.ListedEntry, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return m.store.ListRecent(ctx, ownerID, limit)
}

// Favorites returns the owner's live favorite entries.
func (m *Manager) Favorites(ctx context.Context, ownerID string) ([]storage.ListedEntry, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	return m.store.ListFavorites(ctx, ownerID)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (m *Manager) ToggleFavorite(ctx context.Context, ownerID, entryID string) (bool, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return false, err
	}
	if _, err := m.store.GetOwnedEntry(ctx, entryID, ownerID); err != nil {
		return false, err
	}
	return m.store.ToggleFavorite(ctx, entryID)
}

// Rename updates an entry's name in place; the blob reference is
// untouched. The entry's own name is excluded from the collision check so
// a no-op rename succeeds.
func (m *Manager) Rename(ctx context.Context, ownerID, entryID, newName string) (*storage.Entry, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	if err := common.ValidateName(newName); err != nil {
		return nil, err
	}
	entry, err := m.store.GetOwnedEntry(ctx, entryID, ownerID)
	if err != nil {
		return nil, err
	}

	if exists, err := m.store.HasLiveSibling(ctx, ownerID, entry.ParentID, newName, entryID); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("renaming to %q: %w", newName, common.ErrNameConflict)
	}

	if err := m.store.RenameEntry(ctx, entryID, newName); err != nil {
		return nil, fmt.Errorf("renaming to %q: %w", newName, err)
	}
	entry.Name = newName
	return entry, nil
}

// StorageInfo returns the owner's quota snapshot.
func (m *Manager) StorageInfo(ctx context.Context, ownerID string) (*storage.QuotaSnapshot, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	q, err := m.store.GetQuota(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return q.Snapshot(m.quotaLimit), nil
}

// Reconcile recomputes the owner's quota ledger from live entries and
// repairs any drift.
func (m *Manager) Reconcile(ctx context.Context, ownerID string) (*storage.ReconcileReport, error) {
	if err := common.ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	return m.store.ReconcileQuota(ctx, ownerID)
}

// Delete soft-deletes an entry. Folders cascade over every live
// descendant, children before their parent, so no live entry ever sits
// under a tombstoned ancestor. Each non-folder descendant is one complete
// unit: ledger release and tombstone commit together, then the blob is
// removed best-effort. Blob cleanup failures are logged and never abort
// the cascade.
func (m *Manager) Delete(ctx context.Context, ownerID, entryID string) error {
	if err := common.ValidateOwner(ownerID); err != nil {
		return err
	}
	root, err := m.store.GetOwnedEntry(ctx, entryID, ownerID)
	if err != nil {
		return err
	}

	// Explicit worklist instead of call recursion: a deep tree must not
	// grow the goroutine stack. Discovery order puts every parent before
	// its children, so the reversed order deletes children first.
	stack := []*storage.Entry{root}
	var order []*storage.Entry
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, e)

		if e.IsFolder() {
			children, err := m.store.ListChildren(ctx, ownerID, e.ID)
			if err != nil {
				return fmt.Errorf("collecting children of %q: %w", e.Name, err)
			}
			stack = append(stack, children...)
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		if err := m.deleteOne(ctx, order[i]); err != nil {
			return err
		}
	}
	return nil
}

// deleteOne tombstones a single entry. For files the ledger release and
// the tombstone are one transaction; blob removal happens after commit so
// a blob-store failure cannot leave the metadata inconsistent.
func (m *Manager) deleteOne(ctx context.Context, e *storage.Entry) error {
	now := time.Now()

	if e.IsFolder() {
		err := m.store.MarkDeleted(ctx, e.ID, now)
		if errors.Is(err, common.ErrNotFound) {
			// Already tombstoned by a concurrent delete.
			return nil
		}
		return err
	}

	err := m.store.DB().RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.store.MarkDeletedWith(tx, ctx, e.ID, now); err != nil {
			return err
		}
		return m.store.ReleaseQuotaWith(tx, ctx, e.OwnerID, e.Size, e.Kind)
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting %q: %w", e.Name, err)
	}

	m.discardBlob(e.BlobRef)
	return nil
}

// discardBlob removes a blob best-effort. Failures are logged, not
// propagated: listing consistency wins over perfectly reclaimed storage.
func (m *Manager) discardBlob(ref string) {
	if ref == "" {
		return
	}
	if err := m.blobs.Delete(ref); err != nil {
		log.WithError(err).WithField("blob", ref).Warn("failed to remove blob")
	}
}
