package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"vaultfs/internal/common"
	"vaultfs/internal/util"
)

// isUniqueViolation reports whether err is a sibling-name collision on the
// idx_entries_sibling_name partial index.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// InsertEntry inserts a new entry row. A collision on the live sibling-name
// index surfaces as common.ErrNameConflict.
// Uses retry logic for transient "database is locked" errors that can occur
// when two vaultfs processes share the vault.
func (s *Store) InsertEntry(ctx context.Context, entry *Entry) error {
	return util.Retry(ctx,
		func() error {
			_, err := s.bunDB.NewInsert().Model(EntryModelFromEntry(entry)).Exec(ctx)
			if isUniqueViolation(err) {
				return common.ErrNameConflict
			}
			return err
		},
		util.DatabaseRetryOptions(ctx)...)
}

// GetOwnedEntry retrieves a live entry by id, scoped to the owner.
// Missing, deleted, and foreign entries all yield common.ErrNotFound.
func (s *Store) GetOwnedEntry(ctx context.Context, id, ownerID string) (*Entry, error) {
	return s.getOwnedEntryWith(s.bunDB, ctx, id, ownerID)
}

// GetOwnedEntryWith is like GetOwnedEntry but uses the provided bun.IDB
// (for transaction support).
func (s *Store) GetOwnedEntryWith(idb bun.IDB, ctx context.Context, id, ownerID string) (*Entry, error) {
	return s.getOwnedEntryWith(idb, ctx, id, ownerID)
}

func (s *Store) getOwnedEntryWith(idb bun.IDB, ctx context.Context, id, ownerID string) (*Entry, error) {
	var model EntryModel
	err := idb.NewSelect().
		Model(&model).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Where("is_deleted = 0").
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToEntry(), nil
}

// HasLiveSibling reports whether a live entry named name already exists
// under (ownerID, parentID), optionally excluding one entry id (used for
// rename-in-place). This is the friendly pre-check; the partial unique
// index is the real guarantee under concurrency.
func (s *Store) HasLiveSibling(ctx context.Context, ownerID, parentID, name, excludeID string) (bool, error) {
	q := s.bunDB.NewSelect().
		Model((*EntryModel)(nil)).
		Where("owner_id = ?", ownerID).
		Where("parent_id = ?", parentID).
		Where("name = ?", name).
		Where("is_deleted = 0")
	if excludeID != "" {
		q = q.Where("id != ?", excludeID)
	}
	return q.Exists(ctx)
}

// ListChildren returns the live children of a parent in no particular
// order; callers sort as needed.
func (s *Store) ListChildren(ctx context.Context, ownerID, parentID string) ([]*Entry, error) {
	var models []EntryModel
	err := s.bunDB.NewSelect().
		Model(&models).
		Where("owner_id = ?", ownerID).
		Where("parent_id = ?", parentID).
		Where("is_deleted = 0").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, len(models))
	for i := range models {
		entries[i] = models[i].ToEntry()
	}
	return entries, nil
}

// listedRow is the scan target for annotated listing queries.
type listedRow struct {
	ID         string `bun:"id"`
	OwnerID    string `bun:"owner_id"`
	ParentID   string `bun:"parent_id"`
	Name       string `bun:"name"`
	Kind       string `bun:"kind"`
	Size       int64  `bun:"size"`
	BlobRef    string `bun:"blob_ref"`
	IsFavorite bool   `bun:"is_favorite"`
	CreatedAt  int64  `bun:"created_at"`
	UpdatedAt  int64  `bun:"updated_at"`
	ParentName string `bun:"parent_name"`
}

func (r *listedRow) toListedEntry() ListedEntry {
	return ListedEntry{
		Entry: Entry{
			ID:         r.ID,
			OwnerID:    r.OwnerID,
			ParentID:   r.ParentID,
			Name:       r.Name,
			Kind:       Kind(r.Kind),
			Size:       r.Size,
			BlobRef:    r.BlobRef,
			IsFavorite: r.IsFavorite,
			CreatedAt:  time.Unix(r.CreatedAt, 0),
			UpdatedAt:  time.Unix(r.UpdatedAt, 0),
		},
		ParentName: r.ParentName,
	}
}

const listedColumns = `
	e.id, e.owner_id, e.parent_id, e.name, e.kind, e.size, e.blob_ref,
	e.is_favorite, e.created_at, e.updated_at,
	COALESCE(p.name, '') AS parent_name`

// ListEntries returns the owner's live entries matching the filter, folders
// first and then name ascending (byte order), each annotated with its
// resolved parent name (empty at root).
func (s *Store) ListEntries(ctx context.Context, ownerID string, filter ListFilter) ([]ListedEntry, error) {
	query := `
		SELECT ` + listedColumns + `
		FROM entries e
		LEFT JOIN entries p ON p.id = e.parent_id
		WHERE e.owner_id = ? AND e.is_deleted = 0`
	args := []interface{}{ownerID}

	if filter.Kind != "" {
		query += ` AND e.kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.ParentID != nil {
		query += ` AND e.parent_id = ?`
		args = append(args, *filter.ParentID)
	}
	if filter.FavoritesOnly {
		query += ` AND e.is_favorite = 1`
	}
	query += `
		ORDER BY CASE WHEN e.kind = 'folder' THEN 0 ELSE 1 END, e.name ASC`

	var rows []listedRow
	if err := s.bunDB.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return toListedEntries(rows), nil
}

// ListRecent returns the owner's live non-folder entries, newest first,
// truncated to limit.
func (s *Store) ListRecent(ctx context.Context, ownerID string, limit int) ([]ListedEntry, error) {
	var rows []listedRow
	err := s.bunDB.NewRaw(`
		SELECT `+listedColumns+`
		FROM entries e
		LEFT JOIN entries p ON p.id = e.parent_id
		WHERE e.owner_id = ? AND e.is_deleted = 0 AND e.kind != 'folder'
		ORDER BY e.created_at DESC, e.id
		LIMIT ?
	`, ownerID, limit).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return toListedEntries(rows), nil
}

// ListFavorites returns the owner's live favorite entries.
func (s *Store) ListFavorites(ctx context.Context, ownerID string) ([]ListedEntry, error) {
	var rows []listedRow
	err := s.bunDB.NewRaw(`
		SELECT `+listedColumns+`
		FROM entries e
		LEFT JOIN entries p ON p.id = e.parent_id
		WHERE e.owner_id = ? AND e.is_deleted = 0 AND e.is_favorite = 1
		ORDER BY CASE WHEN e.kind = 'folder' THEN 0 ELSE 1 END, e.name ASC
	`, ownerID).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return toListedEntries(rows), nil
}

func toListedEntries(rows []listedRow) []ListedEntry {
	entries := make([]ListedEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].toListedEntry()
	}
	return entries
}

// RenameEntry updates an entry's name in place. A collision with a live
// sibling surfaces as common.ErrNameConflict. The blob reference and all
// other metadata are untouched.
func (s *Store) RenameEntry(ctx context.Context, id, newName string) error {
	return util.Retry(ctx,
		func() error {
			res, err := s.bunDB.NewUpdate().
				Model((*EntryModel)(nil)).
				Set("name = ?", newName).
				Set("updated_at = ?", time.Now().Unix()).
				Where("id = ?", id).
				Where("is_deleted = 0").
				Exec(ctx)
			if isUniqueViolation(err) {
				return common.ErrNameConflict
			}
			if err != nil {
				return err
			}
			return requireRowAffected(res)
		},
		util.DatabaseRetryOptions(ctx)...)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Store) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	return util.RetryWithResult(ctx,
		func() (bool, error) {
			var isFavorite bool
			err := s.bunDB.NewRaw(`
				UPDATE entries
				SET is_favorite = 1 - is_favorite, updated_at = ?
				WHERE id = ? AND is_deleted = 0
				RETURNING is_favorite
			`, time.Now().Unix(), id).Scan(ctx, &isFavorite)
			if err == sql.ErrNoRows {
				return false, common.ErrNotFound
			}
			return isFavorite, err
		},
		util.DatabaseRetryOptions(ctx)...)
}

// MarkDeleted tombstones a live entry with the given deletion time.
// Tombstones are write-once: an already-deleted entry yields ErrNotFound.
func (s *Store) MarkDeleted(ctx context.Context, id string, deletedAt time.Time) error {
	return s.markDeletedWith(s.bunDB, ctx, id, deletedAt)
}

// MarkDeletedWith is like MarkDeleted but uses the provided bun.IDB
// (for transaction support).
func (s *Store) MarkDeletedWith(idb bun.IDB, ctx context.Context, id string, deletedAt time.Time) error {
	return s.markDeletedWith(idb, ctx, id, deletedAt)
}

func (s *Store) markDeletedWith(idb bun.IDB, ctx context.Context, id string, deletedAt time.Time) error {
	res, err := idb.NewUpdate().
		Model((*EntryModel)(nil)).
		Set("is_deleted = 1").
		Set("deleted_at = ?", deletedAt.Unix()).
		Set("updated_at = ?", deletedAt.Unix()).
		Where("id = ?", id).
		Where("is_deleted = 0").
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
