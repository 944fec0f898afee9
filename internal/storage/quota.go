package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"vaultfs/internal/common"
	"vaultfs/internal/util"
)

// quotaColumn maps a file kind to its ledger column. The kind has been
// validated upstream; an unknown kind is a programming error.
func quotaColumn(kind Kind) (string, error) {
	switch kind {
	case KindImage:
		return "used_image", nil
	case KindDocument:
		return "used_document", nil
	case KindPDF:
		return "used_pdf", nil
	}
	return "", fmt.Errorf("%w: no quota bucket for kind %q", common.ErrValidation, kind)
}

// EnsureQuotaRow makes sure the owner has a ledger row, starting at zero.
func (s *Store) EnsureQuotaRow(ctx context.Context, ownerID string) error {
	_, err := s.bunDB.NewInsert().
		Model(&QuotaModel{OwnerID: ownerID, UpdatedAt: time.Now().Unix()}).
		On("CONFLICT (owner_id) DO NOTHING").
		Exec(ctx)
	return err
}

// ReserveQuota atomically checks and applies a usage increment for one
// upload. The check and the increment are a single conditional UPDATE so
// two concurrent uploads can never both pass a stale check: the statement
// only fires when total_used + size still fits under limit. Zero rows
// affected means the reservation was refused.
func (s *Store) ReserveQuota(ctx context.Context, ownerID string, size int64, kind Kind, limit int64) error {
	col, err := quotaColumn(kind)
	if err != nil {
		return err
	}
	if err := s.EnsureQuotaRow(ctx, ownerID); err != nil {
		return err
	}
	return util.Retry(ctx,
		func() error {
			res, err := s.bunDB.NewRaw(fmt.Sprintf(`
				UPDATE quotas
				SET total_used = total_used + ?, %s = %s + ?, updated_at = ?
				WHERE owner_id = ? AND total_used + ? <= ?
			`, col, col), size, size, time.Now().Unix(), ownerID, size, limit).Exec(ctx)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return common.ErrQuotaExceeded
			}
			return nil
		},
		util.DatabaseRetryOptions(ctx)...)
}

// ReleaseQuota decrements the ledger after a delete (or as the rollback of
// a reservation). Counters are floored at zero; in normal operation a
// release always matches a prior reservation.
func (s *Store) ReleaseQuota(ctx context.Context, ownerID string, size int64, kind Kind) error {
	return s.releaseQuotaWith(s.bunDB, ctx, ownerID, size, kind)
}

// ReleaseQuotaWith is like ReleaseQuota but uses the provided bun.IDB
// (for transaction support).
func (s *Store) ReleaseQuotaWith(idb bun.IDB, ctx context.Context, ownerID string, size int64, kind Kind) error {
	return s.releaseQuotaWith(idb, ctx, ownerID, size, kind)
}

func (s *Store) releaseQuotaWith(idb bun.IDB, ctx context.Context, ownerID string, size int64, kind Kind) error {
	col, err := quotaColumn(kind)
	if err != nil {
		return err
	}
	_, err = idb.NewRaw(fmt.Sprintf(`
		UPDATE quotas
		SET total_used = MAX(total_used - ?, 0), %s = MAX(%s - ?, 0), updated_at = ?
		WHERE owner_id = ?
	`, col, col), size, size, time.Now().Unix(), ownerID).Exec(ctx)
	return err
}

// GetQuota retrieves the owner's ledger row. An owner without a row has
// zero usage.
func (s *Store) GetQuota(ctx context.Context, ownerID string) (*QuotaModel, error) {
	var model QuotaModel
	err := s.bunDB.NewSelect().
		Model(&model).
		Where("owner_id = ?", ownerID).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return &QuotaModel{OwnerID: ownerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}
