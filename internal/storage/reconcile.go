package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

// ReconcileReport describes one reconciliation pass over an owner's ledger.
type ReconcileReport struct {
	RunID      string
	OwnerID    string
	Drifted    bool
	Before     map[Kind]int64
	After      map[Kind]int64
	Recomputed int64 // corrected total_used
}

// ReconcileQuota recomputes the owner's ledger from the live non-folder
// entries and rewrites the row if it drifted. Entry mutations and ledger
// updates are not covered by a single transaction across a crash, so this
// is the recovery path that restores the materialized-aggregate invariant.
func (s *Store) ReconcileQuota(ctx context.Context, ownerID string) (*ReconcileReport, error) {
	report := &ReconcileReport{
		RunID:   uuid.New().String(),
		OwnerID: ownerID,
		Before:  make(map[Kind]int64),
		After:   make(map[Kind]int64),
	}

	err := s.bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		type kindSum struct {
			Kind string `bun:"kind"`
			Sum  int64  `bun:"sum"`
		}
		var sums []kindSum
		err := tx.NewRaw(`
			SELECT kind, COALESCE(SUM(size), 0) AS sum
			FROM entries
			WHERE owner_id = ? AND is_deleted = 0 AND kind != 'folder'
			GROUP BY kind
		`, ownerID).Scan(ctx, &sums)
		if err != nil {
			return err
		}

		actual := map[Kind]int64{KindImage: 0, KindDocument: 0, KindPDF: 0}
		var total int64
		for _, s := range sums {
			actual[Kind(s.Kind)] = s.Sum
			total += s.Sum
		}

		var current QuotaModel
		err = tx.NewSelect().
			Model(&current).
			Where("owner_id = ?", ownerID).
			Scan(ctx)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		report.Before[KindImage] = current.UsedImage
		report.Before[KindDocument] = current.UsedDocument
		report.Before[KindPDF] = current.UsedPDF
		for k, v := range actual {
			report.After[k] = v
		}
		report.Recomputed = total
		report.Drifted = current.TotalUsed != total ||
			current.UsedImage != actual[KindImage] ||
			current.UsedDocument != actual[KindDocument] ||
			current.UsedPDF != actual[KindPDF]

		if !report.Drifted {
			return nil
		}

		_, err = tx.NewInsert().
			Model(&QuotaModel{
				OwnerID:      ownerID,
				TotalUsed:    total,
				UsedImage:    actual[KindImage],
				UsedDocument: actual[KindDocument],
				UsedPDF:      actual[KindPDF],
				UpdatedAt:    time.Now().Unix(),
			}).
			On("CONFLICT (owner_id) DO UPDATE").
			Set("total_used = EXCLUDED.total_used").
			Set("used_image = EXCLUDED.used_image").
			Set("used_document = EXCLUDED.used_document").
			Set("used_pdf = EXCLUDED.used_pdf").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if report.Drifted {
		log.WithFields(log.Fields{
			"run":   report.RunID,
			"owner": ownerID,
			"total": report.Recomputed,
		}).Warn("quota ledger drift repaired")
	}
	return report, nil
}
