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

package storage

import (
	"time"

	"github.com/uptrace/bun"
)

// Bun ORM models for the vault database tables.
// Times are stored as Unix timestamps in the database.

// SchemaInfoModel represents the schema_info table
type SchemaInfoModel struct {
	bun.BaseModel `bun:"table:schema_info"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value,notnull"`
}

// EntryModel represents the entries table
type EntryModel struct {
	bun.BaseModel `bun:"table:entries"`

	ID         string `bun:"id,pk"`
	OwnerID    string `bun:"owner_id,notnull"`
	ParentID   string `bun:"parent_id"`
	Name       string `bun:"name,notnull"`
	Kind       string `bun:"kind,notnull"`
	Size       int64  `bun:"size,notnull"`
	BlobRef    string `bun:"blob_ref"`
	IsFavorite bool   `bun:"is_favorite,notnull"`
	IsDeleted  bool   `bun:"is_deleted,notnull"`
	DeletedAt  int64  `bun:"deleted_at,nullzero"` // Unix timestamp, NULL while live
	CreatedAt  int64  `bun:"created_at,notnull"`  // Unix timestamp
	UpdatedAt  int64  `bun:"updated_at,notnull"`  // Unix timestamp
}

// ToEntry converts an EntryModel to the domain Entry struct
func (m *EntryModel) ToEntry() *Entry {
	e := &Entry{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		ParentID:   m.ParentID,
		Name:       m.Name,
		Kind:       Kind(m.Kind),
		Size:       m.Size,
		BlobRef:    m.BlobRef,
		IsFavorite: m.IsFavorite,
		IsDeleted:  m.IsDeleted,
		CreatedAt:  time.Unix(m.CreatedAt, 0),
		UpdatedAt:  time.Unix(m.UpdatedAt, 0),
	}
	if m.DeletedAt != 0 {
		e.DeletedAt = time.Unix(m.DeletedAt, 0)
	}
	return e
}

// EntryModelFromEntry converts a domain Entry to an EntryModel
func EntryModelFromEntry(e *Entry) *EntryModel {
	m := &EntryModel{
		ID:         e.ID,
		OwnerID:    e.OwnerID,
		ParentID:   e.ParentID,
		Name:       e.Name,
		Kind:       string(e.Kind),
		Size:       e.Size,
		BlobRef:    e.BlobRef,
		IsFavorite: e.IsFavorite,
		IsDeleted:  e.IsDeleted,
		CreatedAt:  e.CreatedAt.Unix(),
		UpdatedAt:  e.UpdatedAt.Unix(),
	}
	if !e.DeletedAt.IsZero() {
		m.DeletedAt = e.DeletedAt.Unix()
	}
	return m
}

// QuotaModel represents the quotas table
type QuotaModel struct {
	bun.BaseModel `bun:"table:quotas"`

	OwnerID      string `bun:"owner_id,pk"`
	TotalUsed    int64  `bun:"total_used,notnull"`
	UsedImage    int64  `bun:"used_image,notnull"`
	UsedDocument int64  `bun:"used_document,notnull"`
	UsedPDF      int64  `bun:"used_pdf,notnull"`
	UpdatedAt    int64  `bun:"updated_at,notnull"` // Unix timestamp
}

// Snapshot converts a QuotaModel to a QuotaSnapshot against the given limit.
func (m *QuotaModel) Snapshot(limit int64) *QuotaSnapshot {
	return &QuotaSnapshot{
		Limit:     limit,
		Used:      m.TotalUsed,
		Available: limit - m.TotalUsed,
		ByKind: map[Kind]int64{
			KindImage:    m.UsedImage,
			KindDocument: m.UsedDocument,
			KindPDF:      m.UsedPDF,
		},
	}
}
