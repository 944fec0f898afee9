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
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore creates a temporary vault store for testing.
// Uses t.TempDir() which automatically cleans up after the test.
func testStore(t *testing.T) (*Store, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test_vault.db")

	st, err := Create(path)
	require.NoError(t, err, "failed to create vault store")

	return st, func() {
		st.Close()
	}
}

// newTestEntry builds a live entry owned by owner with sensible defaults.
func newTestEntry(owner, parent, name string, kind Kind, size int64) *Entry {
	now := time.Now()
	e := &Entry{
		ID:        uuid.New().String(),
		OwnerID:   owner,
		ParentID:  parent,
		Name:      name,
		Kind:      kind,
		Size:      size,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !kind.IsFolder() {
		e.BlobRef = "blob-" + e.ID
	}
	return e
}

func TestCreate(t *testing.T) {
	t.Parallel()

	t.Run("creates new vault", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "vault.db")

		st, err := Create(path)
		require.NoError(t, err)
		defer st.Close()

		assert.FileExists(t, path)
		assert.Equal(t, path, st.Path())
	})

	t.Run("fails when file exists", func(t *testing.T) {
		t.Parallel()
		st, cleanup := testStore(t)
		defer cleanup()

		_, err := Create(st.Path())
		assert.Error(t, err)
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("reopens existing vault", func(t *testing.T) {
		t.Parallel()
		st, cleanup := testStore(t)
		path := st.Path()
		st.Close()
		defer cleanup()

		st2, err := Open(path)
		require.NoError(t, err)
		defer st2.Close()

		assert.Equal(t, path, st2.Path())
	})

	t.Run("fails for nonexistent file", func(t *testing.T) {
		t.Parallel()
		_, err := Open("/nonexistent/path/vault.db")
		assert.Error(t, err)
	})
}

func TestOpenOrCreate(t *testing.T) {
	t.Parallel()

	t.Run("creates then reopens", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "vault.db")

		st, err := OpenOrCreate(path)
		require.NoError(t, err)

		// Persist something, reopen, and find it again.
		ctx := context.Background()
		entry := newTestEntry("alice", RootID, "Docs", KindFolder, 0)
		require.NoError(t, st.InsertEntry(ctx, entry))
		require.NoError(t, st.Close())

		st2, err := OpenOrCreate(path)
		require.NoError(t, err)
		defer st2.Close()

		got, err := st2.GetOwnedEntry(ctx, entry.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Docs", got.Name)
	})
}

func TestKindFromContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        Kind
	}{
		{"image/png", KindImage},
		{"image/jpeg", KindImage},
		{"IMAGE/PNG", KindImage},
		{"application/pdf", KindPDF},
		{"application/pdf; charset=binary", KindPDF},
		{"text/plain", KindDocument},
		{"application/zip", KindDocument},
		{"", KindDocument},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, KindFromContentType(tt.contentType))
		})
	}
}

func TestEntryModelRoundTrip(t *testing.T) {
	t.Parallel()

	entry := newTestEntry("alice", "parent-1", "a.pdf", KindPDF, 200)
	entry.IsFavorite = true

	got := EntryModelFromEntry(entry).ToEntry()
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.Name, got.Name)
	assert.Equal(t, entry.Kind, got.Kind)
	assert.Equal(t, entry.Size, got.Size)
	assert.Equal(t, entry.BlobRef, got.BlobRef)
	assert.True(t, got.IsFavorite)
	assert.True(t, got.DeletedAt.IsZero(), "live entry must not carry a deletion time")
}
