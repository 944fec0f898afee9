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

package integration

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"vaultfs/internal/common"
	"vaultfs/internal/files"
	"vaultfs/internal/storage"
)

const owner = "alice"

func TestVaultLifecycle(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	t.Run("UploadListDownload", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := NewVaultEnv(t, 10000)

		docs := env.Mkdir(owner, "Docs", storage.RootID)
		report := env.Upload(owner, "report.pdf", "application/pdf", docs.ID, "quarterly numbers")

		list, err := env.Manager.List(ctx, owner, storage.ListFilter{})
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(list).To(HaveLen(2))
		g.Expect(list[0].Name).To(Equal("Docs"))
		g.Expect(list[1].Name).To(Equal("report.pdf"))
		g.Expect(list[1].ParentName).To(Equal("Docs"))

		g.Expect(env.ReadBlob(g, report.BlobRef)).To(Equal("quarterly numbers"))
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := NewVaultEnv(t, 10000)

		entry := env.Upload(owner, "note.txt", "text/plain", storage.RootID, "persisted")
		env.Reopen()

		list, err := env.Manager.List(ctx, owner, storage.ListFilter{})
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(list).To(HaveLen(1))
		g.Expect(list[0].ID).To(Equal(entry.ID))
		g.Expect(env.ReadBlob(g, entry.BlobRef)).To(Equal("persisted"))

		info, err := env.Manager.StorageInfo(ctx, owner)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(info.Used).To(Equal(int64(len("persisted"))))
	})

	t.Run("QuotaCycleAcrossRestart", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := NewVaultEnv(t, 1000)

		first := env.Upload(owner, "first.pdf", "application/pdf", storage.RootID, strings.Repeat("a", 600))
		env.Reopen()

		_, err := env.Manager.Upload(ctx, owner, files.UploadInput{
			Name:        "second.pdf",
			ContentType: "application/pdf",
			ParentID:    storage.RootID,
			Content:     strings.NewReader(strings.Repeat("b", 500)),
		})
		g.Expect(err).To(MatchError(common.ErrQuotaExceeded))

		g.Expect(env.Manager.Delete(ctx, owner, first.ID)).To(Succeed())
		env.Upload(owner, "second.pdf", "application/pdf", storage.RootID, strings.Repeat("b", 500))

		info, err := env.Manager.StorageInfo(ctx, owner)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(info.Used).To(Equal(int64(500)))
		g.Expect(info.Available).To(Equal(int64(500)))
	})

	t.Run("CascadeDeleteCleansDisk", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := NewVaultEnv(t, 10000)

		docs := env.Mkdir(owner, "Docs", storage.RootID)
		sub := env.Mkdir(owner, "Sub", docs.ID)
		pdf := env.Upload(owner, "a.pdf", "application/pdf", docs.ID, strings.Repeat("p", 200))
		img := env.Upload(owner, "b.png", "image/png", sub.ID, strings.Repeat("i", 100))

		g.Expect(env.Manager.Delete(ctx, owner, docs.ID)).To(Succeed())

		list, err := env.Manager.List(ctx, owner, storage.ListFilter{})
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(list).To(BeEmpty())

		g.Expect(env.Manager.Blobs().Exists(pdf.BlobRef)).To(BeFalse())
		g.Expect(env.Manager.Blobs().Exists(img.BlobRef)).To(BeFalse())

		info, err := env.Manager.StorageInfo(ctx, owner)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(info.Used).To(BeZero())
	})

	t.Run("OwnersAreIsolated", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := NewVaultEnv(t, 10000)

		aliceFile := env.Upload("alice", "shared-name.txt", "text/plain", storage.RootID, "alice data")
		env.Upload("bob", "shared-name.txt", "text/plain", storage.RootID, "bob data")

		bobList, err := env.Manager.List(ctx, "bob", storage.ListFilter{})
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(bobList).To(HaveLen(1))
		g.Expect(bobList[0].ID).NotTo(Equal(aliceFile.ID))

		_, err = env.Manager.ToggleFavorite(ctx, "bob", aliceFile.ID)
		g.Expect(err).To(MatchError(common.ErrNotFound))

		err = env.Manager.Delete(ctx, "bob", aliceFile.ID)
		g.Expect(err).To(MatchError(common.ErrNotFound))

		aliceInfo, err := env.Manager.StorageInfo(ctx, "alice")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(aliceInfo.Used).To(Equal(int64(len("alice data"))))
	})

	t.Run("ReconcileRepairsDrift", func(t *testing.T) {
		t.Parallel()
		g := NewWithT(t)
		env := NewVaultEnv(t, 10000)

		env.Upload(owner, "a.pdf", "application/pdf", storage.RootID, strings.Repeat("x", 300))

		// Corrupt the ledger behind the manager's back.
		_, err := env.Store.DB().NewRaw(
			"UPDATE quotas SET total_used = 999, used_pdf = 999 WHERE owner_id = ?", owner).
			Exec(ctx)
		g.Expect(err).NotTo(HaveOccurred())

		report, err := env.Manager.Reconcile(ctx, owner)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(report.Drifted).To(BeTrue())
		g.Expect(report.Recomputed).To(Equal(int64(300)))

		info, err := env.Manager.StorageInfo(ctx, owner)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(info.Used).To(Equal(int64(300)))
		g.Expect(info.ByKind[storage.KindPDF]).To(Equal(int64(300)))
	})
}
