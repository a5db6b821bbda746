/*
 * Copyright 2025 The GarageDocs Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package memory_test

import (
	"context"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/backend/database"
	"github.com/garagedocs-team/garagedocs/server/backend/database/memory"
)

const testShowroom = "downtown-motors"

func newOwnerInfo(id, name string) *database.OwnerInfo {
	return &database.OwnerInfo{
		ID:        types.ID(id),
		Showroom:  testShowroom,
		Name:      name,
		Contact:   "555-0100",
		SalePoint: true,
	}
}

func TestDB(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find owner test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		created, err := db.CreateOwnerInfo(ctx, newOwnerInfo("owner-a", "Alice"))
		assert.NoError(t, err)
		assert.False(t, created.CreatedAt.IsZero())
		assert.False(t, created.ModifiedAt.IsZero())

		_, err = db.CreateOwnerInfo(ctx, newOwnerInfo("owner-a", "Alice"))
		assert.ErrorIs(t, err, database.ErrOwnerAlreadyExists)

		found, err := db.FindOwnerInfo(ctx, created.RefKey())
		assert.NoError(t, err)
		assert.Equal(t, created.Name, found.Name)

		_, err = db.FindOwnerInfo(ctx, types.OwnerRefKey{Showroom: testShowroom, OwnerID: "missing"})
		assert.ErrorIs(t, err, database.ErrOwnerNotFound)
	})

	t.Run("role visibility test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		_, err = db.CreateOwnerInfo(ctx, newOwnerInfo("owner-a", "Alice"))
		assert.NoError(t, err)

		hidden := newOwnerInfo("owner-b", "Bob")
		hidden.SalePoint = false
		_, err = db.CreateOwnerInfo(ctx, hidden)
		assert.NoError(t, err)

		asAdmin, err := db.FindOwnerInfosByShowroom(ctx, testShowroom, types.RoleAdmin)
		assert.NoError(t, err)
		assert.Len(t, asAdmin, 2)

		asMember, err := db.FindOwnerInfosByShowroom(ctx, testShowroom, types.RoleMember)
		assert.NoError(t, err)
		assert.Len(t, asMember, 1)
		assert.Equal(t, types.ID("owner-a"), asMember[0].ID)
	})

	t.Run("document write bumps owner modified time test", func(t *testing.T) {
		// The staleness detector relies entirely on this contract of the
		// write path: a document-only change must move the parent owner's
		// ModifiedAt strictly forward.
		db, err := memory.New()
		assert.NoError(t, err)

		created, err := db.CreateOwnerInfo(ctx, newOwnerInfo("owner-a", "Alice"))
		assert.NoError(t, err)
		refKey := created.RefKey()

		doc, err := db.CreateDocumentInfo(ctx, refKey, &database.DocumentInfo{
			FileName:     "insurance.pdf",
			Type:         "insurance",
			URL:          "https://files.example.com/insurance.pdf",
			UploadStatus: types.UploadStatusCompleted,
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, doc.Version)

		afterAdd, err := db.FindOwnerInfo(ctx, refKey)
		assert.NoError(t, err)
		assert.True(t, afterAdd.ModifiedAt.After(created.ModifiedAt))
		assert.Equal(t, 1, afterAdd.TotalDocuments)
		assert.False(t, afterAdd.LastDocumentAddedAt.IsZero())

		// Re-upload of the same logical slot supersedes with a bumped version.
		doc2, err := db.CreateDocumentInfo(ctx, refKey, &database.DocumentInfo{
			FileName:     "insurance.pdf",
			Type:         "insurance",
			URL:          "https://files.example.com/insurance-v2.pdf",
			UploadStatus: types.UploadStatusCompleted,
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, doc2.Version)
		assert.Equal(t, doc.ID, doc2.ID)

		afterUpdate, err := db.FindOwnerInfo(ctx, refKey)
		assert.NoError(t, err)
		assert.True(t, afterUpdate.ModifiedAt.After(afterAdd.ModifiedAt))
		assert.Equal(t, 1, afterUpdate.TotalDocuments)
		assert.False(t, afterUpdate.LastDocumentUpdatedAt.IsZero())

		docs, err := db.FindDocumentInfosByOwner(ctx, refKey)
		assert.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.Equal(t, 2, docs[0].Version)
	})

	t.Run("watch feed order test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		events, err := db.WatchOwners(watchCtx, testShowroom, types.RoleAdmin)
		assert.NoError(t, err)

		created, err := db.CreateOwnerInfo(ctx, newOwnerInfo("owner-a", "Alice"))
		assert.NoError(t, err)
		_, err = db.SetOwnerDeleted(ctx, created.RefKey(), true)
		assert.NoError(t, err)
		err = db.RemoveOwnerInfo(ctx, created.RefKey())
		assert.NoError(t, err)

		expected := []database.OwnerEventType{
			database.OwnerAdded,
			database.OwnerModified,
			database.OwnerRemoved,
		}
		for _, want := range expected {
			select {
			case event := <-events:
				assert.Equal(t, want, event.Type)
				assert.Equal(t, types.ID("owner-a"), event.Info.ID)
			case <-gotime.After(gotime.Second):
				t.Fatalf("timed out waiting for %s event", want)
			}
		}
	})

	t.Run("watch respects role visibility test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		events, err := db.WatchOwners(watchCtx, testShowroom, types.RoleMember)
		assert.NoError(t, err)

		hidden := newOwnerInfo("owner-b", "Bob")
		hidden.SalePoint = false
		_, err = db.CreateOwnerInfo(ctx, hidden)
		assert.NoError(t, err)

		_, err = db.CreateOwnerInfo(ctx, newOwnerInfo("owner-a", "Alice"))
		assert.NoError(t, err)

		select {
		case event := <-events:
			assert.Equal(t, types.ID("owner-a"), event.Info.ID)
		case <-gotime.After(gotime.Second):
			t.Fatal("timed out waiting for visible event")
		}
	})

	t.Run("soft delete retains owner test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		created, err := db.CreateOwnerInfo(ctx, newOwnerInfo("owner-a", "Alice"))
		assert.NoError(t, err)

		archived, err := db.SetOwnerDeleted(ctx, created.RefKey(), true)
		assert.NoError(t, err)
		assert.True(t, archived.IsDeleted)
		assert.True(t, archived.ModifiedAt.After(created.ModifiedAt))

		found, err := db.FindOwnerInfo(ctx, created.RefKey())
		assert.NoError(t, err)
		assert.True(t, found.IsDeleted)

		restored, err := db.SetOwnerDeleted(ctx, created.RefKey(), false)
		assert.NoError(t, err)
		assert.False(t, restored.IsDeleted)
		assert.True(t, restored.ModifiedAt.After(archived.ModifiedAt))
	})

	t.Run("blob listing test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		created, err := db.CreateOwnerInfo(ctx, newOwnerInfo("owner-a", "Alice"))
		assert.NoError(t, err)
		refKey := created.RefKey()

		err = db.PutBlob(ctx, refKey, &database.BlobInfo{
			Name:        "registration.pdf",
			Size:        2048,
			Hash:        "abc123",
			Generation:  "gen-1",
			ContentType: "application/pdf",
			URL:         "https://files.example.com/registration.pdf",
			UploadedAt:  gotime.Now(),
		})
		assert.NoError(t, err)

		blobs, err := db.ListBlobs(ctx, refKey)
		assert.NoError(t, err)
		assert.Len(t, blobs, 1)

		doc := database.FromBlobInfo(refKey, blobs[0])
		assert.Equal(t, "pdf", doc.Type)
		assert.Equal(t, "registration.pdf", doc.FileName)
		assert.Equal(t, "abc123", doc.Metadata.Hash)
		assert.Equal(t, types.UploadStatusCompleted, doc.UploadStatus)
	})

	t.Run("remove owner purges documents test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		created, err := db.CreateOwnerInfo(ctx, newOwnerInfo("owner-a", "Alice"))
		assert.NoError(t, err)
		refKey := created.RefKey()

		_, err = db.CreateDocumentInfo(ctx, refKey, &database.DocumentInfo{
			FileName:     "finance.pdf",
			Type:         "finance",
			URL:          "https://files.example.com/finance.pdf",
			UploadStatus: types.UploadStatusCompleted,
		})
		assert.NoError(t, err)

		err = db.RemoveOwnerInfo(ctx, refKey)
		assert.NoError(t, err)

		_, err = db.FindOwnerInfo(ctx, refKey)
		assert.ErrorIs(t, err, database.ErrOwnerNotFound)

		docs, err := db.FindDocumentInfosByOwner(ctx, refKey)
		assert.NoError(t, err)
		assert.Len(t, docs, 0)
	})
}
