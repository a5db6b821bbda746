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

package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/sync"
)

func TestNormalize(t *testing.T) {
	t.Run("defaults test", func(t *testing.T) {
		normalized := sync.Normalize([]types.Document{{
			FileName: "insurance.pdf",
			Type:     "insurance",
			URL:      "https://files.example.com/insurance.pdf",
		}})
		assert.Len(t, normalized, 1)

		doc := normalized[0]
		assert.Equal(t, 1, doc.Version)
		assert.Equal(t, "", doc.StoragePath)
		assert.True(t, doc.Uploaded)
		assert.Equal(t, types.UploadStatusCompleted, doc.UploadStatus)
		assert.Equal(t, "", doc.ServerHash)
		assert.Equal(t, types.DocumentMetadata{}, doc.Metadata)
	})

	t.Run("url preference test", func(t *testing.T) {
		normalized := sync.Normalize([]types.Document{
			{FileName: "a.pdf", URL: "https://primary/a.pdf", DownloadURL: "https://fallback/a.pdf"},
			{FileName: "b.pdf", DownloadURL: "https://fallback/b.pdf"},
		})
		assert.Equal(t, "https://primary/a.pdf", normalized[0].URL)
		assert.Equal(t, "https://fallback/b.pdf", normalized[1].URL)
	})

	t.Run("explicit fields survive test", func(t *testing.T) {
		uploaded := false
		normalized := sync.Normalize([]types.Document{{
			FileName:     "a.pdf",
			URL:          "https://files.example.com/a.pdf",
			Version:      3,
			StoragePath:  "owners/a/a.pdf",
			Uploaded:     &uploaded,
			UploadStatus: types.UploadStatusFailed,
			Metadata:     &types.DocumentMetadata{Hash: "abc", Size: 42},
		}})

		doc := normalized[0]
		assert.Equal(t, 3, doc.Version)
		assert.Equal(t, "owners/a/a.pdf", doc.StoragePath)
		assert.False(t, doc.Uploaded)
		assert.Equal(t, types.UploadStatusFailed, doc.UploadStatus)
		assert.Equal(t, "abc", doc.ServerHash)
		assert.Equal(t, int64(42), doc.Metadata.Size)
	})
}

func TestFilterSyncable(t *testing.T) {
	ctx := context.Background()

	t.Run("exclusion rules test", func(t *testing.T) {
		docs := []types.BridgeDocument{
			{FileName: "ok.pdf", URL: "https://x/ok.pdf", Uploaded: true, UploadStatus: types.UploadStatusCompleted},
			{FileName: "not-uploaded.pdf", URL: "https://x/n.pdf", Uploaded: false, UploadStatus: types.UploadStatusCompleted},
			{FileName: "pending.pdf", URL: "https://x/p.pdf", Uploaded: true, UploadStatus: types.UploadStatusPending},
			{FileName: "failed.pdf", URL: "https://x/f.pdf", Uploaded: true, UploadStatus: types.UploadStatusFailed},
			{FileName: "no-url.pdf", Uploaded: true, UploadStatus: types.UploadStatusCompleted},
		}

		syncable := sync.FilterSyncable(ctx, docs)
		assert.Len(t, syncable, 1)
		assert.Equal(t, "ok.pdf", syncable[0].FileName)
	})

	t.Run("input is not mutated test", func(t *testing.T) {
		docs := []types.BridgeDocument{
			{FileName: "skip.pdf", Uploaded: false},
			{FileName: "ok.pdf", URL: "https://x/ok.pdf", Uploaded: true, UploadStatus: types.UploadStatusCompleted},
		}
		_ = sync.FilterSyncable(ctx, docs)
		assert.Equal(t, "skip.pdf", docs[0].FileName)
		assert.Len(t, docs, 2)
	})

	t.Run("empty input test", func(t *testing.T) {
		assert.Len(t, sync.FilterSyncable(ctx, nil), 0)
	})
}
