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

package bridge_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/backend/bridge"
)

var testRefKey = types.OwnerRefKey{Showroom: "downtown-motors", OwnerID: "owner-a"}

func newFileServer(t *testing.T, files map[string]string) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, &hits
}

func newDoc(server *httptest.Server, fileName, hash string, version int) types.BridgeDocument {
	return types.BridgeDocument{
		FileName:     fileName,
		URL:          server.URL + "/" + fileName,
		Type:         "pdf",
		Version:      version,
		Uploaded:     true,
		UploadStatus: types.UploadStatusCompleted,
		ServerHash:   hash,
		Metadata:     types.DocumentMetadata{Hash: hash},
	}
}

func TestLocalFS(t *testing.T) {
	ctx := context.Background()
	opts := types.BridgeOptions{UseServerHash: true, CheckVersions: true}

	t.Run("sync downloads and is idempotent test", func(t *testing.T) {
		server, hits := newFileServer(t, map[string]string{
			"/insurance.pdf":    "insurance body",
			"/registration.pdf": "registration body",
		})
		b, err := bridge.NewLocalFS(&bridge.Config{BaseDir: t.TempDir()})
		assert.NoError(t, err)

		owner := types.OwnerProjection{
			Name: "Alice",
			Documents: []types.BridgeDocument{
				newDoc(server, "insurance.pdf", "hash-1", 1),
				newDoc(server, "registration.pdf", "hash-2", 1),
			},
		}

		stats, err := b.Sync(ctx, testRefKey, owner, opts)
		assert.NoError(t, err)
		assert.Equal(t, 2, stats.DocumentsProcessed)
		assert.Equal(t, 2, stats.DocumentsDownloaded)
		assert.Equal(t, 0, stats.DocumentsSkipped)
		assert.Len(t, stats.Errors, 0)

		body, err := os.ReadFile(filepath.Join(stats.OwnerPath, "insurance.pdf"))
		assert.NoError(t, err)
		assert.Equal(t, "insurance body", string(body))

		// Unchanged documents are skipped on the second run.
		before := atomic.LoadInt64(hits)
		stats, err = b.Sync(ctx, testRefKey, owner, opts)
		assert.NoError(t, err)
		assert.Equal(t, 2, stats.DocumentsSkipped)
		assert.Equal(t, 0, stats.DocumentsDownloaded)
		assert.Equal(t, before, atomic.LoadInt64(hits))
	})

	t.Run("changed hash triggers re-download test", func(t *testing.T) {
		server, _ := newFileServer(t, map[string]string{"/insurance.pdf": "v2 body"})
		b, err := bridge.NewLocalFS(&bridge.Config{BaseDir: t.TempDir()})
		assert.NoError(t, err)

		owner := types.OwnerProjection{
			Name:      "Alice",
			Documents: []types.BridgeDocument{newDoc(server, "insurance.pdf", "hash-1", 1)},
		}
		_, err = b.Sync(ctx, testRefKey, owner, opts)
		assert.NoError(t, err)

		owner.Documents[0].ServerHash = "hash-2"
		owner.Documents[0].Version = 2
		stats, err := b.Sync(ctx, testRefKey, owner, opts)
		assert.NoError(t, err)
		assert.Equal(t, 1, stats.DocumentsUpdated)
		assert.Equal(t, 0, stats.DocumentsSkipped)
	})

	t.Run("force download bypasses manifest test", func(t *testing.T) {
		server, hits := newFileServer(t, map[string]string{"/insurance.pdf": "body"})
		b, err := bridge.NewLocalFS(&bridge.Config{BaseDir: t.TempDir()})
		assert.NoError(t, err)

		owner := types.OwnerProjection{
			Name:      "Alice",
			Documents: []types.BridgeDocument{newDoc(server, "insurance.pdf", "hash-1", 1)},
		}
		_, err = b.Sync(ctx, testRefKey, owner, opts)
		assert.NoError(t, err)

		before := atomic.LoadInt64(hits)
		forced := opts
		forced.ForceDownload = true
		stats, err := b.Sync(ctx, testRefKey, owner, forced)
		assert.NoError(t, err)
		assert.Equal(t, 1, stats.DocumentsUpdated)
		assert.Equal(t, before+1, atomic.LoadInt64(hits))
	})

	t.Run("per-file errors do not fail the sync test", func(t *testing.T) {
		server, _ := newFileServer(t, map[string]string{"/good.pdf": "body"})
		b, err := bridge.NewLocalFS(&bridge.Config{BaseDir: t.TempDir()})
		assert.NoError(t, err)

		owner := types.OwnerProjection{
			Name: "Alice",
			Documents: []types.BridgeDocument{
				newDoc(server, "good.pdf", "hash-1", 1),
				newDoc(server, "missing.pdf", "hash-2", 1),
			},
		}
		stats, err := b.Sync(ctx, testRefKey, owner, opts)
		assert.NoError(t, err)
		assert.Equal(t, 1, stats.DocumentsDownloaded)
		assert.Len(t, stats.Errors, 1)
		assert.Contains(t, stats.Errors[0], "missing.pdf")
	})

	t.Run("removed documents are pruned test", func(t *testing.T) {
		server, _ := newFileServer(t, map[string]string{
			"/insurance.pdf": "body",
			"/old.pdf":       "old body",
		})
		b, err := bridge.NewLocalFS(&bridge.Config{BaseDir: t.TempDir()})
		assert.NoError(t, err)

		owner := types.OwnerProjection{
			Name: "Alice",
			Documents: []types.BridgeDocument{
				newDoc(server, "insurance.pdf", "hash-1", 1),
				newDoc(server, "old.pdf", "hash-2", 1),
			},
		}
		first, err := b.Sync(ctx, testRefKey, owner, opts)
		assert.NoError(t, err)

		// A file the user dropped in by hand must survive pruning.
		manual := filepath.Join(first.OwnerPath, "notes.txt")
		assert.NoError(t, os.WriteFile(manual, []byte("mine"), 0o644))

		owner.Documents = owner.Documents[:1]
		stats, err := b.Sync(ctx, testRefKey, owner, opts)
		assert.NoError(t, err)
		assert.Equal(t, 1, stats.DocumentsDeleted)

		_, err = os.Stat(filepath.Join(stats.OwnerPath, "old.pdf"))
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(manual)
		assert.NoError(t, err)
	})

	t.Run("folder operations test", func(t *testing.T) {
		b, err := bridge.NewLocalFS(&bridge.Config{BaseDir: t.TempDir()})
		assert.NoError(t, err)

		created, err := b.CreateOwnerFolders(ctx, "downtown-motors", []string{"Alice", "Bob"})
		assert.NoError(t, err)
		assert.Equal(t, 2, created)

		// Creating again is a no-op.
		created, err = b.CreateOwnerFolders(ctx, "downtown-motors", []string{"Alice", "Bob"})
		assert.NoError(t, err)
		assert.Equal(t, 0, created)

		exists, err := b.CheckFolderExists(ctx, testRefKey, "Alice")
		assert.NoError(t, err)
		assert.True(t, exists)

		exists, err = b.CheckFolderExists(ctx, testRefKey, "Carol")
		assert.NoError(t, err)
		assert.False(t, exists)

		removed, err := b.CleanupDeletedOwnerFolders(ctx, "downtown-motors", []string{"Alice"})
		assert.NoError(t, err)
		assert.Equal(t, 1, removed)

		exists, err = b.CheckFolderExists(ctx, testRefKey, "Bob")
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("owner names are sanitized test", func(t *testing.T) {
		base := t.TempDir()
		b, err := bridge.NewLocalFS(&bridge.Config{BaseDir: base})
		assert.NoError(t, err)

		created, err := b.CreateOwnerFolders(ctx, "downtown-motors", []string{"A/B: C"})
		assert.NoError(t, err)
		assert.Equal(t, 1, created)

		_, err = os.Stat(filepath.Join(base, "downtown-motors", "A-B- C"))
		assert.NoError(t, err)
	})
}
