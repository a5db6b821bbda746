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
	gosync "sync"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/backend/bridge"
	"github.com/garagedocs-team/garagedocs/server/backend/database"
	"github.com/garagedocs-team/garagedocs/server/backend/database/memory"
	"github.com/garagedocs-team/garagedocs/server/profiling/prometheus"
	"github.com/garagedocs-team/garagedocs/server/sync"
)

const testShowroom = "downtown-motors"

// fakeBridge records its invocations and settles with configurable outcomes.
type fakeBridge struct {
	mu       gosync.Mutex
	calls    int
	lastOpts types.BridgeOptions
	lastDocs []types.BridgeDocument

	err      error
	panicMsg string
	delay    gotime.Duration
}

var _ bridge.Bridge = (*fakeBridge)(nil)

func (b *fakeBridge) Sync(
	ctx context.Context,
	refKey types.OwnerRefKey,
	owner types.OwnerProjection,
	opts types.BridgeOptions,
) (*types.SyncStats, error) {
	b.mu.Lock()
	b.calls++
	b.lastOpts = opts
	b.lastDocs = owner.Documents
	panicMsg, err, delay := b.panicMsg, b.err, b.delay
	b.mu.Unlock()

	if delay > 0 {
		gotime.Sleep(delay)
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	if err != nil {
		return nil, err
	}

	return &types.SyncStats{
		DocumentsProcessed:  len(owner.Documents),
		DocumentsDownloaded: len(owner.Documents),
	}, nil
}

func (b *fakeBridge) CreateOwnerFolders(ctx context.Context, showroom string, ownerNames []string) (int, error) {
	return 0, nil
}

func (b *fakeBridge) OpenOwnerFolder(ctx context.Context, refKey types.OwnerRefKey, ownerName string) error {
	return nil
}

func (b *fakeBridge) CheckFolderExists(ctx context.Context, refKey types.OwnerRefKey, ownerName string) (bool, error) {
	return false, nil
}

func (b *fakeBridge) CleanupDeletedOwnerFolders(ctx context.Context, showroom string, activeOwnerNames []string) (int, error) {
	return 0, nil
}

func (b *fakeBridge) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *fakeBridge) LastOpts() types.BridgeOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastOpts
}

func (b *fakeBridge) LastDocs() []types.BridgeDocument {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastDocs
}

// newTestCoordinator builds a coordinator over the given store and bridge
// with the throttle disabled, so tests exercise the tracker directly.
func newTestCoordinator(t *testing.T, db database.Database, brdg bridge.Bridge) *sync.Coordinator {
	t.Helper()

	metrics, err := prometheus.NewMetrics()
	assert.NoError(t, err)

	return sync.NewCoordinator(&sync.Config{
		StalenessCeiling: "1h",
		ThrottleInterval: "0s",
		BatchConcurrency: 3,
	}, db, brdg, metrics)
}

func newTestDB(t *testing.T) *memory.DB {
	t.Helper()

	db, err := memory.New()
	assert.NoError(t, err)
	return db
}

// seedOwner creates an owner with the given completed documents and returns
// its current cache projection.
func seedOwner(
	t *testing.T,
	ctx context.Context,
	db *memory.DB,
	id string,
	fileNames ...string,
) *types.Owner {
	t.Helper()

	info, err := db.CreateOwnerInfo(ctx, &database.OwnerInfo{
		ID:        types.ID(id),
		Showroom:  testShowroom,
		Name:      "Owner " + id,
		Contact:   "555-0100",
		SalePoint: true,
	})
	assert.NoError(t, err)

	for _, fileName := range fileNames {
		_, err := db.CreateDocumentInfo(ctx, info.RefKey(), &database.DocumentInfo{
			FileName:     fileName,
			Type:         "pdf",
			URL:          "https://files.example.com/" + fileName,
			UploadStatus: types.UploadStatusCompleted,
		})
		assert.NoError(t, err)
	}

	return refreshOwner(t, ctx, db, info.RefKey())
}

func refreshOwner(t *testing.T, ctx context.Context, db *memory.DB, key types.OwnerRefKey) *types.Owner {
	t.Helper()

	info, err := db.FindOwnerInfo(ctx, key)
	assert.NoError(t, err)
	return info.ToOwner()
}
