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

package sync

import (
	"context"
	"fmt"
	gotime "time"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/backend/bridge"
	"github.com/garagedocs-team/garagedocs/server/backend/database"
	"github.com/garagedocs-team/garagedocs/server/logging"
	"github.com/garagedocs-team/garagedocs/server/profiling/prometheus"
)

// Coordinator wires the tracker, the queue, the remote store and the bridge
// into the owner sync pipeline. It is explicitly constructed; one instance
// serves one backend.
type Coordinator struct {
	conf    *Config
	db      database.Database
	bridge  bridge.Bridge
	metrics *prometheus.Metrics

	tracker *Tracker
	queue   *Queue
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(
	conf *Config,
	db database.Database,
	brdg bridge.Bridge,
	metrics *prometheus.Metrics,
) *Coordinator {
	return &Coordinator{
		conf:    conf,
		db:      db,
		bridge:  brdg,
		metrics: metrics,
		tracker: NewTracker(conf.ParseStalenessCeiling()),
		queue:   NewQueue(conf.ParseThrottleInterval()),
	}
}

// Tracker returns the staleness tracker of this coordinator.
func (c *Coordinator) Tracker() *Tracker {
	return c.tracker
}

// Forget drops all sync bookkeeping of the key.
func (c *Coordinator) Forget(key types.OwnerRefKey) {
	c.tracker.Forget(key)
	c.queue.Forget(key)
}

// SyncOwner mirrors one owner's documents onto the host. The returned result
// always settles; failures and panics are captured, never propagated.
//
// The sequence is:
// 01. Run exclusively per owner key, sharing the result with concurrent
// callers and throttling rapid repeats.
// 02. Skip early unless the tracker sees a change or the caller forces.
// 03. Normalize and filter the owner's documents.
// 04. Hand the minimal projection to the bridge.
// 05. Record tracker state on success.
func (c *Coordinator) SyncOwner(
	ctx context.Context,
	owner *types.Owner,
	opts types.SyncOptions,
) *types.SyncResult {
	key := owner.RefKey()

	return c.queue.RunExclusive(key, opts.ForceSync, func(id string) (result *types.SyncResult) {
		defer func() {
			if r := recover(); r != nil {
				logging.From(ctx).Errorf("sync %s: panic: %v", key, r)
				result = &types.SyncResult{
					ID:      id,
					Success: false,
					Error:   fmt.Sprintf("panic: %v", r),
				}
			}
			c.observe(key.Showroom, result)
		}()

		// The ModifiedAt snapshot taken before any work is what gets
		// recorded on success, so a remote change racing this sync still
		// marks the owner stale afterwards.
		modifiedAt := owner.ModifiedAt

		if c.bridge == nil {
			return &types.SyncResult{
				ID:      id,
				Success: false,
				Error:   bridge.ErrBridgeUnavailable.Error(),
			}
		}

		if !opts.ForceSync && !c.tracker.NeedsSync(key, modifiedAt) {
			return &types.SyncResult{
				ID:      id,
				Success: true,
				Results: &types.SyncStats{
					Skipped: true,
					Reason:  types.ReasonNoChanges,
				},
			}
		}

		docs := owner.Documents
		if len(docs) == 0 {
			fetched, err := c.FetchDocuments(ctx, key)
			if err != nil {
				return &types.SyncResult{ID: id, Success: false, Error: err.Error()}
			}
			docs = fetched
		}

		syncable := FilterSyncable(ctx, Normalize(docs))
		if len(syncable) == 0 {
			return &types.SyncResult{
				ID:      id,
				Success: true,
				Results: &types.SyncStats{
					Skipped:          true,
					Reason:           types.ReasonNoSyncableDocuments,
					DocumentsSkipped: len(docs),
				},
			}
		}

		projection := types.OwnerProjection{
			Name:           owner.Name,
			Contact:        owner.Contact,
			Documents:      syncable,
			ModifiedAt:     owner.ModifiedAt,
			TotalDocuments: len(syncable),
		}
		bridgeOpts := types.BridgeOptions{
			UseServerHash:   true,
			CheckVersions:   true,
			ForceDownload:   opts.ForceDownload,
			SingleOwnerOnly: opts.SingleOwnerOnly,
		}

		start := gotime.Now()
		stats, err := c.bridge.Sync(ctx, key, projection, bridgeOpts)
		c.metrics.ObserveBridgeSyncDurationSeconds(gotime.Since(start).Seconds())
		if err != nil {
			logging.From(ctx).Warnf("sync %s: bridge: %v", key, err)
			return &types.SyncResult{ID: id, Success: false, Error: err.Error()}
		}
		c.metrics.AddBridgeDocuments(key.Showroom, stats)

		c.tracker.RecordSuccess(key, modifiedAt)
		logging.From(ctx).Infof(
			"sync %s: %d processed, %d downloaded, %d updated, %d deleted, %d skipped",
			key,
			stats.DocumentsProcessed,
			stats.DocumentsDownloaded,
			stats.DocumentsUpdated,
			stats.DocumentsDeleted,
			stats.DocumentsSkipped,
		)

		return &types.SyncResult{ID: id, Success: true, Results: stats}
	})
}

// FetchDocuments loads the owner's documents from the remote store. When the
// structured records are missing it falls back to enumerating the raw blobs.
func (c *Coordinator) FetchDocuments(
	ctx context.Context,
	key types.OwnerRefKey,
) ([]types.Document, error) {
	infos, err := c.db.FindDocumentInfosByOwner(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(infos) == 0 {
		blobs, err := c.db.ListBlobs(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(blobs) > 0 {
			logging.From(ctx).Infof("fetch %s: no document records, using %d blobs", key, len(blobs))
		}
		for _, blob := range blobs {
			infos = append(infos, database.FromBlobInfo(key, blob))
		}
	}

	docs := make([]types.Document, 0, len(infos))
	for _, info := range infos {
		docs = append(docs, info.ToDocument())
	}

	return docs, nil
}

// observe records the settled result of an actual sync operation. Throttled
// short-circuits settle inside the queue and are not operations.
func (c *Coordinator) observe(showroom string, result *types.SyncResult) {
	if c.metrics == nil || result == nil {
		return
	}

	status := types.BatchStatusSuccessful
	var reason types.SyncReason
	switch {
	case !result.Success:
		status = types.BatchStatusFailed
	case result.Skipped():
		status = types.BatchStatusSkipped
		reason = result.Results.Reason
	}
	c.metrics.AddSyncHandled(showroom, status, reason)
}
