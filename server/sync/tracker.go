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

// Package sync provides the owner-document synchronization core: staleness
// tracking, per-owner dedup and throttling, document normalization, the
// single-owner executor, the batch orchestrator and the change-feed
// reconciler.
package sync

import (
	gosync "sync"
	gotime "time"

	"github.com/garagedocs-team/garagedocs/api/types"
)

// syncRecord is the tracker's memory of the last successful sync of a key.
type syncRecord struct {
	syncedAt   gotime.Time
	modifiedAt gotime.Time
}

// Tracker decides whether an owner needs a sync. It only ever reads remote
// timestamps; recording happens on successful completion in the executor.
type Tracker struct {
	staleness gotime.Duration

	mu      gosync.Mutex
	records map[types.OwnerRefKey]syncRecord
}

// NewTracker creates a tracker with the given staleness ceiling.
func NewTracker(staleness gotime.Duration) *Tracker {
	return &Tracker{
		staleness: staleness,
		records:   make(map[types.OwnerRefKey]syncRecord),
	}
}

// NeedsSync returns true if the owner was never synced successfully, the
// remote record changed since the last success, or the last success is older
// than the staleness ceiling.
func (t *Tracker) NeedsSync(key types.OwnerRefKey, modifiedAt gotime.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[key]
	if !ok {
		return true
	}
	if modifiedAt.After(record.modifiedAt) {
		return true
	}

	return gotime.Since(record.syncedAt) > t.staleness
}

// RecordSuccess records a successful sync of the key with the remote
// ModifiedAt snapshot that was captured when the sync started.
func (t *Tracker) RecordSuccess(key types.OwnerRefKey, modifiedAt gotime.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[key] = syncRecord{
		syncedAt:   gotime.Now(),
		modifiedAt: modifiedAt,
	}
}

// LastSyncedAt returns the time of the last successful sync of the key.
func (t *Tracker) LastSyncedAt(key types.OwnerRefKey) (gotime.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[key]
	return record.syncedAt, ok
}

// Forget drops the record of the key, typically after the owner is removed.
func (t *Tracker) Forget(key types.OwnerRefKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.records, key)
}
