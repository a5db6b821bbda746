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
	"github.com/garagedocs-team/garagedocs/server/backend/background"
	"github.com/garagedocs-team/garagedocs/server/backend/database"
	"github.com/garagedocs-team/garagedocs/server/cache"
	"github.com/garagedocs-team/garagedocs/server/logging"
	"github.com/garagedocs-team/garagedocs/server/profiling/prometheus"
)

// Reconciler folds the ordered owner change feed of one showroom into the
// local cache and triggers detached syncs for changed owners. Events are
// applied strictly in feed order; cached owners are replaced whole, never
// merged in place.
type Reconciler struct {
	showroom string
	role     types.Role

	db          database.Database
	ownerCache  *cache.OwnerCache
	coordinator *Coordinator
	bg          *background.Background
	metrics     *prometheus.Metrics
}

// NewReconciler creates a reconciler for one showroom.
func NewReconciler(
	showroom string,
	role types.Role,
	db database.Database,
	ownerCache *cache.OwnerCache,
	coordinator *Coordinator,
	bg *background.Background,
	metrics *prometheus.Metrics,
) *Reconciler {
	return &Reconciler{
		showroom:    showroom,
		role:        role,
		db:          db,
		ownerCache:  ownerCache,
		coordinator: coordinator,
		bg:          bg,
		metrics:     metrics,
	}
}

// Run subscribes to the change feed and applies events until the context is
// done or the feed terminates. Per-event failures are logged and never stop
// the loop.
func (r *Reconciler) Run(ctx context.Context) error {
	// Subscribing before the bootstrap load leaves no gap: an event for an
	// owner the bootstrap already inserted applies as a harmless replace.
	events, err := r.db.WatchOwners(ctx, r.showroom, r.role)
	if err != nil {
		return fmt.Errorf("watch owners of %s: %w", r.showroom, err)
	}

	if err := r.bootstrap(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				logging.From(ctx).Infof("reconciler %s: feed closed", r.showroom)
				return nil
			}
			if err := r.handleEvent(ctx, event); err != nil {
				logging.From(ctx).Warnf("reconciler %s: %s event: %v", r.showroom, event.Type, err)
			}
		}
	}
}

// bootstrap fills an empty cache with the current snapshot as pending and
// schedules a detached batch sync over it.
func (r *Reconciler) bootstrap(ctx context.Context) error {
	if r.ownerCache.Len(r.showroom) > 0 {
		return nil
	}

	infos, err := r.db.FindOwnerInfosByShowroom(ctx, r.showroom, r.role)
	if err != nil {
		return fmt.Errorf("bootstrap %s: %w", r.showroom, err)
	}

	owners := make([]*types.Owner, 0, len(infos))
	for _, info := range infos {
		owner := info.ToOwner()
		if err := r.ownerCache.Upsert(owner); err != nil {
			return err
		}
		owners = append(owners, owner)
	}
	logging.From(ctx).Infof("reconciler %s: bootstrapped %d owners", r.showroom, len(owners))

	if len(owners) == 0 {
		return nil
	}
	r.bg.AttachGoroutine(func(ctx context.Context) {
		result := r.coordinator.BatchSync(ctx, owners, BatchOptions{OnlyChanged: true})
		for _, owner := range owners {
			r.markOutcome(owner.RefKey(), outcomeSucceeded(result, owner.ID))
		}
		logging.From(ctx).Infof(
			"reconciler %s: bootstrap sync: %d successful, %d skipped, %d failed",
			r.showroom, result.Successful, result.Skipped, result.Failed,
		)
	}, "bootstrap-sync")

	return nil
}

func (r *Reconciler) handleEvent(ctx context.Context, event database.OwnerEvent) error {
	if event.Info == nil {
		return fmt.Errorf("event without owner info")
	}
	r.metrics.AddReconcilerEvents(r.showroom, string(event.Type))
	key := event.Info.RefKey()

	switch event.Type {
	case database.OwnerAdded:
		owner, err := r.buildOwner(ctx, key)
		if err != nil {
			return err
		}
		return r.ownerCache.Upsert(owner)

	case database.OwnerModified:
		if event.Info.IsDeleted {
			return r.applySoftDelete(event.Info)
		}
		return r.applyModified(ctx, key)

	case database.OwnerRemoved:
		// An in-flight sync of the owner settles normally; only the
		// bookkeeping goes.
		r.coordinator.Forget(key)
		return r.ownerCache.Remove(key)

	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

// applySoftDelete patches only the archive flag and timestamp of the cached
// owner. No re-fetch, no sync: archived owners keep their mirrored files.
func (r *Reconciler) applySoftDelete(info *database.OwnerInfo) error {
	cached, err := r.ownerCache.Get(info.RefKey())
	if err != nil {
		// Never cached; nothing to patch.
		return nil
	}

	cached.IsDeleted = true
	cached.ModifiedAt = info.ModifiedAt
	return r.ownerCache.Upsert(cached)
}

// applyModified re-fetches the owner, replaces the cache entry as pending and
// spawns a detached sync. Covers both normal modifications and unarchiving.
func (r *Reconciler) applyModified(ctx context.Context, key types.OwnerRefKey) error {
	owner, err := r.buildOwner(ctx, key)
	if err != nil {
		return err
	}
	if err := r.ownerCache.Upsert(owner); err != nil {
		return err
	}

	// Fire-and-forget: sync failures are logged and reflected in the cached
	// sync status, never surfaced to the feed loop.
	r.bg.AttachGoroutine(func(ctx context.Context) {
		result := r.coordinator.SyncOwner(ctx, owner, types.SyncOptions{})
		if !result.Success {
			logging.From(ctx).Warnf("reconciler %s: sync %s: %s", r.showroom, key, result.Error)
		}
		r.markOutcome(key, result.Success)
	}, "reconciler-sync")

	return nil
}

// buildOwner loads the full cache projection of an owner: the record itself,
// the creator display name for elevated roles, and the document list with
// the blob fallback.
func (r *Reconciler) buildOwner(ctx context.Context, key types.OwnerRefKey) (*types.Owner, error) {
	info, err := r.db.FindOwnerInfo(ctx, key)
	if err != nil {
		return nil, err
	}
	owner := info.ToOwner()

	if r.role.IsElevated() && info.CreatedBy != "" {
		user, err := r.db.FindUserInfo(ctx, info.CreatedBy)
		if err != nil {
			logging.From(ctx).Debugf("resolve creator of %s: %v", key, err)
		} else {
			owner.CreatorName = user.DisplayName
		}
	}

	docs, err := r.coordinator.FetchDocuments(ctx, key)
	if err != nil {
		return nil, err
	}
	owner.Documents = docs

	return owner, nil
}

// markOutcome re-reads the cached owner and replaces it with the settled
// sync status. The owner may have been removed meanwhile; that is fine.
func (r *Reconciler) markOutcome(key types.OwnerRefKey, success bool) {
	cached, err := r.ownerCache.Get(key)
	if err != nil {
		return
	}

	if success {
		cached.SyncStatus = types.SyncStatusSynced
		cached.LastSynced = gotime.Now()
	} else {
		cached.SyncStatus = types.SyncStatusError
	}
	if err := r.ownerCache.Upsert(cached); err != nil {
		logging.DefaultLogger().Warnf("mark sync status of %s: %v", key, err)
	}
}

// outcomeSucceeded reports whether the given owner settled without failure
// inside the batch result.
func outcomeSucceeded(result *types.BatchResult, ownerID types.ID) bool {
	for _, outcome := range result.Outcomes {
		if outcome.OwnerID == ownerID {
			return outcome.Status != types.BatchStatusFailed
		}
	}

	// Pre-filtered as fresh; nothing failed.
	return true
}
