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

package housekeeping

import (
	"context"
	"time"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/cache"
	"github.com/garagedocs-team/garagedocs/server/logging"
	"github.com/garagedocs-team/garagedocs/server/sync"
)

// Housekeeping is the housekeeping service. It periodically runs a non-forced
// batch sync over the cached owners of every configured showroom, so owners
// past the staleness ceiling get refreshed without any other trigger.
type Housekeeping struct {
	ownerCache  *cache.OwnerCache
	coordinator *sync.Coordinator
	showrooms   []string

	interval               time.Duration
	ownersLimitPerShowroom int

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start creates and starts a housekeeping service.
func Start(
	conf *Config,
	ownerCache *cache.OwnerCache,
	coordinator *sync.Coordinator,
	showrooms []string,
) (*Housekeeping, error) {
	h, err := New(conf, ownerCache, coordinator, showrooms)
	if err != nil {
		return nil, err
	}
	if err := h.Start(); err != nil {
		return nil, err
	}

	return h, nil
}

// New creates a new housekeeping instance.
func New(
	conf *Config,
	ownerCache *cache.OwnerCache,
	coordinator *sync.Coordinator,
	showrooms []string,
) (*Housekeeping, error) {
	interval, err := conf.ParseInterval()
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())

	return &Housekeeping{
		ownerCache:  ownerCache,
		coordinator: coordinator,
		showrooms:   showrooms,

		interval:               interval,
		ownersLimitPerShowroom: conf.OwnersLimitPerShowroom,

		ctx:        ctx,
		cancelFunc: cancelFunc,
	}, nil
}

// Start starts the housekeeping service.
func (h *Housekeeping) Start() error {
	go h.run()
	return nil
}

// Stop stops the housekeeping service.
func (h *Housekeeping) Stop() error {
	h.cancelFunc()

	return nil
}

// run is the housekeeping loop.
func (h *Housekeeping) run() {
	for {
		select {
		case <-time.After(h.interval):
		case <-h.ctx.Done():
			return
		}

		ctx := context.Background()
		for _, showroom := range h.showrooms {
			if err := h.resyncShowroom(ctx, showroom); err != nil {
				logging.From(ctx).Error(err)
			}
		}
	}
}

// resyncShowroom batch-syncs the stale cached owners of one showroom.
func (h *Housekeeping) resyncShowroom(ctx context.Context, showroom string) error {
	start := time.Now()

	cached, err := h.ownerCache.List(showroom)
	if err != nil {
		return err
	}

	var candidates []*types.Owner
	for _, owner := range cached {
		if owner.IsDeleted {
			continue
		}
		candidates = append(candidates, owner)
		if len(candidates) == h.ownersLimitPerShowroom {
			break
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	result := h.coordinator.BatchSync(ctx, candidates, sync.BatchOptions{OnlyChanged: true})
	if result.Total() > 0 {
		logging.From(ctx).Infof(
			"HSKP: %s: %d successful, %d skipped, %d failed, %s",
			showroom,
			result.Successful,
			result.Skipped,
			result.Failed,
			time.Since(start),
		)
	}

	return nil
}
