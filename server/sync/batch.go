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
	gosync "sync"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/logging"
)

// BatchOptions are the options of a batch sync.
type BatchOptions struct {
	// Concurrency is the window size. Zero means the configured default.
	Concurrency int

	// OnlyChanged pre-filters owners the tracker considers fresh. Filtered
	// owners do not appear in the result at all.
	OnlyChanged bool

	// SyncOptions are passed to every per-owner sync.
	SyncOptions types.SyncOptions
}

// BatchSync syncs many owners in fixed-size windows. Each window settles
// completely before the next one starts, and one owner's failure or panic
// never aborts its siblings.
func (c *Coordinator) BatchSync(
	ctx context.Context,
	owners []*types.Owner,
	opts BatchOptions,
) *types.BatchResult {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = c.conf.BatchConcurrency
	}

	candidates := owners
	if opts.OnlyChanged && !opts.SyncOptions.ForceSync {
		candidates = nil
		for _, owner := range owners {
			if c.tracker.NeedsSync(owner.RefKey(), owner.ModifiedAt) {
				candidates = append(candidates, owner)
			}
		}
	}

	outcomes := make([]types.BatchOutcome, len(candidates))
	for start := 0; start < len(candidates); start += concurrency {
		end := min(start+concurrency, len(candidates))

		var wg gosync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = c.syncOne(ctx, candidates[i], opts.SyncOptions)
			}(i)
		}
		wg.Wait()
	}

	result := &types.BatchResult{Outcomes: outcomes}
	for _, outcome := range outcomes {
		switch outcome.Status {
		case types.BatchStatusSuccessful:
			result.Successful++
		case types.BatchStatusSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	return result
}

// syncOne settles one owner of a batch window into an outcome. A panic that
// escapes the executor is recorded as a failed outcome.
func (c *Coordinator) syncOne(
	ctx context.Context,
	owner *types.Owner,
	opts types.SyncOptions,
) (outcome types.BatchOutcome) {
	outcome = types.BatchOutcome{
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
	}
	defer func() {
		if r := recover(); r != nil {
			logging.From(ctx).Errorf("batch sync %s: panic: %v", owner.RefKey(), r)
			outcome.Status = types.BatchStatusFailed
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	result := c.SyncOwner(ctx, owner, opts)
	switch {
	case result.Skipped():
		outcome.Status = types.BatchStatusSkipped
		outcome.Reason = result.Results.Reason
	case result.Success:
		outcome.Status = types.BatchStatusSuccessful
	default:
		outcome.Status = types.BatchStatusFailed
		outcome.Error = result.Error
	}

	return outcome
}
