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
	gosync "sync"
	gotime "time"

	"github.com/rs/xid"

	"github.com/garagedocs-team/garagedocs/api/types"
)

// inFlight is one running sync shared by all of its concurrent requesters.
type inFlight struct {
	done   chan struct{}
	result *types.SyncResult
}

// Queue guarantees at most one in-flight sync per owner key. Concurrent
// requesters of a running key share the settled result, and non-forced
// requests within the minimum interval after a completed sync short-circuit
// as throttled.
type Queue struct {
	minInterval gotime.Duration

	mu          gosync.Mutex
	running     map[types.OwnerRefKey]*inFlight
	completedAt map[types.OwnerRefKey]gotime.Time
}

// NewQueue creates a queue with the given minimum inter-sync interval.
func NewQueue(minInterval gotime.Duration) *Queue {
	return &Queue{
		minInterval: minInterval,
		running:     make(map[types.OwnerRefKey]*inFlight),
		completedAt: make(map[types.OwnerRefKey]gotime.Time),
	}
}

// RunExclusive runs factory as the single in-flight sync of the key.
//
// If a sync for the key is already running, the call blocks until it settles
// and returns the same result without invoking factory. If the previous
// completed sync is younger than the minimum interval and the call is not
// forced, a throttled result is returned immediately. Forced calls bypass
// the throttle but still share an in-flight run.
func (q *Queue) RunExclusive(
	key types.OwnerRefKey,
	force bool,
	factory func(id string) *types.SyncResult,
) *types.SyncResult {
	q.mu.Lock()

	if fl, ok := q.running[key]; ok {
		q.mu.Unlock()
		<-fl.done
		return fl.result
	}

	if !force {
		if completedAt, ok := q.completedAt[key]; ok && gotime.Since(completedAt) < q.minInterval {
			q.mu.Unlock()
			return &types.SyncResult{
				ID:      xid.New().String(),
				Success: true,
				Results: &types.SyncStats{
					Skipped: true,
					Reason:  types.ReasonThrottled,
				},
			}
		}
	}

	fl := &inFlight{done: make(chan struct{})}
	q.running[key] = fl
	q.mu.Unlock()

	id := xid.New().String()
	result := factory(id)
	if result == nil {
		result = &types.SyncResult{Success: false, Error: "sync settled without a result"}
	}
	if result.ID == "" {
		result.ID = id
	}

	q.mu.Lock()
	delete(q.running, key)
	// Only a sync that actually transferred starts a throttle window; cheap
	// short-circuits stay repeatable.
	if result.Success && !result.Skipped() {
		q.completedAt[key] = gotime.Now()
	}
	q.mu.Unlock()

	fl.result = result
	close(fl.done)

	return result
}

// Forget drops the throttle bookkeeping of the key.
func (q *Queue) Forget(key types.OwnerRefKey) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.completedAt, key)
}
