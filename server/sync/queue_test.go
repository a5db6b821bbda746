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
	gosync "sync"
	"sync/atomic"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/sync"
)

func TestQueue(t *testing.T) {
	key := types.OwnerRefKey{Showroom: "downtown-motors", OwnerID: "owner-a"}

	okResult := func(id string) *types.SyncResult {
		return &types.SyncResult{
			ID:      id,
			Success: true,
			Results: &types.SyncStats{DocumentsProcessed: 1},
		}
	}

	t.Run("concurrent callers share one run test", func(t *testing.T) {
		queue := sync.NewQueue(gotime.Hour)

		var invocations int64
		started := make(chan struct{})
		release := make(chan struct{})

		var wg gosync.WaitGroup
		results := make([]*types.SyncResult, 5)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[0] = queue.RunExclusive(key, false, func(id string) *types.SyncResult {
				atomic.AddInt64(&invocations, 1)
				close(started)
				<-release
				return okResult(id)
			})
		}()
		<-started

		for i := 1; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = queue.RunExclusive(key, false, func(id string) *types.SyncResult {
					atomic.AddInt64(&invocations, 1)
					return okResult(id)
				})
			}(i)
		}
		// Give the latecomers time to park on the in-flight run.
		gotime.Sleep(20 * gotime.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int64(1), atomic.LoadInt64(&invocations))
		for i := 1; i < 5; i++ {
			assert.Same(t, results[0], results[i])
		}
		assert.NotEmpty(t, results[0].ID)
	})

	t.Run("different keys run independently test", func(t *testing.T) {
		queue := sync.NewQueue(gotime.Hour)
		otherKey := types.OwnerRefKey{Showroom: "downtown-motors", OwnerID: "owner-b"}

		var invocations int64
		run := func(k types.OwnerRefKey) *types.SyncResult {
			return queue.RunExclusive(k, false, func(id string) *types.SyncResult {
				atomic.AddInt64(&invocations, 1)
				return okResult(id)
			})
		}
		assert.True(t, run(key).Success)
		assert.True(t, run(otherKey).Success)
		assert.Equal(t, int64(2), atomic.LoadInt64(&invocations))
	})

	t.Run("throttle test", func(t *testing.T) {
		queue := sync.NewQueue(gotime.Hour)

		var invocations int64
		run := func(force bool) *types.SyncResult {
			return queue.RunExclusive(key, force, func(id string) *types.SyncResult {
				atomic.AddInt64(&invocations, 1)
				return okResult(id)
			})
		}

		first := run(false)
		assert.True(t, first.Success)
		assert.False(t, first.Skipped())

		second := run(false)
		assert.True(t, second.Success)
		assert.True(t, second.Skipped())
		assert.Equal(t, types.ReasonThrottled, second.Results.Reason)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, int64(1), atomic.LoadInt64(&invocations))

		// Force bypasses the throttle.
		forced := run(true)
		assert.True(t, forced.Success)
		assert.False(t, forced.Skipped())
		assert.Equal(t, int64(2), atomic.LoadInt64(&invocations))
	})

	t.Run("throttle window expires test", func(t *testing.T) {
		queue := sync.NewQueue(10 * gotime.Millisecond)

		var invocations int64
		run := func() *types.SyncResult {
			return queue.RunExclusive(key, false, func(id string) *types.SyncResult {
				atomic.AddInt64(&invocations, 1)
				return okResult(id)
			})
		}

		assert.False(t, run().Skipped())
		assert.True(t, run().Skipped())

		gotime.Sleep(20 * gotime.Millisecond)
		assert.False(t, run().Skipped())
		assert.Equal(t, int64(2), atomic.LoadInt64(&invocations))
	})

	t.Run("skips do not start a throttle window test", func(t *testing.T) {
		queue := sync.NewQueue(gotime.Hour)

		skipped := queue.RunExclusive(key, false, func(id string) *types.SyncResult {
			return &types.SyncResult{
				ID:      id,
				Success: true,
				Results: &types.SyncStats{Skipped: true, Reason: types.ReasonNoChanges},
			}
		})
		assert.True(t, skipped.Skipped())

		// The next call still reaches the factory.
		var invoked bool
		result := queue.RunExclusive(key, false, func(id string) *types.SyncResult {
			invoked = true
			return okResult(id)
		})
		assert.True(t, invoked)
		assert.False(t, result.Skipped())
	})

	t.Run("failures do not start a throttle window test", func(t *testing.T) {
		queue := sync.NewQueue(gotime.Hour)

		failed := queue.RunExclusive(key, false, func(id string) *types.SyncResult {
			return &types.SyncResult{ID: id, Success: false, Error: "boom"}
		})
		assert.False(t, failed.Success)

		retried := queue.RunExclusive(key, false, func(id string) *types.SyncResult {
			return okResult(id)
		})
		assert.True(t, retried.Success)
		assert.False(t, retried.Skipped())
	})

	t.Run("nil factory result settles as failure test", func(t *testing.T) {
		queue := sync.NewQueue(gotime.Hour)

		result := queue.RunExclusive(key, false, func(id string) *types.SyncResult {
			return nil
		})
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
		assert.NotEmpty(t, result.ID)
	})
}
