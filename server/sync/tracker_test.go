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
	"testing"
	gotime "time"

	monkey "github.com/undefinedlabs/go-mpatch"

	"github.com/stretchr/testify/assert"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/sync"
)

func TestTracker(t *testing.T) {
	key := types.OwnerRefKey{Showroom: "downtown-motors", OwnerID: "owner-a"}

	t.Run("never synced needs sync test", func(t *testing.T) {
		tracker := sync.NewTracker(gotime.Hour)
		assert.True(t, tracker.NeedsSync(key, gotime.Now()))
	})

	t.Run("fresh and unchanged needs no sync test", func(t *testing.T) {
		tracker := sync.NewTracker(gotime.Hour)
		modifiedAt := gotime.Now()

		tracker.RecordSuccess(key, modifiedAt)
		assert.False(t, tracker.NeedsSync(key, modifiedAt))

		// An older remote timestamp does not make the owner stale either.
		assert.False(t, tracker.NeedsSync(key, modifiedAt.Add(-gotime.Minute)))
	})

	t.Run("remote change needs sync test", func(t *testing.T) {
		tracker := sync.NewTracker(gotime.Hour)
		modifiedAt := gotime.Now()

		tracker.RecordSuccess(key, modifiedAt)
		assert.True(t, tracker.NeedsSync(key, modifiedAt.Add(gotime.Millisecond)))
	})

	t.Run("staleness ceiling needs sync test", func(t *testing.T) {
		tracker := sync.NewTracker(10 * gotime.Millisecond)
		modifiedAt := gotime.Now()

		tracker.RecordSuccess(key, modifiedAt)
		assert.False(t, tracker.NeedsSync(key, modifiedAt))

		gotime.Sleep(20 * gotime.Millisecond)
		assert.True(t, tracker.NeedsSync(key, modifiedAt))
	})

	t.Run("hour-old success is stale test", func(t *testing.T) {
		tracker := sync.NewTracker(gotime.Hour)
		modifiedAt := gotime.Now()

		twoHoursAgo := gotime.Now().Add(-2 * gotime.Hour)
		patch, err := monkey.PatchMethod(gotime.Now, func() gotime.Time { return twoHoursAgo })
		assert.NoError(t, err)
		tracker.RecordSuccess(key, modifiedAt)
		assert.NoError(t, patch.Unpatch())

		assert.True(t, tracker.NeedsSync(key, modifiedAt))
	})

	t.Run("forget test", func(t *testing.T) {
		tracker := sync.NewTracker(gotime.Hour)
		modifiedAt := gotime.Now()

		tracker.RecordSuccess(key, modifiedAt)
		_, ok := tracker.LastSyncedAt(key)
		assert.True(t, ok)

		tracker.Forget(key)
		_, ok = tracker.LastSyncedAt(key)
		assert.False(t, ok)
		assert.True(t, tracker.NeedsSync(key, modifiedAt))
	})
}
