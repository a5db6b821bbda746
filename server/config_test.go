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

package server_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garagedocs-team/garagedocs/server"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)
		assert.Nil(t, conf)
	})

	t.Run("read config file with defaults test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		assert.NoError(t, os.WriteFile(path, []byte(`
Backend:
  Showrooms:
    - downtown-motors
  Role: admin
`), 0o644))

		conf, err := server.NewConfigFromFile(path)
		assert.NoError(t, err)
		assert.NoError(t, conf.Validate())

		assert.Equal(t, server.DefaultProfilingPort, conf.Profiling.Port)
		assert.Equal(t, server.DefaultSyncStalenessCeiling, conf.Sync.ParseStalenessCeiling())
		assert.Equal(t, server.DefaultSyncThrottleInterval, conf.Sync.ParseThrottleInterval())
		assert.Equal(t, server.DefaultSyncBatchConcurrency, conf.Sync.BatchConcurrency)
		assert.Equal(t, server.DefaultHousekeepingInterval.String(), conf.Housekeeping.Interval)
		assert.Equal(t, []string{"downtown-motors"}, conf.Backend.Showrooms)
		assert.Equal(t, "admin", conf.Backend.Role)
		assert.Nil(t, conf.Mongo)
	})

	t.Run("read config file with mongo and bridge test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		assert.NoError(t, os.WriteFile(path, []byte(`
Bridge:
  BaseDir: /tmp/garagedocs
Mongo:
  ConnectionURI: mongodb://example:27017
`), 0o644))

		conf, err := server.NewConfigFromFile(path)
		assert.NoError(t, err)
		assert.NoError(t, conf.Validate())

		assert.Equal(t, "/tmp/garagedocs", conf.Bridge.BaseDir)
		assert.Equal(t, "mongodb://example:27017", conf.Mongo.ConnectionURI)
		assert.Equal(t, server.DefaultMongoGarageDocsDatabase, conf.Mongo.GarageDocsDatabase)
		assert.Equal(t, server.DefaultMongoPingTimeout.String(), conf.Mongo.PingTimeout)
	})

	t.Run("invalid config test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		assert.NoError(t, os.WriteFile(path, []byte(`
Sync:
  ThrottleInterval: soon
`), 0o644))

		conf, err := server.NewConfigFromFile(path)
		assert.NoError(t, err)
		assert.Error(t, conf.Validate())
	})
}

func TestNewConfig(t *testing.T) {
	t.Run("defaults are valid test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.NoError(t, conf.Validate())
	})
}
