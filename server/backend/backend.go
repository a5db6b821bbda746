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

// Package backend provides the backend implementation of GarageDocs. This
// package is responsible for managing the remote store connection, the local
// cache and the other resources the sync subsystem runs on.
package backend

import (
	"errors"
	"fmt"
	"os"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/backend/background"
	"github.com/garagedocs-team/garagedocs/server/backend/bridge"
	"github.com/garagedocs-team/garagedocs/server/backend/database"
	memdb "github.com/garagedocs-team/garagedocs/server/backend/database/memory"
	"github.com/garagedocs-team/garagedocs/server/backend/database/mongo"
	"github.com/garagedocs-team/garagedocs/server/backend/housekeeping"
	"github.com/garagedocs-team/garagedocs/server/cache"
	"github.com/garagedocs-team/garagedocs/server/logging"
	"github.com/garagedocs-team/garagedocs/server/profiling/prometheus"
	"github.com/garagedocs-team/garagedocs/server/sync"
)

// Backend manages the GarageDocs backend: the remote store, the local owner
// cache, the bridge and the sync coordinator built on top of them.
type Backend struct {
	Config *Config

	// Cache is the local owner cache the UI reads.
	Cache *cache.OwnerCache
	// Bridge mirrors documents onto the host file system.
	Bridge bridge.Bridge
	// Coordinator runs owner syncs.
	Coordinator *sync.Coordinator

	// Background is used to manage background tasks.
	Background *background.Background
	// Housekeeping is used to manage background batch re-syncs.
	Housekeeping *housekeeping.Housekeeping

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
	// DB is the remote store instance.
	DB database.Database
}

// New creates a new instance of Backend.
func New(
	conf *Config,
	mongoConf *mongo.Config,
	bridgeConf *bridge.Config,
	syncConf *sync.Config,
	housekeepingConf *housekeeping.Config,
	metrics *prometheus.Metrics,
) (*Backend, error) {
	// 01. Build the server info with the given hostname or the hostname of the
	// current machine.
	if conf.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("os.Hostname: %w", err)
		}
		conf.Hostname = hostname
	}

	// 02. Create the local owner cache and the background task manager.
	ownerCache, err := cache.New()
	if err != nil {
		return nil, err
	}
	bg := background.New(metrics)

	// 03. Create the remote store instance. If the MongoDB configuration is
	// given, connect to MongoDB. Otherwise, create a memory store instance.
	var db database.Database
	if mongoConf != nil {
		db, err = mongo.Dial(mongoConf)
		if err != nil {
			return nil, err
		}
	} else {
		db, err = memdb.New()
		if err != nil {
			return nil, err
		}
	}

	// 04. Create the bridge onto the host file system, if configured.
	var brdg bridge.Bridge
	if bridgeConf != nil {
		brdg, err = bridge.NewLocalFS(bridgeConf)
		if err != nil {
			return nil, err
		}
	}

	// 05. Create the sync coordinator and the housekeeping instance.
	coordinator := sync.NewCoordinator(syncConf, db, brdg, metrics)
	housekeeper, err := housekeeping.New(
		housekeepingConf,
		ownerCache,
		coordinator,
		conf.Showrooms,
	)
	if err != nil {
		return nil, err
	}

	dbInfo := "memory"
	if mongoConf != nil {
		dbInfo = mongoConf.ConnectionURI
	}
	logging.DefaultLogger().Infof("backend created: db: %s", dbInfo)

	return &Backend{
		Config: conf,

		Cache:       ownerCache,
		Bridge:      brdg,
		Coordinator: coordinator,

		Background:   bg,
		Housekeeping: housekeeper,

		Metrics: metrics,
		DB:      db,
	}, nil
}

// Role returns the role the change feed is consumed as.
func (b *Backend) Role() types.Role {
	if types.Role(b.Config.Role) == types.RoleAdmin {
		return types.RoleAdmin
	}

	return types.RoleMember
}

// Start starts the backend.
func (b *Backend) Start() error {
	if err := b.Housekeeping.Start(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend started")
	return nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	var errs []error

	if err := b.Housekeeping.Stop(); err != nil {
		errs = append(errs, err)
	}

	b.Background.Close()

	if err := b.DB.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
