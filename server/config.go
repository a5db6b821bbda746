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

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/garagedocs-team/garagedocs/server/backend"
	"github.com/garagedocs-team/garagedocs/server/backend/bridge"
	"github.com/garagedocs-team/garagedocs/server/backend/database/mongo"
	"github.com/garagedocs-team/garagedocs/server/backend/housekeeping"
	"github.com/garagedocs-team/garagedocs/server/profiling"
	"github.com/garagedocs-team/garagedocs/server/sync"
)

// Below are the values of the default values of GarageDocs config.
const (
	DefaultProfilingPort = 8081

	DefaultSyncStalenessCeiling = time.Hour
	DefaultSyncThrottleInterval = 5 * time.Second
	DefaultSyncBatchConcurrency = 3

	DefaultHousekeepingInterval               = 10 * time.Minute
	DefaultHousekeepingOwnersLimitPerShowroom = 500

	DefaultMongoConnectionURI      = "mongodb://localhost:27017"
	DefaultMongoConnectionTimeout  = 5 * time.Second
	DefaultMongoPingTimeout        = 5 * time.Second
	DefaultMongoGarageDocsDatabase = "garagedocs-meta"

	DefaultBridgeBaseDir = "garagedocs-documents"

	DefaultHostname = ""
	DefaultRole     = "member"
)

// Config is the configuration for creating a GarageDocs instance.
type Config struct {
	Profiling    *profiling.Config    `yaml:"Profiling"`
	Sync         *sync.Config         `yaml:"Sync"`
	Housekeeping *housekeeping.Config `yaml:"Housekeeping"`
	Backend      *backend.Config      `yaml:"Backend"`
	Bridge       *bridge.Config       `yaml:"Bridge"`
	Mongo        *mongo.Config        `yaml:"Mongo"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	conf := &Config{
		Profiling:    &profiling.Config{},
		Sync:         &sync.Config{},
		Housekeeping: &housekeeping.Config{},
		Backend:      &backend.Config{},
		Bridge:       &bridge.Config{},
	}
	conf.ensureDefaultValue()
	return conf
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.Profiling.Validate(); err != nil {
		return err
	}

	if err := c.Sync.Validate(); err != nil {
		return err
	}

	if err := c.Housekeeping.Validate(); err != nil {
		return err
	}

	if c.Bridge != nil {
		if err := c.Bridge.Validate(); err != nil {
			return err
		}
	}

	if c.Mongo != nil {
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.Profiling == nil {
		c.Profiling = &profiling.Config{}
	}
	if c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Sync == nil {
		c.Sync = &sync.Config{}
	}
	if c.Sync.StalenessCeiling == "" {
		c.Sync.StalenessCeiling = DefaultSyncStalenessCeiling.String()
	}
	if c.Sync.ThrottleInterval == "" {
		c.Sync.ThrottleInterval = DefaultSyncThrottleInterval.String()
	}
	if c.Sync.BatchConcurrency == 0 {
		c.Sync.BatchConcurrency = DefaultSyncBatchConcurrency
	}

	if c.Housekeeping == nil {
		c.Housekeeping = &housekeeping.Config{}
	}
	if c.Housekeeping.Interval == "" {
		c.Housekeeping.Interval = DefaultHousekeepingInterval.String()
	}
	if c.Housekeeping.OwnersLimitPerShowroom == 0 {
		c.Housekeeping.OwnersLimitPerShowroom = DefaultHousekeepingOwnersLimitPerShowroom
	}

	if c.Backend == nil {
		c.Backend = &backend.Config{}
	}
	if c.Backend.Hostname == "" {
		c.Backend.Hostname = DefaultHostname
	}
	if c.Backend.Role == "" {
		c.Backend.Role = DefaultRole
	}

	if c.Bridge != nil && c.Bridge.BaseDir == "" {
		c.Bridge.BaseDir = DefaultBridgeBaseDir
	}

	if c.Mongo != nil {
		if c.Mongo.ConnectionURI == "" {
			c.Mongo.ConnectionURI = DefaultMongoConnectionURI
		}
		if c.Mongo.ConnectionTimeout == "" {
			c.Mongo.ConnectionTimeout = DefaultMongoConnectionTimeout.String()
		}
		if c.Mongo.PingTimeout == "" {
			c.Mongo.PingTimeout = DefaultMongoPingTimeout.String()
		}
		if c.Mongo.GarageDocsDatabase == "" {
			c.Mongo.GarageDocsDatabase = DefaultMongoGarageDocsDatabase
		}
	}
}
