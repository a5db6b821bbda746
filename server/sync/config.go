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
	"fmt"
	"os"
	"time"
)

// Config is the configuration of the sync core.
type Config struct {
	// StalenessCeiling is the age after which a successful sync no longer
	// counts as fresh, even without a remote change.
	StalenessCeiling string `yaml:"StalenessCeiling"`

	// ThrottleInterval is the minimum interval between completed syncs of
	// the same owner.
	ThrottleInterval string `yaml:"ThrottleInterval"`

	// BatchConcurrency is the window size of the batch orchestrator.
	BatchConcurrency int `yaml:"BatchConcurrency"`
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.StalenessCeiling); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--sync-staleness-ceiling" flag: %w`,
			c.StalenessCeiling,
			err,
		)
	}

	if _, err := time.ParseDuration(c.ThrottleInterval); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--sync-throttle-interval" flag: %w`,
			c.ThrottleInterval,
			err,
		)
	}

	if c.BatchConcurrency < 1 {
		return fmt.Errorf(
			`invalid argument %d for "--sync-batch-concurrency" flag: must be at least 1`,
			c.BatchConcurrency,
		)
	}

	return nil
}

// ParseStalenessCeiling returns the staleness ceiling duration.
func (c *Config) ParseStalenessCeiling() time.Duration {
	result, err := time.ParseDuration(c.StalenessCeiling)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse staleness ceiling: %w", err)
		os.Exit(1)
	}

	return result
}

// ParseThrottleInterval returns the throttle interval duration.
func (c *Config) ParseThrottleInterval() time.Duration {
	result, err := time.ParseDuration(c.ThrottleInterval)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse throttle interval: %w", err)
		os.Exit(1)
	}

	return result
}
