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

package bridge

import "fmt"

// Config is the configuration for the local-disk bridge.
type Config struct {
	// BaseDir is the root under which per-showroom, per-owner folders are
	// mirrored.
	BaseDir string `yaml:"BaseDir"`
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf(`invalid argument "" for "--bridge-base-dir" flag: base dir is required`)
	}

	return nil
}
