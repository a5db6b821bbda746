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

package backend

// Config is the configuration for creating a Backend instance.
type Config struct {
	// Hostname is the hostname of the backend. Empty means the hostname of
	// the current machine.
	Hostname string `yaml:"Hostname"`

	// Showrooms is the list of showrooms this backend reconciles and
	// housekeeps.
	Showrooms []string `yaml:"Showrooms"`

	// Role is the role the change feed is consumed as, "member" or "admin".
	Role string `yaml:"Role"`
}
