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

package database

import (
	gotime "time"

	"github.com/garagedocs-team/garagedocs/api/types"
)

// UserInfo is the user record stored in the remote store. The sync subsystem
// only reads it to resolve creator display names for elevated roles.
type UserInfo struct {
	ID          types.ID    `bson:"_id" json:"id"`
	Username    string      `bson:"username" json:"username"`
	DisplayName string      `bson:"display_name" json:"displayName"`
	CreatedAt   gotime.Time `bson:"created_at" json:"createdAt"`
}

// DeepCopy returns a deep copy of the user info.
func (i *UserInfo) DeepCopy() *UserInfo {
	if i == nil {
		return nil
	}

	clone := *i
	return &clone
}
