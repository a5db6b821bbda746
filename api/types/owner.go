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

// Package types provides the types used in the GarageDocs sync subsystem.
// These types are shared between the sync core, the local cache and the
// remote store implementations.
package types

import (
	"fmt"
	"time"
)

// ID represents an opaque identifier of an entity such as an owner or a user.
type ID string

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// OwnerRefKey identifies an owner within a showroom. It is the key the sync
// subsystem uses for deduplication, throttling and history bookkeeping.
type OwnerRefKey struct {
	Showroom string
	OwnerID  ID
}

// String returns the string representation of the key.
func (k OwnerRefKey) String() string {
	return fmt.Sprintf("%s/%s", k.Showroom, k.OwnerID)
}

// SyncStatus is the local synchronization state of a cached owner.
type SyncStatus string

const (
	// SyncStatusPending means the owner's documents have not been mirrored yet
	// or a remote change has been observed since the last mirror.
	SyncStatusPending SyncStatus = "pending"

	// SyncStatusSynced means the local mirror reflects the latest known remote state.
	SyncStatusSynced SyncStatus = "synced"

	// SyncStatusError means the last sync attempt for the owner failed.
	SyncStatusError SyncStatus = "error"
)

// Role is the role of the current user consuming the change feed.
type Role string

const (
	// RoleMember is a regular showroom member.
	RoleMember Role = "member"

	// RoleAdmin is an elevated role. Admins see creator display names and
	// owners regardless of the sale-point flag.
	RoleAdmin Role = "admin"
)

// IsElevated returns true if the role may resolve creator display names.
func (r Role) IsElevated() bool {
	return r == RoleAdmin
}

// Owner is the cached projection of a remote owner record with local sync
// metadata attached. The remote store stays authoritative; this shadow copy
// exists so the UI and the sync core share one consistent view.
type Owner struct {
	ID        ID     `json:"id"`
	Showroom  string `json:"showroom"`
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	SalePoint bool   `json:"salePoint"`
	IsDeleted bool   `json:"isDeleted"`

	CreatedAt   time.Time `json:"createdAt"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	CreatedBy   ID        `json:"createdBy"`
	ModifiedBy  ID        `json:"modifiedBy"`
	CreatorName string    `json:"creatorName,omitempty"`

	TotalDocuments        int       `json:"totalDocuments"`
	LastDocumentAddedAt   time.Time `json:"lastDocumentAddedAt"`
	LastDocumentUpdatedAt time.Time `json:"lastDocumentUpdatedAt"`

	Documents []Document `json:"documents"`

	SyncStatus SyncStatus `json:"syncStatus"`
	LastSynced time.Time  `json:"lastSynced"`
}

// RefKey returns the (showroom, owner) key of the owner.
func (o *Owner) RefKey() OwnerRefKey {
	return OwnerRefKey{
		Showroom: o.Showroom,
		OwnerID:  o.ID,
	}
}

// DeepCopy returns a deep copy of the owner. Cache readers must never observe
// a partially written entity, so mutations always go through a fresh copy
// that replaces the stored one as a whole.
func (o *Owner) DeepCopy() *Owner {
	if o == nil {
		return nil
	}

	clone := *o
	clone.Documents = make([]Document, len(o.Documents))
	copy(clone.Documents, o.Documents)
	return &clone
}
