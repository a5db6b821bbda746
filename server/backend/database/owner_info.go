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

// OwnerInfo is the owner record stored in the remote store.
type OwnerInfo struct {
	// ID is the unique id of the owner within its showroom.
	ID types.ID `bson:"_id" json:"id"`

	// Showroom is the tenant-like scoping key of the owner.
	Showroom string `bson:"showroom" json:"showroom"`

	// Name is the display name of the owner.
	Name string `bson:"name" json:"name"`

	// Contact is the free-form contact string of the owner.
	Contact string `bson:"contact" json:"contact"`

	// SalePoint marks owners visible to non-elevated roles.
	SalePoint bool `bson:"sale_point" json:"salePoint"`

	// IsDeleted is the soft-delete flag. Soft-deleted owners are retained.
	IsDeleted bool `bson:"is_deleted" json:"isDeleted"`

	// CreatedAt is the creation time of the owner.
	CreatedAt gotime.Time `bson:"created_at" json:"createdAt"`

	// ModifiedAt strictly increases whenever the owner or its document set
	// changes. It is the sole staleness signal of the sync core.
	ModifiedAt gotime.Time `bson:"modified_at" json:"modifiedAt"`

	// CreatedBy is the id of the user who created the owner.
	CreatedBy types.ID `bson:"created_by" json:"createdBy"`

	// ModifiedBy is the id of the user who last modified the owner.
	ModifiedBy types.ID `bson:"modified_by" json:"modifiedBy"`

	// TotalDocuments is the number of document records of the owner.
	TotalDocuments int `bson:"total_documents" json:"totalDocuments"`

	// LastDocumentAddedAt is the time the last document was added.
	LastDocumentAddedAt gotime.Time `bson:"last_document_added_at" json:"lastDocumentAddedAt"`

	// LastDocumentUpdatedAt is the time the last document was re-uploaded.
	LastDocumentUpdatedAt gotime.Time `bson:"last_document_updated_at" json:"lastDocumentUpdatedAt"`
}

// RefKey returns the (showroom, owner) key of the owner.
func (i *OwnerInfo) RefKey() types.OwnerRefKey {
	return types.OwnerRefKey{
		Showroom: i.Showroom,
		OwnerID:  i.ID,
	}
}

// DeepCopy returns a deep copy of the owner info.
func (i *OwnerInfo) DeepCopy() *OwnerInfo {
	if i == nil {
		return nil
	}

	clone := *i
	return &clone
}

// ToOwner converts the stored record into a cache projection. Documents and
// creator name are resolved separately by the caller.
func (i *OwnerInfo) ToOwner() *types.Owner {
	return &types.Owner{
		ID:        i.ID,
		Showroom:  i.Showroom,
		Name:      i.Name,
		Contact:   i.Contact,
		SalePoint: i.SalePoint,
		IsDeleted: i.IsDeleted,

		CreatedAt:  i.CreatedAt,
		ModifiedAt: i.ModifiedAt,
		CreatedBy:  i.CreatedBy,
		ModifiedBy: i.ModifiedBy,

		TotalDocuments:        i.TotalDocuments,
		LastDocumentAddedAt:   i.LastDocumentAddedAt,
		LastDocumentUpdatedAt: i.LastDocumentUpdatedAt,

		Documents:  []types.Document{},
		SyncStatus: types.SyncStatusPending,
	}
}
