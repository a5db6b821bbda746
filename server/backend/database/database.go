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

// Package database provides the remote-store interface for the GarageDocs
// backend. The remote store is authoritative for owners and their documents;
// the sync subsystem only ever shadows it.
package database

import (
	"context"
	gotime "time"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/pkg/errors"
)

var (
	// ErrOwnerNotFound is returned when the owner could not be found.
	ErrOwnerNotFound = errors.NotFound("owner not found").WithCode("ErrOwnerNotFound")

	// ErrOwnerAlreadyExists is returned when the owner already exists.
	ErrOwnerAlreadyExists = errors.AlreadyExists("owner already exists").WithCode("ErrOwnerAlreadyExists")

	// ErrUserNotFound is returned when the user is not found.
	ErrUserNotFound = errors.NotFound("user not found").WithCode("ErrUserNotFound")

	// ErrDocumentNotFound is returned when the document could not be found.
	ErrDocumentNotFound = errors.NotFound("document not found").WithCode("ErrDocumentNotFound")

	// ErrConflictOnUpdate is returned when a conflict occurs during update.
	ErrConflictOnUpdate = errors.FailedPrecond("conflict on update").WithCode("ErrConflictOnUpdate")
)

// OwnerEventType is the type of an owner change event.
type OwnerEventType string

const (
	// OwnerAdded means the owner appeared in the showroom.
	OwnerAdded OwnerEventType = "added"

	// OwnerModified means the owner record changed. Document-only changes
	// surface as modifications because the write path bumps ModifiedAt.
	OwnerModified OwnerEventType = "modified"

	// OwnerRemoved means the owner was hard-deleted from the showroom.
	OwnerRemoved OwnerEventType = "removed"
)

// OwnerEvent is one entry of the ordered owner change feed.
type OwnerEvent struct {
	Type OwnerEventType
	Info *OwnerInfo
}

// BlobInfo describes one raw stored file of an owner. It is the shape the
// blob-listing fallback works with when the primary document records are
// missing.
type BlobInfo struct {
	Name        string
	Size        int64
	Hash        string
	Generation  string
	ContentType string
	URL         string
	UploadedAt  gotime.Time
}

// Database represents the remote store which reads or saves GarageDocs data.
type Database interface {
	// Close all resources of this database.
	Close() error

	// FindOwnerInfosByShowroom returns the owners of the given showroom
	// visible to the given role. Non-elevated roles only see sale-point
	// owners.
	FindOwnerInfosByShowroom(
		ctx context.Context,
		showroom string,
		role types.Role,
	) ([]*OwnerInfo, error)

	// FindOwnerInfo returns the owner of the given showroom and id.
	FindOwnerInfo(
		ctx context.Context,
		refKey types.OwnerRefKey,
	) (*OwnerInfo, error)

	// WatchOwners subscribes to the ordered change feed of the given
	// showroom. The returned channel is closed when the context is done or
	// the feed terminates. Events are delivered strictly in store order.
	WatchOwners(
		ctx context.Context,
		showroom string,
		role types.Role,
	) (<-chan OwnerEvent, error)

	// FindDocumentInfosByOwner returns the structured document records of
	// the given owner, in upload order.
	FindDocumentInfosByOwner(
		ctx context.Context,
		refKey types.OwnerRefKey,
	) ([]*DocumentInfo, error)

	// ListBlobs enumerates the raw stored files of the given owner. It is
	// the fallback source when FindDocumentInfosByOwner returns nothing.
	ListBlobs(
		ctx context.Context,
		refKey types.OwnerRefKey,
	) ([]*BlobInfo, error)

	// FindUserInfo returns the user of the given id. Used to resolve
	// creator display names for elevated roles.
	FindUserInfo(
		ctx context.Context,
		userID types.ID,
	) (*UserInfo, error)

	// CreateOwnerInfo creates a new owner in the given showroom.
	CreateOwnerInfo(
		ctx context.Context,
		info *OwnerInfo,
	) (*OwnerInfo, error)

	// UpdateOwnerInfo replaces the stored owner record and bumps ModifiedAt.
	UpdateOwnerInfo(
		ctx context.Context,
		info *OwnerInfo,
	) (*OwnerInfo, error)

	// SetOwnerDeleted flips the soft-delete flag of the owner. The owner
	// record is retained; only a RemoveOwnerInfo purges it.
	SetOwnerDeleted(
		ctx context.Context,
		refKey types.OwnerRefKey,
		deleted bool,
	) (*OwnerInfo, error)

	// RemoveOwnerInfo hard-deletes the owner and its document records.
	RemoveOwnerInfo(
		ctx context.Context,
		refKey types.OwnerRefKey,
	) error

	// CreateDocumentInfo stores a document record for the owner.
	//
	// Contract of the write path: any document change bumps the parent
	// owner's ModifiedAt strictly forward. Staleness detection relies on it.
	CreateDocumentInfo(
		ctx context.Context,
		refKey types.OwnerRefKey,
		info *DocumentInfo,
	) (*DocumentInfo, error)
}
