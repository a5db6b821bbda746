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

// Package bridge defines the file-system bridge that mirrors owner documents
// onto the host machine. The sync core talks only to this interface; transfer
// mechanics live behind it.
package bridge

import (
	"context"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/pkg/errors"
)

// ErrBridgeUnavailable is returned when no bridge is wired into the host
// environment. It is terminal: callers report it immediately and never retry.
var ErrBridgeUnavailable = errors.Unavailable("bridge unavailable").WithCode("ErrBridgeUnavailable")

// Bridge mirrors owner documents into per-owner folders on the host.
type Bridge interface {
	// Sync mirrors the projection's documents into the owner's folder and
	// returns transfer statistics. Per-file failures are collected in the
	// stats, not returned as the error.
	Sync(
		ctx context.Context,
		refKey types.OwnerRefKey,
		owner types.OwnerProjection,
		opts types.BridgeOptions,
	) (*types.SyncStats, error)

	// CreateOwnerFolders ensures a folder exists for each of the given
	// owners and returns the number of folders newly created.
	CreateOwnerFolders(ctx context.Context, showroom string, ownerNames []string) (int, error)

	// OpenOwnerFolder opens the owner's folder in the host file manager.
	OpenOwnerFolder(ctx context.Context, refKey types.OwnerRefKey, ownerName string) error

	// CheckFolderExists reports whether the owner's folder exists.
	CheckFolderExists(ctx context.Context, refKey types.OwnerRefKey, ownerName string) (bool, error)

	// CleanupDeletedOwnerFolders removes folders that belong to no active
	// owner and returns the number removed.
	CleanupDeletedOwnerFolders(ctx context.Context, showroom string, activeOwnerNames []string) (int, error)
}
