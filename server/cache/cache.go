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

// Package cache provides the local owner cache. The remote store stays
// authoritative; this repository holds the shadow copies the UI reads and
// the sync core annotates with sync status.
//
// Entities are replaced whole on every write, never merged in place, so a
// concurrent reader can never observe a partially updated owner.
package cache

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/pkg/errors"
)

// ErrOwnerNotCached is returned when the owner is not in the cache.
var ErrOwnerNotCached = errors.NotFound("owner not cached").WithCode("ErrOwnerNotCached")

var tblOwners = "owners"

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblOwners: {
			Name: tblOwners,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Showroom"},
							&memdb.StringFieldIndex{Field: "ID"},
						},
					},
				},
				"showroom": {
					Name:    "showroom",
					Indexer: &memdb.StringFieldIndex{Field: "Showroom"},
				},
			},
		},
	},
}

// OwnerCache is the local owner repository.
type OwnerCache struct {
	db *memdb.MemDB
}

// New creates a new owner cache.
func New() (*OwnerCache, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &OwnerCache{db: db}, nil
}

// Get returns the cached owner of the given key.
func (c *OwnerCache) Get(refKey types.OwnerRefKey) (*types.Owner, error) {
	txn := c.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblOwners, "id", refKey.Showroom, refKey.OwnerID.String())
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", refKey, ErrOwnerNotCached)
	}

	return raw.(*types.Owner).DeepCopy(), nil
}

// List returns the cached owners of the given showroom sorted by id.
func (c *OwnerCache) List(showroom string) ([]*types.Owner, error) {
	txn := c.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblOwners, "showroom", showroom)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}

	var owners []*types.Owner
	for raw := it.Next(); raw != nil; raw = it.Next() {
		owners = append(owners, raw.(*types.Owner).DeepCopy())
	}

	sort.Slice(owners, func(i, j int) bool {
		return owners[i].ID < owners[j].ID
	})
	return owners, nil
}

// Len returns the number of cached owners of the given showroom.
func (c *OwnerCache) Len(showroom string) int {
	txn := c.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblOwners, "showroom", showroom)
	if err != nil {
		return 0
	}

	count := 0
	for raw := it.Next(); raw != nil; raw = it.Next() {
		count++
	}
	return count
}

// Upsert stores a deep copy of the owner, replacing any previous entry as a
// whole. All writes, including sync-status updates, go through here.
func (c *OwnerCache) Upsert(owner *types.Owner) error {
	txn := c.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tblOwners, owner.DeepCopy()); err != nil {
		return fmt.Errorf("upsert owner: %w", err)
	}
	txn.Commit()

	return nil
}

// Remove deletes the owner from the cache. Removing an owner that is not
// cached is a no-op.
func (c *OwnerCache) Remove(refKey types.OwnerRefKey) error {
	txn := c.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblOwners, "id", refKey.Showroom, refKey.OwnerID.String())
	if err != nil {
		return fmt.Errorf("find owner: %w", err)
	}
	if raw == nil {
		return nil
	}

	if err := txn.Delete(tblOwners, raw); err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	txn.Commit()

	return nil
}
