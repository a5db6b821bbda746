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

// Package memory implements the database interface using an in-memory
// database. It backs tests and standalone runs without a MongoDB instance.
package memory

import (
	"context"
	"fmt"
	"sort"
	gosync "sync"
	gotime "time"

	"github.com/hashicorp/go-memdb"
	"github.com/rs/xid"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/backend/database"
)

// watchBufferSize is the buffer of a watch channel. Slow consumers block the
// write path rather than losing or reordering events.
const watchBufferSize = 128

// DB is an in-memory remote store for testing or standalone use.
type DB struct {
	db *memdb.MemDB

	// writeMu serializes writers so events are published in commit order.
	writeMu gosync.Mutex

	subMu gosync.Mutex
	subs  map[string][]*subscription
}

type subscription struct {
	showroom string
	role     types.Role
	events   chan database.OwnerEvent
	done     chan struct{}
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db:   memDB,
		subs: make(map[string][]*subscription),
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// blobRecord wraps BlobInfo with owner scoping for memory database storage.
type blobRecord struct {
	Showroom string
	OwnerID  types.ID
	Name     string
	Info     *database.BlobInfo
}

// FindOwnerInfosByShowroom returns the owners of the given showroom visible
// to the given role.
func (d *DB) FindOwnerInfosByShowroom(
	_ context.Context,
	showroom string,
	role types.Role,
) ([]*database.OwnerInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblOwners, "showroom", showroom)
	if err != nil {
		return nil, fmt.Errorf("find owners by showroom: %w", err)
	}

	var infos []*database.OwnerInfo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		info := raw.(*database.OwnerInfo)
		if !visibleTo(info, role) {
			continue
		}
		infos = append(infos, info.DeepCopy())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// FindOwnerInfo returns the owner of the given showroom and id.
func (d *DB) FindOwnerInfo(
	_ context.Context,
	refKey types.OwnerRefKey,
) (*database.OwnerInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblOwners, "id", refKey.Showroom, refKey.OwnerID.String())
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", refKey, database.ErrOwnerNotFound)
	}

	return raw.(*database.OwnerInfo).DeepCopy(), nil
}

// WatchOwners subscribes to the ordered change feed of the given showroom.
func (d *DB) WatchOwners(
	ctx context.Context,
	showroom string,
	role types.Role,
) (<-chan database.OwnerEvent, error) {
	sub := &subscription{
		showroom: showroom,
		role:     role,
		events:   make(chan database.OwnerEvent, watchBufferSize),
		done:     make(chan struct{}),
	}

	d.subMu.Lock()
	d.subs[showroom] = append(d.subs[showroom], sub)
	d.subMu.Unlock()

	go func() {
		<-ctx.Done()
		d.unsubscribe(sub)
	}()

	return sub.events, nil
}

func (d *DB) unsubscribe(sub *subscription) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	subs := d.subs[sub.showroom]
	for i, s := range subs {
		if s == sub {
			d.subs[sub.showroom] = append(subs[:i], subs[i+1:]...)
			close(sub.done)
			close(sub.events)
			return
		}
	}
}

// publish delivers the event to every subscriber of the showroom that is
// allowed to see the owner. Callers hold writeMu, so delivery order matches
// commit order.
func (d *DB) publish(event database.OwnerEvent) {
	d.subMu.Lock()
	subs := append([]*subscription(nil), d.subs[event.Info.Showroom]...)
	d.subMu.Unlock()

	for _, sub := range subs {
		if !visibleTo(event.Info, sub.role) {
			continue
		}
		select {
		case sub.events <- database.OwnerEvent{Type: event.Type, Info: event.Info.DeepCopy()}:
		case <-sub.done:
		}
	}
}

func visibleTo(info *database.OwnerInfo, role types.Role) bool {
	return role.IsElevated() || info.SalePoint
}

// FindDocumentInfosByOwner returns the document records of the given owner.
func (d *DB) FindDocumentInfosByOwner(
	_ context.Context,
	refKey types.OwnerRefKey,
) ([]*database.DocumentInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblDocuments, "owner", refKey.Showroom, refKey.OwnerID.String())
	if err != nil {
		return nil, fmt.Errorf("find documents by owner: %w", err)
	}

	var infos []*database.DocumentInfo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		infos = append(infos, raw.(*database.DocumentInfo).DeepCopy())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].FileName < infos[j].FileName
	})
	return infos, nil
}

// ListBlobs enumerates the raw stored files of the given owner.
func (d *DB) ListBlobs(
	_ context.Context,
	refKey types.OwnerRefKey,
) ([]*database.BlobInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tblBlobs, "owner", refKey.Showroom, refKey.OwnerID.String())
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	var infos []*database.BlobInfo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		info := *raw.(*blobRecord).Info
		infos = append(infos, &info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// FindUserInfo returns the user of the given id.
func (d *DB) FindUserInfo(
	_ context.Context,
	userID types.ID,
) (*database.UserInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblUsers, "id", userID.String())
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", userID, database.ErrUserNotFound)
	}

	return raw.(*database.UserInfo).DeepCopy(), nil
}

// CreateOwnerInfo creates a new owner in the given showroom.
func (d *DB) CreateOwnerInfo(
	_ context.Context,
	info *database.OwnerInfo,
) (*database.OwnerInfo, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblOwners, "id", info.Showroom, info.ID.String())
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}
	if raw != nil {
		return nil, fmt.Errorf("%s: %w", info.RefKey(), database.ErrOwnerAlreadyExists)
	}

	stored := info.DeepCopy()
	if stored.ID == "" {
		stored.ID = types.ID(xid.New().String())
	}
	now := gotime.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.ModifiedAt.IsZero() {
		stored.ModifiedAt = now
	}

	if err := txn.Insert(tblOwners, stored); err != nil {
		return nil, fmt.Errorf("insert owner: %w", err)
	}
	txn.Commit()

	d.publish(database.OwnerEvent{Type: database.OwnerAdded, Info: stored})
	return stored.DeepCopy(), nil
}

// UpdateOwnerInfo replaces the stored owner record and bumps ModifiedAt.
func (d *DB) UpdateOwnerInfo(
	_ context.Context,
	info *database.OwnerInfo,
) (*database.OwnerInfo, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblOwners, "id", info.Showroom, info.ID.String())
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", info.RefKey(), database.ErrOwnerNotFound)
	}
	prev := raw.(*database.OwnerInfo)

	stored := info.DeepCopy()
	stored.CreatedAt = prev.CreatedAt
	stored.ModifiedAt = nextModifiedAt(prev.ModifiedAt)

	if err := txn.Insert(tblOwners, stored); err != nil {
		return nil, fmt.Errorf("insert owner: %w", err)
	}
	txn.Commit()

	d.publish(database.OwnerEvent{Type: database.OwnerModified, Info: stored})
	return stored.DeepCopy(), nil
}

// SetOwnerDeleted flips the soft-delete flag of the owner.
func (d *DB) SetOwnerDeleted(
	_ context.Context,
	refKey types.OwnerRefKey,
	deleted bool,
) (*database.OwnerInfo, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblOwners, "id", refKey.Showroom, refKey.OwnerID.String())
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", refKey, database.ErrOwnerNotFound)
	}
	prev := raw.(*database.OwnerInfo)

	stored := prev.DeepCopy()
	stored.IsDeleted = deleted
	stored.ModifiedAt = nextModifiedAt(prev.ModifiedAt)

	if err := txn.Insert(tblOwners, stored); err != nil {
		return nil, fmt.Errorf("insert owner: %w", err)
	}
	txn.Commit()

	d.publish(database.OwnerEvent{Type: database.OwnerModified, Info: stored})
	return stored.DeepCopy(), nil
}

// RemoveOwnerInfo hard-deletes the owner and its document records.
func (d *DB) RemoveOwnerInfo(
	_ context.Context,
	refKey types.OwnerRefKey,
) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblOwners, "id", refKey.Showroom, refKey.OwnerID.String())
	if err != nil {
		return fmt.Errorf("find owner: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("%s: %w", refKey, database.ErrOwnerNotFound)
	}
	removed := raw.(*database.OwnerInfo)

	if err := txn.Delete(tblOwners, removed); err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	if _, err := txn.DeleteAll(tblDocuments, "owner", refKey.Showroom, refKey.OwnerID.String()); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if _, err := txn.DeleteAll(tblBlobs, "owner", refKey.Showroom, refKey.OwnerID.String()); err != nil {
		return fmt.Errorf("delete blobs: %w", err)
	}
	txn.Commit()

	d.publish(database.OwnerEvent{Type: database.OwnerRemoved, Info: removed})
	return nil
}

// CreateDocumentInfo stores a document record for the owner. A document with
// the same file name supersedes the previous one with a bumped version. The
// parent owner's ModifiedAt moves strictly forward either way.
func (d *DB) CreateDocumentInfo(
	_ context.Context,
	refKey types.OwnerRefKey,
	info *database.DocumentInfo,
) (*database.DocumentInfo, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	txn := d.db.Txn(true)
	defer txn.Abort()

	rawOwner, err := txn.First(tblOwners, "id", refKey.Showroom, refKey.OwnerID.String())
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}
	if rawOwner == nil {
		return nil, fmt.Errorf("%s: %w", refKey, database.ErrOwnerNotFound)
	}
	owner := rawOwner.(*database.OwnerInfo)

	stored := info.DeepCopy()
	stored.Showroom = refKey.Showroom
	stored.OwnerID = refKey.OwnerID
	if stored.ID == "" {
		stored.ID = types.ID(xid.New().String())
	}
	if stored.Version == 0 {
		stored.Version = 1
	}

	now := gotime.Now()
	superseded := false
	rawPrev, err := txn.First(
		tblDocuments, "owner_file_name",
		refKey.Showroom, refKey.OwnerID.String(), stored.FileName,
	)
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	if rawPrev != nil {
		prev := rawPrev.(*database.DocumentInfo)
		stored.ID = prev.ID
		stored.Version = prev.Version + 1
		superseded = true
	}

	if err := txn.Insert(tblDocuments, stored); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	updatedOwner := owner.DeepCopy()
	updatedOwner.ModifiedAt = nextModifiedAt(owner.ModifiedAt)
	if superseded {
		updatedOwner.LastDocumentUpdatedAt = now
	} else {
		updatedOwner.TotalDocuments++
		updatedOwner.LastDocumentAddedAt = now
	}
	if err := txn.Insert(tblOwners, updatedOwner); err != nil {
		return nil, fmt.Errorf("insert owner: %w", err)
	}
	txn.Commit()

	d.publish(database.OwnerEvent{Type: database.OwnerModified, Info: updatedOwner})
	return stored.DeepCopy(), nil
}

// CreateUserInfo creates a new user. It is not part of the Database
// interface; tests and standalone seeding use it.
func (d *DB) CreateUserInfo(
	_ context.Context,
	username string,
	displayName string,
) (*database.UserInfo, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	txn := d.db.Txn(true)
	defer txn.Abort()

	info := &database.UserInfo{
		ID:          types.ID(xid.New().String()),
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   gotime.Now(),
	}

	if err := txn.Insert(tblUsers, info); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// PutBlob stores a raw file entry for the owner. Like CreateUserInfo it only
// exists for tests and seeding.
func (d *DB) PutBlob(
	_ context.Context,
	refKey types.OwnerRefKey,
	info *database.BlobInfo,
) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	txn := d.db.Txn(true)
	defer txn.Abort()

	blob := *info
	record := &blobRecord{
		Showroom: refKey.Showroom,
		OwnerID:  refKey.OwnerID,
		Name:     info.Name,
		Info:     &blob,
	}

	if err := txn.Insert(tblBlobs, record); err != nil {
		return fmt.Errorf("insert blob: %w", err)
	}
	txn.Commit()

	return nil
}

// nextModifiedAt returns a timestamp strictly after prev. Two writes within
// the clock's resolution would otherwise produce equal ModifiedAt values and
// defeat staleness detection.
func nextModifiedAt(prev gotime.Time) gotime.Time {
	now := gotime.Now()
	if !now.After(prev) {
		return prev.Add(gotime.Millisecond)
	}
	return now
}
